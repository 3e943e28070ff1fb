package strip

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/neoled/encoder"
	"github.com/coreman2200/neoled/peripheral"
	"github.com/coreman2200/neoled/peripheral/fake"
	"github.com/coreman2200/neoled/pixel"
)

type sleeps struct {
	mu sync.Mutex
	d  []time.Duration
}

func (s *sleeps) sleep(d time.Duration) {
	s.mu.Lock()
	s.d = append(s.d, d)
	s.mu.Unlock()
}

func newDriver(t *testing.T, n int) (*Driver, *fake.Adapter, *sleeps) {
	t.Helper()
	a := &fake.Adapter{}
	s := &sleeps{}
	nop := zerolog.Nop()
	d, err := New(a, Config{NumPixels: n, Logger: &nop, Sleep: s.sleep})
	require.NoError(t, err)
	return d, a, s
}

func rainbow(n int) []pixel.Pixel {
	f := make([]pixel.Pixel, n)
	for i := range f {
		f[i] = pixel.ColorWheel(uint8(i * 37))
	}
	return f
}

func TestNewValidates(t *testing.T) {
	_, err := New(&fake.Adapter{}, Config{NumPixels: 0})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = New(nil, Config{NumPixels: 3})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = New(&fake.Adapter{}, Config{NumPixels: MaxFrameBytes})
	assert.ErrorIs(t, err, ErrNoMemory)
}

func TestUpdateBeforeInit(t *testing.T) {
	d, a, _ := newDriver(t, 4)
	assert.False(t, d.IsInitialized())

	err := d.Update(rainbow(4))
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, d.UpdateWithBrightness(rainbow(4), 3), ErrNotInitialized)
	assert.ErrorIs(t, d.Clear(), ErrNotInitialized)
	assert.Equal(t, 0, a.WriteCount())
	assert.Empty(t, a.Acquired)
}

func TestInitAcquiresAndBlanks(t *testing.T) {
	d, a, s := newDriver(t, 2)
	require.NoError(t, d.Init())
	assert.True(t, d.IsInitialized())
	assert.Equal(t, DefaultPin, d.Pin())

	require.Len(t, a.Acquired, 1)
	assert.Equal(t, peripheral.Config{
		Pin:        DefaultPin,
		Channel:    DefaultChannel,
		SampleRate: DefaultSampleRate,
		FrameLen:   DefaultResetBytes,
	}, a.Acquired[0])

	require.Len(t, a.Writes, 2)
	assert.Equal(t, bytes.Repeat([]byte{0x88}, 2*encoder.BytesPerPixel), a.Writes[0])
	assert.Equal(t, make([]byte, DefaultResetBytes), a.Writes[1])
	assert.Equal(t, 1, a.Flushes)
	assert.Equal(t, []time.Duration{DefaultSettleDelay}, s.d)
}

func TestInitTwiceIsNoop(t *testing.T) {
	d, a, _ := newDriver(t, 3)
	require.NoError(t, d.Init())
	require.NoError(t, d.Init())
	assert.True(t, d.IsInitialized())
	assert.Len(t, a.Acquired, 1)
	assert.Equal(t, 2, a.WriteCount())
}

func TestInitWithPin(t *testing.T) {
	d, a, _ := newDriver(t, 3)
	require.NoError(t, d.InitWithPin("GPIO18"))
	assert.Equal(t, "GPIO18", a.Acquired[0].Pin)
	assert.Equal(t, "GPIO18", d.Pin())
}

func TestInitAcquireFailure(t *testing.T) {
	d, a, _ := newDriver(t, 3)
	boom := errors.New("no i2s")
	a.AcquireErr = boom

	err := d.Init()
	assert.ErrorIs(t, err, ErrInit)
	assert.ErrorIs(t, err, boom)
	assert.False(t, d.IsInitialized())
	assert.ErrorIs(t, d.Update(rainbow(3)), ErrNotInitialized)
}

func TestInitBlankFailureReleases(t *testing.T) {
	d, a, _ := newDriver(t, 3)
	a.WriteErr = errors.New("dma stuck")

	err := d.Init()
	assert.ErrorIs(t, err, ErrInit)
	assert.ErrorIs(t, err, ErrPeripheral)
	assert.False(t, d.IsInitialized())
	assert.False(t, a.Held)
	assert.Equal(t, 1, a.Releases)
}

func TestUpdateWritesFrameThenTrailer(t *testing.T) {
	d, a, s := newDriver(t, 3)
	require.NoError(t, d.Init())
	a.Reset()

	frame := rainbow(3)
	require.NoError(t, d.Update(frame))
	require.Len(t, a.Writes, 2)
	assert.Equal(t, encoder.Encode(nil, frame, 255), a.Writes[0])
	assert.Equal(t, make([]byte, DefaultResetBytes), a.Writes[1])
	assert.Equal(t, 1, a.Flushes)
	assert.Len(t, s.d, 2)
}

func TestUpdateRejectsBadFrames(t *testing.T) {
	d, a, _ := newDriver(t, 3)
	require.NoError(t, d.Init())
	a.Reset()

	assert.ErrorIs(t, d.Update(nil), ErrInvalidParameter)
	assert.ErrorIs(t, d.Update(rainbow(2)), ErrInvalidParameter)
	assert.ErrorIs(t, d.UpdateWithBrightness(rainbow(4), 10), ErrInvalidParameter)
	assert.Equal(t, 0, a.WriteCount())
}

func TestSetBrightnessMatchesExplicitBrightness(t *testing.T) {
	d, a, _ := newDriver(t, 5)
	require.NoError(t, d.Init())
	frame := rainbow(5)

	require.NoError(t, d.UpdateWithBrightness(frame, 128))
	explicit := a.LastFrame()

	d.SetBrightness(128)
	assert.Equal(t, uint8(128), d.Brightness())
	require.NoError(t, d.Update(frame))
	assert.Equal(t, explicit, a.LastFrame())

	// an explicit brightness does not change the driver brightness
	require.NoError(t, d.UpdateWithBrightness(frame, 7))
	assert.Equal(t, uint8(128), d.Brightness())
}

func TestClearSendsDarkFrame(t *testing.T) {
	d, a, _ := newDriver(t, 4)
	require.NoError(t, d.Init())
	require.NoError(t, d.Update(rainbow(4)))

	require.NoError(t, d.Clear())
	require.NoError(t, d.Clear())
	assert.Equal(t, bytes.Repeat([]byte{0x88}, 4*encoder.BytesPerPixel), a.LastFrame())
	assert.True(t, d.IsInitialized())
}

func TestSymbolBufferHasNoStaleBytes(t *testing.T) {
	d, a, _ := newDriver(t, 2)
	require.NoError(t, d.Init())
	require.NoError(t, d.Update([]pixel.Pixel{pixel.White, pixel.White}))
	require.NoError(t, d.Update([]pixel.Pixel{pixel.Off, pixel.Red}))

	got, err := encoder.Decode(nil, a.LastFrame())
	require.NoError(t, err)
	assert.Equal(t, []pixel.Pixel{pixel.Off, pixel.Red}, got)
}

func TestWriteFailureKeepsDriverReady(t *testing.T) {
	d, a, _ := newDriver(t, 2)
	require.NoError(t, d.Init())

	boom := errors.New("underrun")
	a.WriteErr = boom
	err := d.Update(rainbow(2))
	assert.ErrorIs(t, err, ErrPeripheral)
	assert.ErrorIs(t, err, boom)
	assert.True(t, d.IsInitialized())

	a.WriteErr = nil
	assert.NoError(t, d.Update(rainbow(2)))
}

func TestFlushFailure(t *testing.T) {
	d, a, _ := newDriver(t, 2)
	require.NoError(t, d.Init())
	a.FlushErr = errors.New("flush")
	assert.ErrorIs(t, d.Update(rainbow(2)), ErrPeripheral)
}

func TestDestroy(t *testing.T) {
	d, a, _ := newDriver(t, 3)
	require.NoError(t, d.Init())
	d.SetBrightness(10)

	require.NoError(t, d.Destroy())
	assert.False(t, d.IsInitialized())
	assert.False(t, a.Held)
	assert.Equal(t, 1, a.Releases)
	assert.Equal(t, "", d.Pin())
	assert.Equal(t, uint8(DefaultBrightness), d.Brightness())
	assert.Equal(t, bytes.Repeat([]byte{0x88}, 3*encoder.BytesPerPixel), a.LastFrame())

	require.NoError(t, d.Destroy())
	assert.False(t, d.IsInitialized())
	assert.Equal(t, 1, a.Releases)
}

func TestDestroyBeforeInit(t *testing.T) {
	d, a, _ := newDriver(t, 3)
	assert.NoError(t, d.Destroy())
	assert.Equal(t, 0, a.Releases)
}

func TestDestroyProceedsWhenClearFails(t *testing.T) {
	d, a, _ := newDriver(t, 3)
	require.NoError(t, d.Init())
	a.WriteErr = errors.New("gone")

	assert.NoError(t, d.Destroy())
	assert.False(t, d.IsInitialized())
	assert.Equal(t, 1, a.Releases)
}

func TestDestroyReportsReleaseFailure(t *testing.T) {
	d, a, _ := newDriver(t, 3)
	require.NoError(t, d.Init())
	a.ReleaseErr = errors.New("busy")

	assert.ErrorIs(t, d.Destroy(), ErrPeripheral)
	assert.False(t, d.IsInitialized())
}

func TestReinitAfterDestroy(t *testing.T) {
	d, a, _ := newDriver(t, 3)
	require.NoError(t, d.Init())
	require.NoError(t, d.Destroy())
	require.NoError(t, d.Init())
	assert.True(t, d.IsInitialized())
	assert.Len(t, a.Acquired, 2)
}

func TestCustomTiming(t *testing.T) {
	a := &fake.Adapter{}
	s := &sleeps{}
	nop := zerolog.Nop()
	d, err := New(a, Config{
		NumPixels:   1,
		SampleRate:  100000,
		ResetBytes:  64,
		SettleDelay: time.Millisecond,
		Logger:      &nop,
		Sleep:       s.sleep,
	})
	require.NoError(t, err)
	require.NoError(t, d.Init())
	assert.Equal(t, 100000, a.Acquired[0].SampleRate)
	assert.Equal(t, 64, a.Acquired[0].FrameLen)
	assert.Len(t, a.Writes[1], 64)
	assert.Equal(t, []time.Duration{time.Millisecond}, s.d)
}

func TestConcurrentUpdatesSerialise(t *testing.T) {
	d, a, _ := newDriver(t, 8)
	require.NoError(t, d.Init())
	a.Reset()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, d.UpdateWithBrightness(rainbow(8), uint8(i*30)))
		}(i)
	}
	wg.Wait()

	require.Len(t, a.Writes, 16)
	for i := 0; i < len(a.Writes); i += 2 {
		assert.Len(t, a.Writes[i], 8*encoder.BytesPerPixel)
		assert.Equal(t, make([]byte, DefaultResetBytes), a.Writes[i+1])
	}
}
