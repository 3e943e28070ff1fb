package encoder

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/neoled/pixel"
)

func TestEncodeGreenOnly(t *testing.T) {
	p := pixel.Pixel{G: 0xff, R: 0x00, B: 0x00}
	got := Encode(nil, []pixel.Pixel{p}, 255)
	require.Len(t, got, BytesPerPixel)

	want := []byte{
		0xee, 0xee, 0xee, 0xee,
		0x88, 0x88, 0x88, 0x88,
		0x88, 0x88, 0x88, 0x88,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeBitGroupsMSBFirst(t *testing.T) {
	// 0b00_01_10_11 for red, 0b11_10_01_00 for blue
	p := pixel.MakePixel(0x1b, 0x00, 0xe4)
	got := Encode(nil, []pixel.Pixel{p}, 255)
	want := []byte{
		0x88, 0x88, 0x88, 0x88,
		0x88, 0x8e, 0xe8, 0xee,
		0xee, 0xe8, 0x8e, 0x88,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeAppliesBrightness(t *testing.T) {
	frame := []pixel.Pixel{pixel.White, pixel.MakePixel(200, 100, 50)}
	scaled := []pixel.Pixel{
		pixel.MakePixelWithBrightness(255, 255, 255, 128),
		pixel.MakePixelWithBrightness(200, 100, 50, 128),
	}
	assert.Equal(t, Encode(nil, scaled, 255), Encode(nil, frame, 128))
	assert.Equal(t, bytes.Repeat([]byte{0x88}, 2*BytesPerPixel), Encode(nil, frame, 0))
}

func TestEncodeReusesAndOverwritesBuffer(t *testing.T) {
	buf := bytes.Repeat([]byte{0x55}, 3*BytesPerPixel)
	got := Encode(buf, []pixel.Pixel{pixel.Off, pixel.Off}, 255)
	require.Len(t, got, 2*BytesPerPixel)
	assert.Equal(t, &buf[0], &got[0])
	for i, b := range got {
		assert.Equal(t, byte(0x88), b, "byte %d", i)
	}
}

func TestEncodeEmptyFrame(t *testing.T) {
	assert.Empty(t, Encode(nil, nil, 255))
}

func TestDecodeRoundTrip(t *testing.T) {
	frame := []pixel.Pixel{
		pixel.Red, pixel.Green, pixel.Blue,
		pixel.MakePixel(1, 2, 3), pixel.MakePixel(0x80, 0x7f, 0xfe),
	}
	got, err := Decode(nil, Encode(nil, frame, 255))
	require.NoError(t, err)
	assert.Equal(t, frame, got)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, err := Decode(nil, make([]byte, 5))
	assert.ErrorIs(t, err, ErrLength)

	_, err = Decode(nil, make([]byte, 48))
	assert.ErrorIs(t, err, ErrSymbol)
}

func TestFrameLen(t *testing.T) {
	assert.Equal(t, 0, FrameLen(0))
	assert.Equal(t, 1200, FrameLen(100))
}

func BenchmarkEncode(b *testing.B) {
	frame := make([]pixel.Pixel, 300)
	for i := range frame {
		frame[i] = pixel.ColorWheel(uint8(i))
	}
	buf := make([]byte, FrameLen(len(frame)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = Encode(buf, frame, 200)
	}
}
