// Package strip drives a chain of WS2812 LEDs through a peripheral.Adapter.
//
// A Driver moves between two states. Init acquires the peripheral and
// blanks the strip; Destroy blanks it again and gives the peripheral back.
// Each Update encodes a frame, writes it, writes the reset trailer that
// holds the line low long enough for the LEDs to latch, and then waits for
// the settle delay before returning.
package strip

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/neoled/encoder"
	"github.com/coreman2200/neoled/peripheral"
	"github.com/coreman2200/neoled/pixel"
)

const (
	DefaultPin        = "GPIO21"
	DefaultChannel    = 0
	DefaultSampleRate = 93750
	// DefaultResetBytes of zeros at 3 MHz hold the line low for 128µs,
	// past the 50µs (WS2812) and 80µs (SK6812) reset minimums.
	DefaultResetBytes = 48
	// DefaultSettleDelay is the wait after each frame.
	DefaultSettleDelay = 10 * time.Millisecond
	DefaultBrightness  = 255

	// MaxFrameBytes bounds the symbol buffer allocated by New.
	MaxFrameBytes = 16 << 20
)

// Config sizes a Driver. Zero fields take the defaults above.
type Config struct {
	NumPixels   int
	Pin         string
	Channel     int
	SampleRate  int
	ResetBytes  int
	SettleDelay time.Duration

	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

func (c *Config) setDefaults() {
	if c.Pin == "" {
		c.Pin = DefaultPin
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.ResetBytes == 0 {
		c.ResetBytes = DefaultResetBytes
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
}

// Driver owns one strip and the peripheral behind it.
//
// All methods lock the Driver, and a transmission holds the lock until its
// settle delay is over, so concurrent callers are serialised rather than
// interleaved on the wire.
type Driver struct {
	mu      sync.Mutex
	adapter peripheral.Adapter
	cfg     Config
	log     zerolog.Logger

	port        peripheral.Port
	initialized bool
	brightness  uint8
	pin         string

	symbols []byte
	trailer []byte
	blank   []pixel.Pixel
}

// New sizes a Driver for cfg.NumPixels LEDs. It does not touch the
// hardware; call Init.
func New(a peripheral.Adapter, cfg Config) (*Driver, error) {
	if a == nil {
		return nil, wrap(ErrInvalidParameter, "nil adapter", nil)
	}
	if cfg.NumPixels <= 0 {
		return nil, wrap(ErrInvalidParameter, "pixel count must be positive", nil)
	}
	if cfg.ResetBytes < 0 || cfg.SampleRate < 0 {
		return nil, wrap(ErrInvalidParameter, "negative timing constant", nil)
	}
	if cfg.NumPixels > MaxFrameBytes/encoder.BytesPerPixel {
		return nil, wrap(ErrNoMemory, "symbol buffer", nil)
	}
	cfg.setDefaults()

	l := log.Logger
	if cfg.Logger != nil {
		l = *cfg.Logger
	}

	return &Driver{
		adapter:    a,
		cfg:        cfg,
		log:        l.With().Str("component", "strip").Logger(),
		brightness: DefaultBrightness,
		symbols:    make([]byte, encoder.FrameLen(cfg.NumPixels)),
		trailer:    make([]byte, cfg.ResetBytes),
		blank:      make([]pixel.Pixel, cfg.NumPixels),
	}, nil
}

// Init acquires the peripheral on the configured pin.
func (d *Driver) Init() error {
	return d.InitWithPin(d.cfg.Pin)
}

// InitWithPin acquires the peripheral on pin and blanks the strip. Calling
// it on an initialized Driver does nothing.
func (d *Driver) InitWithPin(pin string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		d.log.Warn().Str("pin", d.pin).Msg("already initialized")
		return nil
	}
	if pin == "" {
		pin = d.cfg.Pin
	}

	frameLen := len(d.symbols)
	if len(d.trailer) > frameLen {
		frameLen = len(d.trailer)
	}
	port, err := d.adapter.Acquire(peripheral.Config{
		Pin:        pin,
		Channel:    d.cfg.Channel,
		SampleRate: d.cfg.SampleRate,
		FrameLen:   frameLen,
	})
	if err != nil {
		return wrap(ErrInit, "acquire "+pin, err)
	}

	d.port = port
	d.pin = pin
	d.initialized = true

	if err := d.send(d.blank, 0); err != nil {
		if rerr := port.Release(); rerr != nil {
			d.log.Warn().Err(rerr).Msg("release after failed init")
		}
		d.port, d.pin, d.initialized = nil, "", false
		return wrap(ErrInit, "blank strip", err)
	}

	d.log.Info().
		Str("pin", pin).
		Int("pixels", d.cfg.NumPixels).
		Int("sample_rate", d.cfg.SampleRate).
		Msg("strip initialized")
	return nil
}

// Update sends frame at the driver brightness.
func (d *Driver) Update(frame []pixel.Pixel) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update(frame, d.brightness)
}

// UpdateWithBrightness sends frame scaled by brightness, ignoring the
// driver brightness.
func (d *Driver) UpdateWithBrightness(frame []pixel.Pixel, brightness uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update(frame, brightness)
}

// Clear turns every LED off.
func (d *Driver) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update(d.blank, 0)
}

// Destroy blanks the strip and releases the peripheral. A failed blank is
// logged and teardown continues. Calling it on an uninitialized Driver
// does nothing.
func (d *Driver) Destroy() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil
	}
	if err := d.update(d.blank, 0); err != nil {
		d.log.Warn().Err(err).Msg("clear before destroy")
	}
	err := d.port.Release()
	pin := d.pin
	d.reset()
	if err != nil {
		return wrap(ErrPeripheral, "release", err)
	}
	d.log.Info().Str("pin", pin).Msg("strip destroyed")
	return nil
}

// IsInitialized reports whether Init has succeeded since the last Destroy.
func (d *Driver) IsInitialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

// SetBrightness sets the scale used by Update from the next call on.
func (d *Driver) SetBrightness(b uint8) {
	d.mu.Lock()
	d.brightness = b
	d.mu.Unlock()
}

// Brightness returns the scale used by Update.
func (d *Driver) Brightness() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.brightness
}

// NumPixels is the frame length Update expects.
func (d *Driver) NumPixels() int {
	return d.cfg.NumPixels
}

// Pin returns the pin acquired by Init, or "" when not initialized.
func (d *Driver) Pin() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pin
}

func (d *Driver) update(frame []pixel.Pixel, brightness uint8) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if frame == nil {
		return wrap(ErrInvalidParameter, "nil frame", nil)
	}
	if len(frame) != d.cfg.NumPixels {
		return wrap(ErrInvalidParameter, fmt.Sprintf("frame has %d pixels, strip has %d", len(frame), d.cfg.NumPixels), nil)
	}
	return d.send(frame, brightness)
}

// send runs one transmission: symbols, reset trailer, settle, flush.
func (d *Driver) send(frame []pixel.Pixel, brightness uint8) error {
	d.symbols = encoder.Encode(d.symbols, frame, brightness)

	if err := d.write(d.symbols); err != nil {
		return wrap(ErrPeripheral, "write frame", err)
	}
	if err := d.write(d.trailer); err != nil {
		return wrap(ErrPeripheral, "write reset", err)
	}
	d.cfg.Sleep(d.cfg.SettleDelay)
	if err := d.port.ZeroAndFlush(); err != nil {
		return wrap(ErrPeripheral, "flush", err)
	}
	return nil
}

func (d *Driver) write(b []byte) error {
	n, err := d.port.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return errShortWrite
	}
	return nil
}

func (d *Driver) reset() {
	d.port = nil
	d.pin = ""
	d.initialized = false
	d.brightness = DefaultBrightness
}
