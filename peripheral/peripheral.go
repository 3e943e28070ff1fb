// Package peripheral is the hardware boundary of the strip driver: a
// clocked serial output that accepts symbol bytes and blocks until they
// are sent.
package peripheral

import (
	"github.com/pkg/errors"
)

// Config is what a Port needs to be acquired.
type Config struct {
	// Pin names the data output, in periph gpioreg terms (e.g. "GPIO21").
	Pin string
	// Channel is the peripheral instance index.
	Channel int
	// SampleRate is the transmitter sample rate in Hz. The serial bit clock
	// is SampleRate * ClocksPerSample.
	SampleRate int
	// FrameLen is the largest single write the Port must accept.
	FrameLen int
}

// ClocksPerSample is 16 bit stereo framing: 32 bit clocks per sample.
const ClocksPerSample = 32

// BitClock returns the serial clock in Hz for c.
func (c Config) BitClock() int64 {
	return int64(c.SampleRate) * ClocksPerSample
}

// Validate checks c for values no Port could use.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.Errorf("peripheral: invalid sample rate %d", c.SampleRate)
	}
	if c.FrameLen <= 0 {
		return errors.Errorf("peripheral: invalid frame length %d", c.FrameLen)
	}
	return nil
}

// Adapter acquires exclusive use of a transmitter.
type Adapter interface {
	Acquire(cfg Config) (Port, error)
}

// Port is an acquired transmitter.
type Port interface {
	// Write blocks until all of b has been accepted, or fails.
	Write(b []byte) (int, error)
	// ZeroAndFlush clears any staging buffer between frames.
	ZeroAndFlush() error
	// Release gives the transmitter back and leaves the pin inert. Calling
	// it more than once is harmless.
	Release() error
}

// AdapterFunc lets a plain function act as an Adapter.
type AdapterFunc func(cfg Config) (Port, error)

// Acquire implements Adapter.
func (f AdapterFunc) Acquire(cfg Config) (Port, error) {
	return f(cfg)
}

// writeAll retries short writes, which serial drivers produce.
func writeAll(w interface{ Write([]byte) (int, error) }, b []byte) (int, error) {
	n := 0
	for n < len(b) {
		m, err := w.Write(b[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, errors.New("peripheral: short write")
		}
	}
	return n, nil
}
