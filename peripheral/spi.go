package peripheral

import (
	"io"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPI drives the strip from an SPI MOSI line, clocked so that one symbol
// byte covers two LED bits. On a Raspberry Pi that is /dev/spidev0.0 and
// GPIO10.
//
// The data line is the port's MOSI, so Config.Pin is ignored.
type SPI struct {
	// Dev is the spireg port name. Empty selects the port numbered
	// Config.Channel.
	Dev string
	// DataPin is the MOSI pin driven low on release. Empty asks the port
	// for its MOSI pin; a port that cannot tell leaves the line alone.
	DataPin string
	// Open replaces spireg for tests.
	Open func(name string) (spi.Port, error)
	// Pins replaces gpioreg for tests.
	Pins PinLookup
}

func openSPI(name string) (spi.Port, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "peripheral: host init")
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Acquire implements Adapter.
func (s *SPI) Acquire(cfg Config) (Port, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	name := s.Dev
	if name == "" {
		name = strconv.Itoa(cfg.Channel)
	}
	open := s.Open
	if open == nil {
		open = openSPI
	}

	p, err := open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "peripheral: open spi %q", name)
	}
	freq := physic.Frequency(cfg.BitClock()) * physic.Hertz
	c, err := p.Connect(freq, spi.Mode0, 8)
	if err != nil {
		closePort(p)
		return nil, errors.Wrapf(err, "peripheral: connect spi %q at %s", name, freq)
	}
	// A frame split over two transfers would put a reset gap mid-frame.
	if l, ok := c.(conn.Limits); ok {
		if lim := l.MaxTxSize(); lim > 0 && lim < cfg.FrameLen {
			closePort(p)
			return nil, errors.Errorf("peripheral: spi %q transfers at most %d bytes, frame needs %d", name, lim, cfg.FrameLen)
		}
	}

	pin := s.dataPin(p)
	log.Debug().
		Str("component", "peripheral").
		Str("port", name).
		Str("data_pin", pin).
		Stringer("freq", freq).
		Int("frame_len", cfg.FrameLen).
		Msg("spi acquired")
	return &spiPort{port: p, conn: c, pin: pin, pins: s.Pins}, nil
}

func (s *SPI) dataPin(p spi.Port) string {
	if s.DataPin != "" {
		return s.DataPin
	}
	if pp, ok := p.(spi.Pins); ok {
		if mosi := pp.MOSI(); mosi != nil && mosi != gpio.INVALID {
			return mosi.Name()
		}
	}
	return ""
}

type spiPort struct {
	mu       sync.Mutex
	port     spi.Port
	conn     spi.Conn
	pin      string
	pins     PinLookup
	released bool
}

func (p *spiPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return 0, errors.New("peripheral: spi released")
	}
	if err := p.conn.Tx(b, nil); err != nil {
		return 0, errors.Wrap(err, "peripheral: spi tx")
	}
	return len(b), nil
}

// ZeroAndFlush is a no-op: spidev transfers are synchronous and keep no
// staging buffer.
func (p *spiPort) ZeroAndFlush() error {
	return nil
}

func (p *spiPort) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil
	}
	p.released = true
	err := closePort(p.port)
	if perr := resetPin(p.pins, p.pin); perr != nil && err == nil {
		err = perr
	}
	return err
}

func closePort(p spi.Port) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
