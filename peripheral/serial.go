package peripheral

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tarm/serial"
)

// DefaultBaud suits common USB CDC bridges.
const DefaultBaud = 921600

// SerialConn is the part of *serial.Port a Serial adapter uses. Port.Flush
// is left out: it discards queued output, and a frame is still queued in
// the tty long after Write returns.
type SerialConn interface {
	Write(b []byte) (int, error)
	Close() error
}

// Serial hands symbol bytes to a microcontroller over a UART or USB
// serial link; the microcontroller replays them on its own clocked
// output. Timing and the data pin are the bridge's job, so SampleRate is
// only logged and Config.Pin is ignored.
type Serial struct {
	Dev  string // e.g. /dev/ttyACM0
	Baud int
	// EnablePin is an optional host GPIO (bridge enable, level shifter OE)
	// driven low on release.
	EnablePin string
	// Open replaces serial.OpenPort for tests.
	Open func(c *serial.Config) (SerialConn, error)
	// Pins replaces gpioreg for tests.
	Pins PinLookup
}

func openSerial(c *serial.Config) (SerialConn, error) {
	p, err := serial.OpenPort(c)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Acquire implements Adapter.
func (s *Serial) Acquire(cfg Config) (Port, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s.Dev == "" {
		return nil, errors.New("peripheral: serial device not set")
	}
	baud := s.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}
	open := s.Open
	if open == nil {
		open = openSerial
	}
	c, err := open(&serial.Config{Name: s.Dev, Baud: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "peripheral: open serial %s", s.Dev)
	}
	log.Debug().
		Str("component", "peripheral").
		Str("dev", s.Dev).
		Int("baud", baud).
		Int("sample_rate", cfg.SampleRate).
		Msg("serial bridge acquired")
	return &serialPort{conn: c, pin: s.EnablePin, pins: s.Pins}, nil
}

type serialPort struct {
	mu       sync.Mutex
	conn     SerialConn
	pin      string
	pins     PinLookup
	released bool
}

func (p *serialPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return 0, errors.New("peripheral: serial released")
	}
	n, err := writeAll(p.conn, b)
	if err != nil {
		return n, errors.Wrap(err, "peripheral: serial write")
	}
	return n, nil
}

// ZeroAndFlush only checks the port. The bridge owns its staging buffer and
// the tty drains on its own.
func (p *serialPort) ZeroAndFlush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return errors.New("peripheral: serial released")
	}
	return nil
}

func (p *serialPort) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil
	}
	p.released = true
	err := errors.Wrap(p.conn.Close(), "peripheral: serial close")
	if perr := resetPin(p.pins, p.pin); perr != nil && err == nil {
		err = perr
	}
	return err
}
