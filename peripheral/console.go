package peripheral

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/neoled/encoder"
	"github.com/coreman2200/neoled/pixel"
)

// Console previews frames in the terminal instead of driving LEDs. Symbol
// writes are decoded back to pixels and drawn as one row; the all-zero
// reset trailer counts as a latch.
type Console struct {
	// Width is the terminal width handed to the screen drawer.
	Width int
	// Drawer replaces the terminal screen for tests.
	Drawer display.Drawer
}

// Acquire implements Adapter.
func (c *Console) Acquire(cfg Config) (Port, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := c.Drawer
	if d == nil {
		w := c.Width
		if w <= 0 {
			w = 100
		}
		d = screen.New(w)
	}
	return &ConsolePort{drawer: d}, nil
}

// ConsolePort is the Port returned by Console.
type ConsolePort struct {
	mu       sync.Mutex
	drawer   display.Drawer
	pixels   []pixel.Pixel
	img      *image.NRGBA
	frames   int
	latches  int
	released bool
}

// Write implements Port.
func (p *ConsolePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return 0, errors.New("peripheral: console released")
	}
	if isZero(b) {
		p.latches++
		return len(b), nil
	}
	px, err := encoder.Decode(p.pixels, b)
	if err != nil {
		return 0, errors.Wrap(err, "peripheral: console decode")
	}
	p.pixels = px
	p.frames++

	if p.img == nil || p.img.Rect.Dx() != len(px) {
		p.img = image.NewNRGBA(image.Rect(0, 0, len(px), 1))
	}
	for i, v := range px {
		p.img.SetNRGBA(i, 0, v.NRGBA())
	}
	if err := p.drawer.Draw(p.drawer.Bounds(), p.img, image.Point{}); err != nil {
		return 0, errors.Wrap(err, "peripheral: console draw")
	}
	log.Debug().
		Str("component", "peripheral").
		Int("frame", p.frames).
		Int("pixels", len(px)).
		Msg("console frame")
	return len(b), nil
}

// ZeroAndFlush implements Port.
func (p *ConsolePort) ZeroAndFlush() error {
	return nil
}

// Release implements Port.
func (p *ConsolePort) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil
	}
	p.released = true
	return p.drawer.Halt()
}

// Frames returns the last decoded frame and the frame and latch counts.
func (p *ConsolePort) Frames() (last []pixel.Pixel, frames, latches int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pixel.Pixel(nil), p.pixels...), p.frames, p.latches
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return len(b) > 0
}
