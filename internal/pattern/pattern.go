// Package pattern generates frames for a strip.
package pattern

import (
	"math"
	"sort"

	"github.com/coreman2200/neoled/pixel"
)

// Pattern fills dst with the frame for time t (seconds since start).
type Pattern interface {
	Name() string
	Render(dst []pixel.Pixel, t float64)
}

type Registry struct{ m map[string]Pattern }

func NewRegistry() *Registry { return &Registry{m: map[string]Pattern{}} }

func (r *Registry) Register(p Pattern) {
	if p == nil {
		return
	}
	r.m[p.Name()] = p
}

func (r *Registry) Get(name string) (Pattern, bool) { p, ok := r.m[name]; return p, ok }

func (r *Registry) List() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Builtin returns a registry holding every pattern below, with c as the
// color of the single color ones.
func Builtin(c pixel.Pixel) *Registry {
	reg := NewRegistry()
	reg.Register(&Solid{Color: c})
	reg.Register(&Rainbow{Speed: 0.25})
	reg.Register(&Gradient{From: pixel.HueRed, Spread: 255, Speed: 0.1})
	reg.Register(&Breathe{Color: c, PeriodS: 4})
	reg.Register(&Sweep{Color: c, StepS: 0.05})
	reg.Register(&Channels{StepS: 1})
	return reg
}

// Solid fills the strip with one color.
type Solid struct {
	Color pixel.Pixel
}

func (s *Solid) Name() string { return "solid" }

func (s *Solid) Render(dst []pixel.Pixel, _ float64) {
	for i := range dst {
		dst[i] = s.Color
	}
}

// Rainbow spreads ColorWheel over the strip and turns it Speed times a
// second.
type Rainbow struct {
	Speed float64
}

func (r *Rainbow) Name() string { return "rainbow" }

func (r *Rainbow) Render(dst []pixel.Pixel, t float64) {
	off := phase(t, r.Speed)
	for i := range dst {
		dst[i] = pixel.ColorWheel(uint8(i*256/len(dst)) + off)
	}
}

// Gradient runs FromHSV hues across the strip, starting at From and
// covering Spread hue steps.
type Gradient struct {
	From   uint8
	Spread int
	Speed  float64
}

func (g *Gradient) Name() string { return "gradient" }

func (g *Gradient) Render(dst []pixel.Pixel, t float64) {
	off := phase(t, g.Speed)
	for i := range dst {
		h := g.From + uint8(i*g.Spread/len(dst)) + off
		dst[i] = pixel.FromHSV(h, 255, 255)
	}
}

// Breathe fades Color up and down once per PeriodS.
type Breathe struct {
	Color   pixel.Pixel
	PeriodS float64
}

func (b *Breathe) Name() string { return "breathe" }

func (b *Breathe) Render(dst []pixel.Pixel, t float64) {
	level := uint8(255)
	if b.PeriodS > 0 {
		level = uint8(math.Round(127.5 - 127.5*math.Cos(2*math.Pi*t/b.PeriodS)))
	}
	c := pixel.MakePixelWithBrightness(b.Color.R, b.Color.G, b.Color.B, level)
	for i := range dst {
		dst[i] = c
	}
}

func phase(t, speed float64) uint8 {
	return uint8(int64(t*speed*256) & 0xff)
}
