package pattern

import "github.com/coreman2200/neoled/pixel"

// Sweep lights one LED at a time, advancing every StepS seconds, so the
// physical order of the strip can be checked against frame indices.
type Sweep struct {
	Color pixel.Pixel
	StepS float64
}

func (s *Sweep) Name() string { return "sweep" }

func (s *Sweep) Render(dst []pixel.Pixel, t float64) {
	for i := range dst {
		dst[i] = pixel.Off
	}
	if len(dst) == 0 {
		return
	}
	dst[step(t, s.StepS)%len(dst)] = s.Color
}

// Channels shows all red, then all green, then all blue for StepS seconds
// each. A strip that shows green first is being fed RGB, not GRB.
type Channels struct {
	StepS float64
}

func (c *Channels) Name() string { return "channels" }

func (c *Channels) Render(dst []pixel.Pixel, t float64) {
	var p pixel.Pixel
	switch step(t, c.StepS) % 3 {
	case 0:
		p = pixel.Red
	case 1:
		p = pixel.Green
	case 2:
		p = pixel.Blue
	}
	for i := range dst {
		dst[i] = p
	}
}

func step(t, stepS float64) int {
	if stepS <= 0 || t < 0 {
		return 0
	}
	return int(t / stepS)
}
