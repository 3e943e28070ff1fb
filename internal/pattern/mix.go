package pattern

import "github.com/coreman2200/neoled/pixel"

// Mix blends two frames into dst; amount 0 is a, 255 is b.
func Mix(dst, a, b []pixel.Pixel, amount uint8) {
	if amount == 0 {
		copy(dst, a)
		return
	}
	if amount == 255 {
		copy(dst, b)
		return
	}
	for i := range dst {
		dst[i] = pixel.Blend(a[i], b[i], amount)
	}
}

// Crossfade plays From, then blends to To over FadeS seconds starting at
// AtS.
type Crossfade struct {
	From, To Pattern
	AtS      float64
	FadeS    float64

	a, b []pixel.Pixel
}

func (c *Crossfade) Name() string { return c.From.Name() + ">" + c.To.Name() }

func (c *Crossfade) Render(dst []pixel.Pixel, t float64) {
	switch {
	case t < c.AtS:
		c.From.Render(dst, t)
		return
	case t >= c.AtS+c.FadeS:
		c.To.Render(dst, t)
		return
	}
	if len(c.a) != len(dst) {
		c.a = make([]pixel.Pixel, len(dst))
		c.b = make([]pixel.Pixel, len(dst))
	}
	c.From.Render(c.a, t)
	c.To.Render(c.b, t)
	Mix(dst, c.a, c.b, uint8((t-c.AtS)/c.FadeS*255))
}
