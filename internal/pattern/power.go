package pattern

import "github.com/coreman2200/neoled/pixel"

// DefaultChannelMA is the draw of one WS2812 channel at full scale.
const DefaultChannelMA = 20.0

// Limiter keeps a frame inside a per-LED white cap and a strip current
// budget. It runs after gamma, on the values the LEDs will actually show.
type Limiter struct {
	// WhiteCap bounds R+G+B of one LED, in full channels (0..3). Zero or
	// 3 and above leaves LEDs uncapped.
	WhiteCap float64
	// ChannelMA is the current of one channel at 255; zero uses
	// DefaultChannelMA.
	ChannelMA float64
	// BudgetMA is the strip budget. Zero disables it.
	BudgetMA float64
	// Knee is the fraction of BudgetMA where scaling starts; zero uses 0.9.
	Knee float64
}

// Apply limits frame in place. brightness is the scale the driver will
// apply on top, so it counts towards the estimated current.
func (l *Limiter) Apply(frame []pixel.Pixel, brightness uint8) {
	if l.WhiteCap > 0 && l.WhiteCap < 3 {
		limit := l.WhiteCap * 255
		for i, p := range frame {
			if s := float64(p.R) + float64(p.G) + float64(p.B); s > limit {
				frame[i] = scaled(p, limit/s)
			}
		}
	}

	if l.BudgetMA <= 0 {
		return
	}
	total := l.Estimate(frame, brightness)
	if total <= 0 {
		return
	}
	knee := l.Knee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}

	ratio := total / l.BudgetMA
	var s float64
	switch {
	case ratio <= knee:
		return
	case ratio <= 1:
		// ease from 1 at the knee down to budget/total at the budget
		t := (ratio - knee) / (1 - knee)
		s = 1 - t*(1-l.BudgetMA/total)
	default:
		s = l.BudgetMA / total
	}
	for i, p := range frame {
		frame[i] = scaled(p, s)
	}
}

// Estimate returns the current frame draws in mA at brightness.
func (l *Limiter) Estimate(frame []pixel.Pixel, brightness uint8) float64 {
	ma := l.ChannelMA
	if ma <= 0 {
		ma = DefaultChannelMA
	}
	var sum float64
	for _, p := range frame {
		sum += float64(p.R) + float64(p.G) + float64(p.B)
	}
	return sum / 255 * ma * float64(brightness) / 255
}

func scaled(p pixel.Pixel, s float64) pixel.Pixel {
	if s >= 1 {
		return p
	}
	return pixel.Pixel{
		G: uint8(float64(p.G) * s),
		R: uint8(float64(p.R) * s),
		B: uint8(float64(p.B) * s),
	}
}
