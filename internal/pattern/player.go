package pattern

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/neoled/pixel"
)

// Output is the strip side of a Player; *strip.Driver satisfies it.
type Output interface {
	NumPixels() int
	Update(frame []pixel.Pixel) error
}

// Player renders a Pattern into an Output at a fixed frame rate.
type Player struct {
	Out   Output
	FPS   int
	Gamma float64 // 0 leaves frames uncorrected
	// Limit runs after gamma when set.
	Limit *Limiter
	// SoftStartS ramps output up from black over that many seconds.
	SoftStartS float64
	// Frames stops the player after that many frames; 0 runs until the
	// context is done.
	Frames int

	now  func() time.Time
	sent atomic.Int64
}

// Sent is the number of frames delivered so far. Safe to call while Run is
// going.
func (pl *Player) Sent() int64 {
	return pl.sent.Load()
}

// Run plays p until ctx is done, Frames have been sent, or an update fails.
func (pl *Player) Run(ctx context.Context, p Pattern) error {
	fps := pl.FPS
	if fps <= 0 {
		fps = 30
	}
	now := pl.now
	if now == nil {
		now = time.Now
	}

	frame := make([]pixel.Pixel, pl.Out.NumPixels())
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	start := now()
	sent := 0
	log.Info().Str("pattern", p.Name()).Int("fps", fps).Msg("playing")
	for {
		t := now().Sub(start).Seconds()
		p.Render(frame, t)
		if pl.Gamma > 0 {
			pixel.GammaFrame(frame, pl.Gamma)
		}
		if pl.SoftStartS > 0 && t < pl.SoftStartS {
			s := t / pl.SoftStartS
			for i := range frame {
				frame[i] = scaled(frame[i], s)
			}
		}
		if pl.Limit != nil {
			pl.Limit.Apply(frame, pl.brightness())
		}
		if err := pl.Out.Update(frame); err != nil {
			return err
		}
		pl.sent.Add(1)
		sent++
		if pl.Frames > 0 && sent >= pl.Frames {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (pl *Player) brightness() uint8 {
	if b, ok := pl.Out.(interface{ Brightness() uint8 }); ok {
		return b.Brightness()
	}
	return 255
}
