package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/coreman2200/neoled/internal/config"
	"github.com/coreman2200/neoled/internal/pattern"
	"github.com/coreman2200/neoled/peripheral"
	"github.com/coreman2200/neoled/pixel"
	"github.com/coreman2200/neoled/strip"
)

var (
	configPath  = "neoled.yaml"
	adapterName = ""
	patternName = ""
	colorName   = ""
	brightness  uint8
	fps         int
	frames      int
	duration    time.Duration
	writeConfig = ""
	listOnly    = false
	verbose     = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "path to YAML config")
	pflag.StringVar(&adapterName, "adapter", adapterName, "adapter: spi | serial | console")
	pflag.StringVarP(&patternName, "pattern", "p", patternName, "pattern to play")
	pflag.StringVar(&colorName, "color", colorName, "color name or #rrggbb for single color patterns")
	pflag.Uint8VarP(&brightness, "brightness", "b", brightness, "global brightness 0..255")
	pflag.IntVar(&fps, "fps", fps, "frames per second")
	pflag.IntVarP(&frames, "frames", "n", frames, "stop after this many frames (0 runs forever)")
	pflag.DurationVarP(&duration, "duration", "d", duration, "stop after this long (0 runs forever)")
	pflag.StringVar(&writeConfig, "write-config", writeConfig, "write the effective config to this path and exit")
	pflag.BoolVarP(&listOnly, "list", "l", listOnly, "list patterns and exit")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	envErr := loadEnv(".env")
	if v := os.Getenv("NEOLED_CONFIG"); v != "" {
		configPath = v
	}
	if v := os.Getenv("NEOLED_ADAPTER"); v != "" {
		adapterName = v
	}
	pflag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	if envErr != nil {
		log.Warn().Err(envErr).Msg("ignoring .env")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("neoled")
	}
}

// loadEnv loads path into the environment. A missing file is not an error.
func loadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if writeConfig != "" {
		if err := config.Save(writeConfig, cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		log.Info().Str("path", writeConfig).Msg("config written")
		return nil
	}

	c := pixel.White
	if cfg.Color != "" {
		if c, err = pixel.Lookup(cfg.Color); err != nil {
			return err
		}
	}
	reg := pattern.Builtin(c)
	if listOnly {
		for _, name := range reg.List() {
			fmt.Println(name)
		}
		return nil
	}
	p, ok := reg.Get(cfg.Pattern)
	if !ok {
		return fmt.Errorf("unknown pattern %q (have %v)", cfg.Pattern, reg.List())
	}

	drv, err := strip.New(newAdapter(cfg), cfg.Strip())
	if err != nil {
		return err
	}
	if err := drv.Init(); err != nil {
		return err
	}
	defer func() {
		if err := drv.Destroy(); err != nil {
			log.Warn().Err(err).Msg("destroy")
		}
	}()
	drv.SetBrightness(cfg.Brightness)

	log.Info().
		Str("adapter", cfg.Adapter).
		Int("leds", cfg.LEDCount).
		Str("pin", drv.Pin()).
		Uint8("brightness", cfg.Brightness).
		Msg("strip ready")

	if duration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, duration)
		defer stop()
	}

	pl := &pattern.Player{
		Out:        drv,
		FPS:        cfg.FPS,
		Gamma:      cfg.Gamma,
		Limit:      newLimiter(cfg.Power),
		SoftStartS: float64(cfg.Power.SoftStartMs) / 1000,
		Frames:     frames,
	}

	// The player ends the group; the helpers only stop with it.
	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		return pl.Run(gctx, p)
	})
	g.Go(func() error {
		reportStats(done, pl, statsEvery)
		return nil
	})
	g.Go(func() error {
		reloadOnHangup(done, drv)
		return nil
	})
	return g.Wait()
}

const statsEvery = 10 * time.Second

// reportStats logs the achieved frame rate until done is closed.
func reportStats(done <-chan struct{}, pl *pattern.Player, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	last, at := pl.Sent(), time.Now()
	for {
		select {
		case <-done:
			log.Info().Int64("frames", pl.Sent()).Msg("stopped")
			return
		case now := <-t.C:
			n := pl.Sent()
			log.Info().
				Int64("frames", n).
				Float64("fps", float64(n-last)/now.Sub(at).Seconds()).
				Msg("stats")
			last, at = n, now
		}
	}
}

// reloadOnHangup re-reads the config file on SIGHUP and applies its
// brightness. Other keys need a restart.
func reloadOnHangup(done <-chan struct{}, drv *strip.Driver) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-done:
			return
		case <-hup:
			cfg, err := config.Load(configPath)
			if err != nil {
				log.Warn().Err(err).Str("path", configPath).Msg("reload")
				continue
			}
			drv.SetBrightness(cfg.Brightness)
			log.Info().Uint8("brightness", cfg.Brightness).Msg("reloaded")
		}
	}
}

func newLimiter(p config.Power) *pattern.Limiter {
	if p.LimitAmps <= 0 && p.WhiteCap <= 0 {
		return nil
	}
	return &pattern.Limiter{
		WhiteCap:  p.WhiteCap,
		ChannelMA: p.ChannelMA,
		BudgetMA:  p.LimitAmps * 1000,
	}
}

// loadConfig reads the config file when present and applies flags over it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", configPath).Msg("no config file; using defaults")
		cfg = config.Default()
	case err != nil:
		return nil, err
	}

	if adapterName != "" {
		cfg.Adapter = adapterName
	}
	if patternName != "" {
		cfg.Pattern = patternName
	}
	if colorName != "" {
		cfg.Color = colorName
	}
	if pflag.CommandLine.Changed("brightness") {
		cfg.Brightness = brightness
	}
	if fps > 0 {
		cfg.FPS = fps
	}
	return cfg, cfg.Validate()
}

func newAdapter(cfg *config.Config) peripheral.Adapter {
	switch cfg.Adapter {
	case "spi":
		return &peripheral.SPI{Dev: cfg.SPI.Dev, DataPin: cfg.SPI.DataPin}
	case "serial":
		return &peripheral.Serial{Dev: cfg.Serial.Dev, Baud: cfg.Serial.Baud, EnablePin: cfg.Serial.EnablePin}
	default:
		return &peripheral.Console{Width: cfg.Console.Width}
	}
}
