package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/neoled/pixel"
	"github.com/coreman2200/neoled/strip"
)

type SPI struct {
	Dev     string `yaml:"dev,omitempty"`      // spireg name, e.g. SPI0.0; empty uses channel
	DataPin string `yaml:"data_pin,omitempty"` // MOSI, e.g. GPIO10; empty asks the port
}

type Serial struct {
	Dev       string `yaml:"dev"`  // e.g. /dev/ttyACM0
	Baud      int    `yaml:"baud"` // e.g. 921600
	EnablePin string `yaml:"enable_pin,omitempty"`
}

// Power bounds what the strip may draw. Zero values disable each limit.
type Power struct {
	LimitAmps   float64 `yaml:"limit_amps"`
	WhiteCap    float64 `yaml:"white_cap"`  // max R+G+B per LED, 0..3
	ChannelMA   float64 `yaml:"channel_ma"` // per channel at full scale; 0 is 20
	SoftStartMs int     `yaml:"soft_start_ms"`
}

type Console struct {
	Width int `yaml:"width"`
}

type Config struct {
	Adapter    string `yaml:"adapter"` // "spi" | "serial" | "console"
	LEDCount   int    `yaml:"led_count"`
	Pin        string `yaml:"pin"`
	Channel    int    `yaml:"channel"`
	SampleRate int    `yaml:"sample_rate"`
	ResetBytes int    `yaml:"reset_bytes"`
	SettleMs   int    `yaml:"settle_ms"`

	Brightness uint8   `yaml:"brightness"`
	Gamma      float64 `yaml:"gamma"` // 0 disables correction
	FPS        int     `yaml:"fps"`
	Pattern    string  `yaml:"pattern"`
	Color      string  `yaml:"color,omitempty"`

	Power   Power   `yaml:"power,omitempty"`
	SPI     SPI     `yaml:"spi,omitempty"`
	Serial  Serial  `yaml:"serial,omitempty"`
	Console Console `yaml:"console,omitempty"`
}

// Default is a one metre, 60 LED strip previewed in the terminal.
func Default() *Config {
	return &Config{
		Adapter:    "console",
		LEDCount:   60,
		Pin:        strip.DefaultPin,
		Channel:    strip.DefaultChannel,
		SampleRate: strip.DefaultSampleRate,
		ResetBytes: strip.DefaultResetBytes,
		SettleMs:   int(strip.DefaultSettleDelay / time.Millisecond),
		Brightness: strip.DefaultBrightness,
		Gamma:      pixel.DefaultGamma,
		FPS:        30,
		Pattern:    "rainbow",
		Console:    Console{Width: 100},
		Serial:     Serial{Baud: 921600},
	}
}

// Load reads path over Default, so a file only needs the keys it changes.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	switch c.Adapter {
	case "spi", "serial", "console":
	default:
		return fmt.Errorf("unknown adapter %q", c.Adapter)
	}
	if c.LEDCount <= 0 {
		return fmt.Errorf("led_count must be positive, got %d", c.LEDCount)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.ResetBytes <= 0 {
		return fmt.Errorf("reset_bytes must be positive, got %d", c.ResetBytes)
	}
	if c.SettleMs <= 0 {
		return fmt.Errorf("settle_ms must be positive, got %d", c.SettleMs)
	}
	if c.Gamma < 0 {
		return fmt.Errorf("gamma must not be negative, got %v", c.Gamma)
	}
	if c.Power.LimitAmps < 0 || c.Power.ChannelMA < 0 || c.Power.SoftStartMs < 0 {
		return fmt.Errorf("power limits must not be negative")
	}
	if c.Power.WhiteCap < 0 || c.Power.WhiteCap > 3 {
		return fmt.Errorf("power.white_cap must be within 0..3, got %v", c.Power.WhiteCap)
	}
	if c.Adapter == "serial" && c.Serial.Dev == "" {
		return fmt.Errorf("serial adapter needs serial.dev")
	}
	if c.Color != "" {
		if _, err := pixel.Lookup(c.Color); err != nil {
			return err
		}
	}
	return nil
}

// Strip converts c into a strip.Config.
func (c *Config) Strip() strip.Config {
	return strip.Config{
		NumPixels:   c.LEDCount,
		Pin:         c.Pin,
		Channel:     c.Channel,
		SampleRate:  c.SampleRate,
		ResetBytes:  c.ResetBytes,
		SettleDelay: time.Duration(c.SettleMs) * time.Millisecond,
	}
}
