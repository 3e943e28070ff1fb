// Package pixel holds the color values fed to a WS2812 strip and the
// integer color math used to build them.
package pixel

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Pixel is one WS2812 LED. Fields are declared in wire order: the LEDs
// shift in green, then red, then blue.
type Pixel struct {
	G uint8
	R uint8
	B uint8
}

// PixelW is the four channel (RGBW) shape. Nothing encodes it yet.
type PixelW struct {
	G uint8
	R uint8
	B uint8
	W uint8
}

// MakePixel builds a Pixel from red, green and blue.
func MakePixel(r, g, b uint8) Pixel {
	return Pixel{G: g, R: r, B: b}
}

// MakePixelWithBrightness builds a Pixel with every channel scaled by
// brightness/255, truncating.
func MakePixelWithBrightness(r, g, b, brightness uint8) Pixel {
	return Pixel{
		G: scale(g, brightness),
		R: scale(r, brightness),
		B: scale(b, brightness),
	}
}

func scale(c, brightness uint8) uint8 {
	return uint8(uint16(c) * uint16(brightness) / 255)
}

// HexValue packs p as 0xRRGGBB.
func HexValue(p Pixel) uint32 {
	return uint32(p.R)<<16 | uint32(p.G)<<8 | uint32(p.B)
}

// FromHex unpacks a 0xRRGGBB value. Bits above 24 are ignored.
func FromHex(hex uint32) Pixel {
	return Pixel{
		G: uint8(hex >> 8),
		R: uint8(hex >> 16),
		B: uint8(hex),
	}
}

// RGBValue is the older name of FromHex.
func RGBValue(hex uint32) Pixel {
	return FromHex(hex)
}

// ParseHex parses "#rrggbb" (the leading '#' is optional).
func ParseHex(s string) (Pixel, error) {
	if len(s) > 0 && s[0] != '#' {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Pixel{}, fmt.Errorf("pixel: parse %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return MakePixel(r, g, b), nil
}

// Blend interpolates each channel from a (amount 0) towards b (amount 255).
func Blend(a, b Pixel, amount uint8) Pixel {
	return Pixel{
		G: lerp(a.G, b.G, amount),
		R: lerp(a.R, b.R, amount),
		B: lerp(a.B, b.B, amount),
	}
}

func lerp(a, b, amount uint8) uint8 {
	return uint8((uint32(a)*uint32(255-amount) + uint32(b)*uint32(amount)) / 255)
}

// RGBA implements color.Color. Pixels are always opaque.
func (p Pixel) RGBA() (r, g, b, a uint32) {
	r = uint32(p.R)
	r |= r << 8
	g = uint32(p.G)
	g |= g << 8
	b = uint32(p.B)
	b |= b << 8
	a = 0xFFFF
	return
}

// NRGBA converts p for use with image.NRGBA.
func (p Pixel) NRGBA() color.NRGBA {
	return color.NRGBA{R: p.R, G: p.G, B: p.B, A: 0xFF}
}

// String returns p in #rrggbb notation.
func (p Pixel) String() string {
	return fmt.Sprintf("#%02x%02x%02x", p.R, p.G, p.B)
}

// FromColor converts any color.Color, dropping alpha.
func FromColor(c color.Color) Pixel {
	if p, ok := c.(Pixel); ok {
		return p
	}
	r, g, b, _ := c.RGBA()
	return MakePixel(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Named colors.
var (
	Red       = Pixel{G: 0, R: 255, B: 0}
	Orange    = Pixel{G: 64, R: 255, B: 0}
	Yellow    = Pixel{G: 128, R: 255, B: 0}
	Lime      = Pixel{G: 255, R: 255, B: 0}
	Green     = Pixel{G: 255, R: 0, B: 0}
	Turquoise = Pixel{G: 255, R: 0, B: 128}
	Cyan      = Pixel{G: 255, R: 0, B: 255}
	Aqua      = Pixel{G: 128, R: 0, B: 255}
	Blue      = Pixel{G: 0, R: 0, B: 255}
	Purple    = Pixel{G: 0, R: 128, B: 255}
	Magenta   = Pixel{G: 0, R: 255, B: 255}
	Rose      = Pixel{G: 0, R: 255, B: 128}
	White     = Pixel{G: 255, R: 255, B: 255}
	Off       = Pixel{}
)

// Hue presets for FromHSV.
const (
	HueRed       uint8 = 0
	HueOrange    uint8 = 32
	HueYellow    uint8 = 64
	HueLime      uint8 = 80
	HueGreen     uint8 = 96
	HueTurquoise uint8 = 112
	HueCyan      uint8 = 128
	HueAqua      uint8 = 144
	HueBlue      uint8 = 160
	HuePurple    uint8 = 176
	HueMagenta   uint8 = 192
	HueRose      uint8 = 224
)

var named = map[string]Pixel{
	"red":       Red,
	"orange":    Orange,
	"yellow":    Yellow,
	"lime":      Lime,
	"green":     Green,
	"turquoise": Turquoise,
	"cyan":      Cyan,
	"aqua":      Aqua,
	"blue":      Blue,
	"purple":    Purple,
	"magenta":   Magenta,
	"rose":      Rose,
	"white":     White,
	"off":       Off,
}

// Lookup resolves a color name ("red", "aqua", ...) or a hex string.
func Lookup(s string) (Pixel, error) {
	if p, ok := named[s]; ok {
		return p, nil
	}
	return ParseHex(s)
}
