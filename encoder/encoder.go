// Package encoder turns pixels into the symbol bytes a serial transmitter
// clocks out to drive WS2812 LEDs.
//
// Every 2 bits of a color channel become one symbol byte. Clocked out at
// 32x the sample rate, each nibble of a symbol byte is one LED bit: 0x8
// (1000) is a short high pulse, a zero, and 0xe (1110) a long one, a one.
package encoder

import (
	"errors"

	"github.com/coreman2200/neoled/pixel"
)

const (
	// BytesPerChannel is the number of symbol bytes per 8 bit channel.
	BytesPerChannel = 4
	// BytesPerPixel is the number of symbol bytes per LED.
	BytesPerPixel = 3 * BytesPerChannel
)

// Symbols maps a 2 bit group to its symbol byte. The values are timing
// constants of the LED protocol.
var Symbols = [4]byte{0x88, 0x8e, 0xe8, 0xee}

var (
	ErrLength = errors.New("encoder: symbol stream is not a whole number of pixels")
	ErrSymbol = errors.New("encoder: invalid symbol byte")
)

// FrameLen returns the symbol buffer length for n pixels.
func FrameLen(n int) int {
	return n * BytesPerPixel
}

// Scale applies brightness to one channel, truncating.
func Scale(c, brightness uint8) uint8 {
	return uint8(uint16(c) * uint16(brightness) / 255)
}

// Encode writes the symbol stream for frame into dst and returns it. dst is
// reused when it has the capacity; every byte of the result is rewritten.
func Encode(dst []byte, frame []pixel.Pixel, brightness uint8) []byte {
	n := FrameLen(len(frame))
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, p := range frame {
		EncodePixel(dst[i*BytesPerPixel:], p, brightness)
	}
	return dst
}

// EncodePixel writes the 12 symbol bytes of p, in G R B order, to dst.
func EncodePixel(dst []byte, p pixel.Pixel, brightness uint8) {
	_ = dst[BytesPerPixel-1]
	encodeChannel(dst[0:4], Scale(p.G, brightness))
	encodeChannel(dst[4:8], Scale(p.R, brightness))
	encodeChannel(dst[8:12], Scale(p.B, brightness))
}

func encodeChannel(dst []byte, c uint8) {
	dst[0] = Symbols[c>>6&0x03]
	dst[1] = Symbols[c>>4&0x03]
	dst[2] = Symbols[c>>2&0x03]
	dst[3] = Symbols[c&0x03]
}

// Decode reverses Encode at full brightness. It is used to preview and
// check symbol streams.
func Decode(dst []pixel.Pixel, src []byte) ([]pixel.Pixel, error) {
	if len(src)%BytesPerPixel != 0 {
		return dst[:0], ErrLength
	}
	n := len(src) / BytesPerPixel
	if cap(dst) < n {
		dst = make([]pixel.Pixel, n)
	}
	dst = dst[:n]
	for i := range dst {
		s := src[i*BytesPerPixel : (i+1)*BytesPerPixel]
		g, err := decodeChannel(s[0:4])
		if err != nil {
			return dst[:0], err
		}
		r, err := decodeChannel(s[4:8])
		if err != nil {
			return dst[:0], err
		}
		b, err := decodeChannel(s[8:12])
		if err != nil {
			return dst[:0], err
		}
		dst[i] = pixel.Pixel{G: g, R: r, B: b}
	}
	return dst, nil
}

func decodeChannel(s []byte) (uint8, error) {
	var c uint8
	for _, sym := range s {
		v, ok := symbolValue(sym)
		if !ok {
			return 0, ErrSymbol
		}
		c = c<<2 | v
	}
	return c, nil
}

func symbolValue(sym byte) (uint8, bool) {
	for v, s := range Symbols {
		if s == sym {
			return uint8(v), true
		}
	}
	return 0, false
}
