package pixel

// ColorWheel walks red -> blue -> green as hue goes 0..255, in three
// 85 wide bands. Channel math is 8 bit and wraps.
func ColorWheel(hue uint8) Pixel {
	switch {
	case hue < 85:
		return Pixel{G: 255 - hue*3, R: hue * 3, B: 0}
	case hue < 170:
		hue -= 85
		return Pixel{G: 0, R: 255 - hue*3, B: hue * 3}
	default:
		hue -= 170
		return Pixel{G: hue * 3, R: 0, B: 255 - hue*3}
	}
}

// FromHSV converts 8 bit hue, saturation and value with the usual six
// region fixed point algorithm. Region 5 also absorbs h >= 215.
func FromHSV(h, s, v uint8) Pixel {
	if s == 0 {
		return Pixel{G: v, R: v, B: v}
	}

	hh, ss, vv := uint32(h), uint32(s), uint32(v)
	region := hh / 43
	remainder := (hh - region*43) * 6

	p := uint8((vv * (255 - ss)) >> 8)
	q := uint8((vv * (255 - ((ss * remainder) >> 8))) >> 8)
	t := uint8((vv * (255 - ((ss * (255 - remainder)) >> 8))) >> 8)

	switch region {
	case 0:
		return MakePixel(v, t, p)
	case 1:
		return MakePixel(q, v, p)
	case 2:
		return MakePixel(p, v, t)
	case 3:
		return MakePixel(p, q, v)
	case 4:
		return MakePixel(t, p, v)
	default:
		return MakePixel(v, p, q)
	}
}

// HueValue estimates the FromHSV hue of p. It is an approximation and
// does not round trip exactly. Grays report 0.
func HueValue(p Pixel) uint8 {
	r, g, b := int(p.R), int(p.G), int(p.B)
	hi := max(r, g, b)
	lo := min(r, g, b)
	if hi == lo {
		return 0
	}
	delta := hi - lo

	var h int
	switch hi {
	case r:
		h = 43 * (g - b) / delta
	case g:
		h = 85 + 43*(b-r)/delta
	default:
		h = 171 + 43*(r-g)/delta
	}
	// negative hues wrap around the wheel
	return uint8(h)
}
