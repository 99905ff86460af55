package video

import "math"

const (
	GAMMA_LEVELS  = 5
	DEFAULT_GAMMA = 1
)

// gammaTable[level][in] brightens each channel. Level 0 is the identity; each
// further level lowers the curve exponent.
var gammaTable = buildGammaTable()

func buildGammaTable() [GAMMA_LEVELS][256]byte {
	var t [GAMMA_LEVELS][256]byte
	for level := range GAMMA_LEVELS {
		exp := 1 / (1 + 0.25*float64(level))
		for in := range 256 {
			v := math.Round(255 * math.Pow(float64(in)/255, exp))
			t[level][in] = byte(v)
		}
	}
	return t
}

// Gamma returns the corrected value of one palette channel.
func Gamma(level int, in byte) byte {
	return gammaTable[level][in]
}

// PackPalette gamma-corrects a 768-byte RGB palette into 0xRRGGBB words.
func PackPalette(dst *[PALETTE_ENTRIES]uint32, pal []byte, level int) {
	row := &gammaTable[level]
	for i := range PALETTE_ENTRIES {
		r := row[pal[i*3]]
		g := row[pal[i*3+1]]
		b := row[pal[i*3+2]]
		dst[i] = uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	}
}
