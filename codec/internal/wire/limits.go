package wire

import "math"

// Safety limits applied while decoding declared sizes and counts, so a
// corrupt 32-bit prefix cannot force an oversized allocation.
const (
	MaxEncodedSize  = 1 << 30 // 1 GB max single value
	MaxElementCount = 1 << 27 // 128M max compound elements
)

// ShortLimit is the largest size or count a 1 byte prefix can carry.
const ShortLimit = math.MaxUint8

func SafeAdd(a, b int) (int, bool) {
	if a < 0 || b < 0 || a > MaxEncodedSize-b {
		return 0, false
	}
	return a + b, true
}
