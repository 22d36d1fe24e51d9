package sizing

import "github.com/wippyai/amqp-codec/codec/internal/wire"

// VariableLong reports whether a variable payload of n bytes needs the
// 4 byte size prefix.
func VariableLong(n int) bool {
	return n > wire.ShortLimit
}

// Chooser accumulates element sizes for a compound or array value and
// decides the size class. Once the long form is selected further sizes do
// not change the outcome, so callers may stop early.
type Chooser struct {
	size  int
	count int
	long  bool
}

// NewChooser starts a chooser whose size field already accounts for the one
// byte count prefix plus header extra bytes (the array element constructor).
func NewChooser(header int) *Chooser {
	c := &Chooser{size: 1 + header}
	c.long = c.size > wire.ShortLimit
	return c
}

// Add records one element of n encoded bytes. It returns false once the long
// form has been selected.
func (c *Chooser) Add(n int) bool {
	if c.long {
		return false
	}
	c.count++
	c.size += n
	if c.size > wire.ShortLimit || c.count > wire.ShortLimit {
		c.long = true
		return false
	}
	return true
}

// Long reports whether the 4 byte prefixes are required.
func (c *Chooser) Long() bool {
	return c.long
}

// SizeField is the value written to the size prefix of a compound or array
// value: the count prefix width plus everything after it.
func SizeField(body int, long bool) int {
	if long {
		return 4 + body
	}
	return 1 + body
}

// Body returns the bytes following the count prefix given a decoded size
// field, or false if the field is smaller than the count prefix itself.
func Body(sizeField, width int) (int, bool) {
	if sizeField < width {
		return 0, false
	}
	return sizeField - width, true
}
