package format

import (
	"github.com/wippyai/amqp-codec/errors"
)

type Category uint8

const (
	Described Category = iota
	Fixed
	Variable
	Compound
	Array
)

var categoryNames = [...]string{
	Described: "described",
	Fixed:     "fixed",
	Variable:  "variable",
	Compound:  "compound",
	Array:     "array",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// EncodesSize reports whether the wire form carries an explicit size prefix.
func (c Category) EncodesSize() bool {
	return c == Variable || c == Compound || c == Array
}

// EncodesCount reports whether the wire form carries an element count prefix.
func (c Category) EncodesCount() bool {
	return c == Compound || c == Array
}

type SubCategory uint8

const (
	SubDescribed SubCategory = iota
	Fixed0
	Fixed1
	Fixed2
	Fixed4
	Fixed8
	Fixed16
	Variable1
	Variable4
	Compound1
	Compound4
	Array1
	Array4
)

type subInfo struct {
	name     string
	category Category
	width    int
}

var subCategories = [...]subInfo{
	SubDescribed: {"described", Described, 0},
	Fixed0:       {"fixed-0", Fixed, 0},
	Fixed1:       {"fixed-1", Fixed, 1},
	Fixed2:       {"fixed-2", Fixed, 2},
	Fixed4:       {"fixed-4", Fixed, 4},
	Fixed8:       {"fixed-8", Fixed, 8},
	Fixed16:      {"fixed-16", Fixed, 16},
	Variable1:    {"variable-1", Variable, 1},
	Variable4:    {"variable-4", Variable, 4},
	Compound1:    {"compound-1", Compound, 1},
	Compound4:    {"compound-4", Compound, 4},
	Array1:       {"array-1", Array, 1},
	Array4:       {"array-4", Array, 4},
}

// byNibble maps the high nibble of a format byte to its subcategory.
// Nibbles 0x1-0x3 are unassigned.
var byNibble = [16]struct {
	sub   SubCategory
	valid bool
}{
	0x0: {SubDescribed, true},
	0x4: {Fixed0, true},
	0x5: {Fixed1, true},
	0x6: {Fixed2, true},
	0x7: {Fixed4, true},
	0x8: {Fixed8, true},
	0x9: {Fixed16, true},
	0xA: {Variable1, true},
	0xB: {Variable4, true},
	0xC: {Compound1, true},
	0xD: {Compound4, true},
	0xE: {Array1, true},
	0xF: {Array4, true},
}

// Classify returns the subcategory selected by the high nibble of code.
func Classify(code byte) (SubCategory, error) {
	e := byNibble[code>>4]
	if !e.valid {
		return 0, errors.InvalidFormatCode(errors.PhaseClassify, code)
	}
	return e.sub, nil
}

// MustClassify is Classify for codes known to be valid at compile time.
func MustClassify(code byte) SubCategory {
	sub, err := Classify(code)
	if err != nil {
		panic(err)
	}
	return sub
}

func (s SubCategory) String() string {
	if int(s) < len(subCategories) {
		return subCategories[s].name
	}
	return "unknown"
}

func (s SubCategory) Category() Category {
	return subCategories[s].category
}

// Width is the fixed data width for fixed subcategories and the size/count
// prefix width for variable, compound and array subcategories.
func (s SubCategory) Width() int {
	return subCategories[s].width
}

func (s SubCategory) EncodesSize() bool {
	return s.Category().EncodesSize()
}

func (s SubCategory) EncodesCount() bool {
	return s.Category().EncodesCount()
}

func (s SubCategory) IsFixed() bool {
	return s.Category() == Fixed
}

// PrefixLen is the number of size and count bytes following the format byte.
func (s SubCategory) PrefixLen() int {
	switch s.Category() {
	case Variable:
		return s.Width()
	case Compound, Array:
		return 2 * s.Width()
	default:
		return 0
	}
}

// DataOffset is the offset of the first data byte relative to the format
// byte. Described values report 1; their real offset depends on the nested
// descriptor and is computed by the described buffer.
func (s SubCategory) DataOffset() int {
	return 1 + s.PrefixLen()
}

// AppendPrefix appends the format byte followed by the big-endian size field
// and, for compound and array subcategories, the count field.
// size is the value of the wire size field, which for compound and array
// forms includes the count field itself.
func (s SubCategory) AppendPrefix(dst []byte, code byte, size, count int) []byte {
	dst = append(dst, code)
	if !s.EncodesSize() {
		return dst
	}
	dst = appendWidth(dst, s.Width(), size)
	if s.EncodesCount() {
		dst = appendWidth(dst, s.Width(), count)
	}
	return dst
}

// ReadPrefix parses size and count fields from p, which must hold exactly
// PrefixLen bytes.
func (s SubCategory) ReadPrefix(p []byte) (size, count int) {
	w := s.Width()
	if s.EncodesSize() {
		size = readWidth(p[:w])
	}
	if s.EncodesCount() {
		count = readWidth(p[w : 2*w])
	}
	return size, count
}

func appendWidth(dst []byte, width, v int) []byte {
	if width == 1 {
		return append(dst, byte(v))
	}
	return append(dst, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func readWidth(p []byte) int {
	if len(p) == 1 {
		return int(p[0])
	}
	return int(uint32(p[0])<<24 | uint32(p[1])<<16 | uint32(p[2])<<8 | uint32(p[3]))
}
