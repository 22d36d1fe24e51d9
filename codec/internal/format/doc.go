// Package format classifies AMQP format bytes.
//
// The high nibble of a format byte selects one of five categories and, within
// the category, the width of the size and count prefixes that follow it:
//
//	nibble  subcategory  prefix width
//	0x0     described    0
//	0x4     fixed-0      0 (data width)
//	0x5     fixed-1      1
//	0x6     fixed-2      2
//	0x7     fixed-4      4
//	0x8     fixed-8      8
//	0x9     fixed-16     16
//	0xA     variable-1   1
//	0xB     variable-4   4
//	0xC     compound-1   1
//	0xD     compound-4   4
//	0xE     array-1      1
//	0xF     array-4      4
//
// The table is an immutable package-level array; Classify is a pure function.
//
// This package is internal to the codec.
package format
