// Package sizing selects between the short and long wire forms.
//
// Variable, compound and array encodings each come in a short form with
// 1 byte size and count prefixes and a long form with 4 byte prefixes. The
// short form is usable only while every prefix value fits in one byte.
//
// # Rules
//
//   - Variable: short when the payload is at most 255 bytes
//   - Compound: short when count <= 255 and the size field (count byte plus
//     element bytes) is at most 255
//   - Array: as compound, with the shared element constructor counted in the
//     size field
//
// A null element contributes exactly one byte.
//
// This package is internal to the codec.
package sizing
