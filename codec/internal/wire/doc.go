// Package wire provides the primitive AMQP encodings.
//
// Numerics are fixed-width and big-endian, signed integers are two's
// complement, floating point values are IEEE-754 binary32/binary64, and
// timestamps are signed milliseconds since the Unix epoch. Strings come in
// UTF-8 and UTF-16BE forms; symbols are 7-bit ASCII.
//
// Every function here is pure and works on caller-owned slices.
//
// # Contents
//
//   - numeric.go: integer, float, timestamp and UUID put/get helpers
//   - text.go: UTF-8, UTF-16 and ASCII sizing, validation and conversion
//   - limits.go: safety limits and overflow-checked arithmetic
//
// This package is internal to the codec.
package wire
