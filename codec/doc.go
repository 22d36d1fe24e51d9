// Package codec implements the AMQP 1.0 type encoding.
//
// # Values
//
// A Value holds an AMQP value as a Go value, as encoded bytes, or both.
// Values built from Go data (NewInt, NewString, NewList, ...) encode on first
// use; values returned by Decode hold bytes and decode on first use. Either
// conversion is cached for the lifetime of the value.
//
//	Encoded[V]    - Value implementation for Go type V
//	Codec[V]      - payload size, encode and decode for one AMQP type
//	EncodedBuffer - immutable view over one value's bytes
//	Registry      - format code and descriptor lookup used while decoding
//
// # Buffers
//
// Each wire category has a buffer type:
//
//	Category    Buffer           Layout
//	───────────────────────────────────────────────────────────────
//	fixed       FixedBuffer      code data[0..16]
//	variable    VariableBuffer   code size data
//	compound    CompoundBuffer   code size count element...
//	array       ArrayBuffer      code size count constructor data...
//	described   DescribedBuffer  0x00 descriptor value
//
// For compound and array values the size field counts the count field and
// everything after it, so an empty list8 is C0 01 00.
//
// Buffers come from WrapBuffer (zero-copy over a caller slice), ReadBuffer
// (exactly one value from a stream) or Value.Buffer (built from a Go value).
//
// # Size Classes
//
// Variable values use the 1 byte prefix when the payload is at most 255
// bytes. Lists, maps and arrays use the 1 byte prefixes when both the size
// field and the count fit in a byte; a null element counts as one byte.
//
// # Arrays
//
// Array elements share one constructor and carry no format byte of their
// own. Fixed elements take the constructor's fixed width. Variable, compound
// and array elements start with their own size prefix, which is how decode
// finds each element's end.
//
// # Errors
//
// Errors are *errors.Error values. Malformed input reports
// KindTruncated, KindInvalidFormatCode or KindInvalidData; encodings this
// package refuses to produce report KindUnsupported.
package codec
