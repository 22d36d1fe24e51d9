// Package errors provides structured error types for the amqp-codec library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending format code, the element path inside a
// composite value, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTruncated).
//		Path("list[3]", "map[key]").
//		Code(0xb1).
//		Detail("declared size %d exceeds %d available bytes", 300, 12).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidFormatCode(errors.PhaseClassify, 0x1f)
//	err := errors.Truncated(errors.PhaseDecode, path, 300, 12)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches a Kind regardless of the Phase that produced it.
package errors
