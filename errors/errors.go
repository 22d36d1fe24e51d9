package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseClassify  Phase = "classify"  // format byte lookup
	PhaseEncode    Phase = "encode"    // value to bytes
	PhaseDecode    Phase = "decode"    // bytes to value
	PhaseMarshal   Phase = "marshal"   // value to stream
	PhaseUnmarshal Phase = "unmarshal" // stream to value
	PhaseRegistry  Phase = "registry"  // type registration
	PhaseLoad      Phase = "load"      // capture loading
	PhaseRender    Phase = "render"    // tree rendering and export
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidFormatCode Kind = "invalid_format_code"
	KindTruncated         Kind = "truncated_input"
	KindUnsupported       Kind = "unsupported"
	KindEncodingState     Kind = "encoding_state"
	KindTypeMismatch      Kind = "type_mismatch"
	KindOverflow          Kind = "overflow"
	KindInvalidData       Kind = "invalid_data"
	KindInvalidUTF8       Kind = "invalid_utf8"
	KindInvalidASCII      Kind = "invalid_ascii"
	KindNotFound          Kind = "not_found"
	KindRegistration      Kind = "registration"
)

// Error is the structured error type used throughout the codec
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Type    string
	Detail  string
	Path    []string
	Code    byte
	HasCode bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.HasCode || e.Type != "" {
		b.WriteString(": ")
		if e.HasCode {
			fmt.Fprintf(&b, "format code 0x%02x", e.Code)
			if e.Type != "" {
				b.WriteString(", ")
			}
		}
		if e.Type != "" {
			b.WriteString("type ")
			b.WriteString(e.Type)
		}
	}

	if e.Detail != "" {
		if e.HasCode || e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the element path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Code sets the offending format code
func (b *Builder) Code(code byte) *Builder {
	b.err.Code = code
	b.err.HasCode = true
	return b
}

// Type sets the AMQP type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidFormatCode creates an error for a format byte whose high nibble is unassigned
func InvalidFormatCode(phase Phase, code byte) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindInvalidFormatCode,
		Code:    code,
		HasCode: true,
		Detail:  fmt.Sprintf("unassigned category nibble 0x%02x", code&0xF0),
		Value:   code,
	}
}

// Truncated creates an error for input shorter than a declared size or count implies
func Truncated(phase Phase, path []string, want, have int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Path:   path,
		Detail: fmt.Sprintf("need %d bytes, have %d", want, have),
	}
}

// TruncatedStream wraps a short read from a stream
func TruncatedStream(phase Phase, path []string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Path:   path,
		Detail: "stream ended inside a value",
		Cause:  cause,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// EncodingState creates an error for an operation invoked in the wrong cache state
func EncodingState(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindEncodingState,
		Detail: what,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, code byte, want string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Path:    path,
		Code:    code,
		HasCode: true,
		Type:    want,
		Detail:  fmt.Sprintf("format code does not decode as %s", want),
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, limit string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v exceeds %s", value, limit),
		Value:  value,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// InvalidASCII creates an error for a symbol carrying non 7-bit characters
func InvalidASCII(phase Phase, path []string, index int, c byte) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidASCII,
		Path:   path,
		Detail: fmt.Sprintf("byte 0x%02x at index %d is not 7-bit ASCII", c, index),
		Value:  c,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Registration creates a registration error
func Registration(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s", what),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a capture loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
