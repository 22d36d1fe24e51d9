package codec

import (
	"fmt"
	"sync"

	"github.com/wippyai/amqp-codec/codec/internal/format"
	"github.com/wippyai/amqp-codec/codec/internal/wire"
	"github.com/wippyai/amqp-codec/errors"
)

// Value is an AMQP value that can be held as a Go value, as encoded bytes,
// or both. Conversions in either direction happen on first use and are
// memoized. All methods are safe for concurrent use.
type Value interface {
	FormatCode() byte
	SubCategory() SubCategory
	IsNull() bool
	// TypeName is the AMQP type name, e.g. "int" or "list".
	TypeName() string

	// Buffer returns the encoded form, building it from the Go value if
	// needed.
	Buffer() (EncodedBuffer, error)
	EncodedSize() (int, error)
	DataSize() (int, error)
	DataCount() (int, error)

	// Marshal writes the full encoding to out without materializing the
	// value's bytes when they are not already held.
	Marshal(out Output) error
	// EncodeTo writes the full encoding into dst and returns the number of
	// bytes written.
	EncodeTo(dst []byte) (int, error)

	// Interface returns the Go value, decoding it if needed. Null values
	// return nil.
	Interface() (any, error)

	// WithFormatCode returns the same logical value bound to another format
	// code of its type, e.g. str32 instead of str8.
	WithFormatCode(code byte) (Value, error)
	// Canonical returns the value rebuilt from its Go form, with every
	// format code chosen by this package. Compact decode-only codes such as
	// smalluint are replaced by their canonical forms.
	Canonical() (Value, error)
}

// Codec converts between a Go value of type V and the payload of its wire
// form. The payload excludes the format byte and any size or count prefix;
// Encoded writes those.
type Codec[V any] interface {
	TypeName() string
	// Accepts reports whether code is a wire form of this type.
	Accepts(code byte) bool
	// FormatCode picks the encoding for v, including its size class.
	FormatCode(v V) byte
	// DataSize is the payload length of v encoded under code.
	DataSize(code byte, v V) (int, error)
	// DataCount is the element count of v; 1 for scalar types.
	DataCount(code byte, v V) (int, error)
	// Encode writes the payload into dst, which holds exactly DataSize bytes.
	Encode(code byte, v V, dst []byte) error
	Decode(buf EncodedBuffer) (V, error)
}

// canonicalizer is implemented by codecs whose values contain other values.
type canonicalizer[V any] interface {
	canonical(v V) (V, error)
}

// DataWriter is implemented by codecs that can stream a payload to an Output
// element by element instead of through an intermediate slice.
type DataWriter[V any] interface {
	WriteData(code byte, v V, out Output) error
}

type state uint8

const (
	stateUnbuilt state = iota
	stateValue
	stateBytes
	stateBoth
)

func (s state) hasValue() bool { return s == stateValue || s == stateBoth }
func (s state) hasBytes() bool { return s == stateBytes || s == stateBoth }

func (s state) withValue() state {
	switch s {
	case stateUnbuilt:
		return stateValue
	case stateBytes:
		return stateBoth
	}
	return s
}

func (s state) withBytes() state {
	switch s {
	case stateUnbuilt:
		return stateBytes
	case stateValue:
		return stateBoth
	}
	return s
}

var stateNames = [...]string{
	stateUnbuilt: "unbuilt",
	stateValue:   "value",
	stateBytes:   "bytes",
	stateBoth:    "both",
}

func (s state) String() string { return stateNames[s] }

// Encoded is the Value implementation for a Go type V. The zero value is not
// usable; construct with NewEncoded, EncodedAs, NullOf or FromBuffer.
type Encoded[V any] struct {
	codec Codec[V]

	mu        sync.Mutex
	state     state
	code      byte
	sub       format.SubCategory
	value     V
	buf       EncodedBuffer
	size      int
	sizeKnown bool
}

// NewEncoded wraps v, choosing its format code with c. The code depends on
// v, so v must not be modified afterwards.
func NewEncoded[V any](c Codec[V], v V) *Encoded[V] {
	code := c.FormatCode(v)
	return &Encoded[V]{
		codec: c,
		state: stateValue,
		code:  code,
		sub:   format.MustClassify(code),
		value: v,
	}
}

// EncodedAs wraps v under an explicit format code.
func EncodedAs[V any](c Codec[V], v V, code byte) (*Encoded[V], error) {
	if code != format.CodeNull && !c.Accepts(code) {
		return nil, errors.TypeMismatch(errors.PhaseEncode, nil, code, c.TypeName())
	}
	sub, err := format.Classify(code)
	if err != nil {
		return nil, err
	}
	return &Encoded[V]{codec: c, state: stateValue, code: code, sub: sub, value: v}, nil
}

// NullOf returns a null of the type handled by c.
func NullOf[V any](c Codec[V]) *Encoded[V] {
	return &Encoded[V]{codec: c, state: stateValue, code: format.CodeNull, sub: format.Fixed0}
}

// FromBuffer wraps an encoded value. Decoding into V is deferred until the
// value is first requested.
func FromBuffer[V any](c Codec[V], buf EncodedBuffer) *Encoded[V] {
	return &Encoded[V]{
		codec: c,
		state: stateBytes,
		code:  buf.FormatCode(),
		sub:   buf.SubCategory(),
		buf:   buf,
	}
}

func (e *Encoded[V]) FormatCode() byte         { return e.code }
func (e *Encoded[V]) SubCategory() SubCategory { return e.sub }
func (e *Encoded[V]) IsNull() bool             { return e.code == format.CodeNull }
func (e *Encoded[V]) Codec() Codec[V]          { return e.codec }

func (e *Encoded[V]) TypeName() string {
	if e.IsNull() {
		return "null"
	}
	return e.codec.TypeName()
}

// Value returns the Go value, decoding the held bytes on first call.
func (e *Encoded[V]) Value() (V, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.valueLocked()
}

func (e *Encoded[V]) valueLocked() (V, error) {
	if e.state.hasValue() || e.IsNull() {
		return e.value, nil
	}
	if !e.state.hasBytes() {
		var zero V
		return zero, errors.EncodingState(errors.PhaseDecode, "value holds neither bytes nor a Go value")
	}
	v, err := e.codec.Decode(e.buf)
	if err != nil {
		var zero V
		return zero, err
	}
	e.value = v
	e.state = e.state.withValue()
	return v, nil
}

func (e *Encoded[V]) Interface() (any, error) {
	v, err := e.Value()
	if err != nil || e.IsNull() {
		return nil, err
	}
	return v, nil
}

// Buffer returns the encoded form, building and caching it on first call.
func (e *Encoded[V]) Buffer() (EncodedBuffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bufferLocked()
}

func (e *Encoded[V]) bufferLocked() (EncodedBuffer, error) {
	if e.state.hasBytes() {
		return e.buf, nil
	}
	if e.IsNull() {
		e.buf = nullBuffer
		e.state = e.state.withBytes()
		return e.buf, nil
	}
	n, err := e.encodedSizeLocked()
	if err != nil {
		return nil, err
	}
	raw := make([]byte, n)
	if _, err := e.encodeLocked(raw); err != nil {
		return nil, err
	}
	buf, err := parseBuffer(raw, 0, 0)
	if err != nil {
		return nil, err
	}
	e.buf = buf
	e.state = e.state.withBytes()
	return buf, nil
}

func (e *Encoded[V]) EncodedSize() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encodedSizeLocked()
}

func (e *Encoded[V]) encodedSizeLocked() (int, error) {
	if e.state.hasBytes() {
		return e.buf.EncodedSize(), nil
	}
	if e.IsNull() {
		return 1, nil
	}
	n, err := e.payloadLocked()
	if err != nil {
		return 0, err
	}
	total, ok := wire.SafeAdd(e.sub.DataOffset(), n)
	if !ok {
		return 0, errors.Overflow(errors.PhaseEncode, nil, n, "maximum encoded size")
	}
	return total, nil
}

// DataSize is the payload length after the constructor and prefixes. For
// described values it is the described value's payload, matching
// DescribedBuffer.
func (e *Encoded[V]) DataSize() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.hasBytes() {
		return e.buf.DataSize(), nil
	}
	if e.IsNull() {
		return 0, nil
	}
	if e.code == format.CodeDescribed {
		buf, err := e.bufferLocked()
		if err != nil {
			return 0, err
		}
		return buf.DataSize(), nil
	}
	return e.payloadLocked()
}

func (e *Encoded[V]) DataCount() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.hasBytes() {
		return e.buf.DataCount(), nil
	}
	if e.IsNull() {
		return 1, nil
	}
	return e.codec.DataCount(e.code, e.value)
}

// payloadLocked returns the bytes following the prefixes, as produced by the
// codec. Only valid when the Go value is held.
func (e *Encoded[V]) payloadLocked() (int, error) {
	if e.sizeKnown {
		return e.size, nil
	}
	if !e.state.hasValue() {
		return 0, errors.EncodingState(errors.PhaseEncode, "payload size requested without a Go value")
	}
	n, err := e.codec.DataSize(e.code, e.value)
	if err != nil {
		return 0, err
	}
	e.size, e.sizeKnown = n, true
	return n, nil
}

// prefixLocked appends the format byte and size/count prefixes to dst.
func (e *Encoded[V]) prefixLocked(dst []byte) ([]byte, error) {
	n, err := e.payloadLocked()
	if err != nil {
		return nil, err
	}
	count := 0
	size := n
	if e.sub.EncodesCount() {
		if count, err = e.codec.DataCount(e.code, e.value); err != nil {
			return nil, err
		}
		size += e.sub.Width()
	}
	if e.sub.EncodesSize() && e.sub.Width() == 1 {
		if size > wire.ShortLimit {
			return nil, errors.New(errors.PhaseEncode, errors.KindOverflow).
				Code(e.code).
				Type(e.codec.TypeName()).
				Detail("size %d does not fit a 1 byte prefix", size).
				Build()
		}
		if count > wire.ShortLimit {
			return nil, errors.New(errors.PhaseEncode, errors.KindOverflow).
				Code(e.code).
				Type(e.codec.TypeName()).
				Detail("count %d does not fit a 1 byte prefix", count).
				Build()
		}
	}
	return e.sub.AppendPrefix(dst, e.code, size, count), nil
}

// encodeLocked writes the full encoding into dst, which must be at least
// EncodedSize bytes long.
func (e *Encoded[V]) encodeLocked(dst []byte) (int, error) {
	if e.state.hasBytes() {
		raw := e.buf.Bytes()
		if len(dst) < len(raw) {
			return 0, errors.Truncated(errors.PhaseEncode, nil, len(raw), len(dst))
		}
		return copy(dst, raw), nil
	}
	if e.IsNull() {
		if len(dst) < 1 {
			return 0, errors.Truncated(errors.PhaseEncode, nil, 1, 0)
		}
		dst[0] = format.CodeNull
		return 1, nil
	}
	total, err := e.encodedSizeLocked()
	if err != nil {
		return 0, err
	}
	if len(dst) < total {
		return 0, errors.Truncated(errors.PhaseEncode, nil, total, len(dst))
	}
	hdr, err := e.prefixLocked(dst[:0])
	if err != nil {
		return 0, err
	}
	if err := e.codec.Encode(e.code, e.value, dst[len(hdr):total]); err != nil {
		return 0, err
	}
	return total, nil
}

func (e *Encoded[V]) EncodeTo(dst []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encodeLocked(dst)
}

// Marshal writes the held bytes if present. Otherwise it writes the
// constructor and prefixes, then streams the payload.
func (e *Encoded[V]) Marshal(out Output) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.hasBytes() {
		return e.buf.Marshal(out)
	}
	if e.IsNull() {
		return out.WriteByte(format.CodeNull)
	}
	var prefix [9]byte
	hdr, err := e.prefixLocked(prefix[:0])
	if err != nil {
		return err
	}
	if _, err := out.Write(hdr); err != nil {
		return err
	}
	if w, ok := e.codec.(DataWriter[V]); ok {
		return w.WriteData(e.code, e.value, out)
	}
	n, err := e.payloadLocked()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	scratch := getScratch(n)
	defer putScratch(scratch)
	if err := e.codec.Encode(e.code, e.value, *scratch); err != nil {
		return err
	}
	_, err = out.Write(*scratch)
	return err
}

func (e *Encoded[V]) WithFormatCode(code byte) (Value, error) {
	if code == e.code {
		return e, nil
	}
	v, err := e.Value()
	if err != nil {
		return nil, err
	}
	if e.IsNull() {
		return nil, errors.TypeMismatch(errors.PhaseEncode, nil, code, "null")
	}
	return EncodedAs(e.codec, v, code)
}

func (e *Encoded[V]) Canonical() (Value, error) {
	if e.IsNull() {
		return NullOf(e.codec), nil
	}
	if _, ok := any(e.codec).(rawCodec); ok {
		return e, nil
	}
	v, err := e.Value()
	if err != nil {
		return nil, err
	}
	if c, ok := e.codec.(canonicalizer[V]); ok {
		if v, err = c.canonical(v); err != nil {
			return nil, err
		}
	}
	return NewEncoded(e.codec, v), nil
}

func (e *Encoded[V]) String() string {
	if e.IsNull() {
		return "null"
	}
	v, err := e.Value()
	if err != nil {
		return fmt.Sprintf("%s(<%v>)", e.TypeName(), err)
	}
	return fmt.Sprintf("%s(%v)", e.TypeName(), v)
}

// snapshot reports the cache state for tests and diagnostics.
func (e *Encoded[V]) snapshot() state {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

var nullBuffer EncodedBuffer = &FixedBuffer{baseBuffer{
	raw:  []byte{format.CodeNull},
	code: format.CodeNull,
	sub:  format.Fixed0,
}}

type nullCodec struct{}

func (nullCodec) TypeName() string                       { return "null" }
func (nullCodec) Accepts(code byte) bool                 { return code == format.CodeNull }
func (nullCodec) FormatCode(struct{}) byte               { return format.CodeNull }
func (nullCodec) DataSize(byte, struct{}) (int, error)   { return 0, nil }
func (nullCodec) DataCount(byte, struct{}) (int, error)  { return 1, nil }
func (nullCodec) Encode(byte, struct{}, []byte) error    { return nil }
func (nullCodec) Decode(EncodedBuffer) (struct{}, error) { return struct{}{}, nil }

// Null returns the AMQP null value.
func Null() Value {
	return NullOf[struct{}](nullCodec{})
}
