package codec

import (
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/amqp-codec/codec/internal/format"
	"github.com/wippyai/amqp-codec/codec/internal/sizing"
	"github.com/wippyai/amqp-codec/errors"
)

// ListElementDecoder turns the buffer of the element at position pos into a
// typed value. A Registry is the usual implementation.
type ListElementDecoder interface {
	DecodeElement(pos int, buf EncodedBuffer) (Value, error)
}

// MapEntryDecoder turns a key buffer and a value buffer into typed values.
type MapEntryDecoder interface {
	DecodeEntry(key, val EncodedBuffer) (Value, Value, error)
}

// A nil element is encoded as null.
func elementSize(v Value) (int, error) {
	if v == nil {
		return 1, nil
	}
	return v.EncodedSize()
}

func encodeElement(v Value, dst []byte) (int, error) {
	if v == nil {
		if len(dst) < 1 {
			return 0, errors.Truncated(errors.PhaseEncode, nil, 1, 0)
		}
		dst[0] = format.CodeNull
		return 1, nil
	}
	return v.EncodeTo(dst)
}

func marshalElement(v Value, out Output) error {
	if v == nil || v.IsNull() {
		return out.WriteByte(format.CodeNull)
	}
	return v.Marshal(out)
}

func canonicalElement(v Value) (Value, error) {
	if v == nil {
		return Null(), nil
	}
	return v.Canonical()
}

// chooseCompound picks the short or long code for a compound whose element
// encoded sizes are reported by size. Summation stops once the long form is
// selected.
func chooseCompound(short, long byte, count int, size func(i int) (int, error)) byte {
	c := sizing.NewChooser(0)
	for i := 0; i < count; i++ {
		n, err := size(i)
		if err != nil {
			// DataSize hits the same element error and reports it, so the
			// code chosen here is never written.
			return short
		}
		if !c.Add(n) {
			break
		}
	}
	if c.Long() {
		Logger().Debug("compound promoted to long form",
			zap.String("code", format.CodeName(long)),
			zap.Int("count", count))
		return long
	}
	return short
}

// EncodeList writes each element's full encoding back to back into dst and
// returns the number of bytes written.
func EncodeList(elems []Value, dst []byte) (int, error) {
	off := 0
	for i, e := range elems {
		n, err := encodeElement(e, dst[off:])
		if err != nil {
			return off, withPath(err, indexPath("list", i))
		}
		off += n
	}
	return off, nil
}

// DecodeList splits data into count element buffers and decodes each with
// dec. Every byte of data must belong to an element.
func DecodeList(data []byte, count int, dec ListElementDecoder) ([]Value, error) {
	if count > len(data) {
		return nil, errors.Truncated(errors.PhaseDecode, nil, count, len(data))
	}
	elems := make([]Value, count)
	off := 0
	for i := 0; i < count; i++ {
		if off >= len(data) {
			return nil, errors.Truncated(errors.PhaseDecode, []string{indexPath("list", i)}, off+1, len(data))
		}
		buf, err := WrapBuffer(data, off)
		if err != nil {
			return nil, withPath(err, indexPath("list", i))
		}
		v, err := dec.DecodeElement(i, buf)
		if err != nil {
			return nil, withPath(err, indexPath("list", i))
		}
		elems[i] = v
		off += buf.EncodedSize()
	}
	if off != len(data) {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "list elements do not fill the declared size")
	}
	return elems, nil
}

// WriteList marshals elements one at a time. Null elements write only the
// null format code.
func WriteList(elems []Value, out Output) error {
	for i, e := range elems {
		if err := marshalElement(e, out); err != nil {
			return withPath(err, indexPath("list", i))
		}
	}
	return nil
}

// ReadList reads count complete element values from in.
func ReadList(in Input, count int, dec ListElementDecoder) ([]Value, error) {
	elems := make([]Value, 0, min(count, 1024))
	for i := 0; i < count; i++ {
		buf, err := ReadBuffer(in)
		if err != nil {
			return nil, withPath(streamErr(err), indexPath("list", i))
		}
		v, err := dec.DecodeElement(i, buf)
		if err != nil {
			return nil, withPath(err, indexPath("list", i))
		}
		elems = append(elems, v)
	}
	return elems, nil
}

type listCodec struct {
	dec ListElementDecoder
}

// ListCodec decodes list elements with the default registry.
var ListCodec Codec[[]Value] = listCodec{}

func (c listCodec) decoder() ListElementDecoder {
	if c.dec == nil {
		return DefaultRegistry()
	}
	return c.dec
}

func (listCodec) TypeName() string { return "list" }

func (listCodec) Accepts(code byte) bool {
	return code == format.CodeList0 || code == format.CodeList8 || code == format.CodeList32
}

// FormatCode never returns list0, so an empty list encodes as C0 01 00.
// An element whose size cannot be computed yields list8; DataSize then
// returns that element's error.
func (listCodec) FormatCode(v []Value) byte {
	return chooseCompound(format.CodeList8, format.CodeList32, len(v), func(i int) (int, error) {
		return elementSize(v[i])
	})
}

func (listCodec) DataSize(code byte, v []Value) (int, error) {
	if code == format.CodeList0 {
		if len(v) != 0 {
			return 0, errors.TypeMismatch(errors.PhaseEncode, nil, code, "empty list")
		}
		return 0, nil
	}
	total := 0
	for i, e := range v {
		n, err := elementSize(e)
		if err != nil {
			return 0, withPath(err, indexPath("list", i))
		}
		total += n
		if total > MaxEncodedSize {
			return 0, errors.Overflow(errors.PhaseEncode, nil, total, "maximum encoded size")
		}
	}
	return total, nil
}

func (listCodec) DataCount(_ byte, v []Value) (int, error) { return len(v), nil }

func (listCodec) Encode(_ byte, v []Value, dst []byte) error {
	_, err := EncodeList(v, dst)
	return err
}

func (listCodec) WriteData(_ byte, v []Value, out Output) error {
	return WriteList(v, out)
}

func (c listCodec) Decode(buf EncodedBuffer) ([]Value, error) {
	switch buf.FormatCode() {
	case format.CodeList0:
		return []Value{}, nil
	case format.CodeList8, format.CodeList32:
		return DecodeList(buf.Data(), buf.DataCount(), c.decoder())
	}
	return nil, errors.TypeMismatch(errors.PhaseDecode, nil, buf.FormatCode(), "list")
}

func (listCodec) canonical(v []Value) ([]Value, error) {
	out := make([]Value, len(v))
	for i, e := range v {
		ce, err := canonicalElement(e)
		if err != nil {
			return nil, withPath(err, indexPath("list", i))
		}
		out[i] = ce
	}
	return out, nil
}

// NewList builds a list value. Nil elements encode as null. The element
// slice is copied, so later changes to the caller's slice do not affect the
// list.
func NewList(elems ...Value) *Encoded[[]Value] {
	if elems == nil {
		return NewEncoded(ListCodec, []Value{})
	}
	return NewEncoded(ListCodec, slices.Clone(elems))
}
