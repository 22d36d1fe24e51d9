package codec

import (
	"bytes"

	amqpcodec "github.com/wippyai/amqp-codec"
	"github.com/wippyai/amqp-codec/codec/internal/format"
	"github.com/wippyai/amqp-codec/codec/internal/sizing"
	"github.com/wippyai/amqp-codec/codec/internal/wire"
	"github.com/wippyai/amqp-codec/errors"
)

// EncodedBuffer is an immutable view over the bytes of one complete wire
// value: constructor followed by data.
//
// Buffers built by WrapBuffer alias the caller's slice. The caller must not
// mutate that memory while the buffer, or any value decoded from it, is in
// use. Buffers built from a stream or from a value own their bytes.
type EncodedBuffer interface {
	FormatCode() byte
	SubCategory() SubCategory

	// Bytes returns the full encoding. The slice must not be modified.
	Bytes() []byte
	EncodedSize() int

	// ConstructorLength is 1 for every category except described, where it
	// covers the descriptor and the described value's constructor.
	ConstructorLength() int
	// DataOffset is the offset of the first payload byte, past any size and
	// count prefixes.
	DataOffset() int
	// DataSize is the payload length; DataOffset + DataSize == EncodedSize.
	DataSize() int
	DataCount() int
	// Data returns the payload bytes.
	Data() []byte

	MarshalConstructor(out Output) error
	MarshalData(out Output) error
	Marshal(out Output) error
}

type Output = amqpcodec.Output
type Input = amqpcodec.Input

type baseBuffer struct {
	raw  []byte
	code byte
	sub  format.SubCategory
}

func (b *baseBuffer) FormatCode() byte         { return b.code }
func (b *baseBuffer) SubCategory() SubCategory { return b.sub }
func (b *baseBuffer) Bytes() []byte            { return b.raw }
func (b *baseBuffer) EncodedSize() int         { return len(b.raw) }
func (b *baseBuffer) ConstructorLength() int   { return 1 }
func (b *baseBuffer) DataOffset() int          { return b.sub.DataOffset() }
func (b *baseBuffer) DataSize() int            { return len(b.raw) - b.sub.DataOffset() }
func (b *baseBuffer) Data() []byte             { return b.raw[b.sub.DataOffset():] }

func (b *baseBuffer) MarshalConstructor(out Output) error {
	return out.WriteByte(b.code)
}

func (b *baseBuffer) MarshalData(out Output) error {
	if len(b.raw) <= 1 {
		return nil
	}
	_, err := out.Write(b.raw[1:])
	return err
}

func (b *baseBuffer) Marshal(out Output) error {
	_, err := out.Write(b.raw)
	return err
}

// FixedBuffer holds a fixed-width value: format byte plus 0-16 data bytes.
type FixedBuffer struct {
	baseBuffer
}

func (b *FixedBuffer) DataCount() int { return 1 }

// VariableBuffer holds a size-prefixed value (binary, string, symbol).
type VariableBuffer struct {
	baseBuffer
}

func (b *VariableBuffer) DataCount() int { return 1 }

// CompoundBuffer holds a list or map: size and count prefixes followed by
// count complete element encodings.
type CompoundBuffer struct {
	baseBuffer
	count int
}

func (b *CompoundBuffer) DataCount() int { return b.count }

// Elements splits the payload into one buffer per element. The returned
// buffers alias this buffer's bytes.
func (b *CompoundBuffer) Elements() ([]EncodedBuffer, error) {
	elems := make([]EncodedBuffer, 0, b.count)
	data := b.Data()
	off := 0
	for i := 0; i < b.count; i++ {
		eb, err := WrapBuffer(data, off)
		if err != nil {
			return nil, withPath(err, indexPath("element", i))
		}
		off += eb.EncodedSize()
		elems = append(elems, eb)
	}
	if off != len(data) {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Code(b.code).
			Detail("%d elements use %d of %d payload bytes", b.count, off, len(data)).
			Build()
	}
	return elems, nil
}

// ArrayBuffer holds a homogeneous array: size and count prefixes, one shared
// element constructor, then count element data sections without their own
// constructors.
type ArrayBuffer struct {
	baseBuffer
	ctor    []byte
	elemSub format.SubCategory
	count   int
}

func (b *ArrayBuffer) DataCount() int { return b.count }

// ElementConstructor returns the shared constructor bytes: a single format
// code, or 0x00, a descriptor and a format code for described elements.
func (b *ArrayBuffer) ElementConstructor() []byte { return b.ctor }

// ElementCode returns the format code that sizes each element's data.
func (b *ArrayBuffer) ElementCode() byte { return b.ctor[len(b.ctor)-1] }

// Elements rebuilds each element as a standalone buffer by prefixing its
// data with the shared constructor. Element buffers own their bytes.
func (b *ArrayBuffer) Elements() ([]EncodedBuffer, error) {
	data := b.Data()[len(b.ctor):]
	elems := make([]EncodedBuffer, 0, b.count)
	off := 0
	for i := 0; i < b.count; i++ {
		n, err := elementDataLen(b.elemSub, data[off:])
		if err != nil {
			return nil, withPath(err, indexPath("element", i))
		}
		eb, err := joinElement(b.ctor, data[off:off+n])
		if err != nil {
			return nil, withPath(err, indexPath("element", i))
		}
		elems = append(elems, eb)
		off += n
	}
	if off != len(data) {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Code(b.code).
			Detail("%d array elements use %d of %d data bytes", b.count, off, len(data)).
			Build()
	}
	return elems, nil
}

// DescribedBuffer holds 0x00 followed by a descriptor value and the described
// value. A described value counts as one element; its data is the described
// value's data.
type DescribedBuffer struct {
	baseBuffer
	descriptor EncodedBuffer
	described  EncodedBuffer
}

func (b *DescribedBuffer) Descriptor() EncodedBuffer { return b.descriptor }
func (b *DescribedBuffer) Described() EncodedBuffer  { return b.described }

func (b *DescribedBuffer) ConstructorLength() int {
	return 1 + b.descriptor.EncodedSize() + b.described.ConstructorLength()
}

func (b *DescribedBuffer) DataOffset() int {
	return 1 + b.descriptor.EncodedSize() + b.described.DataOffset()
}

func (b *DescribedBuffer) DataSize() int  { return b.described.DataSize() }
func (b *DescribedBuffer) DataCount() int { return 1 }
func (b *DescribedBuffer) Data() []byte   { return b.described.Data() }

func (b *DescribedBuffer) MarshalConstructor(out Output) error {
	_, err := out.Write(b.raw[:b.ConstructorLength()])
	return err
}

func (b *DescribedBuffer) MarshalData(out Output) error {
	_, err := out.Write(b.raw[b.ConstructorLength():])
	return err
}

// WrapBuffer parses the value starting at src[off] without copying. The
// returned buffer aliases src; its capacity is clipped so appends to it can
// never write into the caller's following bytes.
func WrapBuffer(src []byte, off int) (EncodedBuffer, error) {
	if off < 0 || off >= len(src) {
		return nil, errors.Truncated(errors.PhaseDecode, nil, off+1, len(src))
	}
	return parseBuffer(src, off, 0)
}

func parseBuffer(src []byte, off, depth int) (EncodedBuffer, error) {
	if depth > maxNesting {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "described values nested too deeply")
	}
	code := src[off]
	sub, err := format.Classify(code)
	if err != nil {
		return nil, err
	}
	avail := len(src) - off

	switch sub.Category() {
	case format.Fixed:
		n := 1 + sub.Width()
		if n > avail {
			return nil, truncatedAt(code, n, avail)
		}
		return &FixedBuffer{baseBuffer{raw: clip(src, off, n), code: code, sub: sub}}, nil

	case format.Variable:
		hdr := sub.DataOffset()
		if hdr > avail {
			return nil, truncatedAt(code, hdr, avail)
		}
		size, _ := sub.ReadPrefix(src[off+1 : off+hdr])
		n, ok := wire.SafeAdd(hdr, size)
		if !ok {
			return nil, errors.Overflow(errors.PhaseDecode, nil, size, "maximum encoded size")
		}
		if n > avail {
			return nil, truncatedAt(code, n, avail)
		}
		return &VariableBuffer{baseBuffer{raw: clip(src, off, n), code: code, sub: sub}}, nil

	case format.Compound, format.Array:
		return parseCounted(src, off, code, sub, depth)

	default:
		return parseDescribed(src, off, depth)
	}
}

func parseCounted(src []byte, off int, code byte, sub format.SubCategory, depth int) (EncodedBuffer, error) {
	avail := len(src) - off
	hdr := sub.DataOffset()
	if hdr > avail {
		return nil, truncatedAt(code, hdr, avail)
	}
	sizeField, count := sub.ReadPrefix(src[off+1 : off+hdr])
	if sizeField < sub.Width() {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Code(code).
			Detail("size field %d smaller than count field", sizeField).
			Build()
	}
	if count > wire.MaxElementCount {
		return nil, errors.Overflow(errors.PhaseDecode, nil, count, "maximum element count")
	}
	n, ok := wire.SafeAdd(1+sub.Width(), sizeField)
	if !ok {
		return nil, errors.Overflow(errors.PhaseDecode, nil, sizeField, "maximum encoded size")
	}
	if n > avail {
		return nil, truncatedAt(code, n, avail)
	}
	raw := clip(src, off, n)
	base := baseBuffer{raw: raw, code: code, sub: sub}

	if sub.Category() == format.Compound {
		return &CompoundBuffer{baseBuffer: base, count: count}, nil
	}

	ctorLen, elemSub, err := parseConstructor(raw, hdr, depth)
	if err != nil {
		return nil, err
	}
	return &ArrayBuffer{
		baseBuffer: base,
		ctor:       raw[hdr : hdr+ctorLen : hdr+ctorLen],
		elemSub:    elemSub,
		count:      count,
	}, nil
}

// parseConstructor measures an array element constructor at src[off]: either
// a single non-described format code, or 0x00 followed by a descriptor value
// and another constructor.
func parseConstructor(src []byte, off, depth int) (int, format.SubCategory, error) {
	start := off
	for {
		if off >= len(src) {
			return 0, 0, truncatedAt(format.CodeArray8, off+1-start, len(src)-start)
		}
		code := src[off]
		sub, err := format.Classify(code)
		if err != nil {
			return 0, 0, err
		}
		if sub != format.SubDescribed {
			return off + 1 - start, sub, nil
		}
		depth++
		if depth > maxNesting {
			return 0, 0, errors.InvalidData(errors.PhaseDecode, nil, "array constructor nested too deeply")
		}
		if off+1 >= len(src) {
			return 0, 0, truncatedAt(code, off+2-start, len(src)-start)
		}
		desc, err := parseBuffer(src, off+1, depth)
		if err != nil {
			return 0, 0, err
		}
		off += 1 + desc.EncodedSize()
	}
}

func parseDescribed(src []byte, off, depth int) (EncodedBuffer, error) {
	if off+1 >= len(src) {
		return nil, truncatedAt(format.CodeDescribed, 2, len(src)-off)
	}
	desc, err := parseBuffer(src, off+1, depth+1)
	if err != nil {
		return nil, withPath(err, "descriptor")
	}
	at := off + 1 + desc.EncodedSize()
	if at >= len(src) {
		return nil, truncatedAt(format.CodeDescribed, at+1-off, len(src)-off)
	}
	inner, err := parseBuffer(src, at, depth+1)
	if err != nil {
		return nil, withPath(err, "described")
	}
	n := 1 + desc.EncodedSize() + inner.EncodedSize()
	return &DescribedBuffer{
		baseBuffer: baseBuffer{raw: clip(src, off, n), code: format.CodeDescribed, sub: format.SubDescribed},
		descriptor: desc,
		described:  inner,
	}, nil
}

// elementDataLen returns the length of one array element's data, which
// starts with the element's own size prefix for non-fixed categories.
func elementDataLen(sub format.SubCategory, data []byte) (int, error) {
	w := sub.Width()
	switch sub.Category() {
	case format.Fixed:
		if w > len(data) {
			return 0, errors.Truncated(errors.PhaseDecode, nil, w, len(data))
		}
		return w, nil
	case format.Variable, format.Compound, format.Array:
		if w > len(data) {
			return 0, errors.Truncated(errors.PhaseDecode, nil, w, len(data))
		}
		size := readSize(data[:w])
		n, ok := wire.SafeAdd(w, size)
		if !ok {
			return 0, errors.Overflow(errors.PhaseDecode, nil, size, "maximum encoded size")
		}
		if n > len(data) {
			return 0, errors.Truncated(errors.PhaseDecode, nil, n, len(data))
		}
		return n, nil
	default:
		return 0, errors.Unsupported(errors.PhaseDecode, "described element code inside array constructor")
	}
}

func readSize(p []byte) int {
	if len(p) == 1 {
		return int(p[0])
	}
	return int(wire.Uint32(p))
}

func joinElement(ctor, data []byte) (EncodedBuffer, error) {
	raw := make([]byte, 0, len(ctor)+len(data))
	raw = append(raw, ctor...)
	raw = append(raw, data...)
	eb, err := parseBuffer(raw, 0, 0)
	if err != nil {
		return nil, err
	}
	if eb.EncodedSize() != len(raw) {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "array element size disagrees with its data")
	}
	return eb, nil
}

// ReadBuffer reads one complete value from in, starting with its format byte.
func ReadBuffer(in Input) (EncodedBuffer, error) {
	code, err := in.ReadByte()
	if err != nil {
		return nil, err
	}
	return ReadBufferCode(code, in)
}

// ReadBufferCode reads the remainder of a value whose format byte has
// already been consumed. It blocks until exactly one value's bytes are read
// and reports a truncation error on a short stream.
func ReadBufferCode(code byte, in Input) (EncodedBuffer, error) {
	return readBufferLimit(code, in, inputLimit(in))
}

// readBufferLimit is ReadBufferCode for values of at most limit encoded
// bytes. Larger declared sizes fail before their data is read.
func readBufferLimit(code byte, in Input, limit int) (EncodedBuffer, error) {
	raw, err := readRaw(code, in, 0, limit)
	if err != nil {
		return nil, err
	}
	return parseBuffer(raw, 0, 0)
}

func readRaw(code byte, in Input, depth, limit int) ([]byte, error) {
	if depth > maxNesting {
		return nil, errors.InvalidData(errors.PhaseUnmarshal, nil, "described values nested too deeply")
	}
	sub, err := format.Classify(code)
	if err != nil {
		return nil, err
	}

	if sub == format.SubDescribed {
		var out bytes.Buffer
		out.WriteByte(code)
		for _, part := range []string{"descriptor", "described"} {
			c, err := in.ReadByte()
			if err != nil {
				return nil, errors.TruncatedStream(errors.PhaseUnmarshal, []string{part}, err)
			}
			b, err := readRaw(c, in, depth+1, limit-out.Len())
			if err != nil {
				return nil, withPath(err, part)
			}
			out.Write(b)
		}
		return out.Bytes(), nil
	}

	hdr := sub.DataOffset()
	if sub.Category() == format.Fixed {
		raw := make([]byte, hdr+sub.Width())
		raw[0] = code
		if err := readFull(in, raw[1:]); err != nil {
			return nil, err
		}
		return raw, nil
	}

	prefix := make([]byte, hdr)
	prefix[0] = code
	if err := readFull(in, prefix[1:]); err != nil {
		return nil, err
	}
	size, count := sub.ReadPrefix(prefix[1:])
	rest := size
	if sub.EncodesCount() {
		body, ok := sizing.Body(size, sub.Width())
		if !ok {
			return nil, errors.New(errors.PhaseUnmarshal, errors.KindInvalidData).
				Code(code).
				Detail("size field %d smaller than count field", size).
				Build()
		}
		if count > wire.MaxElementCount {
			return nil, errors.Overflow(errors.PhaseUnmarshal, nil, count, "maximum element count")
		}
		rest = body
	}
	n, ok := wire.SafeAdd(hdr, rest)
	if !ok {
		return nil, errors.Overflow(errors.PhaseUnmarshal, nil, rest, "maximum encoded size")
	}
	if n > limit {
		return nil, limitErr(code, in, n, limit)
	}
	return readGrowing(in, prefix, rest)
}

// limitErr reports a declared size above limit. Inside a list, map or array
// the limit is the container's remaining bytes, so the element is truncated;
// otherwise the value exceeds the configured maximum.
func limitErr(code byte, in Input, n, limit int) error {
	if _, ok := in.(*limitedInput); ok {
		return errors.Truncated(errors.PhaseUnmarshal, nil, n, limit)
	}
	return errors.New(errors.PhaseUnmarshal, errors.KindOverflow).
		Code(code).
		Value(n).
		Detail("encoded size %d exceeds limit %d", n, limit).
		Build()
}

// clip returns src[off:off+n] with its capacity limited to n.
func clip(src []byte, off, n int) []byte {
	return src[off : off+n : off+n]
}

func truncatedAt(code byte, want, have int) error {
	return errors.New(errors.PhaseDecode, errors.KindTruncated).
		Code(code).
		Detail("need %d bytes, have %d", want, have).
		Build()
}
