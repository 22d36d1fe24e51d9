package codec

import (
	"bytes"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/amqp-codec/codec/internal/format"
	"github.com/wippyai/amqp-codec/codec/internal/sizing"
	"github.com/wippyai/amqp-codec/codec/internal/wire"
	"github.com/wippyai/amqp-codec/errors"
)

// Array is a homogeneous sequence. Every element is encoded with the same
// constructor, which is written once ahead of the element data.
type Array struct {
	// Constructor is a single format code, or 0x00 followed by a descriptor
	// and a format code for arrays of described values.
	Constructor []byte
	Elements    []Value
}

// NewArray builds an array from elements of one type. Elements whose codes
// differ only in size class or compactness are re-bound to the widest code,
// e.g. a mix of str8 and str32 becomes str32. Nulls and mixed types are
// rejected.
func NewArray(elems ...Value) (*Encoded[Array], error) {
	a, err := normalizeArray(elems)
	if err != nil {
		return nil, err
	}
	return NewEncoded(ArrayCodec, a), nil
}

// NewEmptyArray builds a zero-length array of elements with the given code.
func NewEmptyArray(elemCode byte) (*Encoded[Array], error) {
	sub, err := format.Classify(elemCode)
	if err != nil {
		return nil, err
	}
	if sub == format.SubDescribed || elemCode == format.CodeNull {
		return nil, errors.Unsupported(errors.PhaseEncode, "empty array element code must be a non-null primitive or composite code")
	}
	return NewEncoded(ArrayCodec, Array{Constructor: []byte{elemCode}, Elements: []Value{}}), nil
}

func elementConstructor(v Value) ([]byte, error) {
	buf, err := v.Buffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes()[:buf.ConstructorLength()], nil
}

func normalizeArray(elems []Value) (Array, error) {
	if len(elems) == 0 {
		return Array{}, errors.Unsupported(errors.PhaseEncode, "empty array needs an explicit element code")
	}
	ctors := make([][]byte, len(elems))
	same := true
	for i, e := range elems {
		if e == nil || e.IsNull() {
			return Array{}, withPath(errors.Unsupported(errors.PhaseEncode, "arrays cannot hold null elements"), indexPath("array", i))
		}
		c, err := elementConstructor(e)
		if err != nil {
			return Array{}, withPath(err, indexPath("array", i))
		}
		ctors[i] = c
		same = same && bytes.Equal(c, ctors[0])
	}
	if same {
		return Array{Constructor: slices.Clone(ctors[0]), Elements: slices.Clone(elems)}, nil
	}

	target, ok := widestCode(elems)
	if !ok {
		return Array{}, errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Detail("array elements use incompatible constructors % x and % x", ctors[0], firstOther(ctors)).
			Build()
	}
	Logger().Debug("array elements re-bound to a common code", zap.String("code", format.CodeName(target)))
	out := make([]Value, len(elems))
	for i, e := range elems {
		v, err := e.WithFormatCode(target)
		if err != nil {
			return Array{}, withPath(err, indexPath("array", i))
		}
		out[i] = v
	}
	return Array{Constructor: []byte{target}, Elements: out}, nil
}

func firstOther(ctors [][]byte) []byte {
	for _, c := range ctors[1:] {
		if !bytes.Equal(c, ctors[0]) {
			return c
		}
	}
	return ctors[0]
}

// codeFamily groups the codes of one type: the short or compact forms and
// the code they widen to.
func codeFamily(code byte) (family, wide byte) {
	switch code {
	case format.CodeBoolTrue, format.CodeBoolFalse, format.CodeBool:
		return format.CodeBool, format.CodeBool
	case format.CodeUint0, format.CodeSmallUint, format.CodeUint:
		return format.CodeUint, format.CodeUint
	case format.CodeUlong0, format.CodeSmallUlong, format.CodeUlong:
		return format.CodeUlong, format.CodeUlong
	case format.CodeSmallInt, format.CodeInt:
		return format.CodeInt, format.CodeInt
	case format.CodeSmallLong, format.CodeLong:
		return format.CodeLong, format.CodeLong
	case format.CodeList0:
		return format.CodeList8, format.CodeList32
	}
	sub, err := format.Classify(code)
	if err == nil && sub.EncodesSize() {
		return code &^ 0x10, code | 0x10
	}
	return code, code
}

// widestCode returns the one code every element can be re-bound to. Only
// non-described elements of a single type family qualify.
func widestCode(elems []Value) (byte, bool) {
	fam, wide := codeFamily(elems[0].FormatCode())
	for _, e := range elems[1:] {
		f, _ := codeFamily(e.FormatCode())
		if f != fam {
			return 0, false
		}
	}
	if fam == format.CodeDescribed {
		return 0, false
	}
	return wide, true
}

// elementData returns the bytes of element i after the shared constructor.
func elementData(a Array, i int) ([]byte, error) {
	e := a.Elements[i]
	if e == nil || e.IsNull() {
		return nil, errors.Unsupported(errors.PhaseEncode, "arrays cannot hold null elements")
	}
	buf, err := e.Buffer()
	if err != nil {
		return nil, err
	}
	raw := buf.Bytes()
	if buf.ConstructorLength() != len(a.Constructor) || !bytes.HasPrefix(raw, a.Constructor) {
		return nil, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			Code(e.FormatCode()).
			Detail("element constructor % x differs from array constructor % x",
				raw[:buf.ConstructorLength()], a.Constructor).
			Build()
	}
	return raw[len(a.Constructor):], nil
}

// EncodeArray writes the shared constructor, then each element's data, into
// dst and returns the number of bytes written.
func EncodeArray(a Array, dst []byte) (int, error) {
	off := copy(dst, a.Constructor)
	for i := range a.Elements {
		data, err := elementData(a, i)
		if err != nil {
			return off, withPath(err, indexPath("array", i))
		}
		off += copy(dst[off:], data)
	}
	return off, nil
}

// DecodeArray decodes each element of buf with dec.
func DecodeArray(buf *ArrayBuffer, dec ListElementDecoder) (Array, error) {
	ebs, err := buf.Elements()
	if err != nil {
		return Array{}, err
	}
	elems := make([]Value, len(ebs))
	for i, eb := range ebs {
		v, err := dec.DecodeElement(i, eb)
		if err != nil {
			return Array{}, withPath(err, indexPath("array", i))
		}
		elems[i] = v
	}
	return Array{Constructor: slices.Clone(buf.ElementConstructor()), Elements: elems}, nil
}

// WriteArray writes the shared constructor once, then each element's data.
func WriteArray(a Array, out Output) error {
	if _, err := out.Write(a.Constructor); err != nil {
		return err
	}
	for i := range a.Elements {
		data, err := elementData(a, i)
		if err != nil {
			return withPath(err, indexPath("array", i))
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// ReadArray reads the shared constructor and count element data sections
// from in.
func ReadArray(in Input, count int, dec ListElementDecoder) (Array, error) {
	ctor, sub, err := readConstructor(in)
	if err != nil {
		return Array{}, err
	}
	// Only zero-width elements can outnumber the remaining bytes.
	if l, ok := in.(*limitedInput); ok && sub != format.Fixed0 && count > l.n {
		return Array{}, errors.Truncated(errors.PhaseUnmarshal, nil, count, l.n)
	}
	elems := make([]Value, 0, min(count, 1024))
	for i := 0; i < count; i++ {
		data, err := readElementData(in, sub)
		if err != nil {
			return Array{}, withPath(err, indexPath("array", i))
		}
		eb, err := joinElement(ctor, data)
		if err != nil {
			return Array{}, withPath(err, indexPath("array", i))
		}
		v, err := dec.DecodeElement(i, eb)
		if err != nil {
			return Array{}, withPath(err, indexPath("array", i))
		}
		elems = append(elems, v)
	}
	return Array{Constructor: ctor, Elements: elems}, nil
}

func readConstructor(in Input) ([]byte, format.SubCategory, error) {
	var ctor []byte
	for depth := 0; depth <= maxNesting; depth++ {
		code, err := in.ReadByte()
		if err != nil {
			return nil, 0, streamErr(err)
		}
		ctor = append(ctor, code)
		sub, err := format.Classify(code)
		if err != nil {
			return nil, 0, err
		}
		if sub != format.SubDescribed {
			return ctor, sub, nil
		}
		desc, err := ReadBuffer(in)
		if err != nil {
			return nil, 0, withPath(streamErr(err), "descriptor")
		}
		ctor = append(ctor, desc.Bytes()...)
	}
	return nil, 0, errors.InvalidData(errors.PhaseUnmarshal, nil, "array constructor nested too deeply")
}

func readElementData(in Input, sub format.SubCategory) ([]byte, error) {
	w := sub.Width()
	if sub.IsFixed() {
		data := make([]byte, w)
		return data, readFull(in, data)
	}
	prefix := make([]byte, w)
	if err := readFull(in, prefix); err != nil {
		return nil, err
	}
	size := readSize(prefix)
	_, ok := wire.SafeAdd(w, size)
	if !ok {
		return nil, errors.Overflow(errors.PhaseUnmarshal, nil, size, "maximum encoded size")
	}
	// The format byte is shared, so the data may use everything left.
	if limit := inputLimit(in) - 1; size > limit {
		return nil, errors.Truncated(errors.PhaseUnmarshal, nil, size, limit)
	}
	return readGrowing(in, prefix, size)
}

type arrayCodec struct {
	dec ListElementDecoder
}

// ArrayCodec decodes array elements with the default registry.
var ArrayCodec Codec[Array] = arrayCodec{}

func (c arrayCodec) decoder() ListElementDecoder {
	if c.dec == nil {
		return DefaultRegistry()
	}
	return c.dec
}

func (arrayCodec) TypeName() string { return "array" }

func (arrayCodec) Accepts(code byte) bool {
	return code == format.CodeArray8 || code == format.CodeArray32
}

func (arrayCodec) FormatCode(a Array) byte {
	c := sizing.NewChooser(len(a.Constructor))
	for i := range a.Elements {
		data, err := elementData(a, i)
		if err != nil {
			// DataSize reports the same error.
			return format.CodeArray8
		}
		if !c.Add(len(data)) {
			break
		}
	}
	if c.Long() {
		Logger().Debug("compound promoted to long form",
			zap.String("code", format.CodeName(format.CodeArray32)),
			zap.Int("count", len(a.Elements)))
		return format.CodeArray32
	}
	return format.CodeArray8
}

func (arrayCodec) DataSize(_ byte, a Array) (int, error) {
	if len(a.Constructor) == 0 {
		return 0, errors.EncodingState(errors.PhaseEncode, "array has no element constructor")
	}
	total := len(a.Constructor)
	for i := range a.Elements {
		data, err := elementData(a, i)
		if err != nil {
			return 0, withPath(err, indexPath("array", i))
		}
		total += len(data)
		if total > MaxEncodedSize {
			return 0, errors.Overflow(errors.PhaseEncode, nil, total, "maximum encoded size")
		}
	}
	return total, nil
}

func (arrayCodec) DataCount(_ byte, a Array) (int, error) { return len(a.Elements), nil }

func (arrayCodec) Encode(_ byte, a Array, dst []byte) error {
	_, err := EncodeArray(a, dst)
	return err
}

func (arrayCodec) WriteData(_ byte, a Array, out Output) error {
	return WriteArray(a, out)
}

func (c arrayCodec) Decode(buf EncodedBuffer) (Array, error) {
	ab, ok := buf.(*ArrayBuffer)
	if !ok {
		return Array{}, errors.TypeMismatch(errors.PhaseDecode, nil, buf.FormatCode(), "array")
	}
	return DecodeArray(ab, c.decoder())
}

func (arrayCodec) canonical(a Array) (Array, error) {
	if len(a.Elements) == 0 {
		return a, nil
	}
	elems := make([]Value, len(a.Elements))
	for i, e := range a.Elements {
		ce, err := canonicalElement(e)
		if err != nil {
			return Array{}, withPath(err, indexPath("array", i))
		}
		elems[i] = ce
	}
	return normalizeArray(elems)
}
