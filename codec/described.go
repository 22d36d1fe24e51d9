package codec

import (
	"go.uber.org/zap"

	"github.com/wippyai/amqp-codec/codec/internal/format"
	"github.com/wippyai/amqp-codec/errors"
)

// Described pairs a descriptor with the value it describes. Descriptors are
// usually a ulong domain code or a symbol.
type Described struct {
	Descriptor Value
	Value      Value
}

// DescribedDecoder decodes the described value for one registered
// descriptor. The descriptor has already been matched and is not passed.
type DescribedDecoder interface {
	DecodeDescribed(r *Registry, buf EncodedBuffer) (Value, error)
}

// DescribedDecoderFunc adapts a function to DescribedDecoder.
type DescribedDecoderFunc func(r *Registry, buf EncodedBuffer) (Value, error)

func (f DescribedDecoderFunc) DecodeDescribed(r *Registry, buf EncodedBuffer) (Value, error) {
	return f(r, buf)
}

type describedCodec struct {
	reg *Registry
}

// DescribedCodec resolves descriptors against the default registry.
var DescribedCodec Codec[Described] = describedCodec{}

func (c describedCodec) registry() *Registry {
	if c.reg == nil {
		return DefaultRegistry()
	}
	return c.reg
}

func (describedCodec) TypeName() string         { return "described" }
func (describedCodec) Accepts(code byte) bool   { return code == format.CodeDescribed }
func (describedCodec) FormatCode(Described) byte { return format.CodeDescribed }

// DataSize covers everything after the 0x00 byte: the descriptor's and the
// described value's full encodings.
func (describedCodec) DataSize(_ byte, d Described) (int, error) {
	dn, err := elementSize(d.Descriptor)
	if err != nil {
		return 0, withPath(err, "descriptor")
	}
	vn, err := elementSize(d.Value)
	if err != nil {
		return 0, withPath(err, "described")
	}
	return dn + vn, nil
}

func (describedCodec) DataCount(byte, Described) (int, error) { return 1, nil }

func (describedCodec) Encode(_ byte, d Described, dst []byte) error {
	n, err := encodeElement(d.Descriptor, dst)
	if err != nil {
		return withPath(err, "descriptor")
	}
	if _, err := encodeElement(d.Value, dst[n:]); err != nil {
		return withPath(err, "described")
	}
	return nil
}

func (describedCodec) WriteData(_ byte, d Described, out Output) error {
	if err := marshalElement(d.Descriptor, out); err != nil {
		return withPath(err, "descriptor")
	}
	if err := marshalElement(d.Value, out); err != nil {
		return withPath(err, "described")
	}
	return nil
}

func (c describedCodec) Decode(buf EncodedBuffer) (Described, error) {
	db, ok := buf.(*DescribedBuffer)
	if !ok {
		return Described{}, errors.TypeMismatch(errors.PhaseDecode, nil, buf.FormatCode(), "described")
	}
	r := c.registry()
	desc, err := r.DecodeBuffer(db.Descriptor())
	if err != nil {
		return Described{}, withPath(err, "descriptor")
	}
	v, err := r.decodeDescribed(desc, db.Described())
	if err != nil {
		return Described{}, withPath(err, "described")
	}
	return Described{Descriptor: desc, Value: v}, nil
}

func (describedCodec) canonical(d Described) (Described, error) {
	desc, err := canonicalElement(d.Descriptor)
	if err != nil {
		return Described{}, withPath(err, "descriptor")
	}
	v, err := canonicalElement(d.Value)
	if err != nil {
		return Described{}, withPath(err, "described")
	}
	return Described{Descriptor: desc, Value: v}, nil
}

// NewDescribed builds a described value.
func NewDescribed(descriptor, value Value) *Encoded[Described] {
	return NewEncoded(DescribedCodec, Described{Descriptor: descriptor, Value: value})
}

// descriptorKey identifies a described type by numeric code or symbol.
type descriptorKey struct {
	name Symbol
	code uint64
	sym  bool
}

func (k descriptorKey) String() string {
	if k.sym {
		return string(k.name)
	}
	return formatDescriptorCode(k.code)
}

// keyOf extracts the lookup key from a descriptor. Only ulong and symbol
// descriptors can be registered.
func keyOf(desc Value) (descriptorKey, bool, error) {
	if desc == nil {
		return descriptorKey{}, false, nil
	}
	switch desc.FormatCode() {
	case format.CodeUlong, format.CodeSmallUlong, format.CodeUlong0:
		v, err := desc.Interface()
		if err != nil {
			return descriptorKey{}, false, err
		}
		code, ok := v.(uint64)
		return descriptorKey{code: code}, ok, nil
	case format.CodeSym8, format.CodeSym32:
		v, err := desc.Interface()
		if err != nil {
			return descriptorKey{}, false, err
		}
		name, ok := v.(Symbol)
		return descriptorKey{name: name, sym: true}, ok, nil
	}
	return descriptorKey{}, false, nil
}

func (r *Registry) decodeDescribed(desc Value, inner EncodedBuffer) (Value, error) {
	key, ok, err := keyOf(desc)
	if err != nil {
		return nil, err
	}
	if ok {
		if dec := r.describedDecoder(key); dec != nil {
			return dec.DecodeDescribed(r, inner)
		}
		Logger().Debug("no decoder registered for descriptor", zap.Stringer("descriptor", key))
	}
	return r.DecodeBuffer(inner)
}
