package codec

import (
	"github.com/wippyai/amqp-codec/codec/internal/format"
	"github.com/wippyai/amqp-codec/errors"
)

// Decode decodes b, which must hold exactly one value, with the default
// registry. The returned value aliases b.
func Decode(b []byte) (Value, error) {
	return DefaultRegistry().Decode(b)
}

// DecodeAt decodes the value at b[off] and returns the bytes it consumed.
func DecodeAt(b []byte, off int) (Value, int, error) {
	return DefaultRegistry().DecodeAt(b, off)
}

// DecodeAll decodes a sequence of back-to-back values.
func DecodeAll(b []byte) ([]Value, error) {
	return DefaultRegistry().DecodeAll(b)
}

// DecodeFromStream reads exactly one value from in. A stream that ends
// inside the value yields a truncation error.
func DecodeFromStream(in Input) (Value, error) {
	return DefaultRegistry().ReadValue(in)
}

// Marshal writes v's full encoding to out. A nil v is written as null.
func Marshal(v Value, out Output) error {
	if err := marshalElement(v, out); err != nil {
		return errors.Wrap(errors.PhaseMarshal, kindOf(err), err, "marshal "+typeName(v))
	}
	return nil
}

// EncodedBytes returns v's full encoding. When v already holds its bytes the
// result is a copy.
func EncodedBytes(v Value) ([]byte, error) {
	if v == nil {
		return []byte{format.CodeNull}, nil
	}
	n, err := v.EncodedSize()
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if _, err := v.EncodeTo(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValueOf returns the Go value held by v when v was built for type V.
func ValueOf[V any](v Value) (V, error) {
	e, ok := v.(*Encoded[V])
	if !ok {
		var zero V
		name := "nil"
		if v != nil {
			name = v.TypeName()
		}
		return zero, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			Type(name).
			Detail("value does not hold %T", zero).
			Build()
	}
	return e.Value()
}

func typeName(v Value) string {
	if v == nil {
		return "null"
	}
	return v.TypeName()
}

func kindOf(err error) errors.Kind {
	for _, k := range []errors.Kind{
		errors.KindUnsupported,
		errors.KindOverflow,
		errors.KindTypeMismatch,
		errors.KindInvalidUTF8,
		errors.KindInvalidASCII,
		errors.KindEncodingState,
	} {
		if errors.IsKind(err, k) {
			return k
		}
	}
	return errors.KindInvalidData
}
