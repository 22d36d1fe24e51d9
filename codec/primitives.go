package codec

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wippyai/amqp-codec/codec/internal/format"
	"github.com/wippyai/amqp-codec/codec/internal/sizing"
	"github.com/wippyai/amqp-codec/codec/internal/wire"
	"github.com/wippyai/amqp-codec/errors"
)

// Symbol is an AMQP symbolic value: 7-bit ASCII, typically a constant name.
type Symbol string

// Decimal values are carried as raw IEEE 754 decimal bytes.
type (
	Decimal32  [4]byte
	Decimal64  [8]byte
	Decimal128 [16]byte
)

// fixedCodec handles types whose payload width is determined by the format
// code alone. codes[0] is the canonical encoding; the rest are compact forms
// accepted on decode.
type fixedCodec[V any] struct {
	name  string
	codes []byte
	put   func(dst []byte, v V) error
	get   func(code byte, data []byte) (V, error)
}

func (c *fixedCodec[V]) TypeName() string { return c.name }

func (c *fixedCodec[V]) Accepts(code byte) bool {
	for _, k := range c.codes {
		if k == code {
			return true
		}
	}
	return false
}

func (c *fixedCodec[V]) FormatCode(V) byte { return c.codes[0] }

func (c *fixedCodec[V]) DataSize(code byte, _ V) (int, error) {
	return format.MustClassify(code).Width(), nil
}

func (c *fixedCodec[V]) DataCount(byte, V) (int, error) { return 1, nil }

func (c *fixedCodec[V]) Encode(code byte, v V, dst []byte) error {
	if code != c.codes[0] {
		return errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Code(code).
			Type(c.name).
			Detail("compact encodings are decode-only").
			Build()
	}
	return c.put(dst, v)
}

func (c *fixedCodec[V]) Decode(buf EncodedBuffer) (V, error) {
	code := buf.FormatCode()
	if !c.Accepts(code) {
		var zero V
		return zero, errors.TypeMismatch(errors.PhaseDecode, nil, code, c.name)
	}
	return c.get(code, buf.Data())
}

var (
	UbyteCodec Codec[uint8] = &fixedCodec[uint8]{
		name:  "ubyte",
		codes: []byte{format.CodeUbyte},
		put:   func(dst []byte, v uint8) error { dst[0] = v; return nil },
		get:   func(_ byte, p []byte) (uint8, error) { return p[0], nil },
	}

	UshortCodec Codec[uint16] = &fixedCodec[uint16]{
		name:  "ushort",
		codes: []byte{format.CodeUshort},
		put:   func(dst []byte, v uint16) error { wire.PutUint16(dst, v); return nil },
		get:   func(_ byte, p []byte) (uint16, error) { return wire.Uint16(p), nil },
	}

	UintCodec Codec[uint32] = &fixedCodec[uint32]{
		name:  "uint",
		codes: []byte{format.CodeUint, format.CodeSmallUint, format.CodeUint0},
		put:   func(dst []byte, v uint32) error { wire.PutUint32(dst, v); return nil },
		get: func(code byte, p []byte) (uint32, error) {
			switch code {
			case format.CodeUint0:
				return 0, nil
			case format.CodeSmallUint:
				return uint32(p[0]), nil
			}
			return wire.Uint32(p), nil
		},
	}

	UlongCodec Codec[uint64] = &fixedCodec[uint64]{
		name:  "ulong",
		codes: []byte{format.CodeUlong, format.CodeSmallUlong, format.CodeUlong0},
		put:   func(dst []byte, v uint64) error { wire.PutUint64(dst, v); return nil },
		get: func(code byte, p []byte) (uint64, error) {
			switch code {
			case format.CodeUlong0:
				return 0, nil
			case format.CodeSmallUlong:
				return uint64(p[0]), nil
			}
			return wire.Uint64(p), nil
		},
	}

	ByteCodec Codec[int8] = &fixedCodec[int8]{
		name:  "byte",
		codes: []byte{format.CodeByte},
		put:   func(dst []byte, v int8) error { dst[0] = byte(v); return nil },
		get:   func(_ byte, p []byte) (int8, error) { return int8(p[0]), nil },
	}

	ShortCodec Codec[int16] = &fixedCodec[int16]{
		name:  "short",
		codes: []byte{format.CodeShort},
		put:   func(dst []byte, v int16) error { wire.PutUint16(dst, uint16(v)); return nil },
		get:   func(_ byte, p []byte) (int16, error) { return int16(wire.Uint16(p)), nil },
	}

	IntCodec Codec[int32] = &fixedCodec[int32]{
		name:  "int",
		codes: []byte{format.CodeInt, format.CodeSmallInt},
		put:   func(dst []byte, v int32) error { wire.PutUint32(dst, uint32(v)); return nil },
		get: func(code byte, p []byte) (int32, error) {
			if code == format.CodeSmallInt {
				return int32(int8(p[0])), nil
			}
			return int32(wire.Uint32(p)), nil
		},
	}

	LongCodec Codec[int64] = &fixedCodec[int64]{
		name:  "long",
		codes: []byte{format.CodeLong, format.CodeSmallLong},
		put:   func(dst []byte, v int64) error { wire.PutUint64(dst, uint64(v)); return nil },
		get: func(code byte, p []byte) (int64, error) {
			if code == format.CodeSmallLong {
				return int64(int8(p[0])), nil
			}
			return int64(wire.Uint64(p)), nil
		},
	}

	FloatCodec Codec[float32] = &fixedCodec[float32]{
		name:  "float",
		codes: []byte{format.CodeFloat},
		put:   func(dst []byte, v float32) error { wire.PutFloat32(dst, v); return nil },
		get:   func(_ byte, p []byte) (float32, error) { return wire.Float32(p), nil },
	}

	DoubleCodec Codec[float64] = &fixedCodec[float64]{
		name:  "double",
		codes: []byte{format.CodeDouble},
		put:   func(dst []byte, v float64) error { wire.PutFloat64(dst, v); return nil },
		get:   func(_ byte, p []byte) (float64, error) { return wire.Float64(p), nil },
	}

	CharCodec Codec[rune] = &fixedCodec[rune]{
		name:  "char",
		codes: []byte{format.CodeChar},
		put: func(dst []byte, v rune) error {
			if !wire.ValidChar(v) {
				return errors.New(errors.PhaseEncode, errors.KindInvalidData).
					Type("char").
					Value(v).
					Detail("0x%x is not a Unicode scalar value", v).
					Build()
			}
			wire.PutUint32(dst, uint32(v))
			return nil
		},
		get: func(_ byte, p []byte) (rune, error) {
			r := rune(wire.Uint32(p))
			if !wire.ValidChar(r) {
				return 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
					Code(format.CodeChar).
					Detail("0x%x is not a Unicode scalar value", uint32(r)).
					Build()
			}
			return r, nil
		},
	}

	TimestampCodec Codec[time.Time] = &fixedCodec[time.Time]{
		name:  "timestamp",
		codes: []byte{format.CodeTimestamp},
		put:   func(dst []byte, v time.Time) error { wire.PutTimestamp(dst, v); return nil },
		get:   func(_ byte, p []byte) (time.Time, error) { return wire.Timestamp(p), nil },
	}

	UUIDCodec Codec[uuid.UUID] = &fixedCodec[uuid.UUID]{
		name:  "uuid",
		codes: []byte{format.CodeUUID},
		put:   func(dst []byte, v uuid.UUID) error { wire.PutUUID(dst, v); return nil },
		get:   func(_ byte, p []byte) (uuid.UUID, error) { return wire.UUID(p), nil },
	}

	Decimal32Codec Codec[Decimal32] = &fixedCodec[Decimal32]{
		name:  "decimal32",
		codes: []byte{format.CodeDecimal32},
		put:   func(dst []byte, v Decimal32) error { copy(dst, v[:]); return nil },
		get:   func(_ byte, p []byte) (Decimal32, error) { return Decimal32(p), nil },
	}

	Decimal64Codec Codec[Decimal64] = &fixedCodec[Decimal64]{
		name:  "decimal64",
		codes: []byte{format.CodeDecimal64},
		put:   func(dst []byte, v Decimal64) error { copy(dst, v[:]); return nil },
		get:   func(_ byte, p []byte) (Decimal64, error) { return Decimal64(p), nil },
	}

	Decimal128Codec Codec[Decimal128] = &fixedCodec[Decimal128]{
		name:  "decimal128",
		codes: []byte{format.CodeDecimal128},
		put:   func(dst []byte, v Decimal128) error { copy(dst, v[:]); return nil },
		get:   func(_ byte, p []byte) (Decimal128, error) { return Decimal128(p), nil },
	}
)

// boolCodec encodes true and false as distinct zero-width codes and accepts
// the one byte boolean form on decode and when requested explicitly.
type boolCodec struct{}

var BoolCodec Codec[bool] = boolCodec{}

func (boolCodec) TypeName() string { return "boolean" }

func (boolCodec) Accepts(code byte) bool {
	return code == format.CodeBoolTrue || code == format.CodeBoolFalse || code == format.CodeBool
}

func (boolCodec) FormatCode(v bool) byte {
	if v {
		return format.CodeBoolTrue
	}
	return format.CodeBoolFalse
}

func (boolCodec) DataSize(code byte, _ bool) (int, error) {
	if code == format.CodeBool {
		return 1, nil
	}
	return 0, nil
}

func (boolCodec) DataCount(byte, bool) (int, error) { return 1, nil }

func (boolCodec) Encode(code byte, v bool, dst []byte) error {
	switch code {
	case format.CodeBool:
		dst[0] = 0
		if v {
			dst[0] = 1
		}
	case format.CodeBoolTrue, format.CodeBoolFalse:
		if v != (code == format.CodeBoolTrue) {
			return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
				Code(code).
				Type("boolean").
				Detail("value %v cannot use this code", v).
				Build()
		}
	}
	return nil
}

func (boolCodec) Decode(buf EncodedBuffer) (bool, error) {
	switch buf.FormatCode() {
	case format.CodeBoolTrue:
		return true, nil
	case format.CodeBoolFalse:
		return false, nil
	case format.CodeBool:
		switch buf.Data()[0] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return false, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Code(format.CodeBool).
			Detail("boolean byte 0x%02x is neither 0x00 nor 0x01", buf.Data()[0]).
			Build()
	}
	return false, errors.TypeMismatch(errors.PhaseDecode, nil, buf.FormatCode(), "boolean")
}

// binaryCodec handles vbin8 and vbin32. Decoded slices alias the buffer.
type binaryCodec struct{}

var BinaryCodec Codec[[]byte] = binaryCodec{}

func (binaryCodec) TypeName() string { return "binary" }

func (binaryCodec) Accepts(code byte) bool {
	return code == format.CodeVbin8 || code == format.CodeVbin32
}

func (binaryCodec) FormatCode(v []byte) byte {
	if sizing.VariableLong(len(v)) {
		return format.CodeVbin32
	}
	return format.CodeVbin8
}

func (binaryCodec) DataSize(_ byte, v []byte) (int, error) { return len(v), nil }
func (binaryCodec) DataCount(byte, []byte) (int, error)    { return 1, nil }

func (binaryCodec) Encode(_ byte, v []byte, dst []byte) error {
	copy(dst, v)
	return nil
}

func (binaryCodec) Decode(buf EncodedBuffer) ([]byte, error) {
	if !(binaryCodec{}).Accepts(buf.FormatCode()) {
		return nil, errors.TypeMismatch(errors.PhaseDecode, nil, buf.FormatCode(), "binary")
	}
	return buf.Data(), nil
}

// stringCodec handles the UTF-8 and UTF-16 string forms. utf16 only selects
// which family FormatCode picks; Decode accepts all four codes.
type stringCodec struct {
	utf16 bool
}

var (
	StringCodec      Codec[string] = stringCodec{}
	StringUTF16Codec Codec[string] = stringCodec{utf16: true}
)

func (stringCodec) TypeName() string { return "string" }

func (stringCodec) Accepts(code byte) bool {
	switch code {
	case format.CodeStr8, format.CodeStr32, format.CodeStr8UTF16, format.CodeStr32UTF16:
		return true
	}
	return false
}

func isUTF16(code byte) bool {
	return code == format.CodeStr8UTF16 || code == format.CodeStr32UTF16
}

func (c stringCodec) FormatCode(v string) byte {
	if c.utf16 {
		n, _ := wire.UTF16Len(v)
		if sizing.VariableLong(n) {
			return format.CodeStr32UTF16
		}
		return format.CodeStr8UTF16
	}
	if sizing.VariableLong(len(v)) {
		return format.CodeStr32
	}
	return format.CodeStr8
}

func (stringCodec) DataSize(code byte, v string) (int, error) {
	if !utf8.ValidString(v) {
		return 0, errors.InvalidUTF8(errors.PhaseEncode, nil, []byte(v))
	}
	if isUTF16(code) {
		n, _ := wire.UTF16Len(v)
		return n, nil
	}
	return len(v), nil
}

func (stringCodec) DataCount(byte, string) (int, error) { return 1, nil }

func (stringCodec) Encode(code byte, v string, dst []byte) error {
	if !isUTF16(code) {
		copy(dst, v)
		return nil
	}
	b, err := wire.EncodeUTF16(v)
	if err != nil {
		return errors.Wrap(errors.PhaseEncode, errors.KindInvalidUTF8, err, "utf-16 conversion")
	}
	copy(dst, b)
	return nil
}

func (c stringCodec) Decode(buf EncodedBuffer) (string, error) {
	code := buf.FormatCode()
	if !c.Accepts(code) {
		return "", errors.TypeMismatch(errors.PhaseDecode, nil, code, "string")
	}
	data := buf.Data()
	if isUTF16(code) {
		s, ok := wire.DecodeUTF16(data)
		if !ok {
			return "", errors.New(errors.PhaseDecode, errors.KindInvalidUTF8).
				Code(code).
				Detail("malformed UTF-16 sequence").
				Build()
		}
		return s, nil
	}
	if !utf8.Valid(data) {
		return "", errors.InvalidUTF8(errors.PhaseDecode, nil, data)
	}
	return string(data), nil
}

// symbolCodec handles sym8 and sym32. Encoding always requires 7-bit ASCII;
// decoding checks it only when strict.
type symbolCodec struct {
	strict bool
}

var SymbolCodec Codec[Symbol] = symbolCodec{}

func (symbolCodec) TypeName() string { return "symbol" }

func (symbolCodec) Accepts(code byte) bool {
	return code == format.CodeSym8 || code == format.CodeSym32
}

func (symbolCodec) FormatCode(v Symbol) byte {
	if sizing.VariableLong(len(v)) {
		return format.CodeSym32
	}
	return format.CodeSym8
}

func (symbolCodec) DataSize(_ byte, v Symbol) (int, error) {
	if i := wire.FirstNonASCII(string(v)); i >= 0 {
		return 0, errors.InvalidASCII(errors.PhaseEncode, nil, i, v[i])
	}
	return len(v), nil
}

func (symbolCodec) DataCount(byte, Symbol) (int, error) { return 1, nil }

func (symbolCodec) Encode(_ byte, v Symbol, dst []byte) error {
	copy(dst, v)
	return nil
}

func (c symbolCodec) Decode(buf EncodedBuffer) (Symbol, error) {
	code := buf.FormatCode()
	if !c.Accepts(code) {
		return "", errors.TypeMismatch(errors.PhaseDecode, nil, code, "symbol")
	}
	s := string(buf.Data())
	if c.strict {
		if i := wire.FirstNonASCII(s); i >= 0 {
			return "", errors.InvalidASCII(errors.PhaseDecode, nil, i, s[i])
		}
	}
	return Symbol(s), nil
}

// rawCodec keeps values whose format code has a valid category but no
// registered type. It round-trips the bytes unchanged.
type rawCodec struct{}

func (rawCodec) TypeName() string                       { return "unknown" }
func (rawCodec) Accepts(byte) bool                      { return true }
func (rawCodec) FormatCode([]byte) byte                 { return format.CodeNull }
func (rawCodec) DataSize(_ byte, v []byte) (int, error) { return len(v), nil }
func (rawCodec) DataCount(byte, []byte) (int, error)    { return 1, nil }

func (rawCodec) Encode(_ byte, v []byte, dst []byte) error {
	copy(dst, v)
	return nil
}

func (rawCodec) Decode(buf EncodedBuffer) ([]byte, error) {
	return buf.Data(), nil
}

func NewBool(v bool) *Encoded[bool]                { return NewEncoded(BoolCodec, v) }
func NewUbyte(v uint8) *Encoded[uint8]             { return NewEncoded(UbyteCodec, v) }
func NewUshort(v uint16) *Encoded[uint16]          { return NewEncoded(UshortCodec, v) }
func NewUint(v uint32) *Encoded[uint32]            { return NewEncoded(UintCodec, v) }
func NewUlong(v uint64) *Encoded[uint64]           { return NewEncoded(UlongCodec, v) }
func NewByte(v int8) *Encoded[int8]                { return NewEncoded(ByteCodec, v) }
func NewShort(v int16) *Encoded[int16]             { return NewEncoded(ShortCodec, v) }
func NewInt(v int32) *Encoded[int32]               { return NewEncoded(IntCodec, v) }
func NewLong(v int64) *Encoded[int64]              { return NewEncoded(LongCodec, v) }
func NewFloat(v float32) *Encoded[float32]         { return NewEncoded(FloatCodec, v) }
func NewDouble(v float64) *Encoded[float64]        { return NewEncoded(DoubleCodec, v) }
func NewChar(v rune) *Encoded[rune]                { return NewEncoded(CharCodec, v) }
func NewTimestamp(v time.Time) *Encoded[time.Time] { return NewEncoded(TimestampCodec, v) }
func NewUUID(v uuid.UUID) *Encoded[uuid.UUID]      { return NewEncoded(UUIDCodec, v) }
func NewBinary(v []byte) *Encoded[[]byte]          { return NewEncoded(BinaryCodec, v) }
func NewString(v string) *Encoded[string]          { return NewEncoded(StringCodec, v) }
func NewSymbol(v Symbol) *Encoded[Symbol]          { return NewEncoded(SymbolCodec, v) }

// NewStringUTF16 encodes v with the UTF-16 string codes.
func NewStringUTF16(v string) *Encoded[string] { return NewEncoded(StringUTF16Codec, v) }

func NewDecimal32(v Decimal32) *Encoded[Decimal32]    { return NewEncoded(Decimal32Codec, v) }
func NewDecimal64(v Decimal64) *Encoded[Decimal64]    { return NewEncoded(Decimal64Codec, v) }
func NewDecimal128(v Decimal128) *Encoded[Decimal128] { return NewEncoded(Decimal128Codec, v) }
