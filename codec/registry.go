package codec

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/amqp-codec/codec/internal/format"
	"github.com/wippyai/amqp-codec/codec/internal/sizing"
	"github.com/wippyai/amqp-codec/errors"
)

// Registry maps format codes to codecs and descriptors to described
// decoders. It is the element decoder handed to the list, map and array
// encoders. A Registry is safe for concurrent use; registration is expected
// to happen before decoding starts.
type Registry struct {
	mu        sync.RWMutex
	described map[descriptorKey]DescribedDecoder
	readOnly  bool

	strictASCII bool
	maxSize     int

	list   listCodec
	mapc   mapCodec
	array  arrayCodec
	desc   describedCodec
	symbol symbolCodec
}

// Option configures a Registry.
type Option func(*Registry)

// WithStrictASCII rejects decoded symbols carrying bytes above 0x7F.
func WithStrictASCII() Option {
	return func(r *Registry) { r.strictASCII = true }
}

// WithMaxSize rejects top-level values whose encoded size exceeds n bytes.
// n <= 0 means MaxEncodedSize.
func WithMaxSize(n int) Option {
	return func(r *Registry) {
		if n <= 0 || n > MaxEncodedSize {
			n = MaxEncodedSize
		}
		r.maxSize = n
	}
}

// NewRegistry creates a registry with every AMQP primitive and composite
// type and no described types.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		described: make(map[descriptorKey]DescribedDecoder),
		maxSize:   MaxEncodedSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.list = listCodec{dec: r}
	r.mapc = mapCodec{dec: r}
	r.array = arrayCodec{dec: r}
	r.desc = describedCodec{reg: r}
	r.symbol = symbolCodec{strict: r.strictASCII}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r := NewRegistry()
	r.readOnly = true
	return r
})

// DefaultRegistry returns the shared registry used by the package-level
// functions. It cannot be modified.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// StrictASCII reports whether decoded symbols are validated.
func (r *Registry) StrictASCII() bool { return r.strictASCII }

// MaxSize returns the largest accepted top-level encoded size.
func (r *Registry) MaxSize() int { return r.maxSize }

// RegisterDescribed binds a decoder to a ulong or symbol descriptor.
func (r *Registry) RegisterDescribed(descriptor Value, dec DescribedDecoder) error {
	if r.readOnly {
		return errors.Registration("described type", errors.Unsupported(errors.PhaseRegistry, "default registry is read-only"))
	}
	if dec == nil {
		return errors.Registration("described type", errors.InvalidData(errors.PhaseRegistry, nil, "nil decoder"))
	}
	key, ok, err := keyOf(descriptor)
	if err != nil {
		return errors.Registration("described type", err)
	}
	if !ok {
		return errors.Registration("described type",
			errors.Unsupported(errors.PhaseRegistry, "descriptor must be a ulong or a symbol"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.described[key]; dup {
		return errors.Registration("descriptor "+key.String(),
			errors.InvalidData(errors.PhaseRegistry, nil, "already registered"))
	}
	r.described[key] = dec
	return nil
}

// RegisterDescribedCode binds a decoder to a numeric descriptor.
func (r *Registry) RegisterDescribedCode(code uint64, dec DescribedDecoder) error {
	return r.RegisterDescribed(NewUlong(code), dec)
}

// RegisterDescribedSymbol binds a decoder to a symbolic descriptor.
func (r *Registry) RegisterDescribedSymbol(name Symbol, dec DescribedDecoder) error {
	return r.RegisterDescribed(NewSymbol(name), dec)
}

func (r *Registry) describedDecoder(key descriptorKey) DescribedDecoder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.described[key]
}

// formatDescriptorCode renders a numeric descriptor as domain:code.
func formatDescriptorCode(code uint64) string {
	return fmt.Sprintf("0x%08x:0x%08x", code>>32, code&0xffffffff)
}

// DecodeBuffer wraps buf in the Value type registered for its format code.
// Conversion to the Go value is deferred until first use. Codes with a valid
// category but no AMQP type keep their bytes as an opaque value.
func (r *Registry) DecodeBuffer(buf EncodedBuffer) (Value, error) {
	switch code := buf.FormatCode(); code {
	case format.CodeNull:
		return FromBuffer[struct{}](nullCodec{}, buf), nil
	case format.CodeBoolTrue, format.CodeBoolFalse, format.CodeBool:
		return FromBuffer(BoolCodec, buf), nil
	case format.CodeUbyte:
		return FromBuffer(UbyteCodec, buf), nil
	case format.CodeUshort:
		return FromBuffer(UshortCodec, buf), nil
	case format.CodeUint, format.CodeSmallUint, format.CodeUint0:
		return FromBuffer(UintCodec, buf), nil
	case format.CodeUlong, format.CodeSmallUlong, format.CodeUlong0:
		return FromBuffer(UlongCodec, buf), nil
	case format.CodeByte:
		return FromBuffer(ByteCodec, buf), nil
	case format.CodeShort:
		return FromBuffer(ShortCodec, buf), nil
	case format.CodeInt, format.CodeSmallInt:
		return FromBuffer(IntCodec, buf), nil
	case format.CodeLong, format.CodeSmallLong:
		return FromBuffer(LongCodec, buf), nil
	case format.CodeFloat:
		return FromBuffer(FloatCodec, buf), nil
	case format.CodeDouble:
		return FromBuffer(DoubleCodec, buf), nil
	case format.CodeChar:
		return FromBuffer(CharCodec, buf), nil
	case format.CodeTimestamp:
		return FromBuffer(TimestampCodec, buf), nil
	case format.CodeUUID:
		return FromBuffer(UUIDCodec, buf), nil
	case format.CodeDecimal32:
		return FromBuffer(Decimal32Codec, buf), nil
	case format.CodeDecimal64:
		return FromBuffer(Decimal64Codec, buf), nil
	case format.CodeDecimal128:
		return FromBuffer(Decimal128Codec, buf), nil
	case format.CodeVbin8, format.CodeVbin32:
		return FromBuffer(BinaryCodec, buf), nil
	case format.CodeStr8, format.CodeStr32:
		return FromBuffer(StringCodec, buf), nil
	case format.CodeStr8UTF16, format.CodeStr32UTF16:
		return FromBuffer(StringUTF16Codec, buf), nil
	case format.CodeSym8, format.CodeSym32:
		return FromBuffer[Symbol](r.symbol, buf), nil
	case format.CodeList0, format.CodeList8, format.CodeList32:
		return FromBuffer[[]Value](r.list, buf), nil
	case format.CodeMap8, format.CodeMap32:
		return FromBuffer[[]MapEntry](r.mapc, buf), nil
	case format.CodeArray8, format.CodeArray32:
		return FromBuffer[Array](r.array, buf), nil
	case format.CodeDescribed:
		return FromBuffer[Described](r.desc, buf), nil
	default:
		Logger().Debug("no type for format code, keeping raw bytes",
			zap.String("code", fmt.Sprintf("0x%02x", code)))
		return FromBuffer[[]byte](rawCodec{}, buf), nil
	}
}

// DecodeElement implements ListElementDecoder.
func (r *Registry) DecodeElement(_ int, buf EncodedBuffer) (Value, error) {
	return r.DecodeBuffer(buf)
}

// DecodeEntry implements MapEntryDecoder.
func (r *Registry) DecodeEntry(key, val EncodedBuffer) (Value, Value, error) {
	k, err := r.DecodeBuffer(key)
	if err != nil {
		return nil, nil, withPath(err, "key")
	}
	v, err := r.DecodeBuffer(val)
	if err != nil {
		return nil, nil, withPath(err, "value")
	}
	return k, v, nil
}

func (r *Registry) checkSize(code byte, n int) error {
	if n > r.maxSize {
		return errors.New(errors.PhaseDecode, errors.KindOverflow).
			Code(code).
			Value(n).
			Detail("encoded size %d exceeds limit %d", n, r.maxSize).
			Build()
	}
	return nil
}

// DecodeAt decodes the value starting at b[off] without copying and returns
// it with the number of bytes it occupies.
func (r *Registry) DecodeAt(b []byte, off int) (Value, int, error) {
	buf, err := WrapBuffer(b, off)
	if err != nil {
		return nil, 0, err
	}
	if err := r.checkSize(buf.FormatCode(), buf.EncodedSize()); err != nil {
		return nil, 0, err
	}
	v, err := r.DecodeBuffer(buf)
	if err != nil {
		return nil, 0, err
	}
	return v, buf.EncodedSize(), nil
}

// Decode decodes b, which must hold exactly one value.
func (r *Registry) Decode(b []byte) (Value, error) {
	v, n, err := r.DecodeAt(b, 0)
	if err != nil {
		return nil, err
	}
	if n != len(b) {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("%d trailing bytes after value", len(b)-n).
			Build()
	}
	return v, nil
}

// DecodeAll decodes back-to-back values until b is exhausted.
func (r *Registry) DecodeAll(b []byte) ([]Value, error) {
	var out []Value
	for off := 0; off < len(b); {
		v, n, err := r.DecodeAt(b, off)
		if err != nil {
			return out, withPath(err, fmt.Sprintf("@%d", off))
		}
		out = append(out, v)
		off += n
	}
	return out, nil
}

// ReadValue reads one value from in. Lists, maps and arrays are read
// element by element; every other value is read as one buffer. Declared
// sizes and counts are checked against the registry's limits before any
// data is read. It returns io.EOF unchanged when in is empty at a value
// boundary.
func (r *Registry) ReadValue(in Input) (Value, error) {
	code, err := in.ReadByte()
	if err != nil {
		return nil, err
	}
	v, err := r.readValue(code, in)
	if err != nil {
		Logger().Debug("stream decode failed", zap.Error(err))
	}
	return v, err
}

func (r *Registry) readValue(code byte, in Input) (Value, error) {
	switch code {
	case format.CodeList8, format.CodeList32,
		format.CodeMap8, format.CodeMap32,
		format.CodeArray8, format.CodeArray32:
		return r.readCounted(code, in)
	}
	buf, err := readBufferLimit(code, in, r.maxSize)
	if err != nil {
		return nil, err
	}
	return r.DecodeBuffer(buf)
}

func (r *Registry) readCounted(code byte, in Input) (Value, error) {
	sub := format.MustClassify(code)
	prefix := make([]byte, sub.PrefixLen())
	if err := readFull(in, prefix); err != nil {
		return nil, err
	}
	size, count := sub.ReadPrefix(prefix)
	body, ok := sizing.Body(size, sub.Width())
	if !ok {
		return nil, errors.New(errors.PhaseUnmarshal, errors.KindInvalidData).
			Code(code).
			Detail("size field %d smaller than count field", size).
			Build()
	}
	if count > MaxElementCount {
		return nil, errors.Overflow(errors.PhaseUnmarshal, nil, count, "maximum element count")
	}
	if err := r.checkSize(code, sub.DataOffset()+body); err != nil {
		return nil, err
	}
	if count > body && sub.Category() == format.Compound {
		return nil, errors.Truncated(errors.PhaseUnmarshal, nil, count, body)
	}

	lim := &limitedInput{in: in, n: body}
	var v Value
	var err error
	switch sub.Category() {
	case format.Compound:
		if code == format.CodeList8 || code == format.CodeList32 {
			var elems []Value
			if elems, err = ReadList(lim, count, r); err == nil {
				v, err = EncodedAs[[]Value](r.list, elems, code)
			}
		} else {
			var entries []MapEntry
			err = ReadMap(lim, count, r, func(k, val Value) error {
				entries = append(entries, MapEntry{Key: k, Value: val})
				return nil
			})
			if err == nil {
				if entries == nil {
					entries = []MapEntry{}
				}
				v, err = EncodedAs[[]MapEntry](r.mapc, entries, code)
			}
		}
	default:
		var a Array
		if a, err = ReadArray(lim, count, r); err == nil {
			v, err = EncodedAs[Array](r.array, a, code)
		}
	}
	if err != nil {
		return nil, err
	}
	if lim.n != 0 {
		return nil, errors.New(errors.PhaseUnmarshal, errors.KindInvalidData).
			Code(code).
			Detail("%d declared bytes not used by %d elements", lim.n, count).
			Build()
	}
	return v, nil
}

// limitedInput stops reading at the end of a compound value's declared
// size, so a corrupt element cannot consume the next value's bytes.
type limitedInput struct {
	in Input
	n  int
}

func (l *limitedInput) Read(p []byte) (int, error) {
	if l.n <= 0 {
		return 0, io.EOF
	}
	if len(p) > l.n {
		p = p[:l.n]
	}
	n, err := l.in.Read(p)
	l.n -= n
	return n, err
}

func (l *limitedInput) ReadByte() (byte, error) {
	if l.n <= 0 {
		return 0, io.EOF
	}
	b, err := l.in.ReadByte()
	if err == nil {
		l.n--
	}
	return b, err
}
