package codec

import (
	"bytes"
	"io"
	"runtime"
	"sync"
	"testing"

	"github.com/wippyai/amqp-codec/errors"
)

type header struct {
	durable  bool
	priority uint8
}

// decodeHeader decodes a list of [durable, priority] into a header.
func decodeHeader(r *Registry, buf EncodedBuffer) (Value, error) {
	v, err := r.DecodeBuffer(buf)
	if err != nil {
		return nil, err
	}
	fields, err := ValueOf[[]Value](v)
	if err != nil {
		return nil, err
	}
	var h header
	if len(fields) > 0 && fields[0] != nil && !fields[0].IsNull() {
		if h.durable, err = ValueOf[bool](fields[0]); err != nil {
			return nil, err
		}
	}
	if len(fields) > 1 && fields[1] != nil && !fields[1].IsNull() {
		if h.priority, err = ValueOf[uint8](fields[1]); err != nil {
			return nil, err
		}
	}
	return NewEncoded[header](headerCodec{}, h), nil
}

// headerCodec is a decode-side holder for header values in tests.
type headerCodec struct{}

func (headerCodec) TypeName() string                     { return "header" }
func (headerCodec) Accepts(byte) bool                    { return true }
func (headerCodec) FormatCode(header) byte               { return CodeList8 }
func (headerCodec) DataSize(byte, header) (int, error)   { return 0, nil }
func (headerCodec) DataCount(byte, header) (int, error)  { return 0, nil }
func (headerCodec) Encode(byte, header, []byte) error    { return nil }
func (headerCodec) Decode(EncodedBuffer) (header, error) { return header{}, nil }

func TestDescribed_Encode(t *testing.T) {
	v := NewDescribed(NewUlong(0x70), NewString("x"))
	b, err := EncodedBytes(v)
	if err != nil {
		t.Fatal(err)
	}
	want := mustHex(t, "00 80 0000000000000070 a1 01 78")
	if !bytes.Equal(b, want) {
		t.Errorf("got % x, want % x", b, want)
	}

	buf, err := v.Buffer()
	if err != nil {
		t.Fatal(err)
	}
	if buf.ConstructorLength() != 11 {
		t.Errorf("ConstructorLength = %d, want 11", buf.ConstructorLength())
	}
	if buf.DataOffset() != 12 || buf.DataSize() != 1 {
		t.Errorf("DataOffset, DataSize = %d, %d; want 12, 1", buf.DataOffset(), buf.DataSize())
	}

	d, err := Decode(want)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ValueOf[Described](d)
	if err != nil {
		t.Fatal(err)
	}
	code, err := ValueOf[uint64](got.Descriptor)
	if err != nil {
		t.Fatal(err)
	}
	s, err := ValueOf[string](got.Value)
	if err != nil {
		t.Fatal(err)
	}
	if code != 0x70 || s != "x" {
		t.Errorf("got (%#x, %q), want (0x70, x)", code, s)
	}
}

func TestRegistry_DescribedDecoders(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterDescribedCode(0x70, DescribedDecoderFunc(decodeHeader)); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterDescribedSymbol("amqp:header:list", DescribedDecoderFunc(decodeHeader)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		hex  string
	}{
		{"ulong descriptor", "00 80 0000000000000070 c0 04 02 41 50 05"},
		{"smallulong descriptor", "00 53 70 c0 04 02 41 50 05"},
		{"symbol descriptor", "00 a3 10 616d71703a6865616465723a6c697374 c0 04 02 41 50 05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := r.Decode(mustHex(t, tt.hex))
			if err != nil {
				t.Fatal(err)
			}
			d, err := ValueOf[Described](v)
			if err != nil {
				t.Fatal(err)
			}
			h, err := ValueOf[header](d.Value)
			if err != nil {
				t.Fatal(err)
			}
			if !h.durable || h.priority != 5 {
				t.Errorf("got %+v, want durable priority 5", h)
			}
		})
	}

	// Unregistered descriptors fall back to generic decoding.
	v, err := r.Decode(mustHex(t, "00 53 71 c0 01 00"))
	if err != nil {
		t.Fatal(err)
	}
	d, err := ValueOf[Described](v)
	if err != nil {
		t.Fatal(err)
	}
	if d.Value.TypeName() != "list" {
		t.Errorf("fallback TypeName = %s, want list", d.Value.TypeName())
	}
}

func TestRegistry_RegistrationErrors(t *testing.T) {
	dec := DescribedDecoderFunc(decodeHeader)
	r := NewRegistry()
	if err := r.RegisterDescribedCode(1, dec); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		err  error
	}{
		{"duplicate", r.RegisterDescribedCode(1, dec)},
		{"nil decoder", r.RegisterDescribedCode(2, nil)},
		{"string descriptor", r.RegisterDescribed(NewString("x"), dec)},
		{"default registry", DefaultRegistry().RegisterDescribedCode(3, dec)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.IsKind(tt.err, errors.KindRegistration) {
				t.Errorf("got %v, want registration error", tt.err)
			}
		})
	}

	// Compact and full-width ulong descriptors share one key.
	small, err := Decode(mustHex(t, "53 01"))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterDescribed(small, dec); !errors.IsKind(err, errors.KindRegistration) {
		t.Errorf("smallulong duplicate: got %v, want registration error", err)
	}
}

func TestRegistry_ConcurrentDecode(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterDescribedCode(0x70, DescribedDecoderFunc(decodeHeader)); err != nil {
		t.Fatal(err)
	}
	raw := mustHex(t, "00 53 70 c0 04 02 41 50 05")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := r.Decode(raw)
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := v.Interface(); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}

func TestRegistry_MaxSize(t *testing.T) {
	r := NewRegistry(WithMaxSize(4))
	if r.MaxSize() != 4 {
		t.Fatalf("MaxSize = %d, want 4", r.MaxSize())
	}
	if _, err := r.Decode(mustHex(t, "a1 02 6869")); err != nil {
		t.Errorf("4 byte value: %v", err)
	}
	if _, err := r.Decode(mustHex(t, "a1 03 686969")); !errors.IsKind(err, errors.KindOverflow) {
		t.Errorf("5 byte value: got %v, want overflow", err)
	}
	if _, err := r.ReadValue(bytes.NewReader(mustHex(t, "c0 05 01 a1 02 6869"))); !errors.IsKind(err, errors.KindOverflow) {
		t.Errorf("streamed list: got %v, want overflow", err)
	}

	if got := NewRegistry(WithMaxSize(0)).MaxSize(); got != MaxEncodedSize {
		t.Errorf("WithMaxSize(0) = %d, want %d", got, MaxEncodedSize)
	}
}

func TestRegistry_DecodeTrailingBytes(t *testing.T) {
	if _, err := Decode(mustHex(t, "40 40")); !errors.IsKind(err, errors.KindInvalidData) {
		t.Errorf("got %v, want invalid data", err)
	}
}

func TestRegistry_DecodeAll(t *testing.T) {
	vs, err := DecodeAll(mustHex(t, "40 71 00000001 a1 01 61"))
	if err != nil {
		t.Fatal(err)
	}
	names := []string{"null", "int", "string"}
	if len(vs) != len(names) {
		t.Fatalf("got %d values, want %d", len(vs), len(names))
	}
	for i, v := range vs {
		if v.TypeName() != names[i] {
			t.Errorf("value %d TypeName = %s, want %s", i, v.TypeName(), names[i])
		}
	}

	vs, err = DecodeAll(mustHex(t, "40 71 00"))
	if !errors.IsKind(err, errors.KindTruncated) {
		t.Errorf("got %v, want truncated", err)
	}
	if len(vs) != 1 {
		t.Errorf("got %d values before the error, want 1", len(vs))
	}
}

func TestReadValue(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		typ  string
	}{
		{"int", "71 00000001", "int"},
		{"string", "a1 02 6869", "string"},
		{"list", "c0 07 02 71 00000001 40", "list"},
		{"list32", "d0 00000006 00000001 50 07", "list"},
		{"map", "c1 09 02 a3 01 61 71 00000001", "map"},
		{"array", "e0 0a 02 71 00000001 00000002", "array"},
		{"described", "00 53 70 c0 01 00", "described"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := mustHex(t, tt.hex)
			in := bytes.NewReader(append(append([]byte{}, raw...), 0x40))
			v, err := DecodeFromStream(in)
			if err != nil {
				t.Fatal(err)
			}
			if v.TypeName() != tt.typ {
				t.Errorf("TypeName = %s, want %s", v.TypeName(), tt.typ)
			}
			if v.FormatCode() != raw[0] {
				t.Errorf("code = 0x%02x, want 0x%02x", v.FormatCode(), raw[0])
			}
			b, err := EncodedBytes(v)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(b, raw) {
				t.Errorf("re-encoded = % x, want % x", b, raw)
			}
			if in.Len() != 1 {
				t.Errorf("%d bytes left, want 1", in.Len())
			}
		})
	}
}

func TestReadValue_Errors(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		kind errors.Kind
	}{
		{"truncated list", "c0 07 02 71 00", errors.KindTruncated},
		{"truncated prefix", "c0 07", errors.KindTruncated},
		{"truncated string", "a1 05 6869", errors.KindTruncated},
		{"list leftover", "c0 03 01 40 40", errors.KindInvalidData},
		{"element overruns list", "c0 03 01 71 00000001", errors.KindTruncated},
		{"odd map count", "c1 02 01 40", errors.KindInvalidData},
		{"size below count width", "d0 00000001 00000000", errors.KindInvalidData},
		{"array count above limit", "f0 00000005 7fffffff 40", errors.KindOverflow},
		{"list count above limit", "d0 00000004 7fffffff", errors.KindOverflow},
		{"array count exceeds data", "f0 00000009 00000100 71 00000001", errors.KindTruncated},
		{"array element overruns", "e0 04 02 a1 05 61", errors.KindTruncated},
		{"element size overruns list", "c0 04 01 a1 ff 61", errors.KindTruncated},
		{"nested count above limit", "c0 0a 01 d0 00000004 7fffffff", errors.KindOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFromStream(bytes.NewReader(mustHex(t, tt.hex)))
			if !errors.IsKind(err, tt.kind) {
				t.Errorf("got %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestReadValue_DeclaredSizeLimits(t *testing.T) {
	tests := []struct {
		name string
		reg  *Registry
		hex  string
		kind errors.Kind
	}{
		{"string above max size", NewRegistry(WithMaxSize(1024)), "b0 3ffffff0 78", errors.KindOverflow},
		{"described above max size", NewRegistry(WithMaxSize(1024)), "00 53 01 b0 3ffffff0 78", errors.KindOverflow},
		{"short stream", DefaultRegistry(), "b0 3ffffff0 78", errors.KindTruncated},
		{"short stream in list", DefaultRegistry(), "d0 3ffffff8 00000001 b0 3ffffff0 78", errors.KindTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			_, err := tt.reg.ReadValue(bytes.NewReader(mustHex(t, tt.hex)))
			runtime.ReadMemStats(&after)
			if !errors.IsKind(err, tt.kind) {
				t.Errorf("got %v, want kind %s", err, tt.kind)
			}
			if grown := after.TotalAlloc - before.TotalAlloc; grown > 1<<20 {
				t.Errorf("allocated %d bytes for a %d byte stream", grown, len(tt.hex)/2)
			}
		})
	}
}

func TestReadValue_Sequence(t *testing.T) {
	in := bytes.NewReader(mustHex(t, "71 00000001 40 a1 01 61"))
	var names []string
	for {
		v, err := DecodeFromStream(in)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, v.TypeName())
	}
	want := []string{"int", "null", "string"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("value %d = %s, want %s", i, names[i], want[i])
		}
	}
}

func BenchmarkEncodeList(b *testing.B) {
	elems := make([]Value, 64)
	for i := range elems {
		elems[i] = NewString("element")
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := EncodedBytes(NewList(elems...)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeList(b *testing.B) {
	elems := make([]Value, 64)
	for i := range elems {
		elems[i] = NewInt(int32(i))
	}
	raw, err := EncodedBytes(NewList(elems...))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v, err := Decode(raw)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := v.Interface(); err != nil {
			b.Fatal(err)
		}
	}
}
