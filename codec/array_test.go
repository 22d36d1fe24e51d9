package codec

import (
	"bytes"
	"testing"

	"github.com/wippyai/amqp-codec/errors"
)

func mustArray(t *testing.T, elems ...Value) *Encoded[Array] {
	t.Helper()
	a, err := NewArray(elems...)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	return a
}

func str32(t *testing.T, s string) Value {
	t.Helper()
	v, err := NewString(s).WithFormatCode(CodeStr32)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestArray_Encode(t *testing.T) {
	tests := []struct {
		name  string
		elems func(t *testing.T) []Value
		hex   string
	}{
		{
			name:  "ints",
			elems: func(*testing.T) []Value { return []Value{NewInt(1), NewInt(2)} },
			hex:   "e0 0a 02 71 00000001 00000002",
		},
		{
			name:  "strings",
			elems: func(*testing.T) []Value { return []Value{NewString("a"), NewString("bc")} },
			hex:   "e0 07 02 a1 01 61 02 6263",
		},
		{
			name:  "booleans use the one byte form",
			elems: func(*testing.T) []Value { return []Value{NewBool(true), NewBool(false)} },
			hex:   "e0 04 02 56 01 00",
		},
		{
			name: "str8 and str32 widen to str32",
			elems: func(t *testing.T) []Value {
				return []Value{NewString("a"), str32(t, "b")}
			},
			hex: "e0 0c 02 b1 00000001 61 00000001 62",
		},
		{
			name: "lists",
			elems: func(*testing.T) []Value {
				return []Value{NewList(NewInt(1)), NewList()}
			},
			hex: "e0 0a 02 c0 06 01 71 00000001 01 00",
		},
		{
			name: "described",
			elems: func(*testing.T) []Value {
				return []Value{
					NewDescribed(NewUlong(1), NewString("a")),
					NewDescribed(NewUlong(1), NewString("b")),
				}
			},
			hex: "e0 10 02 00 80 0000000000000001 a1 01 61 01 62",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustArray(t, tt.elems(t)...)
			want := mustHex(t, tt.hex)
			got, err := EncodedBytes(a)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("got % x, want % x", got, want)
			}

			var out bytes.Buffer
			if err := Marshal(a, &out); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(out.Bytes(), want) {
				t.Errorf("Marshal = % x, want % x", out.Bytes(), want)
			}

			d, err := Decode(want)
			if err != nil {
				t.Fatal(err)
			}
			arr, err := ValueOf[Array](d)
			if err != nil {
				t.Fatal(err)
			}
			if len(arr.Elements) != 2 {
				t.Errorf("decoded %d elements, want 2", len(arr.Elements))
			}
			reenc, err := EncodedBytes(NewEncoded(ArrayCodec, arr))
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(reenc, want) {
				t.Errorf("re-encoded = % x, want % x", reenc, want)
			}
		})
	}
}

func TestArray_Empty(t *testing.T) {
	a, err := NewEmptyArray(CodeInt)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodedBytes(a)
	if err != nil {
		t.Fatal(err)
	}
	if want := mustHex(t, "e0 02 00 71"); !bytes.Equal(b, want) {
		t.Errorf("got % x, want % x", b, want)
	}

	if _, err := NewArray(); !errors.IsKind(err, errors.KindUnsupported) {
		t.Errorf("NewArray(): got %v, want unsupported", err)
	}
	if _, err := NewEmptyArray(CodeNull); !errors.IsKind(err, errors.KindUnsupported) {
		t.Errorf("null element code: got %v, want unsupported", err)
	}
	if _, err := NewEmptyArray(0x10); !errors.IsKind(err, errors.KindInvalidFormatCode) {
		t.Errorf("bad element code: got %v, want invalid format code", err)
	}
}

func TestArray_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		elems []Value
	}{
		{"null element", []Value{NewInt(1), Null()}},
		{"nil element", []Value{nil}},
		{"mixed types", []Value{NewInt(1), NewString("a")}},
		{"different descriptors", []Value{
			NewDescribed(NewUlong(1), NewInt(1)),
			NewDescribed(NewUlong(2), NewInt(1)),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewArray(tt.elems...); !errors.IsKind(err, errors.KindUnsupported) {
				t.Errorf("got %v, want unsupported", err)
			}
		})
	}
}

func TestArray_LongForm(t *testing.T) {
	elems := make([]Value, 300)
	for i := range elems {
		elems[i] = NewUbyte(uint8(i))
	}
	a := mustArray(t, elems...)
	if a.FormatCode() != CodeArray32 {
		t.Fatalf("code = 0x%02x, want array32", a.FormatCode())
	}
	b, err := EncodedBytes(a)
	if err != nil {
		t.Fatal(err)
	}
	// size = count width + constructor + 300 data bytes
	if want := mustHex(t, "f0 00000131 0000012c 50 00 01"); !bytes.Equal(b[:12], want) {
		t.Errorf("header = % x, want % x", b[:12], want)
	}
	if len(b) != 1+4+4+1+300 {
		t.Errorf("len = %d, want %d", len(b), 1+4+4+1+300)
	}

	short := mustArray(t, elems[:253]...)
	if short.FormatCode() != CodeArray8 {
		t.Errorf("253 ubytes: code = 0x%02x, want array8", short.FormatCode())
	}
	long := mustArray(t, elems[:254]...)
	if long.FormatCode() != CodeArray32 {
		t.Errorf("254 ubytes: code = 0x%02x, want array32", long.FormatCode())
	}
}

func TestArray_ElementsDecode(t *testing.T) {
	d, err := Decode(mustHex(t, "e0 09 02 00 53 01 a1 01 61 01 62"))
	if err != nil {
		t.Fatal(err)
	}
	arr, err := ValueOf[Array](d)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []string{"a", "b"} {
		desc, err := ValueOf[Described](arr.Elements[i])
		if err != nil {
			t.Fatal(err)
		}
		s, err := ValueOf[string](desc.Value)
		if err != nil {
			t.Fatal(err)
		}
		if s != want {
			t.Errorf("element %d = %q, want %q", i, s, want)
		}
	}
}

func TestArray_CanonicalWidensCompactElements(t *testing.T) {
	d, err := Decode(mustHex(t, "e0 04 02 52 01 02"))
	if err != nil {
		t.Fatal(err)
	}
	c, err := d.Canonical()
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodedBytes(c)
	if err != nil {
		t.Fatal(err)
	}
	if want := mustHex(t, "e0 0a 02 70 00000001 00000002"); !bytes.Equal(b, want) {
		t.Errorf("got % x, want % x", b, want)
	}
}

func TestArray_ElementMismatch(t *testing.T) {
	a := Array{Constructor: []byte{CodeInt}, Elements: []Value{NewInt(1), NewLong(2)}}
	_, err := EncodedBytes(NewEncoded(ArrayCodec, a))
	if !errors.IsKind(err, errors.KindTypeMismatch) {
		t.Errorf("got %v, want type mismatch", err)
	}
}

func TestArray_WriteRead(t *testing.T) {
	a := Array{
		Constructor: []byte{CodeStr8},
		Elements:    []Value{NewString("x"), NewString("yz")},
	}
	var out bytes.Buffer
	if err := WriteArray(a, &out); err != nil {
		t.Fatal(err)
	}
	if want := mustHex(t, "a1 01 78 02 797a"); !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got % x, want % x", out.Bytes(), want)
	}

	got, err := ReadArray(bytes.NewReader(out.Bytes()), 2, DefaultRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := ValueOf[string](got.Elements[1]); s != "yz" {
		t.Errorf("element 1 = %q, want yz", s)
	}

	_, err = ReadArray(bytes.NewReader(out.Bytes()), 3, DefaultRegistry())
	if !errors.IsKind(err, errors.KindTruncated) {
		t.Errorf("got %v, want truncated", err)
	}
}
