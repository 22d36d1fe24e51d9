package codec

import (
	"bytes"
	"testing"

	"github.com/wippyai/amqp-codec/errors"
)

func TestList_Encode(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		hex  string
	}{
		{"empty", NewList(), "c0 01 00"},
		{"int and null", NewList(NewInt(1), Null()), "c0 07 02 71 00000001 40"},
		{"nil element", NewList(nil), "c0 02 01 40"},
		{"nested", NewList(NewList(), NewString("a")), "c0 07 02 c0 01 00 a1 01 61"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := mustHex(t, tt.hex)
			got, err := EncodedBytes(tt.v)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("got % x, want % x", got, want)
			}
		})
	}
}

func TestList_SizeClassBoundary(t *testing.T) {
	nulls := func(n int) []Value {
		out := make([]Value, n)
		for i := range out {
			out[i] = Null()
		}
		return out
	}

	tests := []struct {
		name  string
		elems []Value
		code  byte
	}{
		// size field = count byte + vbin8 header + payload
		{"size field 255", []Value{NewBinary(make([]byte, 252))}, CodeList8},
		{"size field 256", []Value{NewBinary(make([]byte, 253))}, CodeList32},
		{"254 nulls", nulls(254), CodeList8},
		{"255 nulls", nulls(255), CodeList32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewList(tt.elems...)
			if v.FormatCode() != tt.code {
				t.Fatalf("code = 0x%02x, want 0x%02x", v.FormatCode(), tt.code)
			}
			b, err := EncodedBytes(v)
			if err != nil {
				t.Fatal(err)
			}
			d, err := Decode(b)
			if err != nil {
				t.Fatal(err)
			}
			if n, _ := d.DataCount(); n != len(tt.elems) {
				t.Errorf("DataCount = %d, want %d", n, len(tt.elems))
			}
			elems, err := ValueOf[[]Value](d)
			if err != nil {
				t.Fatal(err)
			}
			if len(elems) != len(tt.elems) {
				t.Errorf("decoded %d elements, want %d", len(elems), len(tt.elems))
			}
		})
	}
}

func TestList_LongFormLayout(t *testing.T) {
	b, err := EncodedBytes(NewList(NewBinary(make([]byte, 253))))
	if err != nil {
		t.Fatal(err)
	}
	// size field covers the 4 byte count plus 255 bytes of element.
	if want := mustHex(t, "d0 00000103 00000001 a0 fd"); !bytes.Equal(b[:11], want) {
		t.Errorf("header = % x, want % x", b[:11], want)
	}
	if len(b) != 1+4+4+255 {
		t.Errorf("len = %d, want %d", len(b), 1+4+4+255)
	}
}

func TestList_DecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		count int
		kind  errors.Kind
	}{
		{"count exceeds bytes", "40", 2, errors.KindTruncated},
		{"element runs past end", "71 0000", 1, errors.KindTruncated},
		{"leftover bytes", "40 40", 1, errors.KindInvalidData},
		{"bad element code", "10", 1, errors.KindInvalidFormatCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeList(mustHex(t, tt.data), tt.count, DefaultRegistry())
			if !errors.IsKind(err, tt.kind) {
				t.Errorf("got %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestList_DecodeErrorPath(t *testing.T) {
	_, err := DecodeList(mustHex(t, "40 10"), 2, DefaultRegistry())
	e, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("got %T, want *errors.Error", err)
	}
	if len(e.Path) == 0 || e.Path[0] != "list[1]" {
		t.Errorf("path = %v, want list[1] first", e.Path)
	}
}

func TestList_WriteRead(t *testing.T) {
	elems := []Value{NewInt(1), nil, NewString("xy"), NewList(NewBool(true))}

	var out bytes.Buffer
	if err := WriteList(elems, &out); err != nil {
		t.Fatal(err)
	}
	direct := make([]byte, out.Len())
	n, err := EncodeList(elems, direct)
	if err != nil {
		t.Fatal(err)
	}
	if n != out.Len() || !bytes.Equal(direct, out.Bytes()) {
		t.Errorf("EncodeList = % x, WriteList = % x", direct[:n], out.Bytes())
	}

	got, err := ReadList(bytes.NewReader(out.Bytes()), len(elems), DefaultRegistry())
	if err != nil {
		t.Fatal(err)
	}
	wantCodes := []byte{CodeInt, CodeNull, CodeStr8, CodeList8}
	for i, v := range got {
		if v.FormatCode() != wantCodes[i] {
			t.Errorf("element %d code = 0x%02x, want 0x%02x", i, v.FormatCode(), wantCodes[i])
		}
	}

	_, err = ReadList(bytes.NewReader(out.Bytes()[:3]), len(elems), DefaultRegistry())
	if !errors.IsKind(err, errors.KindTruncated) {
		t.Errorf("got %v, want truncated", err)
	}
}

func TestList_ElementsAliasSource(t *testing.T) {
	raw := mustHex(t, "c0 05 01 a0 02 beef")
	d, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	elems, err := ValueOf[[]Value](d)
	if err != nil {
		t.Fatal(err)
	}
	bin, err := ValueOf[[]byte](elems[0])
	if err != nil {
		t.Fatal(err)
	}
	if &bin[0] != &raw[5] {
		t.Error("decoded binary should alias the source bytes")
	}
}

func TestMap_Encode(t *testing.T) {
	v := NewMap(MapEntry{Key: NewSymbol("a"), Value: NewInt(1)})
	b, err := EncodedBytes(v)
	if err != nil {
		t.Fatal(err)
	}
	if want := mustHex(t, "c1 09 02 a3 01 61 71 00000001"); !bytes.Equal(b, want) {
		t.Errorf("got % x, want % x", b, want)
	}
	if n, _ := v.DataCount(); n != 2 {
		t.Errorf("DataCount = %d, want 2", n)
	}

	empty, err := EncodedBytes(NewMap())
	if err != nil {
		t.Fatal(err)
	}
	if want := mustHex(t, "c1 01 00"); !bytes.Equal(empty, want) {
		t.Errorf("empty map = % x, want % x", empty, want)
	}
}

func TestMap_SizeClassBoundary(t *testing.T) {
	tests := []struct {
		name string
		n    int
		code byte
	}{
		// size field = count byte + null key + vbin8 header + payload
		{"size field 255", 251, CodeMap8},
		{"size field 256", 252, CodeMap32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewMap(MapEntry{Key: Null(), Value: NewBinary(make([]byte, tt.n))})
			if v.FormatCode() != tt.code {
				t.Fatalf("code = 0x%02x, want 0x%02x", v.FormatCode(), tt.code)
			}
			b, err := EncodedBytes(v)
			if err != nil {
				t.Fatal(err)
			}
			if b[0] != tt.code {
				t.Errorf("encoded code = 0x%02x, want 0x%02x", b[0], tt.code)
			}
			d, err := Decode(b)
			if err != nil {
				t.Fatal(err)
			}
			entries, err := ValueOf[[]MapEntry](d)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 || !entries[0].Key.IsNull() {
				t.Fatalf("got %d entries, want one with a null key", len(entries))
			}
			bin, err := ValueOf[[]byte](entries[0].Value)
			if err != nil {
				t.Fatal(err)
			}
			if len(bin) != tt.n {
				t.Errorf("binary length = %d, want %d", len(bin), tt.n)
			}
		})
	}
}

func TestCompound_CopiesElements(t *testing.T) {
	elems := make([]Value, 1, 300)
	elems[0] = NewUbyte(1)
	list := NewList(elems...)
	entries := []MapEntry{{Key: NewUbyte(1), Value: Null()}}
	m := NewMap(entries...)

	// Growing the caller's slices in place must not change the values.
	elems = elems[:300]
	for i := range elems {
		elems[i] = NewBinary(make([]byte, 10))
	}
	entries[0].Value = NewBinary(make([]byte, 300))

	b, err := EncodedBytes(list)
	if err != nil {
		t.Fatal(err)
	}
	if want := mustHex(t, "c0 03 01 50 01"); !bytes.Equal(b, want) {
		t.Errorf("list = % x, want % x", b, want)
	}
	b, err = EncodedBytes(m)
	if err != nil {
		t.Fatal(err)
	}
	if want := mustHex(t, "c1 04 02 50 01 40"); !bytes.Equal(b, want) {
		t.Errorf("map = % x, want % x", b, want)
	}
}

func TestMap_RoundTripKeepsOrder(t *testing.T) {
	entries := []MapEntry{
		{Key: NewString("z"), Value: NewInt(1)},
		{Key: NewString("a"), Value: nil},
		{Key: NewSymbol("m"), Value: NewList(NewUbyte(3))},
	}
	b, err := EncodedBytes(NewMap(entries...))
	if err != nil {
		t.Fatal(err)
	}
	d, err := Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ValueOf[[]MapEntry](d)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	wantKeys := []string{"z", "a", "m"}
	for i, e := range got {
		k, err := e.Key.Interface()
		if err != nil {
			t.Fatal(err)
		}
		var s string
		switch k := k.(type) {
		case string:
			s = k
		case Symbol:
			s = string(k)
		}
		if s != wantKeys[i] {
			t.Errorf("key %d = %v, want %s", i, k, wantKeys[i])
		}
	}
	if !got[1].Value.IsNull() {
		t.Error("nil value should decode as null")
	}
}

func TestMap_DecodeErrors(t *testing.T) {
	collect := func(k, v Value) error { return nil }

	err := DecodeMap(mustHex(t, "40"), 1, DefaultRegistry(), collect)
	if !errors.IsKind(err, errors.KindInvalidData) {
		t.Errorf("odd count: got %v, want invalid data", err)
	}

	err = DecodeMap(mustHex(t, "40"), 2, DefaultRegistry(), collect)
	if !errors.IsKind(err, errors.KindTruncated) {
		t.Errorf("missing value: got %v, want truncated", err)
	}

	stop := errors.New(errors.PhaseDecode, errors.KindInvalidData).Detail("duplicate key").Build()
	err = DecodeMap(mustHex(t, "40 40"), 2, DefaultRegistry(), func(k, v Value) error { return stop })
	if !errors.IsKind(err, errors.KindInvalidData) {
		t.Errorf("put error: got %v, want invalid data", err)
	}

	if _, err := Decode(mustHex(t, "c1 02 01 40")); err != nil {
		t.Fatalf("odd map count is only detected on value access: %v", err)
	}
}

func TestMap_WriteRead(t *testing.T) {
	entries := []MapEntry{
		{Key: NewSymbol("k1"), Value: NewLong(-5)},
		{Key: NewSymbol("k2"), Value: NewBinary([]byte{9})},
	}
	var out bytes.Buffer
	if err := WriteMap(entries, &out); err != nil {
		t.Fatal(err)
	}
	var keys []Value
	err := ReadMap(bytes.NewReader(out.Bytes()), 4, DefaultRegistry(), func(k, v Value) error {
		keys = append(keys, k)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}
	if s, _ := ValueOf[Symbol](keys[1]); s != "k2" {
		t.Errorf("second key = %q, want k2", s)
	}
}
