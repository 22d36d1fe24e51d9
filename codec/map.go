package codec

import (
	"slices"

	"github.com/wippyai/amqp-codec/codec/internal/format"
	"github.com/wippyai/amqp-codec/errors"
)

// MapEntry is one key/value pair. AMQP maps are ordered on the wire and the
// order is preserved.
type MapEntry struct {
	Key   Value
	Value Value
}

func mapPath(i int, part string) string {
	return indexPath("map", i) + "." + part
}

// EncodeMap writes key then value encodings for each entry into dst and
// returns the number of bytes written.
func EncodeMap(entries []MapEntry, dst []byte) (int, error) {
	off := 0
	for i, e := range entries {
		n, err := encodeElement(e.Key, dst[off:])
		if err != nil {
			return off, withPath(err, mapPath(i, "key"))
		}
		off += n
		n, err = encodeElement(e.Value, dst[off:])
		if err != nil {
			return off, withPath(err, mapPath(i, "value"))
		}
		off += n
	}
	return off, nil
}

// DecodeMap reads count/2 key/value pairs from data and hands each decoded
// pair to put. count is the wire element count, which must be even.
func DecodeMap(data []byte, count int, dec MapEntryDecoder, put func(k, v Value) error) error {
	if count%2 != 0 {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("map element count %d is odd", count).
			Build()
	}
	off := 0
	next := func(i int, part string) (EncodedBuffer, error) {
		if off >= len(data) {
			return nil, errors.Truncated(errors.PhaseDecode, []string{mapPath(i, part)}, off+1, len(data))
		}
		buf, err := WrapBuffer(data, off)
		if err != nil {
			return nil, withPath(err, mapPath(i, part))
		}
		off += buf.EncodedSize()
		return buf, nil
	}
	for i := 0; i < count/2; i++ {
		kb, err := next(i, "key")
		if err != nil {
			return err
		}
		vb, err := next(i, "value")
		if err != nil {
			return err
		}
		k, v, err := dec.DecodeEntry(kb, vb)
		if err != nil {
			return withPath(err, indexPath("map", i))
		}
		if err := put(k, v); err != nil {
			return withPath(err, indexPath("map", i))
		}
	}
	if off != len(data) {
		return errors.InvalidData(errors.PhaseDecode, nil, "map entries do not fill the declared size")
	}
	return nil
}

// WriteMap marshals key then value for each entry.
func WriteMap(entries []MapEntry, out Output) error {
	for i, e := range entries {
		if err := marshalElement(e.Key, out); err != nil {
			return withPath(err, mapPath(i, "key"))
		}
		if err := marshalElement(e.Value, out); err != nil {
			return withPath(err, mapPath(i, "value"))
		}
	}
	return nil
}

// ReadMap reads count/2 key/value pairs from in and hands each to put.
func ReadMap(in Input, count int, dec MapEntryDecoder, put func(k, v Value) error) error {
	if count%2 != 0 {
		return errors.New(errors.PhaseUnmarshal, errors.KindInvalidData).
			Detail("map element count %d is odd", count).
			Build()
	}
	for i := 0; i < count/2; i++ {
		kb, err := ReadBuffer(in)
		if err != nil {
			return withPath(streamErr(err), mapPath(i, "key"))
		}
		vb, err := ReadBuffer(in)
		if err != nil {
			return withPath(streamErr(err), mapPath(i, "value"))
		}
		k, v, err := dec.DecodeEntry(kb, vb)
		if err != nil {
			return withPath(err, indexPath("map", i))
		}
		if err := put(k, v); err != nil {
			return withPath(err, indexPath("map", i))
		}
	}
	return nil
}

type mapCodec struct {
	dec MapEntryDecoder
}

// MapCodec decodes map entries with the default registry.
var MapCodec Codec[[]MapEntry] = mapCodec{}

func (c mapCodec) decoder() MapEntryDecoder {
	if c.dec == nil {
		return DefaultRegistry()
	}
	return c.dec
}

func (mapCodec) TypeName() string { return "map" }

func (mapCodec) Accepts(code byte) bool {
	return code == format.CodeMap8 || code == format.CodeMap32
}

// FormatCode yields map8 when an entry's size cannot be computed; DataSize
// returns that entry's error.
func (mapCodec) FormatCode(v []MapEntry) byte {
	return chooseCompound(format.CodeMap8, format.CodeMap32, len(v), func(i int) (int, error) {
		k, err := elementSize(v[i].Key)
		if err != nil {
			return 0, err
		}
		n, err := elementSize(v[i].Value)
		return k + n, err
	})
}

func (mapCodec) DataSize(_ byte, v []MapEntry) (int, error) {
	total := 0
	for i, e := range v {
		k, err := elementSize(e.Key)
		if err != nil {
			return 0, withPath(err, mapPath(i, "key"))
		}
		n, err := elementSize(e.Value)
		if err != nil {
			return 0, withPath(err, mapPath(i, "value"))
		}
		total += k + n
		if total > MaxEncodedSize {
			return 0, errors.Overflow(errors.PhaseEncode, nil, total, "maximum encoded size")
		}
	}
	return total, nil
}

func (mapCodec) DataCount(_ byte, v []MapEntry) (int, error) { return 2 * len(v), nil }

func (mapCodec) Encode(_ byte, v []MapEntry, dst []byte) error {
	_, err := EncodeMap(v, dst)
	return err
}

func (mapCodec) WriteData(_ byte, v []MapEntry, out Output) error {
	return WriteMap(v, out)
}

func (c mapCodec) Decode(buf EncodedBuffer) ([]MapEntry, error) {
	if !c.Accepts(buf.FormatCode()) {
		return nil, errors.TypeMismatch(errors.PhaseDecode, nil, buf.FormatCode(), "map")
	}
	entries := make([]MapEntry, 0, min(buf.DataCount(), buf.DataSize())/2)
	err := DecodeMap(buf.Data(), buf.DataCount(), c.decoder(), func(k, v Value) error {
		entries = append(entries, MapEntry{Key: k, Value: v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (mapCodec) canonical(v []MapEntry) ([]MapEntry, error) {
	out := make([]MapEntry, len(v))
	for i, e := range v {
		k, err := canonicalElement(e.Key)
		if err != nil {
			return nil, withPath(err, mapPath(i, "key"))
		}
		val, err := canonicalElement(e.Value)
		if err != nil {
			return nil, withPath(err, mapPath(i, "value"))
		}
		out[i] = MapEntry{Key: k, Value: val}
	}
	return out, nil
}

// NewMap builds a map value from ordered entries. The entries are copied.
func NewMap(entries ...MapEntry) *Encoded[[]MapEntry] {
	if entries == nil {
		return NewEncoded(MapCodec, []MapEntry{})
	}
	return NewEncoded(MapCodec, slices.Clone(entries))
}
