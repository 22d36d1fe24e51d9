package main

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/wippyai/amqp-codec/codec"
)

// checkResult reports the re-encoding checks for one top-level value.
type checkResult struct {
	Offset        int    `json:"offset" yaml:"offset" cbor:"offset"`
	Size          int    `json:"size" yaml:"size" cbor:"size"`
	RoundTrip     bool   `json:"round_trip" yaml:"round_trip" cbor:"round_trip"`
	Canonical     bool   `json:"canonical" yaml:"canonical" cbor:"canonical"`
	CanonicalSize int    `json:"canonical_size,omitempty" yaml:"canonical_size,omitempty" cbor:"canonical_size,omitempty"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty" cbor:"error,omitempty"`
}

// verify checks each value in data two ways. Marshalling the decoded value
// must reproduce its bytes. Rebuilding it from the fully decoded Go value
// with canonical codes shows whether the producer used compact forms; the
// rebuilt encoding must decode again.
func verify(reg *codec.Registry, data []byte, log *zap.Logger) []checkResult {
	var out []checkResult
	for off := 0; off < len(data); {
		v, n, err := reg.DecodeAt(data, off)
		if err != nil {
			out = append(out, checkResult{Offset: off, Error: err.Error()})
			return out
		}
		res := checkResult{Offset: off, Size: n}
		raw := data[off : off+n]

		var buf bytes.Buffer
		if err := codec.Marshal(v, &buf); err != nil {
			res.Error = err.Error()
		} else {
			res.RoundTrip = bytes.Equal(buf.Bytes(), raw)
		}

		if res.Error == "" {
			if err := checkCanonical(reg, v, raw, &res); err != nil {
				res.Error = err.Error()
			}
		}
		if res.Error != "" {
			log.Debug("value failed re-encoding check", zap.Int("offset", off), zap.String("error", res.Error))
		}
		out = append(out, res)
		off += n
	}
	return out
}

func checkCanonical(reg *codec.Registry, v codec.Value, raw []byte, res *checkResult) error {
	c, err := v.Canonical()
	if err != nil {
		return err
	}
	cb, err := codec.EncodedBytes(c)
	if err != nil {
		return err
	}
	if _, err := reg.Decode(cb); err != nil {
		return err
	}
	res.Canonical = bytes.Equal(cb, raw)
	res.CanonicalSize = len(cb)
	return nil
}
