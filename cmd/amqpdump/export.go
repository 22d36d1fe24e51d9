package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/amqp-codec/errors"
)

// outputFormat is the --format setting.
type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
	formatCBOR outputFormat = "cbor"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(s); f {
	case formatText, formatJSON, formatYAML, formatCBOR:
		return f, nil
	}
	return "", fmt.Errorf("--format must be text, json, yaml or cbor, got %q", s)
}

// report is the exported document: every top-level value plus the
// re-encoding check.
type report struct {
	Source      string        `json:"source" yaml:"source" cbor:"source"`
	Compression string        `json:"compression" yaml:"compression" cbor:"compression"`
	Size        int           `json:"size" yaml:"size" cbor:"size"`
	Values      []*node       `json:"values" yaml:"values" cbor:"values"`
	Checks      []checkResult `json:"checks,omitempty" yaml:"checks,omitempty" cbor:"checks,omitempty"`
}

// cborMode uses core deterministic encoding so equal reports produce equal
// bytes.
var cborMode = func() cbor.EncMode {
	m, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("amqpdump: CBOR encoder initialization failed: " + err.Error())
	}
	return m
}()

func export(w io.Writer, f outputFormat, r report) error {
	var err error
	switch f {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(r)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(r); err == nil {
			err = enc.Close()
		}
	case formatCBOR:
		var b []byte
		if b, err = cborMode.Marshal(r); err == nil {
			_, err = w.Write(b)
		}
	default:
		return errors.Unsupported(errors.PhaseRender, "export format "+string(f))
	}
	if err != nil {
		return errors.Wrap(errors.PhaseRender, errors.KindInvalidData, err, string(f)+" export")
	}
	return nil
}
