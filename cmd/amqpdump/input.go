package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/wippyai/amqp-codec/errors"
)

// maxCapture bounds the decompressed size of a capture.
const maxCapture = 256 << 20

var (
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicGzip = []byte{0x1f, 0x8b}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// compression names the container a capture was wrapped in.
type compression string

const (
	compressionNone compression = "none"
	compressionZstd compression = "zstd"
	compressionGzip compression = "gzip"
	compressionLZ4  compression = "lz4"
)

func detectCompression(b []byte) compression {
	switch {
	case bytes.HasPrefix(b, magicZstd):
		return compressionZstd
	case bytes.HasPrefix(b, magicGzip):
		return compressionGzip
	case bytes.HasPrefix(b, magicLZ4):
		return compressionLZ4
	}
	return compressionNone
}

// loadInput reads a capture from path ("-" or "" for stdin), unwraps any
// compression and, when hexMode is set, decodes hex text.
func loadInput(path string, stdin io.Reader, hexMode bool) ([]byte, compression, error) {
	var raw []byte
	var err error
	if path == "" || path == "-" {
		raw, err = io.ReadAll(io.LimitReader(stdin, maxCapture+1))
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, compressionNone, errors.Load("read capture", err)
	}

	kind := detectCompression(raw)
	if raw, err = decompress(raw, kind); err != nil {
		return nil, kind, errors.Load(fmt.Sprintf("%s decompress", kind), err)
	}
	if len(raw) > maxCapture {
		return nil, kind, errors.Load(fmt.Sprintf("capture exceeds %d bytes", maxCapture), nil)
	}

	if hexMode {
		if raw, err = decodeHex(raw); err != nil {
			return nil, kind, errors.Load("hex decode", err)
		}
	}
	return raw, kind, nil
}

func decompress(b []byte, kind compression) ([]byte, error) {
	var r io.Reader
	switch kind {
	case compressionZstd:
		dec, err := zstd.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	case compressionGzip:
		gz, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case compressionLZ4:
		r = lz4.NewReader(bytes.NewReader(b))
	default:
		return b, nil
	}
	return io.ReadAll(io.LimitReader(bufio.NewReader(r), maxCapture+1))
}

// decodeHex accepts whitespace separated hex with optional 0x prefixes and
// # comments running to end of line.
func decodeHex(text []byte) ([]byte, error) {
	var digits strings.Builder
	for _, line := range strings.Split(string(text), "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, field := range strings.FieldsFunc(line, func(r rune) bool {
			return unicode.IsSpace(r) || r == ',' || r == ':'
		}) {
			field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
			digits.WriteString(field)
		}
	}
	return hex.DecodeString(digits.String())
}
