// Package amqpcodec provides a Go implementation of the AMQP 1.0 type encoding.
//
// The library converts between in-memory typed values and the canonical
// self-describing tag-length-value byte representation that every compliant
// AMQP peer produces and consumes.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	amqpcodec/           Root package with the Input and Output stream contracts
//	├── codec/           Encoded values, wire buffers, composites, registry, API
//	├── errors/          Structured error types for debugging
//	├── examples/basic/  Round trip of a described list
//	└── cmd/amqpdump/    Capture decoder, exporter and interactive browser
//
// # Quick Start
//
// Encode a value and decode it back:
//
//	v := codec.NewList(codec.NewInt(-1), codec.NewString("hello"), codec.Null())
//	b, err := codec.EncodedBytes(v)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	decoded, err := codec.Decode(b)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(decoded) // list([int(-1) string(hello) null])
//
// # Wire Format
//
// Every value starts with one format byte. Its high nibble selects the
// category:
//
//	0x00        described   descriptor value followed by the described value
//	0x40-0x90   fixed       0, 1, 2, 4, 8 or 16 data bytes
//	0xA0-0xB0   variable    1 or 4 byte size, then data
//	0xC0-0xD0   compound    1 or 4 byte size and count, then elements
//	0xE0-0xF0   array       1 or 4 byte size and count, one element constructor, then element data
//
// # Thread Safety
//
// Registry and the package-level decode functions are safe for concurrent use.
// An Encoded value memoizes its bytes and its decoded value under a lock, so
// concurrent first access is safe; buffers that alias caller memory require
// the caller not to mutate that memory while the value is alive.
package amqpcodec
