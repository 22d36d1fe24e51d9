package amqpcodec

import "io"

// Output is the byte sink that marshal paths write to.
type Output interface {
	io.Writer
	io.ByteWriter
}

// Input is the byte source that stream decoders read from.
// Reads block exactly as far as one complete value's bytes.
type Input interface {
	io.Reader
	io.ByteReader
}
