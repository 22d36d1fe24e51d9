package codec

import "github.com/wippyai/amqp-codec/codec/internal/wire"

// Safety limits applied while decoding declared sizes and counts.
const (
	MaxEncodedSize  = wire.MaxEncodedSize
	MaxElementCount = wire.MaxElementCount
)
