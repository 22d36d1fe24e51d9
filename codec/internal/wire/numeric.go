package wire

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/google/uuid"
)

var be = binary.BigEndian

func PutUint16(dst []byte, v uint16) { be.PutUint16(dst, v) }
func PutUint32(dst []byte, v uint32) { be.PutUint32(dst, v) }
func PutUint64(dst []byte, v uint64) { be.PutUint64(dst, v) }

func Uint16(src []byte) uint16 { return be.Uint16(src) }
func Uint32(src []byte) uint32 { return be.Uint32(src) }
func Uint64(src []byte) uint64 { return be.Uint64(src) }

func PutFloat32(dst []byte, v float32) { be.PutUint32(dst, math.Float32bits(v)) }
func PutFloat64(dst []byte, v float64) { be.PutUint64(dst, math.Float64bits(v)) }

func Float32(src []byte) float32 { return math.Float32frombits(be.Uint32(src)) }
func Float64(src []byte) float64 { return math.Float64frombits(be.Uint64(src)) }

// PutTimestamp writes t as signed milliseconds since the Unix epoch.
// Sub-millisecond precision is truncated.
func PutTimestamp(dst []byte, t time.Time) {
	be.PutUint64(dst, uint64(t.UnixMilli()))
}

// Timestamp reads signed milliseconds since the Unix epoch as UTC time.
func Timestamp(src []byte) time.Time {
	return time.UnixMilli(int64(be.Uint64(src))).UTC()
}

// PutUUID writes the 16 byte RFC-4122 layout.
func PutUUID(dst []byte, u uuid.UUID) {
	copy(dst[:16], u[:])
}

func UUID(src []byte) uuid.UUID {
	var u uuid.UUID
	copy(u[:], src[:16])
	return u
}
