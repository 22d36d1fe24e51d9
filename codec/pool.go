package codec

import "sync"

const (
	// Pool limits to prevent memory bloat
	scratchMaxCap  = 64 * 1024
	scratchInitCap = 64
)

// scratch buffers hold primitive payloads between encoding and writing to
// an Output.
var scratchPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, scratchInitCap)
		return &buf
	},
}

func getScratch(n int) *[]byte {
	buf := scratchPool.Get().(*[]byte)
	if cap(*buf) < n {
		*buf = make([]byte, n)
	}
	*buf = (*buf)[:n]
	return buf
}

func putScratch(buf *[]byte) {
	if buf == nil || cap(*buf) > scratchMaxCap {
		return // reject oversized
	}
	*buf = (*buf)[:0]
	scratchPool.Put(buf)
}
