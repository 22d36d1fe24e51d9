package codec

import (
	"bytes"
	stderrors "errors"
	"io"
	"strconv"

	"github.com/wippyai/amqp-codec/errors"
)

// maxNesting bounds described and composite recursion on decode.
const maxNesting = 100

func indexPath(kind string, i int) string {
	return kind + "[" + strconv.Itoa(i) + "]"
}

// withPath prefixes seg to the path of a structured error. Other errors are
// returned unchanged.
func withPath(err error, seg string) error {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return err
	}
	cp := *e
	cp.Path = append([]string{seg}, e.Path...)
	return &cp
}

// readFull reads len(p) bytes, reporting a short stream as truncation.
func readFull(in io.Reader, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if _, err := io.ReadFull(in, p); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errors.TruncatedStream(errors.PhaseUnmarshal, nil, err)
		}
		return errors.Wrap(errors.PhaseUnmarshal, errors.KindInvalidData, err, "read")
	}
	return nil
}

// readGrowing reads n bytes from in after prefix. The result grows with the
// bytes actually received, so a declared size alone cannot force a large
// allocation.
func readGrowing(in io.Reader, prefix []byte, n int) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(prefix) + min(n, growChunk))
	out.Write(prefix)
	if _, err := io.CopyN(&out, in, int64(n)); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.TruncatedStream(errors.PhaseUnmarshal, nil, err)
		}
		return nil, errors.Wrap(errors.PhaseUnmarshal, errors.KindInvalidData, err, "read")
	}
	return out.Bytes(), nil
}

// growChunk is the most readGrowing allocates ahead of received data.
const growChunk = 64 * 1024

// inputLimit is the largest encoded size, format byte included, of a value
// whose format byte has just been read from in.
func inputLimit(in io.Reader) int {
	if l, ok := in.(*limitedInput); ok {
		return l.n + 1
	}
	return MaxEncodedSize
}

// streamErr converts a clean end of stream at a value boundary into a
// truncation error; inside a composite every element is required.
func streamErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.TruncatedStream(errors.PhaseUnmarshal, nil, err)
	}
	return err
}
