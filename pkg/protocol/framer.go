package protocol

import (
	"bytes"
	"errors"
	"fmt"
)

// DefaultMaxLineLength bounds the partial-line buffer of a LineFramer.
// A peer that streams unterminated data can otherwise grow the buffer
// without limit.
const DefaultMaxLineLength = 64 * 1024

// ErrLineTooLong indicates that a peer sent more than the configured
// maximum of bytes without a line delimiter. The connection is treated as
// violating the protocol and closed.
var ErrLineTooLong = errors.New("line exceeds maximum length")

// LineFramer converts a fragmented byte stream into complete lines.
//
// Bytes are fed in as they arrive from the socket, at arbitrary
// granularity; any bytes after the last newline remain buffered for the
// next feed. A LineFramer belongs to a single connection and is not safe
// for concurrent use.
type LineFramer struct {
	buf     []byte
	maxLine int
}

// NewLineFramer creates a framer whose partial-line buffer is bounded by
// maxLine bytes. maxLine <= 0 applies DefaultMaxLineLength.
func NewLineFramer(maxLine int) *LineFramer {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineLength
	}
	return &LineFramer{maxLine: maxLine}
}

// Feed appends p to the framer's buffer and returns every complete line it
// now holds, in arrival order. The newline delimiter and a trailing
// carriage return, if any, are stripped from each yielded line.
//
// Returns ErrLineTooLong if the bytes remaining after the last delimiter
// exceed the configured maximum.
func (f *LineFramer) Feed(p []byte) ([]string, error) {
	if len(p) == 0 {
		return nil, nil
	}

	f.buf = append(f.buf, p...)

	var lines []string
	for {
		idx := bytes.IndexByte(f.buf, '\n')
		if idx < 0 {
			break
		}
		line := f.buf[:idx]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		lines = append(lines, string(line))
		f.buf = f.buf[idx+1:]
	}

	if len(f.buf) > f.maxLine {
		return lines, fmt.Errorf("%w: %d buffered bytes, max %d", ErrLineTooLong, len(f.buf), f.maxLine)
	}

	return lines, nil
}

// Pending returns the number of buffered bytes awaiting a delimiter.
func (f *LineFramer) Pending() int {
	return len(f.buf)
}
