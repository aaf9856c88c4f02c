package sse

import (
	"bytes"
	"strings"
)

// Decoder converts an arbitrary sequence of byte chunks into complete,
// newline-delimited text lines. A single logical line may arrive split
// across any number of chunks, and a single chunk may carry zero, one or
// many complete lines; the sequence of lines produced is independent of
// how the bytes were chunked.
//
// The unterminated tail of the stream stays buffered between Feed calls.
// It is never emitted as a line: the upstream protocol terminates every
// meaningful frame with a newline, so a trailing fragment at end of stream
// is discarded by the caller.
type Decoder struct {
	buf []byte
}

// NewDecoder creates an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk to the internal buffer and returns every complete
// line it now holds, in order. Line terminators are stripped; a trailing
// "\r" is removed so CRLF streams decode the same as LF streams.
func (d *Decoder) Feed(chunk []byte) []string {
	d.buf = append(d.buf, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(string(d.buf[:i]), "\r")
		d.buf = d.buf[i+1:]
		lines = append(lines, line)
	}

	if len(d.buf) == 0 {
		d.buf = nil
	}

	return lines
}

// Tail returns the buffered unterminated fragment, if any. Exposed for
// diagnostics when a stream ends mid-line.
func (d *Decoder) Tail() string {
	return string(d.buf)
}
