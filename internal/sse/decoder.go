// Package sse decodes server-sent event streams into discrete data frames.
package sse

import (
	"bytes"
	"io"
	"strings"
)

// DataPrefix marks the payload line of an event frame. Frames that do not
// carry it (keep-alives, comments) are dropped during decoding.
const DataPrefix = "data:"

var frameBoundaries = []string{"\r\n\r\n", "\n\n"}

// Decoder incrementally reassembles complete frames from a chunked byte
// source. Chunks may split a frame at any byte; the decoder keeps a single
// growable buffer across reads so the frame sequence is independent of chunk
// boundaries. A trailing incomplete frame at end-of-stream is discarded,
// never guessed at.
type Decoder struct {
	r       io.Reader
	buf     []byte
	pending []string
	err     error
	scratch []byte
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:       r,
		scratch: make([]byte, 4096),
	}
}

// Next returns the next complete data frame, including its "data:" prefix.
// It returns io.EOF when the source is exhausted and any other error as a
// hard failure of the underlying source.
func (d *Decoder) Next() (string, error) {
	for {
		if len(d.pending) > 0 {
			frame := d.pending[0]
			d.pending = d.pending[1:]
			return frame, nil
		}
		if d.err != nil {
			return "", d.err
		}

		n, err := d.r.Read(d.scratch)
		if n > 0 {
			d.buf = append(d.buf, d.scratch[:n]...)
			d.split()
		}
		if err != nil {
			// Remember the error but drain complete frames first.
			d.err = err
		}
	}
}

// split carves every complete frame off the front of the buffer, retaining
// the final (possibly incomplete) segment.
func (d *Decoder) split() {
	for {
		idx, width := -1, 0
		for _, boundary := range frameBoundaries {
			if i := bytes.Index(d.buf, []byte(boundary)); i >= 0 && (idx < 0 || i < idx) {
				idx, width = i, len(boundary)
			}
		}
		if idx < 0 {
			return
		}
		segment := string(d.buf[:idx])
		d.buf = d.buf[idx+width:]
		if frame, ok := dataFrame(segment); ok {
			d.pending = append(d.pending, frame)
		}
	}
}

// dataFrame reports whether segment is a data frame, returning it with
// surrounding line-break noise removed.
func dataFrame(segment string) (string, bool) {
	trimmed := strings.Trim(segment, "\r\n")
	if !strings.HasPrefix(trimmed, DataPrefix) {
		return "", false
	}
	return trimmed, true
}

// Payload strips the data prefix and surrounding whitespace from a frame.
// The result may be empty for frames that carried no payload.
func Payload(frame string) string {
	return strings.TrimSpace(strings.TrimPrefix(frame, DataPrefix))
}
