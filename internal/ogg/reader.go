package ogg

import (
	"errors"
	"fmt"
	"io"
)

// ErrStreamEnded is returned by ReadPage when the underlying reader hit a
// clean EOF exactly at a page boundary — no partial page was in flight.
var ErrStreamEnded = errors.New("ogg: stream ended")

// ErrMalformedStream is returned by ReadPage when the underlying reader
// produced bytes that do not form a valid Ogg page: a missing "OggS"
// capture pattern, or an EOF in the middle of a header, segment table, or
// payload.
var ErrMalformedStream = errors.New("ogg: malformed stream")

// Reader pulls successive Ogg pages off an io.Reader. It is single-pass and
// unbuffered beyond what a single ReadPage call needs; it is meant to sit
// directly on a transcoder subprocess's stdout pipe.
type Reader struct {
	r io.Reader
}

// NewReader wraps r as a page source.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadPage reads and returns the next Ogg page. It returns ErrStreamEnded
// if r is exhausted cleanly before any byte of a new page was read, or
// ErrMalformedStream if r ends (or the capture pattern doesn't match) once a
// page has already started.
func (r *Reader) ReadPage() (*Page, error) {
	var capture [4]byte
	if _, err := io.ReadFull(r.r, capture[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrStreamEnded
		}
		return nil, fmt.Errorf("%w: reading capture pattern: %v", ErrMalformedStream, err)
	}
	if string(capture[:]) != magic {
		return nil, fmt.Errorf("%w: bad capture pattern %q", ErrMalformedStream, capture)
	}

	page := &Page{}
	if _, err := io.ReadFull(r.r, page.Header[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrMalformedStream, err)
	}

	segCount := int(page.Header[headerLen-1])
	page.Segtable = make([]byte, segCount)
	if segCount > 0 {
		if _, err := io.ReadFull(r.r, page.Segtable); err != nil {
			return nil, fmt.Errorf("%w: reading segment table: %v", ErrMalformedStream, err)
		}
	}

	dataLen := 0
	for _, n := range page.Segtable {
		dataLen += int(n)
	}
	page.Data = make([]byte, dataLen)
	if dataLen > 0 {
		if _, err := io.ReadFull(r.r, page.Data); err != nil {
			return nil, fmt.Errorf("%w: reading payload: %v", ErrMalformedStream, err)
		}
	}

	return page, nil
}
