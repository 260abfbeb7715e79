// Package splicer implements the Ogg Splicer: it reads the main mixer's
// stdout through the Ogg Page Reader, isolates the stream header, and
// republishes every subsequent page as a self-delimited broadcast frame.
package splicer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/arung-agamani/opuscast/internal/ogg"
)

// ErrNotBOS is returned when the mixer's first page doesn't carry the BOS
// flag, which means ffmpeg didn't start a fresh logical bitstream as
// expected.
var ErrNotBOS = errors.New("splicer: first page is not BOS")

// Splicer owns the single-slot "current frame" cell and the audio edge
// event. It is created once per Controller lifetime and run in its own
// goroutine for the lifetime of the main mixer.
type Splicer struct {
	edge *edgeEvent

	headerOnce sync.Once
	headerCh   chan struct{}

	mu     sync.RWMutex
	header []byte
	frame  []byte

	alive atomic.Bool
}

// New builds a Splicer with no header or frame yet available.
func New() *Splicer {
	return &Splicer{
		edge:     newEdgeEvent(),
		headerCh: make(chan struct{}),
	}
}

// Run consumes pages from r until it hits a clean stream end or a
// malformed-stream error, or ctx-equivalent cancellation closes r itself
// (the caller is responsible for closing the mixer's stdout to unblock a
// pending read). It isolates the first two pages as the stream header and
// publishes every later page as a broadcast frame, pulsing the audio edge
// event once per page.
func (s *Splicer) Run(r io.Reader) error {
	s.alive.Store(true)
	// Wake every waiter (buffer/event/header) on the way out, whether Run
	// ends cleanly, on a malformed stream, or because the first page never
	// arrived at all, so a caller blocked on HeaderReady or Edge() can
	// observe Alive()==false instead of hanging forever. Deferred LIFO:
	// alive must already read false when the final pulse lands, or a
	// listener woken by it would re-arm on Edge() and wait forever.
	defer s.edge.Pulse()
	defer s.headerOnce.Do(func() { close(s.headerCh) })
	defer s.alive.Store(false)

	reader := ogg.NewReader(r)

	first, err := reader.ReadPage()
	if err != nil {
		return fmt.Errorf("splicer: reading first page: %w", err)
	}
	if !first.IsBOS() {
		return ErrNotBOS
	}

	second, err := reader.ReadPage()
	if err != nil {
		return fmt.Errorf("splicer: reading second page: %w", err)
	}

	header := append(append([]byte(nil), first.Raw()...), second.Raw()...)
	s.mu.Lock()
	s.header = header
	s.mu.Unlock()
	s.headerOnce.Do(func() { close(s.headerCh) })

	for {
		page, err := reader.ReadPage()
		if err != nil {
			if errors.Is(err, ogg.ErrStreamEnded) {
				slog.Info("splicer: stream ended")
			} else {
				slog.Warn("splicer: malformed stream, stopping", "error", err)
			}
			return err
		}

		frame := buildFrame(page)
		s.mu.Lock()
		s.frame = frame
		s.mu.Unlock()
		s.edge.Pulse()
	}
}

// buildFrame assembles a self-delimited broadcast frame: the magic, the
// page's header and segment table verbatim, and the concatenation of
// every packet body on the page. For a single page the packet bodies
// concatenate back to the raw payload, so the frame is byte-identical to
// the page as it appeared on the wire.
func buildFrame(p *ogg.Page) []byte {
	body := p.PacketBytes()
	out := make([]byte, 0, 4+len(p.Header)+len(p.Segtable)+len(body))
	out = append(out, "OggS"...)
	out = append(out, p.Header[:]...)
	out = append(out, p.Segtable...)
	out = append(out, body...)
	return out
}

// HeaderReady is closed once the stream header has been published, or
// when Run exits without ever producing one — check Header() for nil to
// tell the two apart.
func (s *Splicer) HeaderReady() <-chan struct{} {
	return s.headerCh
}

// Header returns the two-page stream header, or nil if not yet
// available.
func (s *Splicer) Header() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.header
}

// CurrentFrame returns the most recently published broadcast frame, or
// nil if none has been published yet.
func (s *Splicer) CurrentFrame() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// Edge returns the channel a listener selects on to be woken exactly once
// per published page. Callers must re-fetch Edge() after each wakeup.
func (s *Splicer) Edge() <-chan struct{} {
	return s.edge.Chan()
}

// Alive reports whether Run is currently executing its page loop.
func (s *Splicer) Alive() bool {
	return s.alive.Load()
}
