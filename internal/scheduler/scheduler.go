// Package scheduler implements the Playback Scheduler: the single
// long-lived loop that pulls the next candidate from the Queue Manager,
// resolves it, drives a per-track transcoder, and pipes its output into
// the main mixer.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/arung-agamani/opuscast/internal/events"
	"github.com/arung-agamani/opuscast/internal/queue"
	"github.com/arung-agamani/opuscast/internal/track"
	"github.com/arung-agamani/opuscast/internal/transcoder"
)

// ErrBrokenPipe is returned when a write to the main mixer's stdin fails
// mid-track, e.g. because the mixer process died.
var ErrBrokenPipe = errors.New("scheduler: broken pipe to main mixer")

// maxConsecutiveFailures is the circuit breaker: this many back-to-back
// resolve failures marks the station unhealthy and stops the scheduler.
const maxConsecutiveFailures = 5

// chunkSize bounds each read from a per-track transcoder's stdout before
// it's written to the mixer's stdin.
const chunkSize = 4096

// idleSleep is how long the loop sleeps when the queue has nothing to
// offer before retrying.
const idleSleep = time.Second

// yieldSleep is the brief pause between producer-loop iterations, so the
// scheduler doesn't spin a hot loop on a fast source.
const yieldSleep = time.Millisecond

// Scheduler drives playback. Exactly one exists per Controller; it
// exclusively owns each PerTrack transcoder for the duration of its
// track.
type Scheduler struct {
	queue   *queue.Manager
	source  track.Source
	driver  *transcoder.Driver
	mixer   *transcoder.MainMixer
	emitter *events.Dispatcher

	skip      atomic.Bool
	stopping  atomic.Bool
	unhealthy atomic.Bool

	nowPlaying atomic.Pointer[track.Resolved]
}

// New builds a Scheduler wired to its collaborators. emitter may be nil.
func New(q *queue.Manager, source track.Source, driver *transcoder.Driver, mixer *transcoder.MainMixer, emitter *events.Dispatcher) *Scheduler {
	return &Scheduler{
		queue:   q,
		source:  source,
		driver:  driver,
		mixer:   mixer,
		emitter: emitter,
	}
}

// Skip sets the skip flag, causing the current track's producer loop to
// terminate its per-track transcoder at the next chunk boundary.
func (s *Scheduler) Skip() {
	s.skip.Store(true)
}

// Shutdown requests the scheduler loop to stop after the current track
// (or immediately, if idle).
func (s *Scheduler) Shutdown() {
	s.stopping.Store(true)
}

// Unhealthy reports whether the consecutive-failure circuit breaker has
// tripped.
func (s *Scheduler) Unhealthy() bool {
	return s.unhealthy.Load()
}

// NowPlaying returns the currently playing track, or nil if nothing is
// playing.
func (s *Scheduler) NowPlaying() *track.Resolved {
	return s.nowPlaying.Load()
}

// Run executes the scheduler's main loop until ctx is cancelled, Shutdown
// is called, or the consecutive-failure breaker trips. It never panics;
// every per-iteration error is logged and the loop continues (up to the
// failure limit).
func (s *Scheduler) Run(ctx context.Context) {
	consecutiveFailures := 0

	for {
		if s.stopping.Load() || ctx.Err() != nil {
			return
		}
		s.skip.Store(false)

		ref, ok := s.queue.Next(ctx)
		if !ok {
			s.nowPlaying.Store(nil)
			s.queue.ClearNowPlaying()
			select {
			case <-time.After(idleSleep):
			case <-ctx.Done():
				return
			}
			continue
		}
		s.emit(events.KindNext, ref)

		resolved, err := s.resolve(ctx, ref)
		if err != nil {
			slog.Warn("scheduler: resolve failed, skipping track", "url", ref.WebpageURL, "error", err)
			consecutiveFailures++
			if consecutiveFailures >= maxConsecutiveFailures {
				slog.Error("scheduler: too many consecutive failures, stopping", "count", consecutiveFailures)
				s.unhealthy.Store(true)
				return
			}
			continue
		}
		consecutiveFailures = 0

		s.nowPlaying.Store(&resolved)
		s.queue.SetNowPlaying(resolved.Ref)
		s.emit(events.KindNowPlaying, resolved)

		if err := s.playTrack(ctx, resolved); err != nil {
			slog.Warn("scheduler: track playback ended with error", "track_id", resolved.ID, "error", err)
		}
	}
}

// resolve turns ref into a playable Resolved track.
func (s *Scheduler) resolve(ctx context.Context, ref track.Ref) (track.Resolved, error) {
	return s.source.Resolve(ctx, ref.WebpageURL, true)
}

// playTrack spawns a per-track transcoder and pipes its stdout into the
// main mixer's stdin in bounded chunks until one of the termination
// conditions fires.
func (s *Scheduler) playTrack(ctx context.Context, resolved track.Resolved) error {
	pt, err := s.driver.SpawnPerTrack(ctx, resolved.URL, resolved.NeedReencode)
	if err != nil {
		return fmt.Errorf("%w: %v", transcoder.ErrTranscoderSpawn, err)
	}
	defer s.driver.Release(pt)

	buf := make([]byte, chunkSize)
	for {
		if s.skip.Load() || s.stopping.Load() || ctx.Err() != nil {
			return nil
		}

		select {
		case <-pt.Exited():
			return pt.Err()
		default:
		}

		n, readErr := pt.Stdout().Read(buf)
		if n > 0 {
			if _, writeErr := s.mixer.Stdin().Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("%w: %v", ErrBrokenPipe, writeErr)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}

		time.Sleep(yieldSleep)
	}
}

func (s *Scheduler) emit(kind string, payload any) {
	if s.emitter != nil {
		s.emitter.Emit(kind, payload)
	}
}
