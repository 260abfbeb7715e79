// Package controller implements the Controller Facade: the single object
// the HTTP layer talks to. It owns the main mixer, the transcoder driver,
// the queue manager, the scheduler, the splicer, and the event
// dispatcher, and is the only place their lifecycles are wired together.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arung-agamani/opuscast/internal/events"
	"github.com/arung-agamani/opuscast/internal/queue"
	"github.com/arung-agamani/opuscast/internal/scheduler"
	"github.com/arung-agamani/opuscast/internal/splicer"
	"github.com/arung-agamani/opuscast/internal/track"
	"github.com/arung-agamani/opuscast/internal/transcoder"
)

// ErrTimeout is returned by WaitForHeader when the header doesn't arrive
// within HeaderTimeout.
var ErrTimeout = errors.New("controller: timed out waiting for stream header")

// ErrInterrupted is returned when a waiter is woken by shutdown rather
// than by the event it was actually waiting for.
var ErrInterrupted = errors.New("controller: station shut down")

// Config is the subset of application configuration the Controller needs.
type Config struct {
	FfmpegPath         string
	HeaderTimeout      time.Duration
	TrackSourceTimeout time.Duration
}

// Controller is the Controller Facade. Exactly one exists per process.
type Controller struct {
	cfg Config

	source  track.Source
	driver  *transcoder.Driver
	queue   *queue.Manager
	sched   *scheduler.Scheduler
	splicer *splicer.Splicer
	events  *events.Dispatcher

	mixer *transcoder.MainMixer

	cancel context.CancelFunc
	eg     *errgroup.Group
	egCtx  context.Context

	stopOnce     sync.Once
	shutdownOnce sync.Once
	stoppedCh    chan struct{}
}

// New constructs a Controller and spawns the main mixer. A failure to spawn
// the mixer is fatal: the caller (main.go) should exit non-zero, since a
// station without a mixer cannot stream.
func New(cfg Config, source track.Source) (*Controller, error) {
	driver := transcoder.NewDriver(cfg.FfmpegPath)

	mixer, err := driver.SpawnMixer(context.Background())
	if err != nil {
		return nil, fmt.Errorf("controller: spawning main mixer: %w", err)
	}

	dispatcher := events.NewDispatcher()
	emitFunc := func(kind string, payload any) { dispatcher.Emit(kind, payload) }

	q := queue.NewManager(source, emitFunc)
	sp := splicer.New()
	sc := scheduler.New(q, source, driver, mixer, dispatcher)

	runCtx, cancel := context.WithCancel(context.Background())
	eg, egCtx := errgroup.WithContext(runCtx)

	c := &Controller{
		cfg:       cfg,
		source:    source,
		driver:    driver,
		queue:     q,
		sched:     sc,
		splicer:   sp,
		events:    dispatcher,
		mixer:     mixer,
		cancel:    cancel,
		eg:        eg,
		egCtx:     egCtx,
		stoppedCh: make(chan struct{}),
	}
	return c, nil
}

// Run starts the splicer, scheduler, and event dispatcher and blocks until
// all three have stopped (which happens together, since they share a
// cancellation context wired through Shutdown). It returns the splicer's
// terminal error, which is expected and not itself a failure condition.
func (c *Controller) Run(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			c.cancel()
		case <-c.stoppedCh:
		}
	}()

	c.eg.Go(func() error {
		err := c.splicer.Run(c.mixer.Stdout())
		slog.Info("controller: splicer stopped", "error", err)
		return err
	})
	c.eg.Go(func() error {
		c.events.Run(c.egCtx)
		return nil
	})
	c.eg.Go(func() error {
		c.sched.Run(c.egCtx)
		return nil
	})

	err := c.eg.Wait()
	c.stopOnce.Do(func() { close(c.stoppedCh) })
	return err
}

// AddTrack validates url synchronously (the legacy NotYouTube check) and,
// if it passes, spawns a background worker that resolves metadata and
// enqueues it. It never blocks on network I/O.
func (c *Controller) AddTrack(url string) error {
	if err := track.ValidateURL(url); err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.TrackSourceTimeout)
		defer cancel()

		resolved, err := c.source.Resolve(ctx, url, false)
		if err != nil {
			slog.Warn("controller: add_track resolve failed", "url", url, "error", err)
			return
		}
		c.queue.Add(resolved.Ref)
	}()
	return nil
}

// SkipTrack sets the skip flag on the currently playing track.
func (c *Controller) SkipTrack() {
	c.sched.Skip()
}

// Queue returns one page of the user queue.
func (c *Controller) Queue(page int) []track.Ref {
	return queue.UserPage(c.queue.SnapshotUser(), page)
}

// AutoQueue returns the full auto-queue snapshot.
func (c *Controller) AutoQueue() []track.Ref {
	return c.queue.SnapshotAuto()
}

// NextUp returns the track at the front of the user queue, if any.
func (c *Controller) NextUp() (track.Ref, bool) {
	user := c.queue.SnapshotUser()
	if len(user) == 0 {
		return track.Ref{}, false
	}
	return user[0], true
}

// NowPlaying returns the currently playing track, if any.
func (c *Controller) NowPlaying() (track.Resolved, bool) {
	np := c.sched.NowPlaying()
	if np == nil {
		return track.Resolved{}, false
	}
	return *np, true
}

// WaitForHeader blocks up to HeaderTimeout for the stream header to become
// available.
func (c *Controller) WaitForHeader() ([]byte, error) {
	timeout := time.NewTimer(c.cfg.HeaderTimeout)
	defer timeout.Stop()

	select {
	case <-c.splicer.HeaderReady():
		// HeaderReady also fires when the splicer dies before any header
		// arrived; a nil header means the station went down, not success.
		if header := c.splicer.Header(); header != nil {
			return header, nil
		}
		return nil, ErrInterrupted
	case <-c.stoppedCh:
		return nil, ErrInterrupted
	case <-timeout.C:
		return nil, ErrTimeout
	}
}

// Buffer returns the most recently published broadcast frame.
func (c *Controller) Buffer() ([]byte, error) {
	if !c.splicer.Alive() && c.isStopped() {
		return nil, ErrInterrupted
	}
	frame := c.splicer.CurrentFrame()
	if frame == nil {
		return nil, ErrInterrupted
	}
	return frame, nil
}

// Event returns the channel a listener selects on to be woken once per
// published audio page.
func (c *Controller) Event() <-chan struct{} {
	return c.splicer.Edge()
}

// Subscribe registers a new SSE subscriber.
func (c *Controller) Subscribe() *events.Subscriber {
	return c.events.Subscribe()
}

// Unsubscribe removes an SSE subscriber.
func (c *Controller) Unsubscribe(sub *events.Subscriber) {
	c.events.Unsubscribe(sub)
}

// IsAlive reports whether the splicer is running and shutdown hasn't been
// requested.
func (c *Controller) IsAlive() bool {
	return c.splicer.Alive() && !c.isStopped()
}

// State reports the station's coarse lifecycle state.
func (c *Controller) State() State {
	if c.isStopped() {
		return StateStopped
	}
	if !c.splicer.Alive() {
		return StateDegraded
	}
	if _, playing := c.NowPlaying(); playing {
		return StatePlaying
	}
	return StateIdle
}

func (c *Controller) isStopped() bool {
	select {
	case <-c.stoppedCh:
		return true
	default:
		return false
	}
}

// Shutdown is idempotent. It stops the scheduler, sweeps per-track
// processes, closes the mixer (which in turn ends the splicer and, via
// errgroup cancellation, the event dispatcher), and unblocks any pending
// waiter. Run exiting on its own marks the station stopped but does not
// consume the shutdown steps, so a later Shutdown still sweeps processes
// and closes the mixer.
func (c *Controller) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.stopOnce.Do(func() { close(c.stoppedCh) })
		c.sched.Shutdown()
		c.sched.Skip()
		c.cancel()
		c.driver.Sweep()
		if err := c.mixer.Close(); err != nil {
			slog.Warn("controller: mixer close error", "error", err)
		}
		_ = c.eg.Wait()
	})
}
