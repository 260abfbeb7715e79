package transcoder

import (
	"context"
	"sync"
)

// Driver spawns and supervises the main mixer and every per-track
// transcoder. It maintains a registry of live per-track processes purely
// so a shutdown sweep can terminate anything still running; ordinary
// per-track lifecycle (spawn, read, close) is driven by the Scheduler,
// which exclusively owns each PerTrack for the duration of its track.
type Driver struct {
	ffmpegPath string

	mu       sync.Mutex
	perTrack map[*PerTrack]struct{}
}

// NewDriver builds a Driver that spawns ffmpegPath for every transcoder.
func NewDriver(ffmpegPath string) *Driver {
	return &Driver{
		ffmpegPath: ffmpegPath,
		perTrack:   make(map[*PerTrack]struct{}),
	}
}

// SpawnMixer starts the main mixer. Called once, at Controller
// construction.
func (d *Driver) SpawnMixer(ctx context.Context) (*MainMixer, error) {
	return NewMainMixer(ctx, d.ffmpegPath)
}

// SpawnPerTrack starts a per-track transcoder and registers it so Sweep
// can find it during shutdown. The caller must call Release when the
// track's playback ends.
func (d *Driver) SpawnPerTrack(ctx context.Context, mediaURL string, needReencode bool) (*PerTrack, error) {
	p, err := NewPerTrack(ctx, d.ffmpegPath, mediaURL, needReencode)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.perTrack[p] = struct{}{}
	d.mu.Unlock()
	return p, nil
}

// Release removes p from the registry and closes it. Safe to call
// multiple times.
func (d *Driver) Release(p *PerTrack) {
	d.mu.Lock()
	delete(d.perTrack, p)
	d.mu.Unlock()
	p.Close()
}

// Sweep terminates every currently registered per-track transcoder. Used
// by Controller.shutdown to guarantee no orphaned ffmpeg processes
// survive it.
func (d *Driver) Sweep() {
	d.mu.Lock()
	live := make([]*PerTrack, 0, len(d.perTrack))
	for p := range d.perTrack {
		live = append(live, p)
	}
	d.perTrack = make(map[*PerTrack]struct{})
	d.mu.Unlock()

	for _, p := range live {
		p.Close()
	}
}
