// Package queue implements the Queue Manager: the user queue, the
// auto-queue, and the played-track history used to deduplicate auto-queue
// refills.
package queue

import (
	"context"
	"log/slog"
	"sync"

	"github.com/arung-agamani/opuscast/internal/track"
)

// pageSize is the pagination unit for the user queue.
const pageSize = 5

// EmitFunc is how the Manager reports a queueadd event upward, without
// depending on the events package directly — the Controller Facade wires
// a concrete emitter in.
type EmitFunc func(kind string, payload any)

// Manager is a thread-safe container for the user queue and the
// auto-queue. UserQueue and AutoQueue are guarded by a single lock; only
// snapshots ever escape it.
type Manager struct {
	source track.Source
	emit   EmitFunc

	mu      sync.Mutex
	user    []track.Ref
	auto    []track.Ref
	hist    history
	playing track.Ref
	active  bool
}

// NewManager builds an empty Manager. emit may be nil, in which case
// queueadd events are simply not reported.
func NewManager(source track.Source, emit EmitFunc) *Manager {
	if emit == nil {
		emit = func(string, any) {}
	}
	return &Manager{source: source, emit: emit}
}

// Add appends ref to the user queue and emits a queueadd event.
func (m *Manager) Add(ref track.Ref) {
	m.mu.Lock()
	m.user = append(m.user, ref)
	m.mu.Unlock()
	m.emit("queueadd", ref)
}

// SetNowPlaying records ref as the currently playing track and appends its
// id to History, evicting the oldest entry if History is full. Called by
// the Scheduler the moment a track is assigned to now_playing.
func (m *Manager) SetNowPlaying(ref track.Ref) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = ref
	m.active = true
	m.hist.push(ref.ID)
}

// ClearNowPlaying marks the station as having nothing currently playing,
// so Next stops triggering synchronous refills until a new track starts.
func (m *Manager) ClearNowPlaying() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	m.playing = track.Ref{}
}

// NowPlaying returns the track last passed to SetNowPlaying and whether
// the station considers a track active.
func (m *Manager) NowPlaying() (track.Ref, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing, m.active
}

// Next returns the next track to play. If UserQueue is non-empty it clears
// AutoQueue and pops the user queue's front. Otherwise, if AutoQueue is
// empty and a track is currently playing, it triggers a synchronous
// refill before falling back to AutoQueue's front. Returns ok=false if
// nothing is available.
func (m *Manager) Next(ctx context.Context) (ref track.Ref, ok bool) {
	m.mu.Lock()
	if len(m.user) > 0 {
		ref = m.user[0]
		m.user = m.user[1:]
		m.auto = nil
		m.mu.Unlock()
		return ref, true
	}
	needsRefill := len(m.auto) == 0 && m.active
	m.mu.Unlock()

	if needsRefill {
		m.Refill(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.auto) == 0 {
		return track.Ref{}, false
	}
	ref = m.auto[0]
	m.auto = m.auto[1:]
	return ref, true
}

// Refill asks the Track Source for tracks related to now_playing and
// appends every candidate whose id isn't in History to AutoQueue. The
// Track Source call happens without the queue lock held, since it's a
// network operation; the result is merged back under the lock.
func (m *Manager) Refill(ctx context.Context) {
	m.mu.Lock()
	now := m.playing
	active := m.active
	m.mu.Unlock()

	if !active {
		return
	}

	related, err := m.source.Related(ctx, now)
	if err != nil {
		slog.Warn("auto-queue refill failed", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range related {
		if m.hist.contains(r.ID) {
			continue
		}
		m.auto = append(m.auto, r)
	}
}

// SnapshotUser returns a copy of the current user queue.
func (m *Manager) SnapshotUser() []track.Ref {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]track.Ref(nil), m.user...)
}

// SnapshotAuto returns a copy of the current auto-queue.
func (m *Manager) SnapshotAuto() []track.Ref {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]track.Ref(nil), m.auto...)
}

// SnapshotHistory returns a copy of the retained history ids, oldest
// first.
func (m *Manager) SnapshotHistory() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hist.snapshot()
}

// UserPage returns page `page` (0-indexed, pageSize items per page) of the
// user queue: the slice [max(0, end-pageSize), end) where end =
// min((page+1)*pageSize, len).
func UserPage(all []track.Ref, page int) []track.Ref {
	if page < 0 {
		page = 0
	}
	end := (page + 1) * pageSize
	if end > len(all) {
		end = len(all)
	}
	start := end - pageSize
	if start < 0 {
		start = 0
	}
	if start >= end {
		return nil
	}
	return append([]track.Ref(nil), all[start:end]...)
}
