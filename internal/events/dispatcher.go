package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// queueSize bounds the shared event queue the dispatcher drains. Emit
// drops the event (with a warning) if the queue is momentarily full
// rather than blocking the caller.
const queueSize = 256

type eventItem struct {
	kind    string
	payload any
}

// Dispatcher is the event-fan-out half of the Stream Broadcaster: a
// single goroutine reads (kind, payload) tuples off a shared queue and
// pushes a pre-formatted SSE frame into every subscriber's FIFO,
// non-blocking — a full subscriber simply drops that frame.
type Dispatcher struct {
	queue chan eventItem

	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscriber
}

// NewDispatcher builds a Dispatcher. Run must be started in its own
// goroutine before Emit does anything useful.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		queue: make(chan eventItem, queueSize),
		subs:  make(map[uuid.UUID]*Subscriber),
	}
}

// Run drains the event queue until ctx is cancelled. On cancellation it
// enqueues and fans out a shutdown sentinel, then closes every
// subscriber's channel so their Watch calls unblock and return ok=false.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.fanOut(KindShutdown, nil)
			d.closeAll()
			return
		case item := <-d.queue:
			d.fanOut(item.kind, item.payload)
		}
	}
}

// Emit enqueues an event for fan-out. Non-blocking: if the shared queue
// is full, the event is dropped and a warning logged.
func (d *Dispatcher) Emit(kind string, payload any) {
	select {
	case d.queue <- eventItem{kind: kind, payload: payload}:
	default:
		slog.Warn("event queue full, dropping event", "kind", kind)
	}
}

func (d *Dispatcher) fanOut(kind string, payload any) {
	frame, err := formatFrame(kind, payload)
	if err != nil {
		slog.Warn("failed to format event frame", "kind", kind, "error", err)
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, sub := range d.subs {
		select {
		case sub.ch <- frame:
		default:
			// Subscriber's FIFO is full; drop for that subscriber only.
		}
	}
}

func (d *Dispatcher) closeAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, sub := range d.subs {
		close(sub.ch)
		delete(d.subs, id)
	}
}

// Subscribe registers a new Subscriber and returns it. The caller must
// call Unsubscribe when the listener disconnects.
func (d *Dispatcher) Subscribe() *Subscriber {
	sub := newSubscriber()
	d.mu.Lock()
	d.subs[sub.ID] = sub
	d.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call more than
// once.
func (d *Dispatcher) Unsubscribe(sub *Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subs[sub.ID]; !ok {
		return
	}
	delete(d.subs, sub.ID)
	close(sub.ch)
}

// ActiveSubscribers returns the current subscriber count.
func (d *Dispatcher) ActiveSubscribers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}
