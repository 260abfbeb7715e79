package splicer

import "sync"

// edgeEvent is an auto-reset "pulse" primitive: Pulse
// wakes every goroutine currently waiting on Chan() exactly once, then
// immediately re-arms for the next pulse. It is implemented as a
// generation counter backed by a channel that gets closed-and-replaced on
// every pulse, the same pattern context.Done() uses for cancellation
// broadcast — closing a channel wakes every receiver regardless of how
// many are waiting, with no risk of a lost wakeup between Chan() and the
// select that follows it.
type edgeEvent struct {
	mu sync.Mutex
	ch chan struct{}
}

func newEdgeEvent() *edgeEvent {
	return &edgeEvent{ch: make(chan struct{})}
}

// Chan returns the channel to select on. Callers must re-call Chan after
// it fires to wait for the next pulse — the channel returned here is only
// good for one wakeup.
func (e *edgeEvent) Chan() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ch
}

// Pulse wakes every current waiter and re-arms the event.
func (e *edgeEvent) Pulse() {
	e.mu.Lock()
	old := e.ch
	e.ch = make(chan struct{})
	e.mu.Unlock()
	close(old)
}
