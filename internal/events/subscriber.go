package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// subscriberBufferSize bounds each subscriber's FIFO. A subscriber that
// falls behind this many frames starts losing events rather than
// back-pressuring the dispatcher.
const subscriberBufferSize = 64

// watchPollInterval is how long Watch waits before re-checking ctx, so a
// subscriber never sits more than a second away from observing shutdown.
const watchPollInterval = time.Second

// Subscriber is one SSE listener's bounded event FIFO.
type Subscriber struct {
	ID uuid.UUID
	ch chan []byte
}

func newSubscriber() *Subscriber {
	return &Subscriber{
		ID: uuid.New(),
		ch: make(chan []byte, subscriberBufferSize),
	}
}

// Watch blocks until a frame is available, ctx is cancelled, or the
// subscriber's channel is closed (dispatcher shutdown). It polls at
// watchPollInterval so long-lived HTTP handlers can still observe ctx
// cancellation promptly without a dedicated goroutine per subscriber.
func (s *Subscriber) Watch(ctx context.Context) (frame []byte, ok bool) {
	for {
		select {
		case f, open := <-s.ch:
			return f, open
		case <-ctx.Done():
			return nil, false
		case <-time.After(watchPollInterval):
			// loop: re-check ctx, keep waiting for a frame
		}
	}
}
