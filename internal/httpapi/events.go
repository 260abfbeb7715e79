package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WatchEvents handles GET /watch_event. It subscribes the connection to
// the event dispatcher and relays every pre-formatted SSE frame until the
// client disconnects or the dispatcher shuts the subscriber down.
//
// Frames are written verbatim rather than through gin's SSEvent helper:
// the dispatcher already produces the exact "event: <kind>\ndata:
// <json>\n\n" wire format, and re-parsing that back into a kind/payload
// pair just to hand it to SSEvent would be pure overhead.
func (h *Handlers) WatchEvents(c *gin.Context) {
	sub := h.station.Subscribe()
	defer h.station.Unsubscribe(sub)

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := c.Request.Context()
	for {
		frame, ok := sub.Watch(ctx)
		if !ok {
			return
		}
		if _, err := w.Write(frame); err != nil {
			return
		}
		w.Flush()
	}
}
