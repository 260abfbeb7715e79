package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stream handles GET /stream. It enforces the configured listener limit,
// sends the two-page Opus header exactly once, then relays one Ogg page
// per audio edge pulse until the client disconnects or the station dies.
func (h *Handlers) Stream(c *gin.Context) {
	if h.cfg.MaxClients > 0 && int(h.streamClients.Load()) >= h.cfg.MaxClients {
		writeError(c, http.StatusServiceUnavailable, "too many listeners")
		return
	}

	header, err := h.station.WaitForHeader()
	if err != nil {
		writeError(c, http.StatusServiceUnavailable, "stream not available: "+err.Error())
		return
	}

	h.streamClients.Add(1)
	defer h.streamClients.Add(-1)

	w := c.Writer
	w.Header().Set("Content-Type", "audio/ogg")
	w.Header().Set("Transfer-Encoding", "chunked")
	w.Header().Set("icy-name", h.cfg.StationName)
	w.Header().Set("icy-br", h.cfg.Bitrate)
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(header); err != nil {
		return
	}
	w.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.station.Event():
		}

		if !h.station.IsAlive() {
			slog.Debug("httpapi: stream ending, station no longer alive")
			return
		}

		frame, err := h.station.Buffer()
		if err != nil {
			return
		}
		if _, err := w.Write(frame); err != nil {
			return
		}
		w.Flush()
	}
}
