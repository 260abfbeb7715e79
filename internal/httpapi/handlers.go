package httpapi

import (
	"strconv"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/arung-agamani/opuscast/internal/events"
	"github.com/arung-agamani/opuscast/internal/track"
)

// Station is the subset of the Controller Facade the HTTP layer depends
// on. It is defined here, not in internal/controller, so this package
// can be exercised against a fake in tests without spawning a real
// ffmpeg mixer.
type Station interface {
	AddTrack(url string) error
	SkipTrack()
	Queue(page int) []track.Ref
	AutoQueue() []track.Ref
	NextUp() (track.Ref, bool)
	NowPlaying() (track.Resolved, bool)
	WaitForHeader() ([]byte, error)
	Buffer() ([]byte, error)
	Event() <-chan struct{}
	Subscribe() *events.Subscriber
	Unsubscribe(sub *events.Subscriber)
	IsAlive() bool
}

// Handlers holds the gin route handlers for the queue, now-playing,
// stream, and event-feed endpoints.
type Handlers struct {
	station Station
	cfg     StreamConfig

	streamClients atomic.Int32
}

// StreamConfig is the subset of application configuration the /stream
// handler needs to advertise itself and enforce listener limits.
type StreamConfig struct {
	StationName string
	Bitrate     string
	MaxClients  int
}

// NewHandlers builds a Handlers wired to station.
func NewHandlers(station Station, cfg StreamConfig) *Handlers {
	return &Handlers{station: station, cfg: cfg}
}

// AddTrack handles POST /queue/add.
func (h *Handlers) AddTrack(c *gin.Context) {
	url := c.PostForm("url")
	if url == "" {
		url = c.Query("url")
	}
	if url == "" {
		var body struct {
			URL string `json:"url"`
		}
		if c.ContentType() == "application/json" && c.ShouldBindJSON(&body) == nil {
			url = body.URL
		}
	}
	if url == "" {
		writeError(c, 400, "missing required argument: url")
		return
	}

	if err := h.station.AddTrack(url); err != nil {
		writeError(c, 400, err.Error())
		return
	}
	writeMsg(c, "Track added to queue successfully")
}

// GetQueue handles GET /queue/. It accepts either `index` or `page` (both
// default 0) and an optional `use_autoplay` flag that attaches the
// auto-queue as additional_data.
func (h *Handlers) GetQueue(c *gin.Context) {
	page := queryInt(c, "index", queryInt(c, "page", 0))
	useAutoplay := c.Query("use_autoplay") == "1" || c.Query("use_autoplay") == "true"

	data := gin.H{"queue": nonNil(h.station.Queue(page))}

	if useAutoplay {
		if auto := h.station.AutoQueue(); len(auto) > 0 {
			writeDataWithExtra(c, data, gin.H{"auto_queue": auto})
			return
		}
	}
	writeData(c, data)
}

// GetAutoQueue handles GET /queue/auto.
func (h *Handlers) GetAutoQueue(c *gin.Context) {
	writeData(c, gin.H{"auto_queue": nonNil(h.station.AutoQueue())})
}

// Skip handles POST /queue/skip.
func (h *Handlers) Skip(c *gin.Context) {
	h.station.SkipTrack()
	writeMsg(c, "Track skipped successfully")
}

// NowPlaying handles GET /np and GET /nowplaying.
func (h *Handlers) NowPlaying(c *gin.Context) {
	data := gin.H{"now_playing": nil}
	if np, ok := h.station.NowPlaying(); ok {
		data["now_playing"] = np
	}
	if next, ok := h.station.NextUp(); ok {
		data["next_up"] = next
	}
	writeData(c, data)
}

func queryInt(c *gin.Context, key string, defaultVal int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return v
}

// nonNil turns a nil slice into an empty one so it marshals to `[]`
// rather than `null`, matching the envelope's is_value_present check
// (an empty page is still a present, if empty, queue).
func nonNil(refs []track.Ref) []track.Ref {
	if refs == nil {
		return []track.Ref{}
	}
	return refs
}
