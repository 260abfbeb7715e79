package httpapi

import "github.com/gin-gonic/gin"

// NewRouter builds a gin.Engine with every endpoint in the external
// interface table wired to h.
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { writeData(c, gin.H{"status": "ok"}) })

	queue := r.Group("/queue")
	{
		queue.POST("/add", h.AddTrack)
		queue.GET("/", h.GetQueue)
		queue.GET("/auto", h.GetAutoQueue)
		queue.POST("/skip", h.Skip)
	}

	r.GET("/np", h.NowPlaying)
	r.GET("/nowplaying", h.NowPlaying)
	r.GET("/stream", h.Stream)
	r.GET("/watch_event", h.WatchEvents)

	return r
}
