// Package httpapi wires the Controller Facade to gin's HTTP router,
// implementing every endpoint the station exposes: queue management, the
// now-playing query, the live Ogg/Opus stream, and the server-sent event
// feed.
package httpapi

import "github.com/gin-gonic/gin"

// envelope is the standard JSON response shape every endpoint here uses.
type envelope struct {
	Msg            string `json:"msg"`
	Error          bool   `json:"error"`
	Data           any    `json:"data"`
	AdditionalData any    `json:"additional_data,omitempty"`
}

// writeData responds 200 with data wrapped in the standard envelope.
func writeData(c *gin.Context, data any) {
	c.JSON(200, envelope{Msg: "success", Error: false, Data: data})
}

// writeDataWithExtra responds 200 with both data and an additional_data
// field, for endpoints like /queue/ that optionally attach the
// auto-queue alongside the user queue page.
func writeDataWithExtra(c *gin.Context, data, extra any) {
	c.JSON(200, envelope{Msg: "success", Error: false, Data: data, AdditionalData: extra})
}

// writeMsg responds 200 with msg set and no data, for fire-and-forget
// actions like add/skip.
func writeMsg(c *gin.Context, msg string) {
	c.JSON(200, envelope{Msg: msg, Error: false, Data: nil})
}

// writeError responds status with error:true and the given message.
func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Msg: msg, Error: true, Data: nil})
}
