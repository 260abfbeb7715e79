// Package events implements the SSE-shaped event broadcaster: a shared
// dispatcher fans out named events to many bounded, per-subscriber FIFOs.
package events

import (
	"encoding/json"
	"fmt"
)

// Kind values the dispatcher emits.
const (
	KindNowPlaying = "nowplaying"
	KindQueueAdd   = "queueadd"
	KindNext       = "next"
	KindShutdown   = "shutdown"
)

// formatFrame renders a pre-formatted SSE frame: "event: <kind>\ndata:
// <json>\n\n". payload must be JSON-marshalable.
func formatFrame(kind string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("events: marshal payload for %q: %w", kind, err)
	}
	frame := make([]byte, 0, len(kind)+len(data)+16)
	frame = append(frame, "event: "...)
	frame = append(frame, kind...)
	frame = append(frame, "\ndata: "...)
	frame = append(frame, data...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}
