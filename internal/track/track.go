// Package track defines the track metadata types the core operates on and
// the Source contract it resolves them through. The concrete Source
// implementation talks to YouTube and YouTube Music; the core never
// depends on anything beyond the Source interface.
package track

import "errors"

// Sentinel errors a Source implementation returns. The scheduler and
// add-track worker branch on these with errors.Is.
var (
	// ErrUnavailable means the backend could not resolve the reference at
	// all (removed, private, region-locked, network failure).
	ErrUnavailable = errors.New("track: unavailable")
	// ErrLive means the reference points at a live stream, which this
	// station does not support.
	ErrLive = errors.New("track: is a live stream")
	// ErrOverLength means the track's duration exceeds MaxDurationSeconds.
	ErrOverLength = errors.New("track: exceeds maximum length")
	// ErrNotYouTube is the legacy add-path validation failure: the
	// submitted URL's host isn't a recognized YouTube/YouTube Music host.
	ErrNotYouTube = errors.New("track: not a youtube url")
)

// Ref is an unresolved track reference: enough to identify and display a
// track and to enqueue it, but without a playable media URL yet. It
// decodes permissively from the backend's JSON — unknown fields are
// ignored and missing fields simply leave the zero value.
type Ref struct {
	Title      string  `json:"title"`
	ID         string  `json:"id"`
	WebpageURL string  `json:"webpage_url"`
	Duration   float64 `json:"duration"`
	Channel    string  `json:"channel,omitempty"`
	Extractor  string  `json:"extractor,omitempty"`

	// NeedReencode is true when the source's sample rate isn't 48000 Hz or
	// its codec isn't Opus, meaning the per-track transcoder must re-encode
	// rather than stream-copy.
	NeedReencode bool `json:"need_reencode"`

	// Process discriminates the two resolution tiers on the wire: a Ref
	// is always process:false; Resolved carries process:true.
	Process bool `json:"process"`
}

// Resolved is a Ref that has been fully resolved to a playable media URL,
// immediately before the per-track transcoder is spawned.
type Resolved struct {
	Ref

	// URL is the direct, transcoder-consumable media URL.
	URL string `json:"url"`
	// FormatDuration is a human-readable "mm:ss" rendering of Duration.
	FormatDuration string `json:"format_duration"`
}

// newRef builds a Ref with Process forced false, as every Ref is.
func newRef(title, id, webpageURL string, duration float64, channel, extractor string, needReencode bool) Ref {
	return Ref{
		Title:        title,
		ID:           id,
		WebpageURL:   webpageURL,
		Duration:     duration,
		Channel:      channel,
		Extractor:    extractor,
		NeedReencode: needReencode,
		Process:      false,
	}
}
