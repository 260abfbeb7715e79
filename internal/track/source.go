package track

import "context"

// Source is the external collaborator that turns a URL into track metadata
// and suggests related tracks. The core depends only on this interface;
// Transcoder Driver, Queue Manager, and Scheduler never know which concrete
// backend is behind it.
type Source interface {
	// Resolve looks up url. If process is false, only metadata is
	// returned (Resolved.URL and Resolved.FormatDuration are zero value,
	// and the returned Resolved.Process is false). If process is true,
	// the backend also resolves a direct, playable media URL.
	//
	// Returns ErrUnavailable, ErrLive, or ErrOverLength on failure; never
	// any other error kind.
	Resolve(ctx context.Context, url string, process bool) (Resolved, error)

	// Related returns up to MaxRelatedTracks suggestions derived from
	// track, filtered to exclude anything over the length limit. It is
	// best-effort: on total backend failure it returns an empty slice and
	// a nil error, never an error.
	Related(ctx context.Context, t Ref) ([]Ref, error)
}

// MaxDurationSeconds is the duration ceiling applied to every resolve and
// every related-track candidate.
const MaxDurationSeconds = 481.0

// MaxRelatedTracks bounds how many suggestions Related may return.
const MaxRelatedTracks = 25

// MinRelatedViewCount is the view-count floor applied only to the
// watch-next fallback backend; the Music auto-mix backend carries no
// view-count field to filter on.
const MinRelatedViewCount = 5000

// ValidateURL performs the legacy NotYouTube check synchronously, without
// any network I/O, so the add-path can reject a bad URL before spawning a
// background resolve worker.
func ValidateURL(rawURL string) error {
	_, err := videoIDFromURL(rawURL)
	return err
}
