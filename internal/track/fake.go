package track

import "context"

// FakeSource is a deterministic, in-memory Source used by the rest of this
// module's tests in place of real network calls. It is exported so
// internal/queue and internal/scheduler tests can construct one directly.
type FakeSource struct {
	// Resolved maps a URL to the Resolved value Resolve should return for
	// it. A URL not present here causes Resolve to return ResolveErr (or
	// ErrUnavailable if ResolveErr is nil).
	Resolved map[string]Resolved
	// ResolveErr, if set, overrides the not-found error above for every
	// miss, letting tests simulate ErrLive/ErrOverLength.
	ResolveErr error

	// RelatedFor maps a track id to the related tracks Related returns
	// for it.
	RelatedFor map[string][]Ref
}

// NewFakeSource builds an empty FakeSource ready to have Resolved/RelatedFor
// populated.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		Resolved:   map[string]Resolved{},
		RelatedFor: map[string][]Ref{},
	}
}

func (f *FakeSource) Resolve(_ context.Context, url string, process bool) (Resolved, error) {
	r, ok := f.Resolved[url]
	if !ok {
		if f.ResolveErr != nil {
			return Resolved{}, f.ResolveErr
		}
		return Resolved{}, ErrUnavailable
	}
	r.Process = process
	if !process {
		r.URL = ""
		r.FormatDuration = ""
	}
	return r, nil
}

func (f *FakeSource) Related(_ context.Context, t Ref) ([]Ref, error) {
	return f.RelatedFor[t.ID], nil
}
