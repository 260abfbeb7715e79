package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/arung-agamani/opuscast/internal/events"
	"github.com/arung-agamani/opuscast/internal/track"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStation is a deterministic Station used in place of a real
// Controller so these tests never spawn ffmpeg.
type fakeStation struct {
	addErr     error
	addedURLs  []string
	queue      []track.Ref
	auto       []track.Ref
	nextUp     *track.Ref
	nowPlaying *track.Resolved
	alive      bool
	skipped    bool
}

func (f *fakeStation) AddTrack(url string) error {
	f.addedURLs = append(f.addedURLs, url)
	return f.addErr
}
func (f *fakeStation) SkipTrack() { f.skipped = true }
func (f *fakeStation) Queue(page int) []track.Ref {
	return f.queue
}
func (f *fakeStation) AutoQueue() []track.Ref { return f.auto }
func (f *fakeStation) NextUp() (track.Ref, bool) {
	if f.nextUp == nil {
		return track.Ref{}, false
	}
	return *f.nextUp, true
}
func (f *fakeStation) NowPlaying() (track.Resolved, bool) {
	if f.nowPlaying == nil {
		return track.Resolved{}, false
	}
	return *f.nowPlaying, true
}
func (f *fakeStation) WaitForHeader() ([]byte, error)     { return nil, nil }
func (f *fakeStation) Buffer() ([]byte, error)            { return nil, nil }
func (f *fakeStation) Event() <-chan struct{}             { return nil }
func (f *fakeStation) Subscribe() *events.Subscriber      { return nil }
func (f *fakeStation) Unsubscribe(sub *events.Subscriber) {}
func (f *fakeStation) IsAlive() bool                      { return f.alive }

func newTestRouter(f Station) *gin.Engine {
	h := NewHandlers(f, StreamConfig{StationName: "test", Bitrate: "128k", MaxClients: 10})
	return NewRouter(h)
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decoding envelope: %v, body: %s", err, body)
	}
	return env
}

func TestAddTrackAcceptsFormURL(t *testing.T) {
	f := &fakeStation{}
	r := newTestRouter(f)

	form := url.Values{"url": {"https://youtu.be/AAA"}}
	req := httptest.NewRequest(http.MethodPost, "/queue/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	env := decodeEnvelope(t, w.Body.Bytes())
	if env.Error {
		t.Fatalf("envelope.Error = true, want false: %+v", env)
	}
	if len(f.addedURLs) != 1 || f.addedURLs[0] != "https://youtu.be/AAA" {
		t.Fatalf("addedURLs = %v", f.addedURLs)
	}
}

func TestAddTrackMissingURLIsBadRequest(t *testing.T) {
	f := &fakeStation{}
	r := newTestRouter(f)

	req := httptest.NewRequest(http.MethodPost, "/queue/add", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	env := decodeEnvelope(t, w.Body.Bytes())
	if !env.Error {
		t.Fatalf("expected error envelope, got %+v", env)
	}
}

func TestGetQueueDefaultsToFirstPage(t *testing.T) {
	f := &fakeStation{queue: []track.Ref{{ID: "a"}, {ID: "b"}}}
	r := newTestRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/queue/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	env := decodeEnvelope(t, w.Body.Bytes())
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want map", env.Data)
	}
	queue, ok := data["queue"].([]any)
	if !ok || len(queue) != 2 {
		t.Fatalf("queue = %v", data["queue"])
	}
}

func TestGetQueueWithAutoplayAttachesAutoQueue(t *testing.T) {
	f := &fakeStation{
		queue: []track.Ref{{ID: "a"}},
		auto:  []track.Ref{{ID: "r1"}},
	}
	r := newTestRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/queue/?use_autoplay=1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	env := decodeEnvelope(t, w.Body.Bytes())
	if env.AdditionalData == nil {
		t.Fatal("expected additional_data with auto_queue, got nil")
	}
}

func TestSkipSetsSkipFlag(t *testing.T) {
	f := &fakeStation{}
	r := newTestRouter(f)

	req := httptest.NewRequest(http.MethodPost, "/queue/skip", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !f.skipped {
		t.Fatal("expected SkipTrack to be called")
	}
}

func TestNowPlayingWithNothingPlaying(t *testing.T) {
	f := &fakeStation{}
	r := newTestRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/np", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	env := decodeEnvelope(t, w.Body.Bytes())
	data := env.Data.(map[string]any)
	if data["now_playing"] != nil {
		t.Fatalf("now_playing = %v, want nil", data["now_playing"])
	}
	if _, hasNext := data["next_up"]; hasNext {
		t.Fatalf("expected no next_up field, got %v", data["next_up"])
	}
}

func TestNowPlayingIncludesNextUp(t *testing.T) {
	np := track.Resolved{Ref: track.Ref{ID: "now"}}
	next := track.Ref{ID: "next"}
	f := &fakeStation{nowPlaying: &np, nextUp: &next}
	r := newTestRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/np", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	env := decodeEnvelope(t, w.Body.Bytes())
	data := env.Data.(map[string]any)
	if data["next_up"] == nil {
		t.Fatal("expected next_up to be present")
	}
}

func TestStreamUnavailableWhenHeaderTimesOut(t *testing.T) {
	f := &fakeHeaderTimeoutStation{fakeStation: fakeStation{}}
	r := newTestRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

type fakeHeaderTimeoutStation struct {
	fakeStation
}

func (f *fakeHeaderTimeoutStation) WaitForHeader() ([]byte, error) {
	return nil, errTimeoutForTest
}

var errTimeoutForTest = errors.New("timed out")
