package queue

import (
	"context"
	"testing"

	"github.com/arung-agamani/opuscast/internal/track"
)

func ref(id string) track.Ref {
	return track.Ref{ID: id, Title: "track " + id, WebpageURL: "https://youtu.be/" + id}
}

func TestAddAndNextPopsUserQueueFirst(t *testing.T) {
	src := track.NewFakeSource()
	m := NewManager(src, nil)

	m.Add(ref("a"))
	m.Add(ref("b"))

	got, ok := m.Next(context.Background())
	if !ok || got.ID != "a" {
		t.Fatalf("Next() = %+v, %v, want a, true", got, ok)
	}
}

func TestNextClearsAutoQueueOnUserPreemption(t *testing.T) {
	src := track.NewFakeSource()
	m := NewManager(src, nil)

	m.mu.Lock()
	m.auto = []track.Ref{ref("x"), ref("y")}
	m.mu.Unlock()

	m.Add(ref("a"))
	if _, ok := m.Next(context.Background()); !ok {
		t.Fatal("expected a track")
	}
	if got := m.SnapshotAuto(); len(got) != 0 {
		t.Fatalf("expected auto-queue cleared, got %v", got)
	}
}

func TestNextRefillsWhenAutoEmptyAndPlaying(t *testing.T) {
	src := track.NewFakeSource()
	src.RelatedFor["now"] = []track.Ref{ref("r1"), ref("r2")}

	m := NewManager(src, nil)
	m.SetNowPlaying(ref("now"))

	got, ok := m.Next(context.Background())
	if !ok || got.ID != "r1" {
		t.Fatalf("Next() = %+v, %v, want r1, true", got, ok)
	}
}

func TestRefillDedupsAgainstHistory(t *testing.T) {
	src := track.NewFakeSource()
	src.RelatedFor["now"] = []track.Ref{ref("now"), ref("fresh")}

	m := NewManager(src, nil)
	m.SetNowPlaying(ref("now"))
	m.Refill(context.Background())

	auto := m.SnapshotAuto()
	for _, a := range auto {
		if a.ID == "now" {
			t.Fatalf("expected history dedup to drop %q, got %v", "now", auto)
		}
	}
	if len(auto) != 1 || auto[0].ID != "fresh" {
		t.Fatalf("unexpected auto-queue contents: %v", auto)
	}
}

func TestHistoryBounded(t *testing.T) {
	var h history
	for i := 0; i < 60; i++ {
		h.push(string(rune('a' + i%26)))
	}
	if len(h.ids) != historyCapacity {
		t.Fatalf("history length = %d, want %d", len(h.ids), historyCapacity)
	}
}

func TestUserPagePagination(t *testing.T) {
	all := []track.Ref{ref("0"), ref("1"), ref("2"), ref("3"), ref("4"), ref("5"), ref("6")}

	page0 := UserPage(all, 0)
	if len(page0) != 5 || page0[0].ID != "0" || page0[4].ID != "4" {
		t.Fatalf("page 0 = %v", page0)
	}

	page1 := UserPage(all, 1)
	if len(page1) != 2 || page1[0].ID != "5" || page1[1].ID != "6" {
		t.Fatalf("page 1 = %v", page1)
	}

	page2 := UserPage(all, 2)
	if len(page2) != 0 {
		t.Fatalf("page 2 = %v, want empty", page2)
	}
}

func TestEmitCalledOnAdd(t *testing.T) {
	src := track.NewFakeSource()
	var gotKind string
	var gotPayload any
	m := NewManager(src, func(kind string, payload any) {
		gotKind = kind
		gotPayload = payload
	})

	m.Add(ref("a"))

	if gotKind != "queueadd" {
		t.Fatalf("emit kind = %q, want queueadd", gotKind)
	}
	if r, ok := gotPayload.(track.Ref); !ok || r.ID != "a" {
		t.Fatalf("emit payload = %+v", gotPayload)
	}
}
