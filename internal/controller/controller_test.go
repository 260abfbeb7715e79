package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arung-agamani/opuscast/internal/track"
)

func writeFakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-ffmpeg.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("writing fake ffmpeg script: %v", err)
	}
	return path
}

func newTestController(t *testing.T, headerTimeout time.Duration) *Controller {
	t.Helper()
	path := writeFakeFFmpeg(t, "exec cat")

	c, err := New(Config{
		FfmpegPath:         path,
		HeaderTimeout:      headerTimeout,
		TrackSourceTimeout: time.Second,
	}, track.NewFakeSource())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestShutdownIsIdempotent(t *testing.T) {
	c := newTestController(t, time.Second)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	// Give the splicer a moment to start on the mixer's stdout.
	deadline := time.After(2 * time.Second)
	for !c.IsAlive() {
		select {
		case <-deadline:
			t.Fatal("station never came alive")
		case <-time.After(10 * time.Millisecond):
		}
	}

	c.Shutdown()
	c.Shutdown() // second call must be a no-op, not a panic or a hang

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}

	if c.IsAlive() {
		t.Fatal("IsAlive() = true after Shutdown")
	}
	if got := c.State(); got != StateStopped {
		t.Fatalf("State() = %q, want %q", got, StateStopped)
	}
}

func TestWaitForHeaderTimesOut(t *testing.T) {
	c := newTestController(t, 100*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	defer func() {
		c.Shutdown()
		<-done
	}()

	// The fake mixer never emits any Ogg page, so the header can't arrive.
	if _, err := c.WaitForHeader(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("WaitForHeader() error = %v, want ErrTimeout", err)
	}
}

func TestWaitForHeaderInterruptedByShutdown(t *testing.T) {
	c := newTestController(t, 30*time.Second)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	errCh := make(chan error, 1)
	go func() {
		_, err := c.WaitForHeader()
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	c.Shutdown()
	<-done

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrInterrupted) {
			t.Fatalf("WaitForHeader() error = %v, want ErrInterrupted", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForHeader did not unblock on Shutdown")
	}
}

func TestNowPlayingEmptyOnFreshStation(t *testing.T) {
	c := newTestController(t, time.Second)
	if _, ok := c.NowPlaying(); ok {
		t.Fatal("expected no track playing on a fresh station")
	}
	if got := c.Queue(0); len(got) != 0 {
		t.Fatalf("Queue(0) = %v, want empty", got)
	}
	c.Shutdown()
}
