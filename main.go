package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arung-agamani/opuscast/config"
	"github.com/arung-agamani/opuscast/internal/controller"
	"github.com/arung-agamani/opuscast/internal/httpapi"
	"github.com/arung-agamani/opuscast/internal/track"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	slog.Info("starting station",
		"port", cfg.Port,
		"station_name", cfg.StationName,
		"ffmpeg_path", cfg.FfmpegPath,
	)

	source := track.NewYouTubeSource(cfg.TrackSourceTimeout)

	ctrl, err := controller.New(controller.Config{
		FfmpegPath:         cfg.FfmpegPath,
		HeaderTimeout:      cfg.HeaderTimeout,
		TrackSourceTimeout: cfg.TrackSourceTimeout,
	}, source)
	if err != nil {
		slog.Error("failed to initialize main mixer", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- ctrl.Run(context.Background())
	}()

	h := httpapi.NewHandlers(ctrl, httpapi.StreamConfig{
		StationName: cfg.StationName,
		Bitrate:     cfg.Bitrate,
		MaxClients:  cfg.MaxClients,
	})
	router := httpapi.NewRouter(h)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", httpServer.Addr)
		serveErrCh <- httpServer.ListenAndServe()
	}()

	runDrained := false
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serveErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	case err := <-runErrCh:
		slog.Error("station stopped unexpectedly", "error", err)
		runDrained = true
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http server shutdown error", "error", err)
	}

	ctrl.Shutdown()
	if !runDrained {
		<-runErrCh
	}

	slog.Info("station stopped")
}
