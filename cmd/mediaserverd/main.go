package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/checkpointhq/checkpoint/internal/media"
	"github.com/checkpointhq/checkpoint/pkg/slogx"
)

var version = "dev"

func main() {
	logger := slogx.New(slogx.Config{
		Service: "mediaserverd",
		Version: version,
		Env:     envOrDefault("ENV", "production"),
		Level:   envOrDefault("LOG_LEVEL", "info"),
		Format:  envOrDefault("LOG_FORMAT", "json"),
	})

	handler := media.ServerHandler(media.ServerConfig{
		ImagesDir:   envOrDefault("MEDIA_IMAGES_DIR", "data/media/processed/images"),
		VideosDir:   envOrDefault("MEDIA_VIDEOS_DIR", "data/media/processed/videos"),
		CORSOrigins: strings.Split(envOrDefault("CORS_ORIGINS", "*"), ","),
	})

	addr := envOrDefault("HTTP_ADDR", ":8090")
	server := &http.Server{
		Addr:              addr,
		Handler:           slogx.HTTPMiddleware(logger)(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listen", "addr", addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		fmt.Fprintln(os.Stderr, "serve:", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "shutdown:", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
