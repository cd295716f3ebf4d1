package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/checkpointhq/checkpoint/internal/media"
	"github.com/checkpointhq/checkpoint/pkg/slogx"
)

var version = "dev"

func main() {
	logger := slogx.New(slogx.Config{
		Service: "mediaprocd",
		Version: version,
		Env:     envOrDefault("ENV", "production"),
		Level:   envOrDefault("LOG_LEVEL", "info"),
		Format:  envOrDefault("LOG_FORMAT", "json"),
	})

	proc := media.NewProcessor(media.Config{
		InboxDir:  envOrDefault("MEDIA_INBOX_DIR", "data/media/inbox"),
		OutputDir: envOrDefault("MEDIA_OUTPUT_DIR", "data/media/processed/images"),
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "runtime:", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
