// Package media normalises uploaded images: everything that lands in the
// inbox is scaled to fit the target bounds, re-encoded as JPEG and published
// under a fresh random name with a JSON sidecar describing the original.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultErrorBackoff = 10 * time.Second

	DefaultMaxWidth  = 1920
	DefaultMaxHeight = 1080
	DefaultQuality   = 85
)

type Config struct {
	InboxDir  string
	OutputDir string

	PollInterval time.Duration
	ErrorBackoff time.Duration

	MaxWidth  int
	MaxHeight int
	Quality   int
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = DefaultErrorBackoff
	}
	if c.MaxWidth <= 0 {
		c.MaxWidth = DefaultMaxWidth
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = DefaultMaxHeight
	}
	if c.Quality <= 0 {
		c.Quality = DefaultQuality
	}
}

// Sidecar is written next to each processed image as {id}.json.
type Sidecar struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`

	OriginalSize   int64 `json:"original_size"`
	CompressedSize int64 `json:"compressed_size"`

	// CompressionRatio is compressed over original, so 0.25 means the
	// output is a quarter of the upload.
	CompressionRatio float64 `json:"compression_ratio"`

	ProcessedAt string `json:"processed_at"`
}

type Processor struct {
	cfg    Config
	logger *slog.Logger
}

func NewProcessor(cfg Config, logger *slog.Logger) *Processor {
	cfg.applyDefaults()
	return &Processor{cfg: cfg, logger: logger}
}

// Run polls the inbox until ctx is cancelled. A sweep that fails entirely
// backs off longer than the regular poll interval; individual file failures
// are logged and skipped so one bad upload cannot wedge the queue.
func (p *Processor) Run(ctx context.Context) error {
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for {
		delay := p.cfg.PollInterval
		if err := p.sweep(ctx); err != nil {
			p.logger.Error("sweep_failed", "error", err)
			delay = p.cfg.ErrorBackoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (p *Processor) sweep(ctx context.Context) error {
	entries, err := os.ReadDir(p.cfg.InboxDir)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			continue
		}
		if !isImageFile(entry.Name()) {
			p.logger.Warn("unsupported_file_skipped", "file", entry.Name())
			continue
		}

		src := filepath.Join(p.cfg.InboxDir, entry.Name())
		sidecar, err := p.ProcessFile(src)
		if err != nil {
			p.logger.Error("process_failed", "file", entry.Name(), "error", err)
			continue
		}
		p.logger.Info("image_processed",
			"file", entry.Name(), "id", sidecar.ID,
			"width", sidecar.Width, "height", sidecar.Height)
	}
	return nil
}

// ProcessFile converts one inbox file: decode, scale to fit, re-encode,
// write sidecar, delete the original. The original is only removed after
// both outputs are safely on disk.
func (p *Processor) ProcessFile(srcPath string) (*Sidecar, error) {
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	scaled := scaleToFit(src, p.cfg.MaxWidth, p.cfg.MaxHeight)

	id := uuid.NewString()
	outPath := filepath.Join(p.cfg.OutputDir, id+".jpg")

	out, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	encErr := jpeg.Encode(out, scaled, &jpeg.Options{Quality: p.cfg.Quality})
	closeErr := out.Close()
	if err := errors.Join(encErr, closeErr); err != nil {
		os.Remove(outPath)
		return nil, fmt.Errorf("encode: %w", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("stat output: %w", err)
	}

	var ratio float64
	if srcInfo.Size() > 0 {
		ratio = float64(info.Size()) / float64(srcInfo.Size())
	}
	sidecar := &Sidecar{
		ID:               id,
		OriginalName:     filepath.Base(srcPath),
		Width:            scaled.Bounds().Dx(),
		Height:           scaled.Bounds().Dy(),
		OriginalSize:     srcInfo.Size(),
		CompressedSize:   info.Size(),
		CompressionRatio: ratio,
		ProcessedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := writeSidecar(filepath.Join(p.cfg.OutputDir, id+".json"), sidecar); err != nil {
		os.Remove(outPath)
		return nil, err
	}

	if err := os.Remove(srcPath); err != nil {
		return nil, fmt.Errorf("remove original: %w", err)
	}
	return sidecar, nil
}

func writeSidecar(path string, sc *Sidecar) error {
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

// scaleToFit shrinks src to fit within maxW x maxH, preserving aspect ratio.
// Images already inside the bounds are re-drawn at original size so the
// output is always a clean RGBA JPEG regardless of the source color model.
func scaleToFit(src image.Image, maxW, maxH int) image.Image {
	w, h := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), maxW, maxH)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// fitWithin returns the largest dimensions at the source aspect ratio that
// fit inside the bounds, never upscaling.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}

	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := min(scaleW, scaleH)

	outW := max(1, int(float64(w)*scale))
	outH := max(1, int(float64(h)*scale))
	return outW, outH
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
