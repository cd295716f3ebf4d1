package media

import (
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testProcessor(t *testing.T) (*Processor, string, string) {
	t.Helper()

	inbox := t.TempDir()
	output := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	return NewProcessor(Config{InboxDir: inbox, OutputDir: output}, logger), inbox, output
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestProcessFile(t *testing.T) {
	p, inbox, output := testProcessor(t)

	src := filepath.Join(inbox, "huge.png")
	writeTestPNG(t, src, 3840, 2160)

	sc, err := p.ProcessFile(src)
	require.NoError(t, err)
	require.Equal(t, 1920, sc.Width)
	require.Equal(t, 1080, sc.Height)
	require.Equal(t, "huge.png", sc.OriginalName)
	require.Positive(t, sc.OriginalSize)
	require.Positive(t, sc.CompressedSize)
	require.InDelta(t, float64(sc.CompressedSize)/float64(sc.OriginalSize), sc.CompressionRatio, 1e-9)

	t.Run("original is gone", func(t *testing.T) {
		_, err := os.Stat(src)
		require.True(t, os.IsNotExist(err))
	})

	t.Run("output is a jpeg at the scaled size", func(t *testing.T) {
		f, err := os.Open(filepath.Join(output, sc.ID+".jpg"))
		require.NoError(t, err)
		defer f.Close()

		img, err := jpeg.Decode(f)
		require.NoError(t, err)
		require.Equal(t, 1920, img.Bounds().Dx())
		require.Equal(t, 1080, img.Bounds().Dy())
	})

	t.Run("sidecar matches", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(output, sc.ID+".json"))
		require.NoError(t, err)

		var got Sidecar
		require.NoError(t, json.Unmarshal(data, &got))
		require.Equal(t, *sc, got)
	})
}

func TestProcessFileSmallImageKeepsSize(t *testing.T) {
	p, inbox, _ := testProcessor(t)

	src := filepath.Join(inbox, "small.png")
	writeTestPNG(t, src, 640, 480)

	sc, err := p.ProcessFile(src)
	require.NoError(t, err)
	require.Equal(t, 640, sc.Width)
	require.Equal(t, 480, sc.Height)
}

func TestProcessFileRejectsGarbage(t *testing.T) {
	p, inbox, _ := testProcessor(t)

	src := filepath.Join(inbox, "not-an-image.jpg")
	require.NoError(t, os.WriteFile(src, []byte("plain text"), 0o644))

	_, err := p.ProcessFile(src)
	require.Error(t, err)

	_, statErr := os.Stat(src)
	require.NoError(t, statErr, "failed input is kept for inspection")
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name           string
		w, h           int
		wantW, wantH   int
	}{
		{"16:9 oversize", 3840, 2160, 1920, 1080},
		{"fits already", 800, 600, 800, 600},
		{"exact bounds", 1920, 1080, 1920, 1080},
		{"portrait", 2160, 3840, 607, 1080},
		{"very wide", 10000, 100, 1920, 19},
		{"tiny never upscaled", 10, 10, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitWithin(tt.w, tt.h, 1920, 1080)
			require.Equal(t, tt.wantW, w)
			require.Equal(t, tt.wantH, h)
		})
	}
}

func TestIsImageFile(t *testing.T) {
	require.True(t, isImageFile("a.jpg"))
	require.True(t, isImageFile("a.JPEG"))
	require.True(t, isImageFile("a.png"))
	require.True(t, isImageFile("a.gif"))
	require.True(t, isImageFile("a.webp"))
	require.False(t, isImageFile("a.txt"))
	require.False(t, isImageFile("a.json"))
	require.False(t, isImageFile("noext"))
}
