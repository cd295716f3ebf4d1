package media

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/checkpointhq/checkpoint/pkg/httpx"
)

// ServerConfig points the file server at the processed output directories.
type ServerConfig struct {
	ImagesDir string
	VideosDir string

	CORSOrigins []string
}

// ServerHandler serves processed media read-only under /media. Only flat
// filenames are reachable; directory listings and path traversal are refused.
func ServerHandler(cfg ServerConfig) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /media/images/{filename}", serveFrom(cfg.ImagesDir))
	mux.Handle("GET /media/videos/{filename}", serveFrom(cfg.VideosDir))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.NotFoundError("File not found").WriteError(w)
	})

	return httpx.Chain(mux, httpx.CORS(cfg.CORSOrigins))
}

func serveFrom(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("filename")
		if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
			httpx.NotFoundError("File not found").WriteError(w)
			return
		}

		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			httpx.NotFoundError("File not found").WriteError(w)
			return
		}

		// Processed output never changes once written.
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		http.ServeFile(w, r, path)
	})
}
