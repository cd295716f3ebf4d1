package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/checkpointhq/checkpoint/internal/session"
	"github.com/checkpointhq/checkpoint/internal/vault"
	"github.com/checkpointhq/checkpoint/pkg/httpx"
	"github.com/checkpointhq/checkpoint/pkg/slogx"
)

// multipartMemory caps how much of an upload is buffered in memory; the rest
// spills to temp files.
const multipartMemory = 8 << 20

// formValue reads a multipart field, accepting both snake_case and the
// camelCase names the browser frontend sends.
func formValue(r *http.Request, snake, camel string) string {
	if v := r.FormValue(snake); v != "" {
		return v
	}
	return r.FormValue(camel)
}

func (h *Handler) handleVaultUpload(w http.ResponseWriter, r *http.Request) {
	u, ok := session.UserFromContext(r.Context())
	if !ok {
		httpx.AuthenticationError("Not authenticated").WriteError(w)
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httpx.ValidationError("Invalid multipart request").WriteError(w)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.ValidationError("Missing file field").WriteError(w)
		return
	}
	defer file.Close()

	dt := vault.DataType(formValue(r, "data_type", "dataType"))
	category := formValue(r, "category", "category")
	contentType := header.Header.Get("Content-Type")

	info, err := h.vault.Upload(r.Context(), u.ID, dt, category, header.Filename, contentType, file, header.Size)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	slogx.FromContext(r.Context()).Info("vault_upload",
		"user_id", u.ID, "bucket", info.Bucket, "key", info.Key, "size", info.Size)
	httpx.WriteJSON(w, http.StatusCreated, uploadResponse{
		Bucket:   info.Bucket,
		Key:      info.Key,
		Size:     info.Size,
		Location: info.Location,
	})
}

func (h *Handler) handleVaultList(w http.ResponseWriter, r *http.Request) {
	u, ok := session.UserFromContext(r.Context())
	if !ok {
		httpx.AuthenticationError("Not authenticated").WriteError(w)
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	files, err := h.vault.List(r.Context(), u.ID,
		vault.DataType(q.Get("data_type")), q.Get("category"), limit)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	out := fileListResponse{Files: make([]fileResponse, 0, len(files))}
	for _, f := range files {
		out.Files = append(out.Files, fileResponse{
			Key:          f.Key,
			Size:         f.Size,
			LastModified: f.LastModified.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleVaultDownload(w http.ResponseWriter, r *http.Request) {
	u, ok := session.UserFromContext(r.Context())
	if !ok {
		httpx.AuthenticationError("Not authenticated").WriteError(w)
		return
	}

	q := r.URL.Query()
	key := q.Get("key")
	if key == "" {
		httpx.ValidationError("Missing key parameter").WriteError(w)
		return
	}

	body, size, err := h.vault.Download(r.Context(), u.ID, vault.DataType(q.Get("data_type")), key)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	if _, err := io.Copy(w, body); err != nil {
		slogx.FromContext(r.Context()).Warn("vault_download_interrupted",
			"user_id", u.ID, "key", key, "error", err)
	}
}

func (h *Handler) handleVaultDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := session.UserFromContext(r.Context())
	if !ok {
		httpx.AuthenticationError("Not authenticated").WriteError(w)
		return
	}

	q := r.URL.Query()
	key := q.Get("key")
	if key == "" {
		httpx.ValidationError("Missing key parameter").WriteError(w)
		return
	}

	if err := h.vault.Delete(r.Context(), u.ID, vault.DataType(q.Get("data_type")), key); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "File deleted"})
}

func (h *Handler) handleVaultStorageSummary(w http.ResponseWriter, r *http.Request) {
	u, ok := session.UserFromContext(r.Context())
	if !ok {
		httpx.AuthenticationError("Not authenticated").WriteError(w)
		return
	}

	sum, err := h.vault.StorageSummary(r.Context(), u.ID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	out := storageSummaryResponse{
		FileCount: sum.FileCount,
		TotalSize: sum.TotalSize,
		Buckets:   make(map[string]bucketUsageResponse, len(sum.Buckets)),
	}
	for name, usage := range sum.Buckets {
		out.Buckets[name] = bucketUsageResponse{
			FileCount: usage.FileCount,
			TotalSize: usage.TotalSize,
		}
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
