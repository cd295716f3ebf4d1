package api

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/checkpointhq/checkpoint/internal/domain"
	"github.com/checkpointhq/checkpoint/internal/vault"
	"github.com/checkpointhq/checkpoint/pkg/idx"
)

// fakeVault mirrors the real vault's per-bucket layout, ownership checks and
// size limits over in-memory maps.
type fakeVault struct {
	objects map[vault.DataType]map[string][]byte
	mtimes  map[vault.DataType]map[string]time.Time
}

func newFakeVault() *fakeVault {
	f := &fakeVault{
		objects: map[vault.DataType]map[string][]byte{},
		mtimes:  map[vault.DataType]map[string]time.Time{},
	}
	for _, dt := range vault.DataTypes {
		f.objects[dt] = map[string][]byte{}
		f.mtimes[dt] = map[string]time.Time{}
	}
	return f
}

func (f *fakeVault) Upload(_ context.Context, userID idx.ID, dt vault.DataType, category, filename, _ string, body io.Reader, size int64) (*vault.UploadInfo, error) {
	limit, err := vault.SizeLimit(dt)
	if err != nil {
		return nil, err
	}
	if size > limit {
		return nil, vault.ErrTooLarge
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	key := vault.ObjectKey(userID, dt, category, filename, time.Now())
	f.objects[dt][key] = data
	f.mtimes[dt][key] = time.Now()

	bucket := "test-" + string(dt)
	return &vault.UploadInfo{
		Bucket:   bucket,
		Key:      key,
		Size:     size,
		Location: bucket + "/" + key,
	}, nil
}

func (f *fakeVault) Download(_ context.Context, userID idx.ID, dt vault.DataType, key string) (io.ReadCloser, int64, error) {
	if _, err := vault.SizeLimit(dt); err != nil {
		return nil, 0, err
	}
	if !vault.Owns(userID, key) {
		return nil, 0, vault.ErrForbidden
	}
	data, ok := f.objects[dt][key]
	if !ok {
		return nil, 0, vault.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (f *fakeVault) Delete(_ context.Context, userID idx.ID, dt vault.DataType, key string) error {
	if _, err := vault.SizeLimit(dt); err != nil {
		return err
	}
	if !vault.Owns(userID, key) {
		return vault.ErrForbidden
	}
	if _, ok := f.objects[dt][key]; !ok {
		return vault.ErrNotFound
	}
	delete(f.objects[dt], key)
	delete(f.mtimes[dt], key)
	return nil
}

func (f *fakeVault) List(_ context.Context, userID idx.ID, dt vault.DataType, category string, limit int) ([]domain.FileInfo, error) {
	if _, err := vault.SizeLimit(dt); err != nil {
		return nil, err
	}

	prefix := string(userID) + "/" + string(dt) + "/"
	if category != "" {
		prefix += category + "/"
	}

	var out []domain.FileInfo
	for key, data := range f.objects[dt] {
		if strings.HasPrefix(key, prefix) {
			out = append(out, domain.FileInfo{Key: key, Size: int64(len(data)), LastModified: f.mtimes[dt][key]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastModified.After(out[j].LastModified) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeVault) StorageSummary(_ context.Context, userID idx.ID) (*domain.StorageSummary, error) {
	sum := &domain.StorageSummary{Buckets: map[string]domain.BucketUsage{}}
	prefix := string(userID) + "/"

	for _, dt := range vault.DataTypes {
		var usage domain.BucketUsage
		for key, data := range f.objects[dt] {
			if strings.HasPrefix(key, prefix) {
				usage.FileCount++
				usage.TotalSize += int64(len(data))
			}
		}
		sum.Buckets[string(dt)] = usage
		sum.FileCount += usage.FileCount
		sum.TotalSize += usage.TotalSize
	}
	return sum, nil
}
