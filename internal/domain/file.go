package domain

import "time"

// FileInfo describes a stored vault object.
type FileInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// BucketUsage aggregates usage within one bucket.
type BucketUsage struct {
	FileCount int
	TotalSize int64
}

// StorageSummary aggregates a user's vault usage, overall and per bucket.
type StorageSummary struct {
	FileCount int
	TotalSize int64
	Buckets   map[string]BucketUsage
}
