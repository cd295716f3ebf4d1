// Package vault stores user files in an S3-compatible object store. Each
// data type gets its own bucket; within a bucket every object lives under
// the owner's id prefix, and every operation checks that prefix before
// touching the store.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/checkpointhq/checkpoint/internal/domain"
	"github.com/checkpointhq/checkpoint/pkg/idx"
)

var (
	// ErrForbidden means the object belongs to another user. Deliberately
	// distinct from ErrNotFound: existence of foreign keys is not hidden,
	// access is what gets refused.
	ErrForbidden = errors.New("vault: access denied")

	ErrNotFound = errors.New("vault: object not found")

	ErrTooLarge = errors.New("vault: file exceeds size limit")

	ErrUnknownDataType = errors.New("vault: unknown data type")
)

// DataType selects the bucket and the upload size limit.
type DataType string

const (
	DataTypeImage      DataType = "images"
	DataTypeDocument   DataType = "documents"
	DataTypeAttachment DataType = "attachments"
)

// DataTypes lists every valid type, in bucket provisioning order.
var DataTypes = []DataType{DataTypeImage, DataTypeDocument, DataTypeAttachment}

// Per-type upload limits in bytes.
var sizeLimits = map[DataType]int64{
	DataTypeImage:      10 << 20,
	DataTypeDocument:   100 << 20,
	DataTypeAttachment: 50 << 20,
}

// SizeLimit returns the upload cap for dt, or ErrUnknownDataType.
func SizeLimit(dt DataType) (int64, error) {
	limit, ok := sizeLimits[dt]
	if !ok {
		return 0, ErrUnknownDataType
	}
	return limit, nil
}

const opTimeout = 10 * time.Second

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string

	// BucketPrefix namespaces this deployment's buckets: the images bucket
	// is "{prefix}-images" and so on.
	BucketPrefix string
}

// UploadInfo describes a stored object.
type UploadInfo struct {
	Bucket   string
	Key      string
	Size     int64
	Location string
}

type Vault struct {
	client       *s3.Client
	bucketPrefix string

	now func() time.Time
}

// New builds a vault client. A non-empty Endpoint points the SDK at a
// MinIO-style deployment with path-style addressing.
func New(ctx context.Context, cfg Config) (*Vault, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Vault{client: client, bucketPrefix: cfg.BucketPrefix, now: time.Now}, nil
}

// Bucket returns the bucket name holding dt objects.
func (v *Vault) Bucket(dt DataType) string {
	return v.bucketPrefix + "-" + string(dt)
}

// EnsureBuckets creates any missing per-type buckets. Safe to call on every
// startup.
func (v *Vault) EnsureBuckets(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	for _, dt := range DataTypes {
		bucket := v.Bucket(dt)

		_, err := v.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		if err == nil {
			continue
		}
		var nf *types.NotFound
		if !errors.As(err, &nf) {
			return fmt.Errorf("head bucket %q: %w", bucket, err)
		}

		if _, err := v.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
			var owned *types.BucketAlreadyOwnedByYou
			if !errors.As(err, &owned) {
				return fmt.Errorf("create bucket %q: %w", bucket, err)
			}
		}
	}
	return nil
}

// Upload stores body under the owner's prefix and returns where it landed.
// size must be the exact body length; it is checked against the data type's
// limit before any bytes move.
func (v *Vault) Upload(ctx context.Context, userID idx.ID, dt DataType, category, filename, contentType string, body io.Reader, size int64) (*UploadInfo, error) {
	limit, err := SizeLimit(dt)
	if err != nil {
		return nil, err
	}
	if size > limit {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, limit)
	}

	bucket := v.Bucket(dt)
	key := ObjectKey(userID, dt, category, filename, v.now())

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := v.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("put object %q: %w", key, err)
	}

	return &UploadInfo{
		Bucket:   bucket,
		Key:      key,
		Size:     size,
		Location: bucket + "/" + key,
	}, nil
}

// Download streams the object at key. The caller must own the key's prefix.
func (v *Vault) Download(ctx context.Context, userID idx.ID, dt DataType, key string) (io.ReadCloser, int64, error) {
	if _, err := SizeLimit(dt); err != nil {
		return nil, 0, err
	}
	if !Owns(userID, key) {
		return nil, 0, ErrForbidden
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	out, err := v.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(v.Bucket(dt)),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("get object %q: %w", key, err)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

// Delete removes the object at key. The caller must own the key's prefix.
// Deleting an absent key reports ErrNotFound so clients see consistent
// semantics across stores.
func (v *Vault) Delete(ctx context.Context, userID idx.ID, dt DataType, key string) error {
	if _, err := SizeLimit(dt); err != nil {
		return err
	}
	if !Owns(userID, key) {
		return ErrForbidden
	}

	bucket := v.Bucket(dt)

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// S3 deletes are idempotent and will not report a missing key; check
	// first so the client gets a 404 instead of silent success.
	_, err := v.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return ErrNotFound
		}
		return fmt.Errorf("head object %q: %w", key, err)
	}

	if _, err := v.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

// List returns the caller's files of the given type, newest first. A
// non-empty category narrows to that sub-prefix; limit<=0 means no cap.
func (v *Vault) List(ctx context.Context, userID idx.ID, dt DataType, category string, limit int) ([]domain.FileInfo, error) {
	if _, err := SizeLimit(dt); err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("%s/%s/", userID, dt)
	if category != "" {
		prefix += SafeFilename(category) + "/"
	}

	objects, err := v.listPrefix(ctx, v.Bucket(dt), prefix)
	if err != nil {
		return nil, err
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	if limit > 0 && len(objects) > limit {
		objects = objects[:limit]
	}
	return objects, nil
}

// StorageSummary totals the caller's usage per data type.
func (v *Vault) StorageSummary(ctx context.Context, userID idx.ID) (*domain.StorageSummary, error) {
	sum := &domain.StorageSummary{Buckets: map[string]domain.BucketUsage{}}

	for _, dt := range DataTypes {
		objects, err := v.listPrefix(ctx, v.Bucket(dt), string(userID)+"/")
		if err != nil {
			return nil, err
		}

		var usage domain.BucketUsage
		for _, o := range objects {
			usage.FileCount++
			usage.TotalSize += o.Size
		}
		sum.Buckets[string(dt)] = usage
		sum.FileCount += usage.FileCount
		sum.TotalSize += usage.TotalSize
	}
	return sum, nil
}

func (v *Vault) listPrefix(ctx context.Context, bucket, prefix string) ([]domain.FileInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var out []domain.FileInfo
	paginator := s3.NewListObjectsV2Paginator(v.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list prefix %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, domain.FileInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}
