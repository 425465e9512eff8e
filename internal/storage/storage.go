package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"ms-venue-booking/internal/config"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/utils"
)

// Logical buckets. Each maps to a directory under the storage root.
const (
	BucketAttachments    = "attachments"
	BucketBeoAttachments = "beo-attachments"
	BucketVenuePhotos    = "venues/photos"
	BucketFloorPlans     = "venues/floor-plans"
)

var knownBuckets = map[string]bool{
	BucketAttachments:    true,
	BucketBeoAttachments: true,
	BucketVenuePhotos:    true,
	BucketFloorPlans:     true,
}

var (
	ErrUnknownBucket = errors.New("unknown storage bucket")
	ErrTooLarge      = errors.New("file exceeds maximum upload size")
)

// Blobs is what services need from a file store.
type Blobs interface {
	Store(ctx context.Context, bucket, originalName string, r io.Reader) (string, error)
	Delete(ctx context.Context, bucket, name string) error
	URLFor(bucket, name string) string
}

// Local keeps blobs on disk under Root/<bucket>/<name>.
type Local struct {
	root    string
	baseURL string
	maxSize int64
	log     *logger.Logger
}

func NewLocal(cfg config.StorageConfig, log *logger.Logger) (*Local, error) {
	for b := range knownBuckets {
		if err := os.MkdirAll(filepath.Join(cfg.Root, filepath.FromSlash(b)), 0755); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", b, err)
		}
	}
	return &Local{
		root:    cfg.Root,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		maxSize: cfg.MaxUploadSize,
		log:     log,
	}, nil
}

func (l *Local) path(bucket, name string) (string, error) {
	if !knownBuckets[bucket] {
		return "", fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(l.root, filepath.FromSlash(bucket), name), nil
}

// Store writes r under a generated collision-free name and returns that name.
func (l *Local) Store(ctx context.Context, bucket, originalName string, r io.Reader) (string, error) {
	name := utils.GenerateFileName(originalName)
	dst, err := l.path(bucket, name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	src := r
	if l.maxSize > 0 {
		src = io.LimitReader(r, l.maxSize+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && l.maxSize > 0 && n > l.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	l.log.LogStorage("STORE", bucket, name)
	return name, nil
}

// Delete removes the blob immediately. A missing file is not an error.
func (l *Local) Delete(ctx context.Context, bucket, name string) error {
	p, err := l.path(bucket, name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	l.log.LogStorage("DELETE", bucket, name)
	return nil
}

func (l *Local) URLFor(bucket, name string) string {
	if name == "" {
		return ""
	}
	return l.baseURL + "/" + bucket + "/" + url.PathEscape(name)
}

// Root is the directory served under the files base URL.
func (l *Local) Root() string {
	return l.root
}
