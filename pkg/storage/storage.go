// Package storage persists uploaded documents.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"planner/pkg/config"
)

// BlobStore writes data under key and returns a path the data can be read back from.
type BlobStore interface {
	Save(ctx context.Context, key string, data []byte) (string, error)
}

// Key builds the storage key for an ingestion upload.
func Key(ingestionID, filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload.pdf"
	}
	return ingestionID + "_" + name
}

// Local stores blobs as files under Dir.
type Local struct {
	Dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{Dir: dir}, nil
}

func (l *Local) Save(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := filepath.Join(l.Dir, filepath.Base(key))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", key, err)
	}
	return dst, nil
}

// GCS stores blobs as objects in a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

func NewGCS(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCS, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Save(ctx context.Context, key string, data []byte) (string, error) {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/pdf"
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", g.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize gs://%s/%s: %w", g.bucket, key, err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, key), nil
}

func (g *GCS) Close() error { return g.client.Close() }

// Open picks GCS when a bucket is configured and the local directory otherwise.
func Open(ctx context.Context, cfg config.UploadConfig) (BlobStore, error) {
	if cfg.GCSBucket != "" {
		return NewGCS(ctx, cfg.GCSBucket)
	}
	return NewLocal(cfg.BaseDir)
}
