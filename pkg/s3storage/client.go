// Package s3storage is a thin S3-compatible object storage client used by
// the storage probe.
package s3storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ilkoid/aiops-assistant/pkg/config"
)

// ClientInterface is the read-only subset of S3 used by the probe.
// Used for fakes in tests.
type ClientInterface interface {
	ListBuckets(ctx context.Context) ([]Bucket, error)
	ListObjects(ctx context.Context, bucket, prefix string, limit int) (objects []StoredObject, truncated bool, err error)
}

// Client wraps a minio client.
type Client struct {
	api *minio.Client
}

var _ ClientInterface = (*Client)(nil)

// Bucket is one bucket of the storage endpoint.
type Bucket struct {
	Name         string
	CreationDate time.Time
}

// StoredObject is a raw object listing entry.
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// New creates a client from the probe configuration. No request is made.
func New(cfg config.StorageProbeConfig) (*Client, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client for %s: %w", cfg.Endpoint, err)
	}

	return &Client{api: minioClient}, nil
}

// ListBuckets returns every bucket visible to the credentials.
func (c *Client) ListBuckets(ctx context.Context) ([]Bucket, error) {
	infos, err := c.api.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}

	buckets := make([]Bucket, 0, len(infos))
	for _, info := range infos {
		buckets = append(buckets, Bucket{Name: info.Name, CreationDate: info.CreationDate})
	}
	return buckets, nil
}

// ListObjects returns up to limit objects under prefix, recursively.
// truncated is true when more objects exist.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]StoredObject, bool, error) {
	// Stop the listing goroutine once we have enough.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	var objects []StoredObject
	for obj := range c.api.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, false, obj.Err
		}
		if limit > 0 && len(objects) == limit {
			return objects, true, nil
		}
		objects = append(objects, StoredObject{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return objects, false, nil
}
