package minio

import (
	"bytes"
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
)

// Cache implements the stampede.Cache interface for MinIO and
// S3-compatible storage. Keys are object names under the configured
// prefix, values are object bodies.
type Cache struct {
	client *minio.Client
	bucket string
	prefix string
	id     string
}

// NewCache creates a new MinIO-backed cache.
// bucket is the MinIO bucket name.
// rootPrefix is prepended to all keys (e.g. "cache/").
func NewCache(client *minio.Client, bucket, rootPrefix string) *Cache {
	return &Cache{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
		id:     "minio://" + path.Join(bucket, rootPrefix),
	}
}

// ID returns the cache identifier in "minio://bucket/prefix" form.
func (c *Cache) ID() string {
	return c.id
}

func (c *Cache) key(key string) string {
	return path.Join(c.prefix, key)
}

// Size returns the number of objects under the cache prefix.
func (c *Cache) Size(ctx context.Context) (int, error) {
	var count int
	for obj := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    c.key(""),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return 0, obj.Err
		}
		count++
	}
	return count, nil
}

// Get returns the object body stored for key.
//
// The MinIO client defers the request until the first read, so missing
// objects surface as read errors and are mapped to a plain miss here.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, c.key(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, err
	}
	defer obj.Close()

	value, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// Put stores value as the object body for key.
func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	_, err := c.client.PutObject(ctx, c.bucket, c.key(key), bytes.NewReader(value), int64(len(value)), minio.PutObjectOptions{})
	return err
}

// Remove deletes the object stored for key. The removed value is never
// reported; deleting an absent object is not an error.
func (c *Cache) Remove(ctx context.Context, key string) ([]byte, bool, error) {
	err := c.client.RemoveObject(ctx, c.bucket, c.key(key), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return nil, false, err
	}
	return nil, false, nil
}

// Clear deletes every object under the cache prefix.
func (c *Cache) Clear(ctx context.Context) error {
	for obj := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    c.key(""),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return obj.Err
		}
		if err := c.client.RemoveObject(ctx, c.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func isNotFound(err error) bool {
	errResp := minio.ToErrorResponse(err)
	return errResp.Code == "NoSuchKey" || errResp.Code == "NotFound"
}
