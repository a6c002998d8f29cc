// Package media stores uploaded images in a gocloud bucket and builds their
// public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
)

// ErrNotFound is returned by Open for a missing key.
var ErrNotFound = errors.New("media: object not found")

// Host uploads images and resolves their public URLs.
type Host struct {
	bucket    *blob.Bucket
	publicURL string
	local     bool
}

// Open opens the bucket at bucketURL (file://, mem://, s3://). Objects are
// addressed publicly as publicURL + "/" + key.
func Open(ctx context.Context, bucketURL, publicURL string) (*Host, error) {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("parse bucket url: %w", err)
	}
	if u.Scheme == "file" {
		if err := os.MkdirAll(u.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create bucket dir: %w", err)
		}
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket: %w", err)
	}
	return NewHost(bucket, publicURL, u.Scheme == "file" || u.Scheme == "mem"), nil
}

// NewHost wraps an already opened bucket.
func NewHost(bucket *blob.Bucket, publicURL string, local bool) *Host {
	return &Host{bucket: bucket, publicURL: strings.TrimRight(publicURL, "/"), local: local}
}

// IsLocal reports whether objects must be served by this process.
func (h *Host) IsLocal() bool { return h.local }

// Upload writes r under key, replacing any previous object, and returns its public URL.
func (h *Host) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	key = CleanKey(key)
	w, err := h.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return h.URL(key), nil
}

// URL returns the public address of key.
func (h *Host) URL(key string) string {
	return h.publicURL + "/" + CleanKey(key)
}

// Object is an open stored object.
type Object struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

// Open reads the object stored under key.
func (h *Host) Open(ctx context.Context, key string) (*Object, error) {
	r, err := h.bucket.NewReader(ctx, CleanKey(key), nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Object{ReadCloser: r, ContentType: r.ContentType(), Size: r.Size()}, nil
}

// Close releases the bucket.
func (h *Host) Close() error { return h.bucket.Close() }

// CleanKey normalizes a key and keeps it inside the bucket.
func CleanKey(key string) string {
	return strings.TrimPrefix(path.Clean("/"+key), "/")
}

// CoverKey is the object key of a game's cover image.
func CoverKey(gameID, ext string) string {
	return "game-covers/game-" + gameID + ext
}
