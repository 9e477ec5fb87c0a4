package storage

import (
	"context"
	"io"
)

// ObjectInfo describes a stored blob.
type ObjectInfo struct {
	// URL is a time-limited reference usable by clients and by Fetch.
	URL string
	// Pathname is the object key inside the bucket.
	Pathname string
}

// Client defines the interface for blob storage operations. Blobs are
// ephemeral: every stored object carries a short cache lifetime and its
// URL expires.
type Client interface {
	// Upload writes a blob under objectName and returns its reference.
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (ObjectInfo, error)

	// Fetch retrieves a blob through its URL reference.
	Fetch(ctx context.Context, url string) ([]byte, error)

	// ObjectURL returns a time-limited URL for an existing object.
	ObjectURL(ctx context.Context, objectName string) (string, error)

	// Close closes the storage client connection
	Close() error
}
