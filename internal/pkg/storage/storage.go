package storage

import (
	"context"
	"io"
)

// Storage is the minimal interface product-image storage backends implement.
type Storage interface {
	// Put stores an object at the given key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes an object by key. Returns nil if the object doesn't exist.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for an object key.
	GetURL(key string) string

	// KeyFromURL maps a public URL back to its object key. The second
	// return is false when the URL was not produced by this storage.
	KeyFromURL(url string) (string, bool)
}
