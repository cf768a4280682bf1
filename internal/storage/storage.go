// Package storage reads document files from an S3-compatible object store.
// Objects are streamed; nothing is written to local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrTooLarge is returned by ReadAll when an object exceeds the caller's limit.
var ErrTooLarge = errors.New("object too large")

// ObjectInfo contains basic information about a stored document file.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Storage is the read side of the document file store.
type Storage interface {
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ReadAll loads an object into memory, refusing objects larger than maxBytes.
func ReadAll(ctx context.Context, s Storage, key string, maxBytes int64) ([]byte, ObjectInfo, error) {
	rc, info, err := s.Get(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer rc.Close()

	if maxBytes > 0 && info.Size > maxBytes {
		return nil, info, ErrTooLarge
	}
	limit := maxBytes
	if limit <= 0 {
		limit = info.Size
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, info, fmt.Errorf("read %s: %w", key, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, info, ErrTooLarge
	}
	return data, info, nil
}
