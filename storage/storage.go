package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/rotisserie/eris"

	"hoa-assistant-backend/config"
)

// Storage is a flat object store addressed by slash-separated keys
type Storage interface {
	// Put stores data under key and returns the stored location
	Put(ctx context.Context, key, contentType string, data io.Reader) (string, error)

	// Get opens the object stored under key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// ErrNotFound is returned by Get for missing keys
var ErrNotFound = errors.New("storage: object not found")

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch StorageType(cfg.Type) {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, eris.New("storage: storage.s3_bucket is required for s3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, eris.Errorf("storage: unknown storage type %q", cfg.Type)
	}
}

// cleanKey normalizes key and rejects keys that escape the store root
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, `\`, "/"))
	if key == "" {
		return "", eris.New("storage: empty key")
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", eris.Errorf("storage: invalid key %q", key)
	}
	return cleaned, nil
}
