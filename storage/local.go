package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, eris.Wrap(err, "storage: create storage directory")
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Put writes data to basePath/key, creating parent directories
func (s *LocalStorage) Put(ctx context.Context, key, contentType string, data io.Reader) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", eris.Wrap(err, "storage: create directory")
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", eris.Wrap(err, "storage: create file")
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		os.Remove(fullPath)
		return "", eris.Wrap(err, "storage: write file")
	}
	return key, nil
}

// Get opens basePath/key
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrNotFound, "storage: %s", key)
		}
		return nil, eris.Wrap(err, "storage: open file")
	}
	return file, nil
}
