package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var validKey = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// FileStorage implements Storage with one file per key inside a directory.
// TTLs are not enforced here; Persistence validates expiry on load.
type FileStorage struct {
	dir string
}

// NewFileStorage creates the directory (0700) if needed
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: directory is required", ErrStorageUnavailable)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	return &FileStorage{dir: dir}, nil
}

// Dir returns the storage directory
func (f *FileStorage) Dir() string {
	return f.dir
}

// Get reads the file for key
func (f *FileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set replaces the file for key atomically
func (f *FileStorage) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Delete removes the files for keys
func (f *FileStorage) Delete(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		path, err := f.path(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *FileStorage) path(key string) (string, error) {
	if !validKey.MatchString(key) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(f.dir, key), nil
}
