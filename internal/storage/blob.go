package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	pairlock_errors "pairlock/pkg/errors"

	"github.com/google/uuid"
)

// BlobStore persists raw attachment bytes and hands back an opaque path that
// the message row stores. File content is deliberately not encrypted here;
// only the metadata attached to the message is.
type BlobStore interface {
	Save(ctx context.Context, data io.Reader, suggestedName string) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}

// DiskStore keeps blobs in a flat directory under random names; the original
// filename only survives inside the encrypted metadata.
type DiskStore struct {
	baseDir string
}

func NewDiskStore(baseDir string) (*DiskStore, error) {
	if baseDir == "" {
		return nil, pairlock_errors.ErrInvalidInput
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", pairlock_errors.ErrStorage, err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

func (s *DiskStore) Save(ctx context.Context, data io.Reader, suggestedName string) (string, error) {
	name := buildBlobName(suggestedName)
	full := filepath.Join(s.baseDir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pairlock_errors.ErrStorage, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("%w: %v", pairlock_errors.ErrStorage, err)
	}
	return name, nil
}

func (s *DiskStore) Open(ctx context.Context, blobPath string) (io.ReadCloser, error) {
	// stored paths are flat names; reject anything that escapes the base dir
	if blobPath == "" || blobPath != filepath.Base(blobPath) {
		return nil, pairlock_errors.ErrInvalidInput
	}
	f, err := os.Open(filepath.Join(s.baseDir, blobPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pairlock_errors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", pairlock_errors.ErrStorage, err)
	}
	return f, nil
}

func (s *DiskStore) Remove(ctx context.Context, blobPath string) error {
	if blobPath == "" || blobPath != filepath.Base(blobPath) {
		return pairlock_errors.ErrInvalidInput
	}
	if err := os.Remove(filepath.Join(s.baseDir, blobPath)); err != nil {
		if os.IsNotExist(err) {
			return pairlock_errors.ErrNotFound
		}
		return fmt.Errorf("%w: %v", pairlock_errors.ErrStorage, err)
	}
	return nil
}

func buildBlobName(suggestedName string) string {
	ext := strings.ToLower(path.Ext(suggestedName))
	base := uuid.New().String()
	if ext == "" {
		return base
	}
	return base + ext
}
