package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore abstracts the backing object storage for uploaded media. Put
// writes the blob under key; PublicURL resolves the key to a URL clients can
// fetch. Resolution is a separate step because a blob can be written and
// still fail to resolve.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	PublicURL(key string) (string, error)
}

// DiskBlobStore stores blobs on the local filesystem under a base directory
// and serves them from a base URL.
type DiskBlobStore struct {
	Dir     string
	BaseURL string
}

// NewDiskBlobStore returns a DiskBlobStore rooted at dir.
func NewDiskBlobStore(dir, baseURL string) *DiskBlobStore {
	return &DiskBlobStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DiskBlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !isSafeBlobKey(key) {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return writeBytesToFile(filepath.Join(s.Dir, filepath.FromSlash(key)), data)
}

func (s *DiskBlobStore) PublicURL(key string) (string, error) {
	if !isSafeBlobKey(key) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return s.BaseURL + "/" + key, nil
}

// isSafeBlobKey rejects keys that could escape the base directory.
func isSafeBlobKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return false
	}
	return filepath.IsLocal(filepath.FromSlash(key))
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
