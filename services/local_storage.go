package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kendall-kelly/storefront-api/utils"
)

// LocalStorage keeps uploaded images on disk. It is used when no S3 bucket is configured.
// Keys are flattened into a single directory so they can be served by file name.
type LocalStorage struct {
	Dir string
}

// NewLocalStorage creates a storage rooted at dir
func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{Dir: dir}
}

func localFilename(key string) string {
	return strings.ReplaceAll(key, "/", "_")
}

// PutObject writes body to Dir
func (l *LocalStorage) PutObject(_ context.Context, key string, body []byte, _ string) error {
	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(l.Dir, localFilename(key)), body, 0644); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

// DeleteObject removes the file for key; missing files are not an error
func (l *LocalStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(l.Dir, localFilename(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// PublicURL returns the API path serving key
func (l *LocalStorage) PublicURL(key string) string {
	return utils.LocalImageURL(localFilename(key))
}

// KeyFromURL maps an /api/uploads/ path back to its flattened key
func (l *LocalStorage) KeyFromURL(rawURL string) (string, bool) {
	prefix := utils.LocalImageURL("x")
	prefix = prefix[:len(prefix)-1]
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(rawURL, prefix)
	if !utils.IsSafeFilename(name) {
		return "", false
	}
	return name, true
}
