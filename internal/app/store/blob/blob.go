// Package blob stores uploaded file bytes on local disk under generated
// keys. Metadata lives in the document store; this package only moves
// bytes.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the byte-storage surface the files feature uses.
type Store interface {
	Put(ctx context.Context, filename string, r io.Reader) (key string, size int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// Local keeps blobs under a root directory. Keys are relative paths of
// the form uploads/YYYY/MM/<uuid><ext>.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed.
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("blob: root path is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	return &Local{root: root}, nil
}

// Put writes the reader to a fresh key derived from the filename's
// extension.
func (l *Local) Put(ctx context.Context, filename string, r io.Reader) (string, int64, error) {
	now := time.Now().UTC()
	ext := filepath.Ext(filename)
	key := fmt.Sprintf("uploads/%04d/%02d/%s%s", now.Year(), now.Month(), uuid.New().String()[:8], ext)
	key = filepath.ToSlash(key)

	full := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("blob: create dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", 0, fmt.Errorf("blob: create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(full)
		return "", 0, fmt.Errorf("blob: write: %w", err)
	}
	return key, n, nil
}

// Open returns a reader for the key.
func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	clean, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(clean)
	if err != nil {
		return nil, fmt.Errorf("blob: open: %w", err)
	}
	return f, nil
}

// Remove deletes the blob. Missing keys are not an error.
func (l *Local) Remove(ctx context.Context, key string) error {
	clean, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(clean); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: remove: %w", err)
	}
	return nil
}

// resolve rejects keys that escape the root.
func (l *Local) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("blob: invalid key %q", key)
	}
	return filepath.Join(l.root, clean), nil
}
