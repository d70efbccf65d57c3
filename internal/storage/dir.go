package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DirStorage writes archives below a local directory.
type DirStorage struct {
	root string
}

// NewDirStorage returns a sink rooted at dir, creating it if needed.
func NewDirStorage(dir string) (*DirStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir storage: %w", ErrUnavailable)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("dir storage: %w", err)
	}
	return &DirStorage{root: dir}, nil
}

// Save writes r to root/name through a temp file so readers never see a partial
// archive.
func (d *DirStorage) Save(ctx context.Context, name, _ string, r io.Reader) (string, error) {
	key, err := cleanKey(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(d.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("dir storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".export-*")
	if err != nil {
		return "", fmt.Errorf("dir storage: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("dir storage write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("dir storage write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("dir storage write %s: %w", key, err)
	}
	return dst, nil
}
