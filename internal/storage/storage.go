package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrUnavailable is returned when no archive sink is configured.
var ErrUnavailable = errors.New("archive storage unavailable")

// ArchiveStorage persists exported project archives and returns where each one
// ended up.
type ArchiveStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// cleanKey normalises a slash separated object key and rejects keys that would
// escape the sink root.
func cleanKey(name string) (string, error) {
	key := strings.TrimLeft(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
	if key == "" || key == "." {
		return "", errors.New("storage: empty key")
	}
	return key, nil
}

// Prefixed stores every object under prefix.
type Prefixed struct {
	Prefix string
	Base   ArchiveStorage
}

func (p Prefixed) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if p.Base == nil {
		return "", fmt.Errorf("prefixed storage: %w", ErrUnavailable)
	}
	return p.Base.Save(ctx, path.Join(p.Prefix, name), contentType, r)
}
