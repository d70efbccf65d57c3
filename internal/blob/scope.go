package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/tyforge/client/internal/api"
)

var (
	// ErrReleased is returned when a handle is used after release.
	ErrReleased = errors.New("blob released")
	// ErrScopeClosed is returned when acquiring from a closed scope.
	ErrScopeClosed = errors.New("blob scope closed")
)

// Scope owns every blob materialised for one view. Closing the scope releases
// whatever is still held.
type Scope struct {
	dir string

	mu       sync.Mutex
	handles  map[*Handle]struct{}
	closed   bool
	acquired int
	released int
}

// NewScope creates a scope placing temp files in dir (os.TempDir when empty).
func NewScope(dir string) *Scope {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Scope{dir: dir, handles: make(map[*Handle]struct{})}
}

// Acquire writes the blob to a uniquely named temp file owned by the scope.
func (s *Scope) Acquire(b api.Blob) (*Handle, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrScopeClosed
	}

	path := filepath.Join(s.dir, "tyforge-"+uuid.NewString()+filepath.Ext(b.Filename))
	if err := os.WriteFile(path, b.Data, 0o600); err != nil {
		return nil, fmt.Errorf("write blob: %w", err)
	}

	h := &Handle{scope: s, path: path, name: b.Filename, contentType: b.ContentType, size: int64(len(b.Data))}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = os.Remove(path)
		return nil, ErrScopeClosed
	}
	s.handles[h] = struct{}{}
	s.acquired++
	s.mu.Unlock()
	return h, nil
}

// Close releases every live handle. It is safe to call more than once.
func (s *Scope) Close() error {
	s.mu.Lock()
	s.closed = true
	handles := make([]*Handle, 0, len(s.handles))
	for h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if err := h.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Live returns how many handles are acquired and not yet released.
func (s *Scope) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Stats returns the total acquired and released counts.
func (s *Scope) Stats() (acquired, released int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired, s.released
}

func (s *Scope) forget(h *Handle) {
	s.mu.Lock()
	if _, ok := s.handles[h]; ok {
		delete(s.handles, h)
		s.released++
	}
	s.mu.Unlock()
}

// Handle is one materialised blob.
type Handle struct {
	scope       *Scope
	path        string
	name        string
	contentType string
	size        int64

	once     sync.Once
	mu       sync.RWMutex
	released bool
	err      error
}

// Name returns the download filename.
func (h *Handle) Name() string { return h.name }

// ContentType returns the media type reported by the server.
func (h *Handle) ContentType() string { return h.contentType }

// Size returns the blob length in bytes.
func (h *Handle) Size() int64 { return h.size }

// Path returns the temp file location, or ErrReleased.
func (h *Handle) Path() (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.released {
		return "", ErrReleased
	}
	return h.path, nil
}

// SaveAs copies the blob to dir under its download name and returns the path.
func (h *Handle) SaveAs(dir string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.released {
		return "", ErrReleased
	}

	src, err := os.Open(h.path)
	if err != nil {
		return "", fmt.Errorf("open blob: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	name := filepath.Base(h.name)
	if name == "." || name == string(filepath.Separator) {
		name = "download"
	}
	target := filepath.Join(dir, name)
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create download: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("copy download: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close download: %w", err)
	}
	return target, nil
}

// Release removes the temp file. Only the first call has an effect.
func (h *Handle) Release() error {
	h.once.Do(func() {
		h.mu.Lock()
		h.released = true
		if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.err = fmt.Errorf("remove blob: %w", err)
		}
		h.mu.Unlock()
		h.scope.forget(h)
	})
	return h.err
}
