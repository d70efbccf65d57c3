package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// FileStore persists values as a JSON object in a single file readable only by the
// owner. Every operation holds an advisory lock on a sibling ".lock" file so two
// terminals sharing the file never interleave writes.
type FileStore struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

// NewFileStore returns a FileStore writing to path. The parent directory is created
// on first write.
func NewFileStore(path string) *FileStore {
	if path == "" {
		panic("auth: credentials path must not be empty")
	}
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the credentials file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save stores value under key.
func (s *FileStore) Save(ctx context.Context, key, value string) error {
	return s.update(ctx, func(values map[string]string) {
		values[key] = value
	})
}

// Find retrieves the value stored under key.
func (s *FileStore) Find(ctx context.Context, key string) (string, error) {
	var (
		value string
		found bool
	)
	err := s.withLock(ctx, func() error {
		values, err := s.read()
		if err != nil {
			return err
		}
		value, found = values[key]
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrTokenNotFound
	}
	return value, nil
}

// Delete removes key from the file. Deleting a missing key is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	return s.update(ctx, func(values map[string]string) {
		delete(values, key)
	})
}

func (s *FileStore) update(ctx context.Context, mutate func(map[string]string)) error {
	return s.withLock(ctx, func() error {
		values, err := s.read()
		if err != nil {
			return err
		}
		mutate(values)
		return s.write(values)
	})
}

func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock credentials: %w", err)
	}
	defer s.lock.Unlock()

	return fn()
}

func (s *FileStore) read() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return values, nil
}

func (s *FileStore) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp credentials: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod credentials: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credentials: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}
