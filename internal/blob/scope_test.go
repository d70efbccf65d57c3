package blob

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyforge/client/internal/api"
)

func TestHandleReleasedExactlyOnce(t *testing.T) {
	scope := NewScope(t.TempDir())

	h, err := scope.Acquire(api.Blob{Data: []byte("png"), Filename: "proof.png", ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, 1, scope.Live())

	path, err := h.Path()
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, h.Release())
	require.NoError(t, h.Release())
	require.NoError(t, scope.Close())

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = h.Path()
	assert.ErrorIs(t, err, ErrReleased)
	_, err = h.SaveAs(t.TempDir())
	assert.ErrorIs(t, err, ErrReleased)

	acquired, released := scope.Stats()
	assert.Equal(t, 1, acquired)
	assert.Equal(t, 1, released)
	assert.Zero(t, scope.Live())
}

func TestScopeCloseReleasesEverything(t *testing.T) {
	scope := NewScope(t.TempDir())
	var paths []string
	for i := 0; i < 3; i++ {
		h, err := scope.Acquire(api.Blob{Data: []byte{byte(i)}, Filename: "a.zip"})
		require.NoError(t, err)
		p, _ := h.Path()
		paths = append(paths, p)
	}

	require.NoError(t, scope.Close())
	for _, p := range paths {
		_, err := os.Stat(p)
		assert.True(t, errors.Is(err, os.ErrNotExist), p)
	}
	acquired, released := scope.Stats()
	assert.Equal(t, acquired, released)

	_, err := scope.Acquire(api.Blob{Data: []byte("x")})
	assert.ErrorIs(t, err, ErrScopeClosed)
}

func TestSaveAsUsesDownloadName(t *testing.T) {
	scope := NewScope(t.TempDir())
	defer scope.Close()

	h, err := scope.Acquire(api.Blob{Data: []byte("PK"), Filename: "alice_project.zip"})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "downloads")
	target, err := h.SaveAs(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "alice_project.zip"), target)
	assert.Equal(t, int64(2), h.Size())
}
