package credfile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainsphere/consolekit/internal/apperr"
)

func TestStore_SaveAndLoad(t *testing.T) {
	store := NewStoreAt(t.TempDir())

	saved := Credentials{
		Token:       "tok-abc",
		WorkspaceID: "WS1",
		SavedAt:     time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(saved))

	got, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved, got)
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := NewStoreAt(t.TempDir())

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_LoadCorruptFile(t *testing.T) {
	store := NewStoreAt(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, _, err := store.Load()
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeCredentialStore))
}

func TestStore_LoadEmptyToken(t *testing.T) {
	store := NewStoreAt(t.TempDir())
	require.NoError(t, store.Save(Credentials{Token: ""}))

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok, "an empty token is treated as logged out")
}

func TestStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}

	store := NewStoreAt(t.TempDir())
	require.NoError(t, store.Save(Credentials{Token: "tok"}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := NewStoreAt(t.TempDir())
	require.NoError(t, store.Save(Credentials{Token: "old"}))
	require.NoError(t, store.Save(Credentials{Token: "new", WorkspaceID: "WS2"}))

	got, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.Token)
	assert.Equal(t, "WS2", got.WorkspaceID)
}

func TestStore_Clear(t *testing.T) {
	store := NewStoreAt(t.TempDir())
	require.NoError(t, store.Save(Credentials{Token: "tok"}))

	require.NoError(t, store.Clear())
	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Clear(), "clearing twice is a no-op")
}
