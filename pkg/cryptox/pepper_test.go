package cryptox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOrCreatePepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets", "pepper")

	first, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Len(t, first, 43)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second, "pepper must be stable across loads")
}

func TestLoadOrCreatePepper_Existing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pepper")
	require.NoError(t, os.WriteFile(path, []byte("  my-pepper\n"), 0o600))

	pepper, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, "my-pepper", pepper)
}

func TestLoadOrCreatePepper_Invalid(t *testing.T) {
	_, err := LoadOrCreatePepper("")
	require.True(t, errors.Is(err, ErrInvalidInput))

	path := filepath.Join(t.TempDir(), "pepper")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))
	_, err = LoadOrCreatePepper(path)
	require.Error(t, err)
}
