package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStoreRootPrecedence(t *testing.T) {
	flagDir := t.TempDir()
	envDir := t.TempDir()

	// Flag wins over everything.
	t.Setenv(EnvStoreRoot, envDir)
	root, err := ResolveStoreRoot(flagDir)
	require.NoError(t, err)
	assert.Equal(t, flagDir, root)

	// Env wins over the working directory.
	root, err = ResolveStoreRoot("")
	require.NoError(t, err)
	assert.Equal(t, envDir, root)

	// Neither set falls back to the working directory.
	t.Setenv(EnvStoreRoot, "")
	cwd := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(cwd))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	root, err = ResolveStoreRoot("")
	require.NoError(t, err)
	assert.Equal(t, cwd, root)
}

func TestStoreDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/some/root", ".engram"), StoreDir("/some/root"))
}

func TestDefaultConfigDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	dir, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/custom/config", "engram"), dir)
}
