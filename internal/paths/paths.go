// Package paths resolves the store root and configuration directory.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// StoreDirName is the directory that holds the logs, cache, and lock,
// created under the store root.
const StoreDirName = ".engram"

// EnvStoreRoot overrides the default store root (the current directory).
const EnvStoreRoot = "ENGRAM_DIR"

// Store file names under StoreDirName.
const (
	ItemsFile  = "items.jsonl"
	EdgesFile  = "edges.jsonl"
	CacheFile  = "cache.db"
	LockFile   = "engram.lock"
	SocketFile = "engram.sock"
	PidFile    = "engram.pid"
)

// ResolveStoreRoot returns the store root following the precedence chain:
// flag > ENGRAM_DIR env > current directory.
func ResolveStoreRoot(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvStoreRoot); env != "" {
		return filepath.Abs(env)
	}
	return os.Getwd()
}

// StoreDir returns the .engram directory under the given root.
func StoreDir(root string) string {
	return filepath.Join(root, StoreDirName)
}

// DefaultConfigDir returns the platform-specific configuration directory
// holding the optional config.yaml.
//
// Linux:   $XDG_CONFIG_HOME/engram (fallback ~/.config/engram)
// macOS:   ~/Library/Application Support/engram
// Windows: %APPDATA%/engram
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "engram"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "engram"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "engram"), nil
}
