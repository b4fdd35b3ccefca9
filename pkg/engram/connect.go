package engram

import (
	"os"

	"github.com/mesh-intelligence/engram/internal/daemon"
	"github.com/mesh-intelligence/engram/internal/paths"
	"github.com/mesh-intelligence/engram/pkg/types"
)

// Connect returns a handle on the store under root: a daemon client when
// a live daemon owns the store, otherwise a direct session. Callers use
// the handle identically either way.
func Connect(root string) (Handle, error) {
	dir := paths.StoreDir(root)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, types.ErrNotInitialized
		}
		return nil, err
	}

	if daemon.IsRunning(dir) {
		client, err := daemon.Dial(dir)
		if err == nil {
			return client, nil
		}
		// A daemon that answers signal 0 but not its socket is starting or
		// wedged; fall through and try a direct session.
	}
	return Open(root)
}

// DaemonRunning reports whether a live daemon owns the store under root.
func DaemonRunning(root string) bool {
	return daemon.IsRunning(paths.StoreDir(root))
}

var _ Handle = (*daemon.Client)(nil)
