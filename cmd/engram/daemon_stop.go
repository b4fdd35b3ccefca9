// Daemon-stop command for the engram CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/internal/daemon"
	"github.com/mesh-intelligence/engram/internal/paths"
	"github.com/mesh-intelligence/engram/pkg/engram"
	"github.com/mesh-intelligence/engram/pkg/types"
)

var daemonStopCmd = &cobra.Command{
	Use:   "daemon-stop",
	Short: "Stop a running daemon gracefully",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			exitErr("daemon-stop", err)
		}
		if !engram.DaemonRunning(root) {
			exitErr("daemon-stop", types.ErrDaemonUnreachable)
		}

		client, err := daemon.Dial(paths.StoreDir(root))
		if err != nil {
			exitErr("daemon-stop", err)
		}
		defer client.Close()

		if err := client.Shutdown(); err != nil {
			exitErr("daemon-stop", err)
		}
		fmt.Println("daemon stopped")
		return nil
	},
}
