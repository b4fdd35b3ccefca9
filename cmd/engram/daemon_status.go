// Daemon-status command for the engram CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/pkg/engram"
)

var daemonStatusCmd = &cobra.Command{
	Use:   "daemon-status",
	Short: "Exit 0 if a daemon is running, non-zero otherwise",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			exitErr("daemon-status", err)
		}

		if !engram.DaemonRunning(root) {
			fmt.Println("daemon not running")
			os.Exit(exitUserError)
		}
		fmt.Println("daemon running")
		return nil
	},
}
