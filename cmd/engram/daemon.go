// Daemon command for the engram CLI.
package main

import (
	"flag"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/internal/daemon"
	"github.com/mesh-intelligence/engram/internal/paths"
	"github.com/mesh-intelligence/engram/pkg/engram"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the store daemon in the foreground",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// glog writes to files by default; a foreground daemon logs to
		// stderr.
		flag.Set("logtostderr", "true")

		root, err := resolveRoot()
		if err != nil {
			exitErr("daemon", err)
		}

		session, err := engram.Open(root)
		if err != nil {
			exitErr("daemon", err)
		}
		defer session.Close()

		d := daemon.New(session, paths.StoreDir(root))
		if err := d.Run(); err != nil {
			exitErr("daemon", err)
		}
		return nil
	},
}
