// Ready command for the engram CLI.
package main

import (
	"github.com/spf13/cobra"
)

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List items whose every blocker is closed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := connectStore()
		if err != nil {
			exitErr("ready", err)
		}
		defer handle.Close()

		items, err := handle.Ready()
		if err != nil {
			exitErr("ready", err)
		}
		printItems(items)
		return nil
	},
}
