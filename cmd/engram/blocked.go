// Blocked command for the engram CLI.
package main

import (
	"github.com/spf13/cobra"
)

var blockedCmd = &cobra.Command{
	Use:   "blocked",
	Short: "List items with at least one open blocker",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := connectStore()
		if err != nil {
			exitErr("blocked", err)
		}
		defer handle.Close()

		items, err := handle.Blocked()
		if err != nil {
			exitErr("blocked", err)
		}
		printItems(items)
		return nil
	},
}
