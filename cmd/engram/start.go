// Start command for the engram CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/pkg/types"
)

var startCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Mark an item in progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := connectStore()
		if err != nil {
			exitErr("start", err)
		}
		defer handle.Close()

		item, err := handle.SetStatus(args[0], types.StatusInProgress)
		if err != nil {
			exitErr("start", err)
		}
		printItem(item)
		return nil
	},
}
