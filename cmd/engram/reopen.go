// Reopen command for the engram CLI.
package main

import (
	"github.com/spf13/cobra"
)

var reopenCmd = &cobra.Command{
	Use:   "reopen <id>",
	Short: "Reopen a closed item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := connectStore()
		if err != nil {
			exitErr("reopen", err)
		}
		defer handle.Close()

		item, err := handle.Reopen(args[0])
		if err != nil {
			exitErr("reopen", err)
		}
		printItem(item)
		return nil
	},
}
