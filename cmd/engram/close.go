// Close command for the engram CLI.
package main

import (
	"github.com/spf13/cobra"
)

var closeReason string

var closeCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var reason *string
		if cmd.Flags().Changed("reason") {
			reason = &closeReason
		}

		handle, err := connectStore()
		if err != nil {
			exitErr("close", err)
		}
		defer handle.Close()

		item, err := handle.CloseItem(args[0], reason)
		if err != nil {
			exitErr("close", err)
		}
		printItem(item)
		return nil
	},
}

func init() {
	closeCmd.Flags().StringVar(&closeReason, "reason", "", "why the item was closed")
}
