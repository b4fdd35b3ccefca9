// Get command for the engram CLI.
package main

import (
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one item in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := connectStore()
		if err != nil {
			exitErr("get", err)
		}
		defer handle.Close()

		item, err := handle.Get(args[0])
		if err != nil {
			exitErr("get", err)
		}
		printItem(item)
		return nil
	},
}
