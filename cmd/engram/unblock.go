// Unblock command for the engram CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/pkg/types"
)

var unblockCmd = &cobra.Command{
	Use:   "unblock <blocked> <blocker>",
	Short: "Remove a blocking dependency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := connectStore()
		if err != nil {
			exitErr("unblock", err)
		}
		defer handle.Close()

		if err := handle.RemoveEdge(args[0], args[1], types.EdgeBlocks); err != nil {
			exitErr("unblock", err)
		}
		if !flagJSON {
			fmt.Printf("%s no longer blocked by %s\n", args[0], args[1])
		}
		return nil
	},
}
