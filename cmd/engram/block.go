// Block command for the engram CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/pkg/types"
)

var blockCmd = &cobra.Command{
	Use:   "block <blocked> <blocker>",
	Short: "Record that the first item is blocked by the second",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := connectStore()
		if err != nil {
			exitErr("block", err)
		}
		defer handle.Close()

		edge, err := handle.AddEdge(args[0], args[1], types.EdgeBlocks)
		if err != nil {
			exitErr("block", err)
		}

		if flagJSON {
			printJSON(edge)
		} else {
			fmt.Printf("%s blocked by %s\n", edge.FromID, edge.ToID)
		}
		return nil
	},
}
