// Child command for the engram CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/pkg/types"
)

var childCmd = &cobra.Command{
	Use:   "child <child> <parent>",
	Short: "Record that the first item is a child of the second",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := connectStore()
		if err != nil {
			exitErr("child", err)
		}
		defer handle.Close()

		edge, err := handle.AddEdge(args[0], args[1], types.EdgeChild)
		if err != nil {
			exitErr("child", err)
		}

		if flagJSON {
			printJSON(edge)
		} else {
			fmt.Printf("%s is a child of %s\n", edge.FromID, edge.ToID)
		}
		return nil
	},
}
