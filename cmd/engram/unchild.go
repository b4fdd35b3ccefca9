// Unchild command for the engram CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/pkg/types"
)

var unchildCmd = &cobra.Command{
	Use:   "unchild <child> <parent>",
	Short: "Remove a parent-child relation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := connectStore()
		if err != nil {
			exitErr("unchild", err)
		}
		defer handle.Close()

		if err := handle.RemoveEdge(args[0], args[1], types.EdgeChild); err != nil {
			exitErr("unchild", err)
		}
		if !flagJSON {
			fmt.Printf("%s is no longer a child of %s\n", args[0], args[1])
		}
		return nil
	},
}
