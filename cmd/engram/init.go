// Init command for the engram CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/internal/paths"
	"github.com/mesh-intelligence/engram/pkg/engram"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a store in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			exitErr("init", err)
		}
		if err := engram.Init(root); err != nil {
			exitErr("init", err)
		}
		fmt.Println("Initialized store in", paths.StoreDir(root))
		return nil
	},
}
