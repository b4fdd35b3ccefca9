// Vacuum command for the engram CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Reclaim free space in the query cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession()
		if err != nil {
			exitErr("vacuum", err)
		}
		defer session.Close()

		result, err := session.Vacuum()
		if err != nil {
			exitErr("vacuum", err)
		}

		if flagJSON {
			printJSON(result)
		} else {
			fmt.Printf("cache: %d -> %d bytes (%d items, %d edges)\n",
				result.SizeBefore, result.SizeAfter, result.ItemCount, result.EdgeCount)
		}
		return nil
	},
}
