// Create command for the engram CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	createPriority    int
	createLabels      string
	createDescription string
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create an item and print its id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := connectStore()
		if err != nil {
			exitErr("create", err)
		}
		defer handle.Close()

		var description *string
		if cmd.Flags().Changed("description") {
			description = &createDescription
		}

		item, err := handle.Create(args[0], description, createPriority, parseLabels(createLabels))
		if err != nil {
			exitErr("create", err)
		}

		if flagJSON {
			printJSON(item)
		} else {
			fmt.Println(item.ID)
		}
		return nil
	},
}

func init() {
	createCmd.Flags().IntVar(&createPriority, "priority", 2, "priority 0 (highest) to 4 (lowest)")
	createCmd.Flags().StringVar(&createLabels, "labels", "", "comma-separated labels")
	createCmd.Flags().StringVar(&createDescription, "description", "", "item description")
}
