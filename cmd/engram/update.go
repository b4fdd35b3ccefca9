// Update command for the engram CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/pkg/types"
)

var (
	updateTitle       string
	updatePriority    int
	updateLabels      string
	updateDescription string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update item fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var fields types.UpdateFields
		if cmd.Flags().Changed("title") {
			fields.Title = &updateTitle
		}
		if cmd.Flags().Changed("priority") {
			fields.Priority = &updatePriority
		}
		if cmd.Flags().Changed("labels") {
			labels := parseLabels(updateLabels)
			if labels == nil {
				labels = []string{}
			}
			fields.Labels = labels
		}
		if cmd.Flags().Changed("description") {
			fields.Description = &updateDescription
		}

		handle, err := connectStore()
		if err != nil {
			exitErr("update", err)
		}
		defer handle.Close()

		item, err := handle.Update(args[0], fields)
		if err != nil {
			exitErr("update", err)
		}
		printItem(item)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().IntVar(&updatePriority, "priority", 2, "new priority")
	updateCmd.Flags().StringVar(&updateLabels, "labels", "", "comma-separated labels (replaces all)")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "new description")
}
