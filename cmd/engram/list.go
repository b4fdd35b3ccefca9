// List command for the engram CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/pkg/types"
)

var (
	listStatus      string
	listLabel       string
	listMinPriority int
	listMaxPriority int
	listLimit       int
	listOffset      int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List items, one per line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter types.Filter
		if listStatus != "" {
			status, err := types.ParseStatus(listStatus)
			if err != nil {
				exitErr("list", err)
			}
			filter.Statuses = []types.Status{status}
		}
		filter.Label = listLabel
		if cmd.Flags().Changed("min-priority") {
			filter.MinPriority = &listMinPriority
		}
		if cmd.Flags().Changed("max-priority") {
			filter.MaxPriority = &listMaxPriority
		}
		filter.Limit = listLimit
		filter.Offset = listOffset

		handle, err := connectStore()
		if err != nil {
			exitErr("list", err)
		}
		defer handle.Close()

		items, err := handle.List(filter)
		if err != nil {
			exitErr("list", err)
		}
		printItems(items)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (open, in_progress, blocked, closed)")
	listCmd.Flags().StringVar(&listLabel, "label", "", "filter by label")
	listCmd.Flags().IntVar(&listMinPriority, "min-priority", 0, "minimum priority")
	listCmd.Flags().IntVar(&listMaxPriority, "max-priority", 4, "maximum priority")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of results (0 = unlimited)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "skip the first N results")
}
