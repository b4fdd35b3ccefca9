// Compact command for the engram CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/pkg/engram"
)

var (
	compactOlderThanDays  int
	compactMaxDescription int
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrite the logs, stripping descriptions of old closed items",
	Long: `Compact rewrites both logs as snapshots: one record per item, live
edges only. Descriptions of closed items older than the cutoff are
removed, or truncated when a maximum length is configured. Item
identities are never dropped. Requires exclusive access to the store;
stop the daemon first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := engram.CompactConfig{
			OlderThanDays: config.GetInt(cfgKeyCompactOlderThanDays),
		}
		if cmd.Flags().Changed("older-than-days") {
			cfg.OlderThanDays = compactOlderThanDays
		}
		if cmd.Flags().Changed("max-description-len") {
			cfg.MaxDescriptionLen = &compactMaxDescription
		} else if config.IsSet(cfgKeyCompactMaxDescription) {
			maxLen := config.GetInt(cfgKeyCompactMaxDescription)
			cfg.MaxDescriptionLen = &maxLen
		}

		session, err := openSession()
		if err != nil {
			exitErr("compact", err)
		}
		defer session.Close()

		result, err := session.Compact(cfg)
		if err != nil {
			exitErr("compact", err)
		}

		if flagJSON {
			printJSON(result)
		} else {
			fmt.Printf("compacted %d items, saved %d bytes\n", result.CompactedCount, result.BytesSaved)
		}
		return nil
	},
}

func init() {
	compactCmd.Flags().IntVar(&compactOlderThanDays, "older-than-days", defaultCompactOlderThanDays, "only strip items closed at least this many days ago")
	compactCmd.Flags().IntVar(&compactMaxDescription, "max-description-len", 0, "truncate descriptions instead of removing them")
}
