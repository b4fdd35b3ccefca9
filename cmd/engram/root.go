// Root command for the engram CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engram/internal/paths"
)

// Exit codes: 0 success, 1 user error, 2 environment error.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagDir  string
	flagJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "engram",
	Short: "Engram is a local-first task graph",
	Long: `Engram tracks work items and the dependencies between them in a
local store: append-only JSONL logs as the source of truth and a
rebuildable SQLite index for queries.`,
	Version: versionString,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "store root (default: $ENGRAM_DIR or current directory)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(reopenCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(unblockCmd)
	rootCmd.AddCommand(childCmd)
	rootCmd.AddCommand(unchildCmd)
	rootCmd.AddCommand(readyCmd)
	rootCmd.AddCommand(blockedCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(daemonStatusCmd)
	rootCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(compactCmd)
	rootCmd.AddCommand(vacuumCmd)
}

// resolveRoot returns the store root following --dir > ENGRAM_DIR > CWD.
func resolveRoot() (string, error) {
	return paths.ResolveStoreRoot(flagDir)
}
