package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/wmnctl/internal/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run check whenever the dataset or schema changes",
	Long: `Run check once, then watch the dataset and schema and run it again
after every burst of changes. Failures are logged and watching continues
until interrupted (Ctrl+C).

Examples:
  wmnctl watch                    # Debounce changes for 300ms
  wmnctl watch --debounce 1s      # Wait for a second of quiet`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("debounce", config.DefaultDebounce, "quiet period before re-running")
}

func runWatch(cmd *cobra.Command, args []string) error {
	return newRunner(cmd).Watch(cmd.Context())
}
