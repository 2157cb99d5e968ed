package cmd

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Format, hash and validate in sequence",
	Long: `Run format, hash and validate one after another, stopping at the first
step that fails. Each step reads the files afresh, so the digests describe
the formatted content.

Examples:
  wmnctl check
  WMN_HASH_ALGORITHM=blake2b-256 wmnctl check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	return newRunner(cmd).Check(cmd.Context())
}
