package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/wmnctl/internal/integrity"
)

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Refresh the digest files of the dataset and schema",
	Long: fmt.Sprintf(`Compute a digest of each tracked file and store it next to the file
(wmn-data.json.sha256 for the default algorithm). A digest file is only
written when the digest changes.

Supported algorithms: %s

Examples:
  wmnctl hash                        # SHA-256 digests
  wmnctl hash --algorithm sha3-256   # SHA3-256 digests in *.sha3-256 files`,
		strings.Join(integrity.Algorithms(), ", ")),
	RunE: runHash,
}

func init() {
	rootCmd.AddCommand(hashCmd)

	hashCmd.Flags().String("algorithm", integrity.DefaultAlgorithm, "digest algorithm")
}

func runHash(cmd *cobra.Command, args []string) error {
	_, err := newRunner(cmd).Hash(cmd.Context())
	return err
}
