package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/wmnctl/internal/canonical"
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Rewrite the dataset and schema in canonical form",
	Long: `Rewrite the dataset and its schema in one deterministic form.

Authors and categories are sorted case-insensitively, sites are sorted by
name, every site's keys follow the order the schema declares and headers
are sorted by name. A file is only written when its content changes.

Examples:
  wmnctl format                      # Format wmn-data.json and wmn-data-schema.json
  wmnctl format --indent 4           # Use four-space indentation
  wmnctl format --data sites.json    # Format another dataset`,
	RunE: runFormat,
}

func init() {
	rootCmd.AddCommand(formatCmd)

	formatCmd.Flags().Int("indent", canonical.DefaultIndent, "spaces per indentation level (0-8)")
}

func runFormat(cmd *cobra.Command, args []string) error {
	_, err := newRunner(cmd).Format(cmd.Context())
	return err
}
