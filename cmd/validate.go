package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/wmnctl/internal/config"
	"github.com/conneroisu/wmnctl/internal/validation"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the dataset against its schema",
	Long: `Validate the dataset against the JSON schema, then check that no two
sites share a name. The duplicate check only runs when the schema check
passes.

Schema violations are reported with their location, the name of the site
they fall under and the offending value.

Examples:
  wmnctl validate                         # Report findings in the log
  wmnctl validate --output json           # Print a JSON report on stdout
  wmnctl validate --casefold-duplicates   # Treat "GitHub" and "github" as duplicates
  wmnctl validate --draft draft2020-12    # Assume another draft when the schema has no $schema`,
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().
		StringP("output", "o", config.DefaultOutput, "Output format (text, json)")
	validateCmd.Flags().
		String("draft", validation.DefaultDraft, "JSON schema draft used when the schema declares none")
	validateCmd.Flags().
		Bool("casefold-duplicates", false, "Compare site names case-insensitively")
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	_, err := newRunner(cmd).Validate(cmd.Context())
	return err
}
