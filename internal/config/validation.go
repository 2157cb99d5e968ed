package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/conneroisu/wmnctl/internal/integrity"
	"github.com/conneroisu/wmnctl/internal/logging"
	"github.com/conneroisu/wmnctl/internal/validation"
)

const maxIndent = 8

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

func (vr *ValidationResult) addError(field string, value interface{}, message string, suggestions ...string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:       field,
		Value:       value,
		Message:     message,
		Suggestions: suggestions,
	})
}

func (vr *ValidationResult) addWarning(field string, value interface{}, message string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{
		Field:       field,
		Value:       value,
		Message:     message,
		Suggestions: suggestions,
	})
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateFilesConfigDetails(&config.Files, result)
	validateFormatConfigDetails(&config.Format, result)
	validateHashConfigDetails(&config.Hash, result)
	validateValidateConfigDetails(&config.Validate, result)
	validateLogConfigDetails(&config.Log, result)
	validateWatchConfigDetails(&config.Watch, result)

	return result
}

func validateFilesConfigDetails(config *FilesConfig, result *ValidationResult) {
	if strings.TrimSpace(config.Data) == "" {
		result.addError("files.data", config.Data, "data file path is empty",
			fmt.Sprintf("Use the default %q", DefaultDataFile))
	}
	if strings.TrimSpace(config.Schema) == "" {
		result.addError("files.schema", config.Schema, "schema file path is empty",
			fmt.Sprintf("Use the default %q", DefaultSchemaFile))
	}
	if config.Data != "" && filepath.Clean(config.Data) == filepath.Clean(config.Schema) {
		result.addError("files", config.Data, "data and schema must be different files")
	}
	if config.Data != "" && filepath.Ext(config.Data) != ".json" {
		result.addWarning("files.data", config.Data, "file does not have a .json extension")
	}
	if config.Schema != "" && filepath.Ext(config.Schema) != ".json" {
		result.addWarning("files.schema", config.Schema, "file does not have a .json extension")
	}
}

func validateFormatConfigDetails(config *FormatConfig, result *ValidationResult) {
	if config.Indent < 0 || config.Indent > maxIndent {
		result.addError("format.indent", config.Indent,
			fmt.Sprintf("indent %d is not in valid range 0-%d", config.Indent, maxIndent),
			"The dataset is conventionally indented with 2 spaces")
	}
}

func validateHashConfigDetails(config *HashConfig, result *ValidationResult) {
	if _, err := integrity.LookupAlgorithm(config.Algorithm); err != nil {
		result.addError("hash.algorithm", config.Algorithm,
			fmt.Sprintf("unknown hash algorithm %q", config.Algorithm),
			fmt.Sprintf("Supported algorithms: %s", strings.Join(integrity.Algorithms(), ", ")))
	}
}

func validateValidateConfigDetails(config *ValidateConfig, result *ValidationResult) {
	if !contains(validation.Drafts(), config.Draft) {
		result.addError("validate.draft", config.Draft,
			fmt.Sprintf("unknown JSON schema draft %q", config.Draft),
			fmt.Sprintf("Supported drafts: %s", strings.Join(validation.Drafts(), ", ")))
	}
	if config.Output != "text" && config.Output != "json" {
		result.addError("validate.output", config.Output,
			fmt.Sprintf("unknown output format %q", config.Output),
			"Use 'text' or 'json'")
	}
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.addError("log.level", config.Level, err.Error(),
			"Use one of: debug, info, warn, error")
	}
	if config.Format != "text" && config.Format != "json" {
		result.addError("log.format", config.Format,
			fmt.Sprintf("unknown log format %q", config.Format),
			"Use 'text' or 'json'")
	}
}

func validateWatchConfigDetails(config *WatchConfig, result *ValidationResult) {
	if config.Debounce <= 0 {
		result.addError("watch.debounce", config.Debounce, "debounce must be positive",
			fmt.Sprintf("Use a duration such as %s", DefaultDebounce))
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
