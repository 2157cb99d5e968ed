// Package config provides configuration management for wmnctl using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration system supports a .wmn.yml file in the working
// directory, environment variable overrides with the WMN_ prefix, and
// validation of every value before any operation runs. It covers the tracked
// file paths, formatting, hashing, validation, logging and watch settings.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/wmnctl/internal/canonical"
	"github.com/conneroisu/wmnctl/internal/integrity"
	"github.com/conneroisu/wmnctl/internal/validation"
)

// Default values.
const (
	DefaultDataFile   = "wmn-data.json"
	DefaultSchemaFile = "wmn-data-schema.json"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultOutput     = "text"
	DefaultDebounce   = 300 * time.Millisecond
	// FileName is the configuration file looked up in the working directory.
	FileName = ".wmn.yml"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "WMN"
)

type Config struct {
	Files    FilesConfig    `mapstructure:"files" yaml:"files" toml:"files" json:"files"`
	Format   FormatConfig   `mapstructure:"format" yaml:"format" toml:"format" json:"format"`
	Hash     HashConfig     `mapstructure:"hash" yaml:"hash" toml:"hash" json:"hash"`
	Validate ValidateConfig `mapstructure:"validate" yaml:"validate" toml:"validate" json:"validate"`
	Log      LogConfig      `mapstructure:"log" yaml:"log" toml:"log" json:"log"`
	Watch    WatchConfig    `mapstructure:"watch" yaml:"watch" toml:"watch" json:"watch"`
}

type FilesConfig struct {
	Data   string `mapstructure:"data" yaml:"data" toml:"data" json:"data"`
	Schema string `mapstructure:"schema" yaml:"schema" toml:"schema" json:"schema"`
}

type FormatConfig struct {
	Indent int `mapstructure:"indent" yaml:"indent" toml:"indent" json:"indent"`
}

type HashConfig struct {
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm" toml:"algorithm" json:"algorithm"`
}

type ValidateConfig struct {
	Draft              string `mapstructure:"draft" yaml:"draft" toml:"draft" json:"draft"`
	CasefoldDuplicates bool   `mapstructure:"casefold_duplicates" yaml:"casefold_duplicates" toml:"casefold_duplicates" json:"casefold_duplicates"`
	Output             string `mapstructure:"output" yaml:"output" toml:"output" json:"output"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" toml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" toml:"format" json:"format"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" toml:"debounce" json:"debounce"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Files: FilesConfig{
			Data:   DefaultDataFile,
			Schema: DefaultSchemaFile,
		},
		Format:   FormatConfig{Indent: canonical.DefaultIndent},
		Hash:     HashConfig{Algorithm: integrity.DefaultAlgorithm},
		Validate: ValidateConfig{Draft: validation.DefaultDraft, Output: DefaultOutput},
		Log:      LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Watch:    WatchConfig{Debounce: DefaultDebounce},
	}
}

// SetDefaults registers every key with viper, so environment overrides
// apply to keys that no flag is bound to.
func SetDefaults() {
	d := Default()
	viper.SetDefault("files.data", d.Files.Data)
	viper.SetDefault("files.schema", d.Files.Schema)
	viper.SetDefault("format.indent", d.Format.Indent)
	viper.SetDefault("hash.algorithm", d.Hash.Algorithm)
	viper.SetDefault("validate.draft", d.Validate.Draft)
	viper.SetDefault("validate.casefold_duplicates", d.Validate.CasefoldDuplicates)
	viper.SetDefault("validate.output", d.Validate.Output)
	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
	viper.SetDefault("watch.debounce", d.Watch.Debounce)
}

// BindEnv enables WMN_<SECTION>_<OPTION> environment overrides,
// e.g. WMN_HASH_ALGORITHM.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads the configuration from the global viper instance, fills in
// defaults and validates the result.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	defaults := Default()

	if config.Files.Data == "" {
		config.Files.Data = defaults.Files.Data
	}
	if config.Files.Schema == "" {
		config.Files.Schema = defaults.Files.Schema
	}

	// Zero is a legal indent, so only fill it in when nothing set it.
	if !viper.IsSet("format.indent") {
		config.Format.Indent = defaults.Format.Indent
	}

	if config.Hash.Algorithm == "" {
		config.Hash.Algorithm = defaults.Hash.Algorithm
	}
	if config.Validate.Draft == "" {
		config.Validate.Draft = defaults.Validate.Draft
	}
	if config.Validate.Output == "" {
		config.Validate.Output = defaults.Validate.Output
	}

	// Handle bools set via viper (workaround for flag-bound bool handling)
	if viper.IsSet("validate.casefold_duplicates") {
		config.Validate.CasefoldDuplicates = viper.GetBool("validate.casefold_duplicates")
	}

	if config.Log.Level == "" {
		config.Log.Level = defaults.Log.Level
	}
	if config.Log.Format == "" {
		config.Log.Format = defaults.Log.Format
	}

	if !viper.IsSet("watch.debounce") {
		config.Watch.Debounce = defaults.Watch.Debounce
	}
}

// validateConfig returns the first validation error, if any.
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if result.HasErrors() {
		return &result.Errors[0]
	}
	return nil
}
