package config

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Formats lists the encodings Render supports.
var Formats = []string{"yaml", "toml", "json"}

// view is Config with durations spelled out, so every encoding shows
// "300ms" instead of a nanosecond count.
type view struct {
	Files    FilesConfig    `yaml:"files" toml:"files" json:"files"`
	Format   FormatConfig   `yaml:"format" toml:"format" json:"format"`
	Hash     HashConfig     `yaml:"hash" toml:"hash" json:"hash"`
	Validate ValidateConfig `yaml:"validate" toml:"validate" json:"validate"`
	Log      LogConfig      `yaml:"log" toml:"log" json:"log"`
	Watch    watchView      `yaml:"watch" toml:"watch" json:"watch"`
}

type watchView struct {
	Debounce string `yaml:"debounce" toml:"debounce" json:"debounce"`
}

// Render encodes config as yaml, toml or json.
func Render(config *Config, format string) (string, error) {
	v := view{
		Files:    config.Files,
		Format:   config.Format,
		Hash:     config.Hash,
		Validate: config.Validate,
		Log:      config.Log,
		Watch:    watchView{Debounce: config.Watch.Debounce.String()},
	}

	switch strings.ToLower(format) {
	case "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("failed to encode YAML: %w", err)
		}
		return buf.String(), nil
	case "toml":
		out, err := toml.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode TOML: %w", err)
		}
		return string(out), nil
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode JSON: %w", err)
		}
		return string(out) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}
