// Package config loads and validates the terracomply configuration
// file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/terracomply/terracomply/pkg/types"
)

// Config is the full configuration document. Zero values fall back to
// Default(); Load applies the document on top of the defaults.
type Config struct {
	// PolicyDir is the directory policy documents are loaded from.
	PolicyDir string `yaml:"policy_dir" validate:"required"`

	// RepeatableBlocks lists nested block types that accumulate into
	// entry lists instead of overwriting. Empty means the built-in set
	// (ingress, egress, rule).
	RepeatableBlocks []string `yaml:"repeatable_blocks"`

	// FailUnder is the minimum compliance score; a report scoring below
	// it makes the check command exit non-zero.
	FailUnder float64 `yaml:"fail_under" validate:"gte=0,lte=100"`

	Tools    ToolsConfig    `yaml:"tools"`
	Severity SeverityConfig `yaml:"severity"`
}

// ToolsConfig enables individual external analyzers.
type ToolsConfig struct {
	TerraformValidate bool       `yaml:"terraform_validate"`
	TFLint            bool       `yaml:"tflint"`
	Checkov           bool       `yaml:"checkov"`
	HCLSyntax         bool       `yaml:"hcl_syntax"`
	Rego              RegoConfig `yaml:"rego"`
}

// RegoConfig configures the in-process rego runner.
type RegoConfig struct {
	Enabled   bool   `yaml:"enabled"`
	PolicyDir string `yaml:"policy_dir"`
}

// SeverityConfig adjusts how tool finding severities are reported.
// Overrides map a tool name to the severity its findings are clamped
// to; DefaultSeverity applies when a tool reports none.
type SeverityConfig struct {
	DefaultSeverity string            `yaml:"default_severity" validate:"omitempty,oneof=critical high medium low info"`
	Overrides       map[string]string `yaml:"overrides" validate:"dive,oneof=critical high medium low info"`
}

// Resolve returns the severity to report for a finding from the named
// tool.
func (s SeverityConfig) Resolve(tool, reported string) string {
	if override, ok := s.Overrides[tool]; ok {
		return override
	}
	if reported != "" {
		return strings.ToLower(reported)
	}
	if s.DefaultSeverity != "" {
		return s.DefaultSeverity
	}
	return types.SeverityMedium
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		PolicyDir: "policies",
		FailUnder: 0,
		Tools: ToolsConfig{
			HCLSyntax: true,
		},
		Severity: SeverityConfig{
			DefaultSeverity: types.SeverityMedium,
		},
	}
}

// Load reads a YAML configuration file, applies it over the defaults,
// and validates the result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
