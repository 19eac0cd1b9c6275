// Package config provides configuration management for the patcher.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Match modes.
const (
	ModeFirst = "first"
	ModeAll   = "all"
)

// No-match policies.
const (
	OnNoMatchIgnore = "ignore"
	OnNoMatchWarn   = "warn"
	OnNoMatchError  = "error"
)

// DefaultConfigPath is read, when present, if no config file is given.
const DefaultConfigPath = "configs/patcher.yaml"

// Configuration validation errors.
var (
	ErrNoRecipes               = errors.New("at least one recipe is required")
	ErrNoEnabledRecipes        = errors.New("at least one recipe must be enabled")
	ErrRecipeMissingName       = errors.New("name is required")
	ErrDuplicateRecipe         = errors.New("recipe name is not unique")
	ErrRecipeMissingTarget     = errors.New("target is required")
	ErrRecipeMissingPattern    = errors.New("pattern is required")
	ErrRecipeMissingReplace    = errors.New("one of replacement, replacement_file or delete is required")
	ErrRecipeBothReplacements  = errors.New("replacement and replacement_file are mutually exclusive")
	ErrDeleteWithReplacement   = errors.New("delete cannot be combined with replacement or replacement_file")
	ErrInvalidMode             = errors.New("mode must be 'first' or 'all'")
	ErrInvalidNoMatchPolicy    = errors.New("on_no_match must be one of: ignore, warn, error")
	ErrInvalidLogLevel         = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrRecipeNotFound          = errors.New("recipe not found")
	ErrUnsupportedConfigFormat = errors.New("config file must be .yaml, .yml or .toml")
)

// Config represents the complete patcher configuration.
type Config struct {
	Patcher PatcherConfig `yaml:"patcher" toml:"patcher"`
}

// PatcherConfig contains the recipes and run settings.
type PatcherConfig struct {
	Recipes []RecipeConfig `yaml:"recipes" toml:"recipes"`
	Logging LoggingConfig  `yaml:"logging" toml:"logging"`
}

// RecipeConfig describes one pattern substitution on one file.
type RecipeConfig struct {
	Name            string `yaml:"name" toml:"name"`
	Target          string `yaml:"target" toml:"target"`
	Pattern         string `yaml:"pattern" toml:"pattern"`
	Replacement     string `yaml:"replacement,omitempty" toml:"replacement,omitempty"`
	ReplacementFile string `yaml:"replacement_file,omitempty" toml:"replacement_file,omitempty"`
	Mode            string `yaml:"mode,omitempty" toml:"mode,omitempty"`
	OnNoMatch       string `yaml:"on_no_match,omitempty" toml:"on_no_match,omitempty"`
	SkipIfContains  string `yaml:"skip_if_contains,omitempty" toml:"skip_if_contains,omitempty"`
	ExpectSHA256    string `yaml:"expect_sha256,omitempty" toml:"expect_sha256,omitempty"`
	SuccessMessage  string `yaml:"success_message,omitempty" toml:"success_message,omitempty"`
	Enabled         *bool  `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Expand          bool   `yaml:"expand,omitempty" toml:"expand,omitempty"`
	Backup          bool   `yaml:"backup,omitempty" toml:"backup,omitempty"`
	// Delete removes the matched text. It is the only way to ask for an
	// empty replacement.
	Delete bool `yaml:"delete,omitempty" toml:"delete,omitempty"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// IsEnabled reports whether the recipe runs. Recipes are enabled unless
// explicitly switched off.
func (r *RecipeConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// ReplacementText returns the inline replacement or the contents of
// replacement_file.
func (r *RecipeConfig) ReplacementText() (string, error) {
	if r.ReplacementFile == "" {
		return r.Replacement, nil
	}

	data, err := os.ReadFile(r.ReplacementFile)
	if err != nil {
		return "", fmt.Errorf("failed to read replacement file for recipe %q: %w", r.Name, err)
	}

	return string(data), nil
}

// LoadConfig loads configuration from a YAML or TOML file.
// A relative replacement_file is resolved against the config file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfigFormat, path)
	}

	cfg.ApplyDefaults()

	baseDir := filepath.Dir(path)
	for i := range cfg.Patcher.Recipes {
		rf := cfg.Patcher.Recipes[i].ReplacementFile
		if rf != "" && !filepath.IsAbs(rf) {
			cfg.Patcher.Recipes[i].ReplacementFile = filepath.Join(baseDir, rf)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration as YAML or TOML depending on the extension.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = marshalYAML(c)
	case ".toml":
		data, err = toml.Marshal(c)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedConfigFormat, path)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// marshalYAML writes multi-line strings double-quoted. yaml.v3 picks an
// indentation-indicated literal block for text that starts with a space,
// and it cannot decode that block again.
func marshalYAML(v any) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, err
	}

	quoteMultiline(&node)

	return yaml.Marshal(&node)
}

func quoteMultiline(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.DoubleQuotedStyle
	}

	for _, child := range n.Content {
		quoteMultiline(child)
	}
}

// ValidLogLevel reports whether level is one of debug, info, warn, error.
func ValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// ApplyDefaults fills unset modes, policies and the log level.
func (c *Config) ApplyDefaults() {
	if c.Patcher.Logging.Level == "" {
		c.Patcher.Logging.Level = "info"
	}

	for i := range c.Patcher.Recipes {
		r := &c.Patcher.Recipes[i]
		if r.Mode == "" {
			r.Mode = ModeFirst
		}

		if r.OnNoMatch == "" {
			r.OnNoMatch = OnNoMatchWarn
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Patcher.Recipes) == 0 {
		return ErrNoRecipes
	}

	seen := make(map[string]bool, len(c.Patcher.Recipes))
	enabledCount := 0

	for i, r := range c.Patcher.Recipes {
		if r.Name == "" {
			return fmt.Errorf("%w: recipe[%d]", ErrRecipeMissingName, i)
		}

		if seen[r.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateRecipe, r.Name)
		}

		seen[r.Name] = true

		if r.Target == "" {
			return fmt.Errorf("%w: recipe %s", ErrRecipeMissingTarget, r.Name)
		}

		if r.Pattern == "" {
			return fmt.Errorf("%w: recipe %s", ErrRecipeMissingPattern, r.Name)
		}

		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("recipe %s: pattern is invalid regex: %w", r.Name, err)
		}

		if r.Replacement != "" && r.ReplacementFile != "" {
			return fmt.Errorf("%w: recipe %s", ErrRecipeBothReplacements, r.Name)
		}

		switch {
		case r.Delete && (r.Replacement != "" || r.ReplacementFile != ""):
			return fmt.Errorf("%w: recipe %s", ErrDeleteWithReplacement, r.Name)
		case !r.Delete && r.Replacement == "" && r.ReplacementFile == "":
			return fmt.Errorf("%w: recipe %s", ErrRecipeMissingReplace, r.Name)
		}

		if r.Mode != ModeFirst && r.Mode != ModeAll {
			return fmt.Errorf("%w: recipe %s", ErrInvalidMode, r.Name)
		}

		switch r.OnNoMatch {
		case OnNoMatchIgnore, OnNoMatchWarn, OnNoMatchError:
		default:
			return fmt.Errorf("%w: recipe %s", ErrInvalidNoMatchPolicy, r.Name)
		}

		if r.IsEnabled() {
			enabledCount++
		}
	}

	if enabledCount == 0 {
		return ErrNoEnabledRecipes
	}

	if !ValidLogLevel(c.Patcher.Logging.Level) {
		return ErrInvalidLogLevel
	}

	return nil
}

// GetEnabledRecipes returns only enabled recipes.
func (c *Config) GetEnabledRecipes() []RecipeConfig {
	var enabled []RecipeConfig

	for _, r := range c.Patcher.Recipes {
		if r.IsEnabled() {
			enabled = append(enabled, r)
		}
	}

	return enabled
}

// GetRecipe returns the recipe with the given name.
func (c *Config) GetRecipe(name string) (RecipeConfig, error) {
	for _, r := range c.Patcher.Recipes {
		if r.Name == name {
			return r, nil
		}
	}

	return RecipeConfig{}, fmt.Errorf("%w: %s", ErrRecipeNotFound, name)
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Recipes: %d, Enabled: %d, LogLevel: %s}",
		len(c.Patcher.Recipes),
		len(c.GetEnabledRecipes()),
		c.Patcher.Logging.Level,
	)
}
