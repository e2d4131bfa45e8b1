// Package config loads the tool configuration from .fcd.toml, with a
// YAML fallback for projects that keep their settings in .fcd.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/XVilka/fcd/domain"
)

// Config represents the main configuration structure
type Config struct {
	// Output controls how results are rendered
	Output OutputConfig `mapstructure:"output" toml:"output" yaml:"output"`

	// Input controls which module files are picked up
	Input InputConfig `mapstructure:"input" toml:"input" yaml:"input"`
}

// OutputConfig holds output rendering configuration
type OutputConfig struct {
	// Format selects text, json or yaml output
	Format string `mapstructure:"format" toml:"format" yaml:"format"`

	// SortBy orders emitted functions: address or name
	SortBy string `mapstructure:"sort_by" toml:"sort_by" yaml:"sort_by"`

	// ShowProgress toggles the progress bar on interactive runs
	ShowProgress bool `mapstructure:"show_progress" toml:"show_progress" yaml:"show_progress"`
}

// InputConfig holds input selection configuration
type InputConfig struct {
	IncludePatterns []string `mapstructure:"include_patterns" toml:"include_patterns" yaml:"include_patterns"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" toml:"exclude_patterns" yaml:"exclude_patterns"`
}

// DefaultConfig returns the configuration used when no file is found
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format:       string(domain.DefaultOutputFormat),
			SortBy:       string(domain.DefaultSortCriteria),
			ShowProgress: domain.DefaultShowProgress,
		},
	}
}

// configFileNames are probed in order when no explicit path is given
var configFileNames = []string{".fcd.toml", "fcd.toml", ".fcd.yaml", "fcd.yaml"}

// FindDefaultConfigFile looks for a configuration file in the given
// directory, returning "" when none exists.
func FindDefaultConfigFile(dir string) string {
	for _, name := range configFileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// LoadConfig loads configuration from the given path. An empty path
// probes the working directory and falls back to defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = FindDefaultConfigFile(".")
		if path == "" {
			return DefaultConfig(), nil
		}
	}

	switch filepath.Ext(path) {
	case ".toml":
		return loadTOML(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return nil, domain.NewConfigError(fmt.Sprintf("unsupported config file %s", path), nil)
	}
}

func loadTOML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to read "+path, err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, domain.NewConfigError("failed to parse "+path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, domain.NewConfigError("failed to read "+path, err)
	}
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, domain.NewConfigError("failed to parse "+path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that enum-valued settings hold known values
func (c *Config) Validate() error {
	switch domain.OutputFormat(c.Output.Format) {
	case domain.OutputFormatText, domain.OutputFormatJSON, domain.OutputFormatYAML, "":
	default:
		return domain.NewConfigError(fmt.Sprintf("unknown output format %q", c.Output.Format), nil)
	}
	switch domain.SortCriteria(c.Output.SortBy) {
	case domain.SortByAddress, domain.SortByName, "":
	default:
		return domain.NewConfigError(fmt.Sprintf("unknown sort criteria %q", c.Output.SortBy), nil)
	}
	return nil
}

// ToRequest converts the configuration into a request with defaults
// applied.
func (c *Config) ToRequest() *domain.StructurizeRequest {
	req := domain.DefaultStructurizeRequest()
	if c.Output.Format != "" {
		req.OutputFormat = domain.OutputFormat(c.Output.Format)
	}
	if c.Output.SortBy != "" {
		req.SortBy = domain.SortCriteria(c.Output.SortBy)
	}
	req.ShowProgress = c.Output.ShowProgress
	req.IncludePatterns = c.Input.IncludePatterns
	req.ExcludePatterns = c.Input.ExcludePatterns
	return req
}
