// Package config provides configuration loading and structs for bunrui.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/bunrui/internal/kmeans"
	"github.com/hyperjump/bunrui/internal/source"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Input   InputConfig   `yaml:"input"`
	Cluster ClusterConfig `yaml:"cluster"`
	Output  OutputConfig  `yaml:"output"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Watch   WatchConfig   `yaml:"watch"`
}

// InputConfig describes where rows come from and which columns become vectors.
type InputConfig struct {
	Path      string `yaml:"path"`
	Sheet     string `yaml:"sheet"`
	Delimiter string `yaml:"delimiter"`
	HasHeader *bool  `yaml:"has_header"`
	// Columns are zero-based and have no default; file input needs them.
	Columns   []int `yaml:"columns"`
	Normalize bool  `yaml:"normalize"`
}

// HasHeaderOrDefault returns whether the first row is a header; defaults to true when unset.
func (in *InputConfig) HasHeaderOrDefault() bool {
	if in.HasHeader != nil {
		return *in.HasHeader
	}
	return true
}

// SourceOptions converts the input settings to row source options.
func (in *InputConfig) SourceOptions() (source.Options, error) {
	delim, err := source.ParseDelimiter(in.Delimiter)
	if err != nil {
		return source.Options{}, err
	}
	return source.Options{Delimiter: delim, Sheet: in.Sheet}, nil
}

// ClusterConfig holds k-means parameters.
type ClusterConfig struct {
	K             int     `yaml:"k"`
	MaxIterations int     `yaml:"max_iterations"`
	Epsilon       float64 `yaml:"epsilon"`
	Seed          int64   `yaml:"seed"`
	Workers       int     `yaml:"workers"`
	EmptyCluster  string  `yaml:"empty_cluster"`
}

// KMeans converts the cluster settings to a validated kmeans.Config.
func (c *ClusterConfig) KMeans() (kmeans.Config, error) {
	policy, err := kmeans.ParseEmptyClusterPolicy(c.EmptyCluster)
	if err != nil {
		return kmeans.Config{}, err
	}
	cfg := kmeans.Config{
		K:             c.K,
		MaxIterations: c.MaxIterations,
		Epsilon:       c.Epsilon,
		Seed:          c.Seed,
		Workers:       c.Workers,
		EmptyCluster:  policy,
	}
	if err := cfg.Validate(); err != nil {
		return kmeans.Config{}, err
	}
	return cfg, nil
}

// OutputConfig controls how results are written.
type OutputConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// StorageConfig holds the run history database settings.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	// SaveRuns stores every CLI run in history.
	SaveRuns bool `yaml:"save_runs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WatchConfig holds input watch settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Input.Path != "" && cfg.Input.Path != "-" {
		cfg.Input.Path = expandPath(cfg.Input.Path, configDir)
	}
	if cfg.Output.Path != "" && cfg.Output.Path != "-" {
		cfg.Output.Path = expandPath(cfg.Output.Path, configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that defaults cannot fix.
func (c *Config) Validate() error {
	for _, col := range c.Input.Columns {
		if col < 0 {
			return fmt.Errorf("invalid config: input column %d is negative", col)
		}
	}
	if _, err := source.ParseDelimiter(c.Input.Delimiter); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !validFormat(c.Output.Format) {
		return fmt.Errorf("invalid config: unknown output format %q", c.Output.Format)
	}
	if c.Cluster.K < 0 {
		return fmt.Errorf("invalid config: k cannot be negative")
	}
	return nil
}

func validFormat(f string) bool {
	for _, known := range OutputFormats {
		if f == known {
			return true
		}
	}
	return false
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
