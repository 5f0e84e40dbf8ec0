package config

import (
	"time"

	"github.com/hyperjump/bunrui/internal/kmeans"
)

// OutputFormats lists the accepted output.format values. xlsx and html write
// a spreadsheet and a scatter chart.
var OutputFormats = []string{"text", "compact", "json", "xlsx", "html"}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/bunrui/data/db/runs.db"
	}
	if cfg.Input.HasHeader == nil {
		t := true
		cfg.Input.HasHeader = &t
	}
	if cfg.Cluster.MaxIterations == 0 {
		cfg.Cluster.MaxIterations = kmeans.DefaultMaxIterations
	}
	if cfg.Cluster.Workers == 0 {
		cfg.Cluster.Workers = 1
	}
	if cfg.Cluster.EmptyCluster == "" {
		cfg.Cluster.EmptyCluster = string(kmeans.EmptyKeep)
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "text"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 400 * time.Millisecond
	}
}
