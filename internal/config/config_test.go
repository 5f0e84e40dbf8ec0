package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/bunrui/internal/kmeans"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
input:
  delimiter: ";"
  has_header: false
  columns: [1, 3]
  normalize: true
cluster:
  k: 4
  epsilon: 0.001
  seed: 42
  workers: 4
  empty_cluster: reseed
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Input.HasHeaderOrDefault() {
		t.Error("has_header: false should be kept")
	}
	if len(cfg.Input.Columns) != 2 || cfg.Input.Columns[1] != 3 || !cfg.Input.Normalize {
		t.Errorf("unexpected input config: %+v", cfg.Input)
	}
	if cfg.Cluster.K != 4 || cfg.Cluster.Seed != 42 || cfg.Cluster.Workers != 4 || cfg.Cluster.EmptyCluster != "reseed" {
		t.Errorf("unexpected cluster config: %+v", cfg.Cluster)
	}
	if cfg.Cluster.MaxIterations != kmeans.DefaultMaxIterations {
		t.Errorf("max_iterations should default to %d, got %d", kmeans.DefaultMaxIterations, cfg.Cluster.MaxIterations)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
input:
  path: "./data/points.csv"
storage:
  database_path: "./data/db/runs.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Dir(path)
	if want := filepath.Join(dir, "data", "db", "runs.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "points.csv"); cfg.Input.Path != want {
		t.Errorf("input path = %s, want %s", cfg.Input.Path, want)
	}
}

func TestLoad_stdinPathUnchanged(t *testing.T) {
	cfg, err := Load(writeConfig(t, "input:\n  path: \"-\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Input.Path != "-" {
		t.Errorf("input path = %s, want -", cfg.Input.Path)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "cluster: [\n"},
		{"negative column", "input:\n  columns: [-1]\n"},
		{"bad delimiter", "input:\n  delimiter: \"ab\"\n"},
		{"unknown format", "output:\n  format: pdf\n"},
		{"negative k", "cluster:\n  k: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if !cfg.Input.HasHeaderOrDefault() {
		t.Error("has_header should default to true")
	}
	if cfg.Input.Columns != nil {
		t.Errorf("columns must stay unset, got %v", cfg.Input.Columns)
	}
	if cfg.Cluster.MaxIterations != 10000 || cfg.Cluster.Workers != 1 || cfg.Cluster.EmptyCluster != "keep" {
		t.Errorf("cluster defaults: got %+v", cfg.Cluster)
	}
	if cfg.Cluster.Epsilon != 0 {
		t.Errorf("epsilon should default to 0, got %v", cfg.Cluster.Epsilon)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("default format: got %s", cfg.Output.Format)
	}
	if cfg.Watch.Debounce != 400*time.Millisecond {
		t.Errorf("default debounce: got %s", cfg.Watch.Debounce)
	}
}

func TestApplyDefaults_keepsColumns(t *testing.T) {
	cfg := &Config{Input: InputConfig{Columns: []int{3}}}
	ApplyDefaults(cfg)
	if len(cfg.Input.Columns) != 1 || cfg.Input.Columns[0] != 3 {
		t.Errorf("columns = %v, want [3]", cfg.Input.Columns)
	}
}

func TestInputConfig_HasHeaderOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		in := &InputConfig{}
		if !in.HasHeaderOrDefault() {
			t.Error("HasHeaderOrDefault() = false, want true")
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		in := &InputConfig{HasHeader: &f}
		if in.HasHeaderOrDefault() {
			t.Error("HasHeaderOrDefault() = true, want false")
		}
	})
}

func TestInputConfig_SourceOptions(t *testing.T) {
	in := &InputConfig{Delimiter: "tab", Sheet: "Data"}
	opts, err := in.SourceOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Delimiter != '\t' || opts.Sheet != "Data" {
		t.Errorf("got %+v", opts)
	}
}

func TestClusterConfig_KMeans(t *testing.T) {
	c := &ClusterConfig{K: 3, MaxIterations: 50, Epsilon: 0.1, Seed: 9, Workers: 2, EmptyCluster: "reseed"}
	got, err := c.KMeans()
	if err != nil {
		t.Fatal(err)
	}
	if got.K != 3 || got.MaxIterations != 50 || got.EmptyCluster != kmeans.EmptyReseed || got.Workers != 2 {
		t.Errorf("got %+v", got)
	}

	bad := &ClusterConfig{K: 3, MaxIterations: 50, EmptyCluster: "drop"}
	if _, err := bad.KMeans(); !errors.Is(err, kmeans.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	zeroK := &ClusterConfig{MaxIterations: 50}
	if _, err := zeroK.KMeans(); !errors.Is(err, kmeans.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for k=0, got %v", err)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := Default()
	cfg.Server.Port = 9090
	cfg.Cluster.K = 5
	cfg.Storage.DatabasePath = "/tmp/db"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 || loaded.Cluster.K != 5 {
		t.Errorf("loaded config: %+v", loaded)
	}
	if loaded.Watch.Debounce != 400*time.Millisecond {
		t.Errorf("debounce round trip: got %s", loaded.Watch.Debounce)
	}
}
