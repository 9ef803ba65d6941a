// Package config handles pipeline configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents pipeline configuration stored in
// ~/.config/bibflow/config.yml, overridable per run via BIBFLOW_* variables.
type Config struct {
	// HashFields selects which per-field digests take part in update
	// resolution. Empty means all stored fields.
	HashFields []string `yaml:"hash_fields,omitempty"`
	// ChunkSize is the number of input files grouped per converted
	// output file.
	ChunkSize int `yaml:"chunk_size,omitempty"`
	// HashDir is the default directory of per-source-file hash JSON.
	HashDir string `yaml:"hash_dir,omitempty"`
	// PMIDDir is the default directory for resolved PMID lists.
	PMIDDir string `yaml:"pmid_dir,omitempty"`
	// CatalogPath is the SQLite document catalog location.
	CatalogPath string `yaml:"catalog_path,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "bibflow"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"

	// DefaultChunkSize groups this many input files per converted output.
	DefaultChunkSize = 2000
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ChunkSize: DefaultChunkSize,
	}
}

// Path returns the config file location. Respects XDG_CONFIG_HOME,
// defaults to ~/.config/bibflow/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the config file at path (or the default location when path is
// empty), returning defaults when no file exists, then applies environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if cfg.ChunkSize < 1 {
		return cfg, fmt.Errorf("chunk_size must be positive, got %d", cfg.ChunkSize)
	}
	return cfg, nil
}

// applyEnv layers BIBFLOW_* variables over the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("BIBFLOW_HASH_FIELDS"); v != "" {
		c.HashFields = splitList(v)
	}
	if v := os.Getenv("BIBFLOW_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ChunkSize = n
		}
	}
	if v := os.Getenv("BIBFLOW_HASH_DIR"); v != "" {
		c.HashDir = v
	}
	if v := os.Getenv("BIBFLOW_PMID_DIR"); v != "" {
		c.PMIDDir = v
	}
	if v := os.Getenv("BIBFLOW_CATALOG"); v != "" {
		c.CatalogPath = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Save writes the config as YAML, creating parent directories.
func Save(path string, cfg Config) error {
	if path == "" {
		path = Path()
	}
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
