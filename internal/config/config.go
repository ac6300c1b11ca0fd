// Package config loads harness settings from an optional YAML file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds everything the harness needs to know about its environment:
// how to invoke the two tools and where snapshots, scratch files, logs, and
// the run ledger live.
type Config struct {
	// Tool is the base command for the tool under test, e.g.
	// "cargo run --quiet --". Recipe arguments are appended to it.
	Tool string `yaml:"tool"`

	// Reference is the base command for the reference implementation. It is
	// also used for index listings and tree diffs on both result trees.
	Reference string `yaml:"reference"`

	// SnapshotsDir is where archive pairs and working directories live.
	SnapshotsDir string `yaml:"snapshots_dir"`

	// ScratchDir holds transient comparison files and the reference clone.
	ScratchDir string `yaml:"scratch_dir"`

	// LogFile receives all harness and subprocess output at debug level.
	LogFile string `yaml:"log_file"`

	// LedgerFile is the run ledger database. Empty disables the ledger.
	LedgerFile string `yaml:"ledger_file"`

	// IgnorePrefixes lists name prefixes the bulk pack command skips.
	IgnorePrefixes []string `yaml:"ignore_prefixes"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Tool:           "cargo run --quiet --",
		Reference:      "git",
		SnapshotsDir:   "snapshots",
		ScratchDir:     filepath.Join("snapshots", "_scratch"),
		LogFile:        filepath.Join("snapshots", "snapgen.log"),
		LedgerFile:     filepath.Join("snapshots", "snapgen.db"),
		IgnorePrefixes: []string{".", "_"},
	}
}

// Load reads the config file at path, layered over the defaults. A missing
// file is not an error when path is empty (the conventional location is
// simply absent); an explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if path == "" {
		path = "snapgen.yaml"
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Tool == "" {
		return fmt.Errorf("tool command must not be empty")
	}
	if c.Reference == "" {
		return fmt.Errorf("reference command must not be empty")
	}
	if c.SnapshotsDir == "" {
		return fmt.Errorf("snapshots_dir must not be empty")
	}
	if c.ScratchDir == "" {
		return fmt.Errorf("scratch_dir must not be empty")
	}
	return nil
}

// EnsureDirs creates the snapshots and scratch directories if needed.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.SnapshotsDir, c.ScratchDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
