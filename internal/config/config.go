// Package config loads the tagloop defaults file.
//
// Every field is optional; command-line flags override what the file sets.
//
//	unit: tagtext
//	count: 4
//	workers: 1
//	flags: ["-e", "-x"]
//	db: runs.db
//	tagtext:
//	  command: groovy
//	  script: ../nlp_uk/src/main/groovy/ua/net/nlp/tools/TagText.groovy
//	  env: ["JAVA_OPTS=-Xmx2g"]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tagloop/internal/unit/tagtext"
)

// DefaultCount is the number of invocations when neither flag nor file set one.
const DefaultCount = 4

// DefaultUnit is the unit run when neither flag nor file names one.
const DefaultUnit = tagtext.Name

// Config holds harness defaults.
type Config struct {
	Unit    string         `yaml:"unit"`
	Count   int            `yaml:"count"`
	Workers int            `yaml:"workers"`
	Flags   []string       `yaml:"flags"`
	DB      string         `yaml:"db"`
	TagText tagtext.Config `yaml:"tagtext"`
}

// Default returns the built-in defaults. Flags stays nil so callers fall
// back to harness.DefaultFlags.
func Default() Config {
	return Config{
		Unit:    DefaultUnit,
		Count:   DefaultCount,
		Workers: 1,
	}
}

// Load reads path over the defaults. An empty file yields Default().
// Unknown keys are rejected. Relative db and tagtext.script paths resolve
// against the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.DB = resolvePath(base, cfg.DB)
	cfg.TagText.Script = resolvePath(base, cfg.TagText.Script)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load for an optional path: "" returns Default().
func LoadOptional(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Unit == "" {
		return fmt.Errorf("unit must not be empty")
	}
	if c.Count < 0 {
		return fmt.Errorf("count must be >= 0, got %d", c.Count)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	return nil
}

func resolvePath(base, p string) string {
	if p == "" || p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
