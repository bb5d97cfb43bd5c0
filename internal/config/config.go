// Package config loads refscan settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the conventional config file name.
const DefaultFile = ".refscan.yaml"

// Config holds every setting that can also be given as a flag.
// Pointer fields distinguish "unset" from the zero value.
type Config struct {
	SourceTypes  []string `yaml:"sourcetypes,omitempty"`
	Exclude      []string `yaml:"exclude,omitempty"`
	NoRecursive  *bool    `yaml:"sourcetypes-no-recursive,omitempty"`
	SearchTypes  []string `yaml:"searchtypes,omitempty"`
	Format       string   `yaml:"format,omitempty"`
	Gitignore    *bool    `yaml:"gitignore,omitempty"`
	Workers      *int     `yaml:"workers,omitempty"`
	Strict       *bool    `yaml:"strict,omitempty"`
	FailOnUnused *bool    `yaml:"fail-on-unused,omitempty"`
}

// Defaults returns the settings used when neither flags nor a file set a value.
func Defaults() Config {
	f := false
	zero := 0
	return Config{
		SourceTypes:  []string{".js"},
		Exclude:      []string{"entry", "main", "spec"},
		NoRecursive:  &f,
		SearchTypes:  []string{".jsp", ".tag", ".html"},
		Format:       "text",
		Gitignore:    &f,
		Workers:      &zero,
		Strict:       &f,
		FailOnUnused: &f,
	}
}

// Load reads and validates the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config data. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that YAML decoding alone cannot.
func (c Config) Validate() error {
	if c.Format != "" && !ValidFormat(c.Format) {
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", *c.Workers)
	}
	return nil
}

// Merge returns c with every unset field taken from base.
func (c Config) Merge(base Config) Config {
	out := c
	if out.SourceTypes == nil {
		out.SourceTypes = base.SourceTypes
	}
	if out.Exclude == nil {
		out.Exclude = base.Exclude
	}
	if out.NoRecursive == nil {
		out.NoRecursive = base.NoRecursive
	}
	if out.SearchTypes == nil {
		out.SearchTypes = base.SearchTypes
	}
	if out.Format == "" {
		out.Format = base.Format
	}
	if out.Gitignore == nil {
		out.Gitignore = base.Gitignore
	}
	if out.Workers == nil {
		out.Workers = base.Workers
	}
	if out.Strict == nil {
		out.Strict = base.Strict
	}
	if out.FailOnUnused == nil {
		out.FailOnUnused = base.FailOnUnused
	}
	return out
}

// Marshal encodes c as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Formats lists the supported report formats.
var Formats = []string{"text", "json", "yaml", "toon"}

// ValidFormat reports whether name is one of Formats.
func ValidFormat(name string) bool {
	for _, f := range Formats {
		if f == name {
			return true
		}
	}
	return false
}
