package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml"
	"github.com/santhosh-tekuri/jsonschema/v6"

	deierrors "github.com/panbanda/dei/pkg/errors"
)

//go:embed schema.json
var schemaJSON []byte

// Config holds all configuration options for dei.
type Config struct {
	// Size and clustering policy
	Thresholds Thresholds `koanf:"thresholds" toml:"thresholds"`

	// File exclusion rules applied by the tree builder
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Engine settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Clustering backend parameters
	Clustering ClusteringConfig `koanf:"clustering" toml:"clustering"`

	// Extraction cache keyed by file content
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	Output OutputConfig `koanf:"output" toml:"output"`
	Log    LogConfig    `koanf:"log" toml:"log"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// AnalysisConfig controls the analysis engine.
type AnalysisConfig struct {
	Workers    int    `koanf:"workers" toml:"workers" comment:"0 uses twice the CPU count"`
	Timeout    string `koanf:"timeout" toml:"timeout" comment:"whole-run budget, e.g. 2m; empty disables"`
	Cluster    bool   `koanf:"cluster" toml:"cluster" comment:"suggest extractions for god classes"`
	SkipErrors bool   `koanf:"skip_errors" toml:"skip_errors" comment:"log and skip files that fail to parse instead of aborting"`
}

// ClusteringConfig tunes the density-based clustering of methods.
type ClusteringConfig struct {
	MinPoints  int     `koanf:"min_points" toml:"min_points"`
	Tolerance  float64 `koanf:"tolerance" toml:"tolerance" comment:"0 derives the distance from thresholds.cluster_threshold"`
	Dimensions int     `koanf:"dimensions" toml:"dimensions"`
}

// CacheConfig controls the on-disk extraction cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl" comment:"hours"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, yaml, markdown, toon, html
	Color  bool   `koanf:"color" toml:"color"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `koanf:"level" toml:"level"`
	Format string `koanf:"format" toml:"format"` // text or json
}

// DefaultIgnoreDirs are directory names skipped wherever they appear in a path.
var DefaultIgnoreDirs = []string{
	"target",
	"bin",
	"obj",
	"node_modules",
	".git",
	"dist",
	"build",
	"__pycache__",
	"vendor",
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: DefaultThresholds(),
		Exclude: ExcludeConfig{
			Dirs:      append([]string(nil), DefaultIgnoreDirs...),
			Gitignore: true,
		},
		Analysis: AnalysisConfig{
			Cluster: true,
		},
		Clustering: ClusteringConfig{
			MinPoints:  3,
			Dimensions: 64,
		},
		Cache: CacheConfig{
			Dir: ".dei/cache",
			TTL: 24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// ConfigNames are the file names searched by LoadOrDefault, in order.
var ConfigNames = []string{
	"dei.toml",
	".dei.toml",
	"dei.yaml",
	"dei.yml",
	".dei.yaml",
	"dei.json",
}

// Load loads configuration from a file over the defaults, validates the raw
// document against the embedded schema and checks the threshold policy.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = koanfjson.Parser()
	default:
		parser = toml.Parser()
	}

	if _, err := os.Stat(path); err != nil {
		return nil, deierrors.WrapConfig(err, "reading %s", path)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, deierrors.WrapConfig(err, "parsing %s", path)
	}
	if err := validateSchema(k.Raw()); err != nil {
		return nil, deierrors.WrapConfig(err, "%s does not match schema", path)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, deierrors.WrapConfig(err, "decoding %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when given, otherwise the first config file found
// in the working directory, otherwise the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	for _, name := range ConfigNames {
		if _, err := os.Stat(name); err == nil {
			return Load(name)
		}
	}
	return DefaultConfig(), nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if c.Analysis.Workers < 0 {
		return deierrors.Config("analysis.workers must be >= 0")
	}
	if _, err := c.Timeout(); err != nil {
		return deierrors.Config("analysis.timeout must be a duration like 30s or 2m")
	}
	if c.Clustering.MinPoints < 1 {
		return deierrors.Config("clustering.min_points must be >= 1")
	}
	if c.Clustering.Dimensions < 1 {
		return deierrors.Config("clustering.dimensions must be >= 1")
	}
	if c.Clustering.Tolerance < 0 {
		return deierrors.Config("clustering.tolerance must be >= 0")
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return deierrors.Config("cache.dir is required when the cache is enabled")
	}
	if c.Cache.TTL < 0 {
		return deierrors.Config("cache.ttl must be >= 0")
	}
	return nil
}

// Timeout returns the whole-run budget, zero when unset.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Analysis.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Analysis.Timeout)
}

// WriteTOML writes the config as a TOML document.
func (c *Config) WriteTOML(w io.Writer) error {
	data, err := gotoml.Marshal(c)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func validateSchema(raw map[string]interface{}) error {
	compiler := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return err
	}
	if err := compiler.AddResource("dei-config.json", doc); err != nil {
		return err
	}
	schema, err := compiler.Compile("dei-config.json")
	if err != nil {
		return err
	}

	// Round-trip through JSON so TOML and YAML values have JSON types.
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return schema.Validate(inst)
}
