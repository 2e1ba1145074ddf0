package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"auction-analytics/internal/normalize"
)

// EnvPrefix prefixes every environment override, e.g. MEXA_WORKERS.
const EnvPrefix = "MEXA"

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceJSON     = "json"
)

// Config is the on-disk configuration shape (YAML) of one experiment.
type Config struct {
	Experiment string `yaml:"experiment" envconfig:"EXPERIMENT"`

	// RunsDir holds one directory per run, named by RunPattern and the run index.
	RunsDir    string `yaml:"runs_dir" envconfig:"RUNS_DIR"`
	RunPattern string `yaml:"run_pattern" envconfig:"RUN_PATTERN"`
	Runs       int    `yaml:"runs" envconfig:"RUNS"`
	FirstRun   int    `yaml:"first_run" envconfig:"FIRST_RUN"`

	// Days restricts scoring; empty means every day found in the data.
	Days    []int `yaml:"days" envconfig:"DAYS"`
	Workers int   `yaml:"workers" envconfig:"WORKERS"`

	// Optional: one limit price file shared by every run that has no schedule
	// of its own (e.g. LIMITPRICES_1.csv next to the config).
	LimitPricesFile string `yaml:"limit_prices_file" envconfig:"LIMIT_PRICES_FILE"`

	Normalization NormalizationConfig `yaml:"normalization" envconfig:"NORMALIZATION"`
	Source        SourceConfig        `yaml:"source" envconfig:"SOURCE"`
	Output        OutputConfig        `yaml:"output" envconfig:"OUTPUT"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOG"`
}

type NormalizationConfig struct {
	Name   string         `yaml:"name" json:"name" envconfig:"NAME"`
	Params map[string]any `yaml:"params" json:"params" ignored:"true"`
}

type SourceConfig struct {
	Type         string        `yaml:"type" envconfig:"TYPE"`
	DSN          string        `yaml:"dsn" envconfig:"DSN"`
	Path         string        `yaml:"path" envconfig:"BUNDLE"`
	QueryTimeout time.Duration `yaml:"query_timeout" envconfig:"QUERY_TIMEOUT"`
}

type OutputConfig struct {
	JSON     string `yaml:"json" envconfig:"JSON"`
	CellsCSV string `yaml:"cells_csv" envconfig:"CELLS_CSV"`
	XLSX     string `yaml:"xlsx" envconfig:"XLSX"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads the file and resolves relative paths, but applies no
// environment overrides, defaults or validation.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	base := filepath.Dir(path)
	c.RunsDir = resolvePath(base, c.RunsDir)
	c.LimitPricesFile = resolvePath(base, c.LimitPricesFile)
	c.Source.Path = resolvePath(base, c.Source.Path)
	return &c, nil
}

// ApplyEnv overlays MEXA_* environment variables onto c. Unset variables
// leave the file values alone.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("load config from env: %w", err)
	}
	return nil
}

// resolvePath prefers interpreting relative paths as relative to the config
// file directory, falling back to the path as given (relative to cwd).
func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	cand := filepath.Join(base, p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

func (c *Config) applyDefaults() {
	if c.RunPattern == "" {
		c.RunPattern = "runs__%d"
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Normalization.Name == "" {
		c.Normalization.Name = normalize.NameFixed
	}
	if c.Source.Type == "" {
		c.Source.Type = SourceCSV
	}
	if c.Source.QueryTimeout == 0 {
		c.Source.QueryTimeout = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Runs <= 0 {
		return errors.New("runs must be > 0")
	}
	if c.FirstRun < 0 {
		return errors.New("first_run must be >= 0")
	}
	if c.Workers < 0 {
		return errors.New("workers must be >= 0")
	}
	switch c.Source.Type {
	case SourceCSV:
		if c.RunsDir == "" {
			return errors.New("runs_dir is required for the csv source")
		}
		if strings.Count(c.RunPattern, "%d") != 1 {
			return fmt.Errorf("run_pattern %q must contain exactly one %%d", c.RunPattern)
		}
	case SourcePostgres:
		if c.Source.DSN == "" {
			return errors.New("source.dsn is required for the postgres source")
		}
		if c.Experiment == "" {
			return errors.New("experiment is required for the postgres source")
		}
	case SourceJSON:
		if c.Source.Path == "" {
			return errors.New("source.path is required for the json source")
		}
	default:
		return fmt.Errorf("unsupported source.type: %q", c.Source.Type)
	}
	if _, err := c.Normalizer(); err != nil {
		return fmt.Errorf("normalization config invalid: %w", err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported logging.format: %q", c.Logging.Format)
	}
	return nil
}

// Normalizer builds the configured trade ratio normalizer.
func (c *Config) Normalizer() (normalize.Normalizer, error) {
	return normalize.FromConfig(c.Normalization.Name, c.Normalization.Params)
}

// RunIndices lists the configured run indices in order.
func (c *Config) RunIndices() []int {
	out := make([]int, c.Runs)
	for i := range out {
		out[i] = c.FirstRun + i
	}
	return out
}

// RunDir is the directory holding run i.
func (c *Config) RunDir(i int) string {
	return filepath.Join(c.RunsDir, fmt.Sprintf(c.RunPattern, i))
}

// MergeNormalization overlays non-zero fields from override onto base.
// Params are merged key by key so a request can change one parameter.
func MergeNormalization(base, override NormalizationConfig) NormalizationConfig {
	out := NormalizationConfig{Name: base.Name}
	if override.Name != "" && override.Name != base.Name {
		// a different normalizer shares no parameters with the base one
		out.Name = override.Name
		out.Params = copyParams(override.Params)
		return out
	}
	out.Params = copyParams(base.Params)
	for k, v := range override.Params {
		if out.Params == nil {
			out.Params = map[string]any{}
		}
		out.Params[k] = v
	}
	return out
}

func copyParams(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
