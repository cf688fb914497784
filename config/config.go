// Package config holds the run configuration, layered from defaults, an
// optional YAML file, PLAYERTIER_* environment variables and CLI flags.
package config

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/YuminosukeSato/playertier/evaluation"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/pkg/log"
	"github.com/YuminosukeSato/playertier/prepare"
)

// Config is the configuration of one run.
type Config struct {
	// Input is the telemetry file.
	Input string `koanf:"input" yaml:"input"`
	// Delimiter is the single-character field separator of every table.
	Delimiter string `koanf:"delimiter" yaml:"delimiter"`
	// OutputDir receives TrainTest/ and Result/.
	OutputDir string `koanf:"output_dir" yaml:"output_dir"`

	Seed          int64   `koanf:"seed" yaml:"seed"`
	TestSize      float64 `koanf:"test_size" yaml:"test_size"`
	MissingPolicy string  `koanf:"missing_policy" yaml:"missing_policy"`

	// Models selects registry keys; empty runs every model.
	Models []string `koanf:"models" yaml:"models"`
	// Workers is the number of models evaluated at once.
	Workers int `koanf:"workers" yaml:"workers"`

	Plots       bool `koanf:"plots" yaml:"plots"`
	MetricsFile bool `koanf:"metrics_file" yaml:"metrics_file"`

	Params  evaluation.Params `koanf:"params" yaml:"params"`
	History HistoryConfig     `koanf:"history" yaml:"history"`
	Log     LogConfig         `koanf:"log" yaml:"log"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Path    string `koanf:"path" yaml:"path"`
	// Keep bounds the stored runs; 0 keeps every run.
	Keep int `koanf:"keep" yaml:"keep"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Input:         filepath.Join("Data", "online_gaming_behavior_dataset.csv"),
		Delimiter:     ",",
		OutputDir:     "Data",
		Seed:          prepare.DefaultSeed,
		TestSize:      prepare.DefaultTestSize,
		MissingPolicy: string(prepare.MissingDrop),
		Workers:       1,
		Plots:         true,
		MetricsFile:   true,
		Params:        evaluation.DefaultParams(),
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join("Data", "history.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: log.FormatConsole,
		},
	}
}

// Comma returns the delimiter as a rune.
func (c *Config) Comma() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// Policy returns the parsed missing-value policy.
func (c *Config) Policy() prepare.MissingPolicy {
	p, _ := prepare.ParseMissingPolicy(c.MissingPolicy)
	return p
}

// Validate checks every field and normalises the model list.
func (c *Config) Validate() error {
	if c.Input == "" {
		return invalid("input", "must not be empty", c.Input)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 || c.Delimiter == "\n" || c.Delimiter == "\r" || c.Delimiter == `"` {
		return invalid("delimiter", "must be a single character other than a quote or newline", c.Delimiter)
	}
	if c.OutputDir == "" {
		return invalid("output_dir", "must not be empty", c.OutputDir)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return invalid("test_size", "must be in (0, 1)", c.TestSize)
	}
	if _, err := prepare.ParseMissingPolicy(c.MissingPolicy); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if c.Workers < 0 {
		return invalid("workers", "must be non-negative", c.Workers)
	}

	c.Models = splitList(c.Models)
	if _, err := evaluation.DefaultRegistry().Select(c.Models); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}

	p := c.Params
	if p.Trees < 1 || p.Neighbors < 1 || p.Epochs < 1 || p.BatchSize < 1 {
		return invalid("params", "trees, neighbors, epochs and batch_size must be positive", p)
	}
	if p.C <= 0 || p.LearningRate <= 0 {
		return invalid("params", "c and learning_rate must be positive", p)
	}
	if p.Jobs < 0 {
		return invalid("params.jobs", "must be non-negative", p.Jobs)
	}

	if c.History.Enabled && c.History.Path == "" {
		return invalid("history.path", "must be set when history is enabled", c.History.Path)
	}
	if c.History.Keep < 0 {
		return invalid("history.keep", "must be non-negative", c.History.Keep)
	}

	if _, err := log.ToLogLevel(c.Log.Level); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	switch strings.ToLower(c.Log.Format) {
	case log.FormatConsole, log.FormatJSON:
	default:
		return invalid("log.format", "must be console or json", c.Log.Format)
	}
	return nil
}

// splitList flattens comma-separated entries, as env variables deliver
// lists as one string.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func invalid(field, reason string, value interface{}) error {
	return errors.Wrap(ErrInvalidConfig, errors.NewValidationError(field, reason, value).Error())
}
