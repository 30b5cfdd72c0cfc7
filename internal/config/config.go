// Package config loads the qweights YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/born-ml/qweights/internal/logger"
	"github.com/born-ml/qweights/internal/parallel"
	"github.com/born-ml/qweights/internal/quant"
	"gopkg.in/yaml.v3"
)

// File is the qweights configuration file (~/.config/qweights/config.yaml).
// Numeric fields are pointers so "not set" differs from zero.
type File struct {
	// Quantization
	BitWidth    *uint  `yaml:"bit_width"`
	ScalingMode string `yaml:"scaling_mode"`

	// Parallel execution
	Workers  *int `yaml:"workers"`
	MinChunk *int `yaml:"min_chunk"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultPath returns the per-user config file location, or "" when the
// config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "qweights", "config.yaml")
}

// Load reads the config file at path. A missing file yields a zero File.
func Load(path string) (File, error) {
	if path == "" {
		return File{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return File{}, nil
	}
	if err != nil {
		return File{}, fmt.Errorf("config: %w", err)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return File{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a config document. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, err
	}
	return f, nil
}

// Params returns the quantizer options as ParseParams input, starting from
// quant.DefaultConfig and applying every key that is set.
func (f File) Params() map[string]string {
	params := quant.DefaultConfig().Params()
	if f.BitWidth != nil {
		params[quant.KeyBitWidth] = strconv.FormatUint(uint64(*f.BitWidth), 10)
	}
	if f.ScalingMode != "" {
		params[quant.KeyScalingMode] = f.ScalingMode
	}
	return params
}

// Quant returns the validated quantizer configuration.
func (f File) Quant() (quant.Config, error) {
	return quant.ParseParams(f.Params())
}

// Parallel returns the worker settings, starting from parallel.DefaultConfig.
// workers: 1 disables parallel execution.
func (f File) Parallel() (parallel.Config, error) {
	cfg := parallel.DefaultConfig()
	if f.Workers != nil {
		if *f.Workers < 1 {
			return cfg, fmt.Errorf("config: workers must be >= 1, got %d", *f.Workers)
		}
		cfg.NumWorkers = *f.Workers
		cfg.Enabled = *f.Workers > 1
	}
	if f.MinChunk != nil {
		if *f.MinChunk < 1 {
			return cfg, fmt.Errorf("config: min_chunk must be >= 1, got %d", *f.MinChunk)
		}
		cfg.MinChunkSize = *f.MinChunk
	}
	return cfg, nil
}

// Level returns the configured log level.
func (f File) Level() (slog.Level, error) {
	return logger.ParseLevel(f.LogLevel)
}

// Format returns the configured log format.
func (f File) Format() (logger.Format, error) {
	return logger.ParseFormat(f.LogFormat)
}
