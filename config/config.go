// Package config loads the on-disk YAML configuration recognized by
// docctl and the library entry points it wraps: parallel compression
// tuning, and the prealloc/compression knobs for the document and
// record writers.
package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/docforge/docforge/compress"
	"github.com/docforge/docforge/derrors"
)

// minSupportedFormatVersion and maxSupportedFormatMajor bound the
// FormatVersion values this build accepts, compared with
// golang.org/x/mod/semver (which requires the "v" prefix semver.IsValid
// expects, same normalization the teacher applies in its own semver
// field validation).
const (
	minSupportedFormatVersion = "v1.0.0"
	maxSupportedFormatMajor   = "v1"
)

// ParallelCompression mirrors compress.Config's on-disk shape.
type ParallelCompression struct {
	Level             int `yaml:"level"`
	ChunkSize         int `yaml:"chunk_size"`
	NumThreads        int `yaml:"num_threads"`
	ParallelThreshold int `yaml:"parallel_threshold"`
}

// ToCompressConfig converts the on-disk shape to compress.Config.
func (p ParallelCompression) ToCompressConfig() compress.Config {
	return compress.Config{
		Level:             p.Level,
		ChunkSize:         p.ChunkSize,
		NumWorkers:        p.NumThreads,
		ParallelThreshold: p.ParallelThreshold,
	}
}

// DocumentWriter configures docfile.Writer usage.
type DocumentWriter struct {
	Compression   *ParallelCompression `yaml:"compression,omitempty"`
	Parallel      bool                 `yaml:"parallel"`
	PreallocBytes uint64               `yaml:"prealloc_bytes"`
}

// RecordWriter configures recordlog.Writer usage.
type RecordWriter struct {
	PreallocBytes uint64 `yaml:"prealloc_bytes"`
}

// Config is the root of docctl's recognized configuration file.
type Config struct {
	FormatVersion       string               `yaml:"format_version"`
	ParallelCompression *ParallelCompression `yaml:"parallel_compression,omitempty"`
	DocumentWriter      DocumentWriter       `yaml:"document_writer"`
	RecordWriter        RecordWriter         `yaml:"record_writer"`
}

// Default returns a Config with the minimum supported FormatVersion and
// DocumentWriter.Parallel enabled. ParallelCompression and the document
// writer's compression override are left nil; every numeric field is
// zero.
func Default() *Config {
	return &Config{
		FormatVersion: minSupportedFormatVersion,
		DocumentWriter: DocumentWriter{
			Parallel: true,
		},
	}
}

// Load reads and parses a YAML configuration file at path, validating
// FormatVersion against the range this build supports.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, derrors.E(op, derrors.NotFound, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, derrors.E(op, derrors.Corrupt, fmt.Errorf("parse %s: %w", path, err))
	}

	if err := cfg.validateFormatVersion(); err != nil {
		return nil, derrors.E(op, derrors.Other, err)
	}
	return cfg, nil
}

func (c *Config) validateFormatVersion() error {
	v := normalizeSemver(c.FormatVersion)
	if !semver.IsValid(v) {
		return fmt.Errorf("format_version %q is not a valid semantic version", c.FormatVersion)
	}
	minV := normalizeSemver(minSupportedFormatVersion)
	if semver.Compare(v, minV) < 0 {
		return fmt.Errorf("format_version %q is older than the minimum supported version %q", c.FormatVersion, minSupportedFormatVersion)
	}
	if semver.Major(v) != maxSupportedFormatMajor {
		return fmt.Errorf("format_version %q has major version %q, this build supports %q", c.FormatVersion, semver.Major(v), maxSupportedFormatMajor)
	}
	return nil
}

// normalizeSemver adds the "v" prefix semver.IsValid/semver.Compare
// require, accepting bare version strings like "1.0.0" as well as
// "v1.0.0".
func normalizeSemver(s string) string {
	if !strings.HasPrefix(s, "v") {
		return "v" + s
	}
	return s
}
