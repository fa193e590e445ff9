package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docforge/docforge/config"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "docctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadParsesRecognizedOptions(t *testing.T) {
	path := writeTempConfig(t, `
format_version: "1.2.0"
parallel_compression:
  level: 5
  chunk_size: 2097152
  num_threads: 4
  parallel_threshold: 8388608
document_writer:
  parallel: true
  prealloc_bytes: 65536
  compression:
    level: 5
    chunk_size: 2097152
    num_threads: 4
    parallel_threshold: 8388608
record_writer:
  prealloc_bytes: 4096
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "1.2.0", cfg.FormatVersion)
	require.NotNil(t, cfg.ParallelCompression)
	require.Equal(t, 5, cfg.ParallelCompression.Level)
	require.Equal(t, 4, cfg.ParallelCompression.NumThreads)
	require.True(t, cfg.DocumentWriter.Parallel)
	require.EqualValues(t, 65536, cfg.DocumentWriter.PreallocBytes)
	require.NotNil(t, cfg.DocumentWriter.Compression)
	require.EqualValues(t, 4096, cfg.RecordWriter.PreallocBytes)

	cc := cfg.ParallelCompression.ToCompressConfig()
	require.Equal(t, 5, cc.Level)
	require.Equal(t, 4, cc.NumWorkers)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeTempConfig(t, "format_version: [not, a, scalar\n")
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsTooOldFormatVersion(t *testing.T) {
	path := writeTempConfig(t, "format_version: \"0.1.0\"\n")
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnsupportedMajorVersion(t *testing.T) {
	path := writeTempConfig(t, "format_version: \"2.0.0\"\n")
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDefaultIsLoadable(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, "v1.0.0", cfg.FormatVersion)
	require.True(t, cfg.DocumentWriter.Parallel)
}
