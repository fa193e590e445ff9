package compress_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docforge/docforge/compress"
	"github.com/docforge/docforge/docfile"
)

func TestCompressDecompressSerialRoundTrip(t *testing.T) {
	cfg := compress.DefaultConfig()
	c, err := compress.New(cfg)
	require.NoError(t, err)
	defer c.Close()

	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 100)
	result, err := c.Compress(data)
	require.NoError(t, err)
	require.Equal(t, docfile.CompressionZstdSerial, result.Mode)

	out, err := c.Decompress(result.Data)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestCompressDecompressChunkedRoundTrip(t *testing.T) {
	cfg := compress.DefaultConfig()
	cfg.ParallelThreshold = 1024
	cfg.ChunkSize = 4096
	c, err := compress.New(cfg)
	require.NoError(t, err)
	defer c.Close()

	data := bytes.Repeat([]byte("payload-chunk-content-"), 5000)
	result, err := c.Compress(data)
	require.NoError(t, err)
	require.Equal(t, docfile.CompressionZstdChunked, result.Mode)

	out, err := c.Decompress(result.Data)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestCompressBatchPreservesOrder(t *testing.T) {
	cfg := compress.DefaultConfig()
	c, err := compress.New(cfg)
	require.NoError(t, err)
	defer c.Close()

	inputs := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	results, err := c.CompressBatch(inputs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, in := range inputs {
		out, err := c.Decompress(results[i].Data)
		require.NoError(t, err)
		require.Equal(t, in, out)
	}
}

func TestDecompressRejectsUnknownFrame(t *testing.T) {
	cfg := compress.DefaultConfig()
	c, err := compress.New(cfg)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Decompress([]byte("not a real compressed frame"))
	require.Error(t, err)
}

func TestDecompressChunkedRejectsTruncatedFrame(t *testing.T) {
	cfg := compress.DefaultConfig()
	cfg.ParallelThreshold = 1
	cfg.ChunkSize = 64
	c, err := compress.New(cfg)
	require.NoError(t, err)
	defer c.Close()

	data := bytes.Repeat([]byte("abcdefgh"), 50)
	result, err := c.Compress(data)
	require.NoError(t, err)
	require.Equal(t, docfile.CompressionZstdChunked, result.Mode)

	truncated := result.Data[:len(result.Data)-10]
	_, err = c.Decompress(truncated)
	require.Error(t, err)
}
