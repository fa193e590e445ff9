package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/docforge/docforge/derrors"
	"github.com/docforge/docforge/docfile"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// encoderLevel maps a CLI-style zstd level (1-22) onto the library's
// coarser EncoderLevel enum, which only exposes four speed/ratio presets
// rather than the full numeric scale.
func encoderLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 3:
		return zstd.SpeedDefault
	case level <= 9:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// Codec compresses and decompresses segment bodies for docfile, picking
// between a single zstd frame and a chunked, independently-parallel-
// decodable frame based on Config.ParallelThreshold.
type Codec struct {
	cfg     Config
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New builds a Codec. The returned Codec owns background goroutines via
// its zstd encoder/decoder; call Close when done with it.
func New(cfg Config) (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel(cfg.Level)))
	if err != nil {
		return nil, fmt.Errorf("compress: new zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("compress: new zstd decoder: %w", err)
	}
	return &Codec{cfg: cfg, encoder: enc, decoder: dec}, nil
}

// Close releases the codec's background goroutines.
func (c *Codec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

// CompressedResult is one item's output from CompressBatch.
type CompressedResult struct {
	Data            []byte
	Mode            docfile.CompressionMode
	UncompressedLen uint64
}

// Compress encodes data, choosing serial mode for small payloads and
// chunked mode once data crosses Config.ParallelThreshold.
func (c *Codec) Compress(data []byte) (CompressedResult, error) {
	if len(data) < c.cfg.ParallelThreshold {
		out, err := c.compressSerial(data)
		if err != nil {
			return CompressedResult{}, err
		}
		return CompressedResult{Data: out, Mode: docfile.CompressionZstdSerial, UncompressedLen: uint64(len(data))}, nil
	}
	out, err := c.compressChunked(data)
	if err != nil {
		return CompressedResult{}, err
	}
	return CompressedResult{Data: out, Mode: docfile.CompressionZstdChunked, UncompressedLen: uint64(len(data))}, nil
}

// CompressBatch compresses every item, preserving order.
func (c *Codec) CompressBatch(items [][]byte) ([]CompressedResult, error) {
	out := make([]CompressedResult, len(items))
	for i, item := range items {
		r, err := c.Compress(item)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (c *Codec) compressSerial(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (c *Codec) compressChunked(data []byte) ([]byte, error) {
	chunkSize := c.cfg.ChunkSize
	if chunkSize < 1 {
		chunkSize = DefaultConfig().ChunkSize
	}
	var chunks [][]byte
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[off:end])
	}

	compressed, err := parallelMap(c.cfg.NumWorkers, chunks, func(_ int, chunk []byte) ([]byte, error) {
		// EncodeAll is documented safe for concurrent use on a shared
		// *zstd.Encoder, so every worker compresses through c.encoder
		// rather than constructing one per chunk.
		return c.encoder.EncodeAll(chunk, nil), nil
	})
	if err != nil {
		return nil, derrors.E("compress.compress_chunked", derrors.CompressionError, err)
	}

	// chunk_count:u32 followed by every (uncompressed_len,
	// compressed_len) pair up front, then all chunk bytes concatenated
	// — no magic, and the length table is not interleaved with bodies.
	var buf bytes.Buffer
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(chunks)))
	buf.Write(countBuf[:])
	for i, chunk := range chunks {
		var lenBuf [8]byte
		binary.BigEndian.PutUint32(lenBuf[0:4], uint32(len(chunk)))
		binary.BigEndian.PutUint32(lenBuf[4:8], uint32(len(compressed[i])))
		buf.Write(lenBuf[:])
	}
	for _, c := range compressed {
		buf.Write(c)
	}
	return buf.Bytes(), nil
}

// Decompress decodes data produced by Compress. The chunked frame
// carries no magic of its own, so detection relies on the real zstd
// magic identifying a serial frame; anything else is assumed to be the
// chunked frame, the only other shape Compress ever produces.
func (c *Codec) Decompress(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		out, err := c.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, derrors.E("compress.decompress", derrors.CompressionError, err)
		}
		return out, nil
	}
	return c.decompressChunked(data)
}

func (c *Codec) decompressChunked(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, derrors.E("compress.decompress", derrors.Truncated, fmt.Errorf("chunked frame header truncated"))
	}
	count := binary.BigEndian.Uint32(data[0:4])
	pos := 4
	chunkLens := make([][2]uint32, 0, count) // uncompressed, compressed
	for i := uint32(0); i < count; i++ {
		if pos+8 > len(data) {
			return nil, derrors.E("compress.decompress", derrors.Truncated, fmt.Errorf("chunk %d length pair truncated", i))
		}
		uncompressedLen := binary.BigEndian.Uint32(data[pos : pos+4])
		compressedLen := binary.BigEndian.Uint32(data[pos+4 : pos+8])
		pos += 8
		chunkLens = append(chunkLens, [2]uint32{uncompressedLen, compressedLen})
	}

	chunks := make([][]byte, 0, count)
	expectedLens := make([]uint32, 0, count)
	for i, lens := range chunkLens {
		compressedLen := int(lens[1])
		if pos+compressedLen > len(data) {
			return nil, derrors.E("compress.decompress", derrors.Truncated, fmt.Errorf("chunk %d body truncated", i))
		}
		chunks = append(chunks, data[pos:pos+compressedLen])
		expectedLens = append(expectedLens, lens[0])
		pos += compressedLen
	}

	decoded, err := parallelMap(c.cfg.NumWorkers, chunks, func(_ int, chunk []byte) ([]byte, error) {
		return c.decoder.DecodeAll(chunk, nil)
	})
	if err != nil {
		return nil, derrors.E("compress.decompress", derrors.CompressionError, err)
	}

	var out bytes.Buffer
	for i, d := range decoded {
		if uint32(len(d)) != expectedLens[i] {
			return nil, derrors.E("compress.decompress", derrors.Corrupt,
				fmt.Errorf("chunk %d decoded to %d bytes, expected %d", i, len(d), expectedLens[i]))
		}
		out.Write(d)
	}
	return out.Bytes(), nil
}
