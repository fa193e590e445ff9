// Package compress implements the parallel zstd codec of SPEC_FULL.md
// §4.7 (C7): a serial mode for small payloads and a chunked mode that
// splits large payloads into independently compressed chunks, encoded
// and decoded across a bounded worker pool.
//
// Grounded on runtime/decorators/parallel.go's semaphore-channel +
// WaitGroup bounded pool, reused here instead of errgroup (see
// DESIGN.md for why golang.org/x/sync was dropped in favor of matching
// that precedent).
package compress

// Config tunes the codec. It matches the ParallelCompression section of
// SPEC_FULL.md §6's on-disk configuration.
type Config struct {
	Level             int
	ChunkSize         int
	NumWorkers        int
	ParallelThreshold int
}

// DefaultConfig returns reasonable defaults: zstd's default level, 1MiB
// chunks, one worker per chunk up to 8, and a 4MiB threshold below which
// chunking isn't worth its overhead.
func DefaultConfig() Config {
	return Config{
		Level:             3,
		ChunkSize:         1 << 20,
		NumWorkers:        8,
		ParallelThreshold: 4 << 20,
	}
}
