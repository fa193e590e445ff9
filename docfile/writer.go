package docfile

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/docforge/docforge/derrors"
)

// SegmentInput is one segment to add. Body is the bytes as they'll
// land on disk — already compressed by the caller via the compress
// package if Compression != CompressionNone. UncompressedBody is the
// original payload before compression; its SHA-256 and length are what
// get recorded in the directory, so a reader can verify content
// independent of whatever compression was applied.
type SegmentInput struct {
	Kind             SegmentKind
	Compression      CompressionMode
	Body             []byte
	UncompressedBody []byte
}

// Writer builds a document file. Finalize is mandatory: a file with a
// header and segment frames but no footer is not a valid docfile, and
// Reader.Open will refuse to open it.
type Writer struct {
	file      *os.File
	hasher    *blake2b256Hasher
	entries   []dirEntry
	offset    uint64
	finalized bool
}

// Begin creates path and writes its header.
func Begin(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, derrors.E("docfile.begin", derrors.IO, err)
	}
	hasher, err := newBlake2b256Hasher()
	if err != nil {
		f.Close()
		return nil, derrors.E("docfile.begin", derrors.IO, err)
	}

	header := encodeHeader(time.Now().Unix())
	if _, err := f.Write(header); err != nil {
		f.Close()
		return nil, derrors.E("docfile.begin", derrors.IO, fmt.Errorf("write header: %w", err))
	}
	hasher.Write(header)

	return &Writer{file: f, hasher: hasher, offset: uint64(len(header))}, nil
}

// AddSegment appends one segment frame and records its directory entry.
// It returns the segment's index.
func (w *Writer) AddSegment(in SegmentInput) (int, error) {
	if w.finalized {
		return 0, derrors.E("docfile.add_segment", derrors.InvariantViolation, fmt.Errorf("writer already finalized"))
	}

	sum := sha256.Sum256(in.UncompressedBody)
	uncompressedLen := uint64(len(in.UncompressedBody))
	frame := encodeSegmentFrame(in.Kind, in.Compression, uncompressedLen, in.Body, sum)
	if _, err := w.file.Write(frame); err != nil {
		return 0, derrors.E("docfile.add_segment", derrors.IO, err)
	}
	w.hasher.Write(frame)

	bodyOffset := w.offset + segmentFrameBodyOffset(len(in.Kind))
	entry := dirEntry{
		Kind:            in.Kind,
		Offset:          bodyOffset,
		Length:          uint64(len(in.Body)),
		UncompressedLen: uncompressedLen,
		Compression:     in.Compression,
		SHA256:          sum,
	}
	w.entries = append(w.entries, entry)
	w.offset += uint64(len(frame))
	return len(w.entries) - 1, nil
}

// AddSegmentsBatch adds every input in order, returning their indices.
func (w *Writer) AddSegmentsBatch(inputs []SegmentInput) ([]int, error) {
	indices := make([]int, 0, len(inputs))
	for _, in := range inputs {
		idx, err := w.AddSegment(in)
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// Finalize writes the directory and footer and returns the whole-file
// BLAKE2b-256 digest over everything written before the footer itself;
// the digest is not stored in the file.
// It must be called exactly once; a Writer that is never finalized has
// produced a file a Reader will reject.
func (w *Writer) Finalize() ([32]byte, error) {
	if w.finalized {
		return [32]byte{}, derrors.E("docfile.finalize", derrors.InvariantViolation, fmt.Errorf("writer already finalized"))
	}

	dirOffset := w.offset
	// entries_count:u32 prefixes the directory blob itself.
	dirBuf := make([]byte, 4, 4+len(w.entries)*64)
	binary.LittleEndian.PutUint32(dirBuf[0:4], uint32(len(w.entries)))
	for _, e := range w.entries {
		dirBuf = append(dirBuf, encodeDirEntry(e)...)
	}
	if _, err := w.file.Write(dirBuf); err != nil {
		return [32]byte{}, derrors.E("docfile.finalize", derrors.IO, fmt.Errorf("write directory: %w", err))
	}
	w.hasher.Write(dirBuf)
	w.offset += uint64(len(dirBuf))

	digest := w.hasher.Sum()

	footerBuf := encodeFooter(dirOffset, uint64(len(dirBuf)))
	if _, err := w.file.Write(footerBuf); err != nil {
		return [32]byte{}, derrors.E("docfile.finalize", derrors.IO, fmt.Errorf("write footer: %w", err))
	}

	if err := w.file.Sync(); err != nil {
		return [32]byte{}, derrors.E("docfile.finalize", derrors.IO, fmt.Errorf("fsync: %w", err))
	}
	if err := w.file.Close(); err != nil {
		return [32]byte{}, derrors.E("docfile.finalize", derrors.IO, err)
	}

	w.finalized = true
	return digest, nil
}

// blake2b256Hasher wraps golang.org/x/crypto/blake2b for incremental
// whole-file hashing while writing, mirroring core/planfmt's
// hasher-while-streaming pattern in reader.go/writer.go.
type blake2b256Hasher struct {
	h interface {
		io.Writer
		Sum([]byte) []byte
	}
}

func newBlake2b256Hasher() (*blake2b256Hasher, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("docfile: init blake2b-256: %w", err)
	}
	return &blake2b256Hasher{h: h}, nil
}

func (b *blake2b256Hasher) Write(p []byte) { b.h.Write(p) }

func (b *blake2b256Hasher) Sum() [32]byte {
	var out [32]byte
	copy(out[:], b.h.Sum(nil))
	return out
}
