package docfile

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/docforge/docforge/derrors"
)

// SegmentInfo is a directory entry exposed to readers, without the
// package-private dirEntry type.
type SegmentInfo struct {
	Kind            SegmentKind
	Compression     CompressionMode
	UncompressedLen uint64
	CompressedLen   uint64
	SHA256          [32]byte
}

// Reader opens a finalized document file for random or sequential
// segment access. Open locates the footer directly at the last
// footerSize bytes of the file rather than scanning, since Finalize
// always writes it there.
type Reader struct {
	file    *os.File
	entries []dirEntry
}

// Open opens path, validates its header and footer, and loads its
// segment directory.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, derrors.E("docfile.open", derrors.IO, err)
	}

	headerBuf := make([]byte, headerSize)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		f.Close()
		return nil, derrors.E("docfile.open", derrors.Truncated, fmt.Errorf("read header: %w", err))
	}
	if err := decodeHeader(headerBuf); err != nil {
		f.Close()
		return nil, derrors.E("docfile.open", derrors.Corrupt, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, derrors.E("docfile.open", derrors.IO, err)
	}
	if info.Size() < int64(headerSize+footerSize) {
		f.Close()
		return nil, derrors.E("docfile.open", derrors.Truncated, fmt.Errorf("file too small to contain a footer"))
	}

	footerBuf := make([]byte, footerSize)
	if _, err := f.ReadAt(footerBuf, info.Size()-int64(footerSize)); err != nil {
		f.Close()
		return nil, derrors.E("docfile.open", derrors.Truncated, fmt.Errorf("read footer: %w", err))
	}
	ft, err := decodeFooter(footerBuf)
	if err != nil {
		f.Close()
		return nil, derrors.E("docfile.open", derrors.Corrupt, err)
	}

	dirBuf := make([]byte, ft.DirLen)
	if _, err := f.ReadAt(dirBuf, int64(ft.DirOffset)); err != nil {
		f.Close()
		return nil, derrors.E("docfile.open", derrors.Truncated, fmt.Errorf("read directory: %w", err))
	}
	if len(dirBuf) < 4 {
		f.Close()
		return nil, derrors.E("docfile.open", derrors.Corrupt, fmt.Errorf("directory missing entries_count"))
	}
	count := binary.LittleEndian.Uint32(dirBuf[0:4])
	pos := 4
	entries := make([]dirEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		entry, n, err := decodeDirEntry(dirBuf[pos:])
		if err != nil {
			f.Close()
			return nil, derrors.E("docfile.open", derrors.Corrupt, err)
		}
		entries = append(entries, entry)
		pos += n
	}

	return &Reader{file: f, entries: entries}, nil
}

// SegmentCount returns the number of segments in the directory.
func (r *Reader) SegmentCount() int { return len(r.entries) }

func toInfo(e dirEntry) SegmentInfo {
	return SegmentInfo{
		Kind:            e.Kind,
		Compression:     e.Compression,
		UncompressedLen: e.UncompressedLen,
		CompressedLen:   e.Length,
		SHA256:          e.SHA256,
	}
}

// GetSegment returns the metadata and raw on-disk (possibly compressed)
// body bytes of segment i.
func (r *Reader) GetSegment(i int) (SegmentInfo, []byte, error) {
	if i < 0 || i >= len(r.entries) {
		return SegmentInfo{}, nil, derrors.E("docfile.get_segment", derrors.NotFound,
			fmt.Errorf("index %d out of range [0,%d)", i, len(r.entries)))
	}
	entry := r.entries[i]
	body := make([]byte, entry.Length)
	if _, err := r.file.ReadAt(body, int64(entry.Offset)); err != nil {
		return SegmentInfo{}, nil, derrors.E("docfile.get_segment", derrors.IO, err)
	}
	return toInfo(entry), body, nil
}

// GetSegmentByKind is the by-kind accessor: which=0 selects the first
// matching segment in directory order, which=-1 the last, and
// which>0 the (which)'th match (0-based) among segments of that kind.
func (r *Reader) GetSegmentByKind(kind SegmentKind, which int) (SegmentInfo, []byte, error) {
	var matches []int
	for i, e := range r.entries {
		if e.Kind == kind {
			matches = append(matches, i)
		}
	}
	if len(matches) == 0 {
		return SegmentInfo{}, nil, derrors.E("docfile.get_segment_by_kind", derrors.NotFound,
			fmt.Errorf("no segment of kind %q", kind))
	}
	var idx int
	switch {
	case which < 0:
		idx = matches[len(matches)-1]
	case which < len(matches):
		idx = matches[which]
	default:
		return SegmentInfo{}, nil, derrors.E("docfile.get_segment_by_kind", derrors.NotFound,
			fmt.Errorf("kind %q has only %d segment(s), asked for index %d", kind, len(matches), which))
	}
	return r.GetSegment(idx)
}

// FirstSegmentOfKind returns the first segment of kind in directory order.
func (r *Reader) FirstSegmentOfKind(kind SegmentKind) (SegmentInfo, []byte, error) {
	return r.GetSegmentByKind(kind, 0)
}

// LastSegmentOfKind returns the last segment of kind in directory order.
func (r *Reader) LastSegmentOfKind(kind SegmentKind) (SegmentInfo, []byte, error) {
	return r.GetSegmentByKind(kind, -1)
}

// StreamSegments calls fn for every segment in order, stopping at the
// first error.
func (r *Reader) StreamSegments(fn func(index int, info SegmentInfo, body []byte) error) error {
	for i := range r.entries {
		info, body, err := r.GetSegment(i)
		if err != nil {
			return err
		}
		if err := fn(i, info, body); err != nil {
			return err
		}
	}
	return nil
}

// ComputeDigest recomputes the whole-file BLAKE2b-256 digest from the
// bytes currently on disk: header, every segment frame in order, then
// the directory blob. It's the same hash Writer.Finalize returned at
// write time; callers that persisted that value elsewhere (a
// checkpoint record, say) compare against it themselves — the docfile
// footer has no room for a stored baseline, so Reader can't do that
// comparison on its own.
func (r *Reader) ComputeDigest() ([32]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return [32]byte{}, derrors.E("docfile.compute_digest", derrors.IO, err)
	}

	headerBuf := make([]byte, headerSize)
	if _, err := r.file.ReadAt(headerBuf, 0); err != nil {
		return [32]byte{}, derrors.E("docfile.compute_digest", derrors.IO, fmt.Errorf("read header: %w", err))
	}
	h.Write(headerBuf)

	for i, entry := range r.entries {
		frame, err := r.readFrame(entry)
		if err != nil {
			return [32]byte{}, derrors.E("docfile.compute_digest", derrors.IO, fmt.Errorf("read segment %d: %w", i, err))
		}
		h.Write(frame)
	}

	dirBuf := make([]byte, 4, 4+len(r.entries)*64)
	binary.LittleEndian.PutUint32(dirBuf[0:4], uint32(len(r.entries)))
	for _, e := range r.entries {
		dirBuf = append(dirBuf, encodeDirEntry(e)...)
	}
	h.Write(dirBuf)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// readFrame reads the full on-disk segment frame (kind_len, kind, comp,
// uncompressed_len, body, sha256) that entry points into, using the
// directory's recorded body offset/length to locate it.
func (r *Reader) readFrame(entry dirEntry) ([]byte, error) {
	frameStart := int64(entry.Offset) - int64(segmentFrameBodyOffset(len(entry.Kind)))
	frameLen := int64(entry.Offset) - frameStart + int64(entry.Length) + 32
	frame := make([]byte, frameLen)
	if _, err := r.file.ReadAt(frame, frameStart); err != nil {
		return nil, err
	}
	return frame, nil
}

// Verify re-derives every segment's on-disk frame and cross-checks it
// against the directory entry describing it: the frame's own kind,
// compression tag, and uncompressed length must match, and for
// uncompressed segments the recorded SHA-256 must match the body's
// actual hash (a segment's SHA-256 is always computed over the
// uncompressed payload, which for CompressionNone segments is exactly
// what's on disk).
func (r *Reader) Verify() error {
	for i, entry := range r.entries {
		frame, err := r.readFrame(entry)
		if err != nil {
			return derrors.E("docfile.verify", derrors.IO, fmt.Errorf("read segment %d: %w", i, err))
		}
		kindLen := int(binary.LittleEndian.Uint16(frame[0:2]))
		pos := 2 + kindLen
		gotKind := SegmentKind(frame[2:pos])
		gotComp := CompressionMode(frame[pos])
		pos++
		gotUncompressedLen := binary.LittleEndian.Uint64(frame[pos : pos+8])
		pos += 8
		bodyEnd := pos + int(entry.Length)
		body := frame[pos:bodyEnd]
		var gotSHA [32]byte
		copy(gotSHA[:], frame[bodyEnd:bodyEnd+32])

		if gotKind != entry.Kind || gotComp != entry.Compression || gotUncompressedLen != entry.UncompressedLen || gotSHA != entry.SHA256 {
			return derrors.E("docfile.verify", derrors.Corrupt,
				fmt.Errorf("segment %d: frame does not match its directory entry", i))
		}
		if entry.Compression == CompressionNone {
			if sha256.Sum256(body) != entry.SHA256 {
				return derrors.E("docfile.verify", derrors.Corrupt,
					fmt.Errorf("segment %d: sha256 mismatch, on-disk bytes do not match directory entry", i))
			}
		}
	}
	return nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if err := r.file.Close(); err != nil {
		return derrors.E("docfile.close", derrors.IO, err)
	}
	return nil
}
