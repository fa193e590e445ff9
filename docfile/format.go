// Package docfile implements the segmented document file format of
// SPEC_FULL.md §4.6 (C6): a header, a sequence of self-describing
// segment frames, a directory describing each segment (kind,
// compression mode, lengths, SHA-256 of the uncompressed payload), and
// a small footer at the end of the file pointing back at the
// directory. Writer.Finalize also returns a whole-file BLAKE2b-256
// digest for callers that want to record it externally (the footer
// itself has no room to carry one); Reader.ComputeDigest recomputes the
// same hash from disk.
//
// Grounded on core/planfmt/plan.go's header/body/digest shape and
// core/planfmt/reader.go's incremental-hash-while-reading pattern,
// generalized from one fixed plan blob to a directory of independently
// addressable, string-kinded segments. All integers are little-endian.
package docfile

import (
	"encoding/binary"
	"fmt"
)

const (
	headerMagic = "MFDC"
	footerMagic = "MFDF"
	headerSize  = 4 + 2 + 2 + 8 // magic + version:u16 + flags:u16 + created_at:i64
	footerSize  = 8 + 8 + 4     // dir_offset:u64 + dir_length:u64 + magic[4] (magic at the END)

	segmentFrameFixed = 2 + 1 + 8 + 32 // kind_len:u16 + comp:u8 + uncompressed_len:u64 + sha256[32], around kind and body
	dirEntryFixed     = 2 + 8 + 8 + 8 + 1 + 32
)

// CompressionMode records how a segment's on-disk body is encoded.
// Decoding it is the compress package's job; docfile only carries the
// tag.
type CompressionMode uint8

const (
	CompressionNone CompressionMode = iota
	CompressionZstdSerial
	CompressionZstdChunked
)

func (m CompressionMode) String() string {
	switch m {
	case CompressionNone:
		return "none"
	case CompressionZstdSerial:
		return "zstd_serial"
	case CompressionZstdChunked:
		return "zstd_chunked"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// SegmentKind names what a segment's body holds — e.g. "meta",
// "nodes", "index". docfile treats it as an opaque, length-prefixed
// string; applications own the actual vocabulary.
type SegmentKind string

type dirEntry struct {
	Kind            SegmentKind
	Offset          uint64 // byte offset of the segment's body (post-header bytes within the frame)
	Length          uint64 // on-disk length of the body, i.e. post-compression
	UncompressedLen uint64
	Compression     CompressionMode
	SHA256          [32]byte // over the uncompressed payload
}

// encodeHeader writes the 16-byte file header: magic[4] + version:u16 +
// flags:u16 + created_at:i64, little-endian.
func encodeHeader(createdAt int64) []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], headerMagic)
	binary.LittleEndian.PutUint16(buf[4:6], 1) // format version
	binary.LittleEndian.PutUint16(buf[6:8], 0) // flags
	binary.LittleEndian.PutUint64(buf[8:16], uint64(createdAt))
	return buf
}

func decodeHeader(buf []byte) error {
	if len(buf) != headerSize {
		return fmt.Errorf("docfile: header must be %d bytes, got %d", headerSize, len(buf))
	}
	if string(buf[0:4]) != headerMagic {
		return fmt.Errorf("docfile: bad magic %q, want %q", buf[0:4], headerMagic)
	}
	return nil
}

// encodeSegmentFrame returns the on-disk bytes for one segment:
// kind_len:u16 kind comp:u8 uncompressed_len:u64 body sha256[32]. sum
// is the SHA-256 of the uncompressed payload, independent of comp.
func encodeSegmentFrame(kind SegmentKind, comp CompressionMode, uncompressedLen uint64, body []byte, sum [32]byte) []byte {
	kindBytes := []byte(kind)
	buf := make([]byte, 0, segmentFrameFixed+len(kindBytes)+len(body))
	var kindLen [2]byte
	binary.LittleEndian.PutUint16(kindLen[:], uint16(len(kindBytes)))
	buf = append(buf, kindLen[:]...)
	buf = append(buf, kindBytes...)
	buf = append(buf, byte(comp))
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uncompressedLen)
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, body...)
	buf = append(buf, sum[:]...)
	return buf
}

// segmentFrameBodyOffset returns the byte offset, relative to the
// frame's start, at which the body begins, given the encoded kind
// length.
func segmentFrameBodyOffset(kindLen int) uint64 {
	return uint64(2 + kindLen + 1 + 8)
}

// encodeDirEntry writes one variable-length directory entry: kind_len:u16
// kind offset:u64 length:u64 uncompressed:u64 comp:u8 sha[32]. Note the
// comp/uncompressed field order here is the reverse of the segment
// frame's — the directory was designed independently of the frame it
// describes.
func encodeDirEntry(e dirEntry) []byte {
	kindBytes := []byte(e.Kind)
	buf := make([]byte, 0, dirEntryFixed+len(kindBytes))
	var kindLen [2]byte
	binary.LittleEndian.PutUint16(kindLen[:], uint16(len(kindBytes)))
	buf = append(buf, kindLen[:]...)
	buf = append(buf, kindBytes...)
	var u64buf [8]byte
	binary.LittleEndian.PutUint64(u64buf[:], e.Offset)
	buf = append(buf, u64buf[:]...)
	binary.LittleEndian.PutUint64(u64buf[:], e.Length)
	buf = append(buf, u64buf[:]...)
	binary.LittleEndian.PutUint64(u64buf[:], e.UncompressedLen)
	buf = append(buf, u64buf[:]...)
	buf = append(buf, byte(e.Compression))
	buf = append(buf, e.SHA256[:]...)
	return buf
}

// decodeDirEntry parses one directory entry starting at buf[0] and
// returns it along with the number of bytes it consumed, since entries
// are variable-length (the kind string).
func decodeDirEntry(buf []byte) (dirEntry, int, error) {
	if len(buf) < 2 {
		return dirEntry{}, 0, fmt.Errorf("docfile: directory entry truncated before kind_len")
	}
	kindLen := int(binary.LittleEndian.Uint16(buf[0:2]))
	need := 2 + kindLen + 8 + 8 + 8 + 1 + 32
	if len(buf) < need {
		return dirEntry{}, 0, fmt.Errorf("docfile: directory entry truncated, need %d bytes, have %d", need, len(buf))
	}
	pos := 2
	kind := SegmentKind(buf[pos : pos+kindLen])
	pos += kindLen
	var e dirEntry
	e.Kind = kind
	e.Offset = binary.LittleEndian.Uint64(buf[pos : pos+8])
	pos += 8
	e.Length = binary.LittleEndian.Uint64(buf[pos : pos+8])
	pos += 8
	e.UncompressedLen = binary.LittleEndian.Uint64(buf[pos : pos+8])
	pos += 8
	e.Compression = CompressionMode(buf[pos])
	pos++
	copy(e.SHA256[:], buf[pos:pos+32])
	pos += 32
	return e, pos, nil
}

// encodeFooter returns the 20-byte footer: dir_offset:u64 +
// dir_length:u64 + magic[4], magic at the end so a reader can locate
// the whole document by reading only the final 20 bytes of the file.
func encodeFooter(dirOffset, dirLen uint64) []byte {
	buf := make([]byte, footerSize)
	binary.LittleEndian.PutUint64(buf[0:8], dirOffset)
	binary.LittleEndian.PutUint64(buf[8:16], dirLen)
	copy(buf[16:20], footerMagic)
	return buf
}

type footer struct {
	DirOffset uint64
	DirLen    uint64
}

func decodeFooter(buf []byte) (footer, error) {
	if len(buf) != footerSize {
		return footer{}, fmt.Errorf("docfile: footer must be %d bytes, got %d", footerSize, len(buf))
	}
	if string(buf[16:20]) != footerMagic {
		return footer{}, fmt.Errorf("docfile: bad footer magic %q, want %q", buf[16:20], footerMagic)
	}
	var f footer
	f.DirOffset = binary.LittleEndian.Uint64(buf[0:8])
	f.DirLen = binary.LittleEndian.Uint64(buf[8:16])
	return f, nil
}
