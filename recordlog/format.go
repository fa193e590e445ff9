// Package recordlog implements the append-only record log of
// SPEC_FULL.md §4.5 (C5): a length-prefixed, CRC32C-protected sequence
// of records with an optional logical-end marker and torn-write
// recovery.
//
// Grounded on core/planfmt/reader.go's magic/version/size-limited framed
// reading, adapted from a single whole-file plan blob to a streaming,
// appendable sequence of records.
package recordlog

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

const (
	fileMagic         = "MFRC"
	logicalEndMagic   = "MFEN"
	headerSize        = 16 // magic[4] + version:u16 + flags:u16 + reserved[8]
	fileVersion       = 1
	recordFrameHeader = 8 // len:u32 + crc:u32, ahead of the payload itself
	logicalEndSize    = 16

	// maxRecordLen bounds a single record so a corrupt length prefix
	// can't make the reader try to allocate gigabytes.
	maxRecordLen = 64 << 20
)

// crcTable uses the Castagnoli polynomial (CRC32C), the variant every
// modern storage format (ext4, btrfs, iSCSI) uses for exactly this kind
// of frame checksum.
var crcTable = crc32.MakeTable(crc32.Castagnoli)

type fileHeader struct {
	Version uint16
	Flags   uint16
}

// encodeHeader writes the 16-byte file header, little-endian throughout:
// magic[4] + version:u16 + flags:u16 + reserved[8].
func encodeHeader(h fileHeader) []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], fileMagic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	return buf
}

func decodeHeader(buf []byte) (fileHeader, error) {
	if len(buf) != headerSize {
		return fileHeader{}, fmt.Errorf("recordlog: header must be %d bytes, got %d", headerSize, len(buf))
	}
	if string(buf[0:4]) != fileMagic {
		return fileHeader{}, fmt.Errorf("recordlog: bad magic %q, want %q", buf[0:4], fileMagic)
	}
	return fileHeader{
		Version: binary.LittleEndian.Uint16(buf[4:6]),
		Flags:   binary.LittleEndian.Uint16(buf[6:8]),
	}, nil
}

// encodeRecordFrame returns the on-disk bytes for a single record:
// len(4) + crc32c(4, over payload only) + payload, little-endian. A
// record's offset is the byte position of this frame's first length
// byte.
func encodeRecordFrame(payload []byte) []byte {
	buf := make([]byte, recordFrameHeader+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(payload)))
	crc := crc32.Checksum(payload, crcTable)
	binary.LittleEndian.PutUint32(buf[4:8], crc)
	copy(buf[8:], payload)
	return buf
}

// encodeLogicalEndFrame returns the on-disk bytes for a logical-end
// marker: magic[4]="MFEN" + logical_len(8) + file_crc(4, over the
// logical_len bytes), little-endian. It is written by Close and records
// the final record count. A reader still scans every record frame from
// the header; the marker ends that scan and its count is reported by
// Reader.LastLogicalEnd.
func encodeLogicalEndFrame(logicalLen uint64) []byte {
	buf := make([]byte, logicalEndSize)
	copy(buf[0:4], logicalEndMagic)
	binary.LittleEndian.PutUint64(buf[4:12], logicalLen)
	crc := crc32.Checksum(buf[4:12], crcTable)
	binary.LittleEndian.PutUint32(buf[12:16], crc)
	return buf
}
