package recordlog

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"sync"

	"github.com/docforge/docforge/derrors"
)

type recordLoc struct {
	offset int64
	length uint32
}

// Reader opens a log file for reading, recovering from any torn tail
// left by a crash mid-write: it scans every frame from just after the
// header, accepting record frames whose CRC validates and stopping at
// the first truncated or corrupt frame, exactly like §4.5 specifies. A
// trailing logical-end marker, if present and valid, ends the scan and
// its stored record count is reported by LastLogicalEnd; bytes after it
// are reserved space, not more records. LogicalLen always counts the
// records the scan itself validated.
type Reader struct {
	file           *os.File
	header         fileHeader
	records        []recordLoc
	lastLogicalEnd uint64
	hasLogicalEnd  bool
}

// Open opens path and recovers its valid record index.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, derrors.E("recordlog.open", derrors.IO, err)
	}

	headerBuf := make([]byte, headerSize)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		f.Close()
		return nil, derrors.E("recordlog.open", derrors.Truncated, fmt.Errorf("read header: %w", err))
	}
	header, err := decodeHeader(headerBuf)
	if err != nil {
		f.Close()
		return nil, derrors.E("recordlog.open", derrors.Corrupt, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, derrors.E("recordlog.open", derrors.IO, err)
	}

	r := &Reader{file: f, header: header}
	r.recover(info.Size())
	return r, nil
}

// recover scans frames starting just after the header. Each frame is
// either a Record (len:u32 crc:u32 payload) or, only ever as the final
// frame, a LogicalEnd marker distinguished by its leading "MFEN" magic
// (chosen so it can never collide with a record length: a record whose
// length field decoded to the bytes "MFEN" would exceed maxRecordLen and
// already be rejected by that check). The first frame that fails to
// parse or fails its CRC ends the scan; everything from there on is
// treated as reserved space, never as undefined behavior.
func (r *Reader) recover(size int64) {
	pos := int64(headerSize)

	for {
		if pos+4 > size {
			return
		}
		head := make([]byte, 4)
		if _, err := r.file.ReadAt(head, pos); err != nil {
			return
		}

		if string(head) == logicalEndMagic {
			frameEnd := pos + logicalEndSize
			if frameEnd > size {
				return
			}
			body := make([]byte, 8)
			if _, err := r.file.ReadAt(body, pos+4); err != nil {
				return
			}
			crcBuf := make([]byte, 4)
			if _, err := r.file.ReadAt(crcBuf, pos+12); err != nil {
				return
			}
			if crc32.Checksum(body, crcTable) != binary.LittleEndian.Uint32(crcBuf) {
				return
			}
			r.lastLogicalEnd = binary.LittleEndian.Uint64(body)
			r.hasLogicalEnd = true
			return
		}

		payloadLen := int64(binary.LittleEndian.Uint32(head))
		if payloadLen > maxRecordLen {
			return
		}
		frameEnd := pos + int64(recordFrameHeader) + payloadLen
		if frameEnd > size {
			return
		}
		crcBuf := make([]byte, 4)
		if _, err := r.file.ReadAt(crcBuf, pos+4); err != nil {
			return
		}
		payload := make([]byte, payloadLen)
		if _, err := r.file.ReadAt(payload, pos+int64(recordFrameHeader)); err != nil {
			return
		}
		if crc32.Checksum(payload, crcTable) != binary.LittleEndian.Uint32(crcBuf) {
			return
		}
		r.records = append(r.records, recordLoc{offset: pos + int64(recordFrameHeader), length: uint32(payloadLen)})
		pos = frameEnd
	}
}

// LogicalLen returns the number of valid records recovered.
func (r *Reader) LogicalLen() int { return len(r.records) }

// LastLogicalEnd returns the record count stored in the last confirmed
// logical-end marker, and whether one was found at all.
func (r *Reader) LastLogicalEnd() (uint64, bool) { return r.lastLogicalEnd, r.hasLogicalEnd }

// GetAt returns the payload of the record at logical index i.
func (r *Reader) GetAt(i int) ([]byte, error) {
	if i < 0 || i >= len(r.records) {
		return nil, derrors.E("recordlog.get_at", derrors.NotFound, fmt.Errorf("index %d out of range [0,%d)", i, len(r.records)))
	}
	loc := r.records[i]
	buf := make([]byte, loc.length)
	if _, err := r.file.ReadAt(buf, loc.offset); err != nil {
		return nil, derrors.E("recordlog.get_at", derrors.IO, err)
	}
	return buf, nil
}

// Stream calls fn for every valid record in order, stopping at the first
// error fn returns.
func (r *Reader) Stream(fn func(index int, payload []byte) error) error {
	for i := range r.records {
		payload, err := r.GetAt(i)
		if err != nil {
			return err
		}
		if err := fn(i, payload); err != nil {
			return err
		}
	}
	return nil
}

// ProcessParallel runs fn over every valid record using up to numWorkers
// goroutines, preserving each record's index in the results it's called
// with (order of invocation is not guaranteed, but each call sees its own
// correct index). It returns the first error encountered, if any, after
// every worker has finished.
//
// Grounded on runtime/decorators/parallel.go's parallelNode.Execute: a
// buffered channel used as a counting semaphore, a WaitGroup to join, and
// an index-addressed results slice so concurrent workers never race on
// shared state.
func (r *Reader) ProcessParallel(numWorkers int, fn func(index int, payload []byte) error) error {
	if numWorkers < 1 {
		numWorkers = 1
	}
	n := len(r.records)
	errs := make([]error, n)
	sem := make(chan struct{}, numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		payload, err := r.GetAt(i)
		if err != nil {
			return err
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(index int, p []byte) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[index] = fn(index, p)
		}(i, payload)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if err := r.file.Close(); err != nil {
		return derrors.E("recordlog.close", derrors.IO, err)
	}
	return nil
}
