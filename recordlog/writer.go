package recordlog

import (
	"fmt"
	"os"
	"sync"

	"github.com/docforge/docforge/derrors"
)

// Writer appends records to a single log file. A Writer serializes all
// operations behind a mutex: SPEC_FULL.md §5 scopes a record log to one
// writer at a time, matching the teacher's single-writer assumptions for
// its own artifact writers.
type Writer struct {
	mu       sync.Mutex
	file     *os.File
	endOfLog int64
	count    int
}

// Create creates a new log file at path, writing the file header.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, derrors.E("recordlog.create", derrors.IO, err)
	}
	header := encodeHeader(fileHeader{Version: fileVersion})
	if _, err := f.Write(header); err != nil {
		f.Close()
		return nil, derrors.E("recordlog.create", derrors.IO, fmt.Errorf("write header: %w", err))
	}
	return &Writer{file: f, endOfLog: int64(len(header))}, nil
}

// Append writes payload as a new record, returning its logical index.
// The write is not guaranteed durable until the next Flush.
func (w *Writer) Append(payload []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appendLocked(payload)
}

func (w *Writer) appendLocked(payload []byte) (int, error) {
	frame := encodeRecordFrame(payload)
	if _, err := w.file.WriteAt(frame, w.endOfLog); err != nil {
		return 0, derrors.E("recordlog.append", derrors.IO, err)
	}
	w.endOfLog += int64(len(frame))
	index := w.count
	w.count++
	return index, nil
}

// AppendBatch writes every payload in order, then performs a single
// Flush so all of them are fsynced together.
func (w *Writer) AppendBatch(payloads [][]byte) ([]int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	indices := make([]int, 0, len(payloads))
	for _, p := range payloads {
		idx, err := w.appendLocked(p)
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}
	if err := w.flushLocked(); err != nil {
		return nil, err
	}
	return indices, nil
}

// Flush fsyncs every record written so far. It does not write a logical-
// end marker: §4.5 makes the marker optional and reserved for a clean
// Close, so a reader opening a file that was only flushed (not closed)
// still recovers by scanning and validating each record's own CRC.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *Writer) flushLocked() error {
	if err := w.file.Sync(); err != nil {
		return derrors.E("recordlog.flush", derrors.IO, fmt.Errorf("fsync: %w", err))
	}
	return nil
}

// Len returns the number of records appended so far (including those not
// yet flushed).
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close writes a logical-end marker recording the final record count,
// flushes, and closes the underlying file. A later Open still scans
// every record frame; it reports the marker's count via
// Reader.LastLogicalEnd.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	marker := encodeLogicalEndFrame(uint64(w.count))
	if _, err := w.file.WriteAt(marker, w.endOfLog); err != nil {
		w.file.Close()
		return derrors.E("recordlog.close", derrors.IO, fmt.Errorf("write logical end marker: %w", err))
	}
	w.endOfLog += logicalEndSize

	if err := w.flushLocked(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.file.Close(); err != nil {
		return derrors.E("recordlog.close", derrors.IO, err)
	}
	return nil
}
