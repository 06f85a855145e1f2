// Package sink appends translated records to the line-delimited output
// file. A lock file next to the sink keeps a second process from writing
// to the same file.
package sink

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"codeberg.org/snonux/alpacatrans/internal/dataset"
)

// ErrLocked is returned when another process holds the sink lock
var ErrLocked = errors.New("output file is locked by another process")

// Writer appends JSON lines to the output file
type Writer struct {
	path    string
	file    *os.File
	buf     *bufio.Writer
	lock    *flock.Flock
	written int
}

// LockPath returns the lock file used for a sink
func LockPath(path string) string {
	return path + ".lock"
}

// Open locks and opens path for appending, creating it and its directory
// if needed
func Open(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	lock := flock.New(LockPath(path))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	if err := terminateLastLine(file); err != nil {
		file.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return &Writer{
		path: path,
		file: file,
		buf:  bufio.NewWriter(file),
		lock: lock,
	}, nil
}

// terminateLastLine ends an unterminated last line left by an interrupted
// write, so the next append starts on a line of its own
func terminateLastLine(file *os.File) error {
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat output file: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("failed to read output file: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := file.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("failed to terminate last line: %w", err)
	}
	return nil
}

// Path returns the sink file path
func (w *Writer) Path() string {
	return w.path
}

// Written returns the number of lines appended through this writer
func (w *Writer) Written() int {
	return w.written
}

// Append buffers one translated record with its index attached
func (w *Writer) Append(obj dataset.Object, index int) error {
	line, err := dataset.EncodeTranslated(obj, index)
	if err != nil {
		return fmt.Errorf("failed to encode index %d: %w", index, err)
	}
	return w.WriteLine(line)
}

// WriteLine buffers one already encoded line
func (w *Writer) WriteLine(line []byte) error {
	if _, err := w.buf.Write(line); err != nil {
		return fmt.Errorf("failed to write output line: %w", err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write output line: %w", err)
	}
	w.written++
	return nil
}

// Flush writes buffered lines and syncs them to disk
func (w *Writer) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush output file: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}
	return nil
}

// Close flushes, closes the file and releases the lock
func (w *Writer) Close() error {
	flushErr := w.Flush()
	closeErr := w.file.Close()
	unlockErr := w.lock.Unlock()
	return errors.Join(flushErr, closeErr, unlockErr)
}
