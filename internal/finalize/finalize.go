package finalize

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
	"github.com/tidwall/gjson"

	"codeberg.org/snonux/alpacatrans/internal/archive"
	"codeberg.org/snonux/alpacatrans/internal/checkpoint"
	"codeberg.org/snonux/alpacatrans/internal/dataset"
	"codeberg.org/snonux/alpacatrans/internal/sink"
)

// ErrNotIndexed is returned when the sink holds records without an index,
// which is what a finalized file looks like. Nothing is rewritten.
var ErrNotIndexed = errors.New("output file has records without an index, already finalized?")

// Result counts what finalizing a sink did
type Result struct {
	Lines      int
	Kept       int
	Duplicates int
	Malformed  int
	// Archive is the path of the backup taken before rewriting
	Archive string
}

type entry struct {
	index int
	obj   dataset.Object
}

// Run rewrites the sink at path in place. Lines with the same index keep
// the one written last, malformed lines are dropped. A copy of the
// original goes to the archive directory first.
func Run(path string, logger *slog.Logger) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("output file not found: %w", err)
	}

	lock := flock.New(sink.LockPath(path))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock output file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", sink.ErrLocked, path)
	}
	defer lock.Unlock()

	result := &Result{}
	byIndex := make(map[int]entry)
	var unindexed []int
	err = checkpoint.EachLine(path, func(n int, line []byte) {
		result.Lines = n
		index, ok := checkpoint.LineIndex(line)
		if !ok && isUnindexedRecord(line) {
			unindexed = append(unindexed, n)
			return
		}
		if !ok {
			logger.Warn("Dropping malformed line", "line", n)
			result.Malformed++
			return
		}
		obj, err := dataset.DecodeObject(line)
		if err != nil {
			logger.Warn("Dropping malformed line", "line", n, "error", err)
			result.Malformed++
			return
		}
		if _, seen := byIndex[index]; seen {
			logger.Debug("Replacing duplicate index", "index", index, "line", n)
			result.Duplicates++
		}
		byIndex[index] = entry{index: index, obj: obj}
	})
	if err != nil {
		return nil, err
	}

	if len(unindexed) > 0 {
		logger.Error("Refusing to finalize", "unindexed_lines", len(unindexed), "first", unindexed[0])
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, path)
	}

	entries := make([]entry, 0, len(byIndex))
	for _, e := range byIndex {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })

	archived, err := archive.ArchiveSink(path)
	if err != nil {
		return nil, err
	}
	result.Archive = archived
	logger.Info("Output file archived", "path", archived)

	if err := writeAtomic(path, entries); err != nil {
		return nil, err
	}
	result.Kept = len(entries)

	return result, nil
}

// isUnindexedRecord reports a JSON object with no index field at all
func isUnindexedRecord(line []byte) bool {
	if !gjson.ValidBytes(line) {
		return false
	}
	parsed := gjson.ParseBytes(line)
	return parsed.IsObject() && !parsed.Get(dataset.IndexField).Exists()
}

// writeAtomic replaces path through a temporary file in the same directory
func writeAtomic(path string, entries []entry) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, e := range entries {
		line, err := dataset.EncodePlain(e.obj)
		if err != nil {
			return fmt.Errorf("failed to encode index %d: %w", e.index, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to write temporary file: %w", err)
		}
	}

	if err := errors.Join(w.Flush(), tmp.Sync()); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace output file: %w", err)
	}
	return nil
}
