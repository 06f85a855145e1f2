package checkpoint

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/tidwall/gjson"

	"codeberg.org/snonux/alpacatrans/internal/dataset"
)

// Resume strategies for normal mode
const (
	// StrategyLastLine trusts the index on the last sink line
	StrategyLastLine = "last-line"
	// StrategyScan resumes after the highest valid index in the sink
	StrategyScan = "scan"
)

// State is the result of scanning every line of a sink
type State struct {
	// Total is the number of source records the sink is checked against
	Total int
	// Lines is the number of lines in the sink
	Lines int
	// Valid holds every index carried by a well-formed line
	Valid map[int]struct{}
	// Malformed holds the 1-based line numbers of broken lines
	Malformed []int
}

// LineIndex extracts the integer index of a sink line. It reports false for
// anything but a JSON object with an integer index.
func LineIndex(line []byte) (int, bool) {
	if !gjson.ValidBytes(line) {
		return 0, false
	}
	parsed := gjson.ParseBytes(line)
	if !parsed.IsObject() {
		return 0, false
	}
	index := parsed.Get(dataset.IndexField)
	if !isInteger(index) {
		return 0, false
	}
	return int(index.Int()), true
}

// isInteger accepts JSON numbers written without fraction or exponent
func isInteger(r gjson.Result) bool {
	if r.Type != gjson.Number {
		return false
	}
	return !bytes.ContainsAny([]byte(r.Raw), ".eE")
}

// EachLine calls fn for every line of the sink, terminator removed. A
// missing sink has no lines.
func EachLine(path string, fn func(n int, line []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	n := 0
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			n++
			fn(n, bytes.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read output file: %w", err)
		}
	}
}

// ResumePoint returns how many source records a previous normal-mode run
// already covered, judged from the last sink line only. An unreadable last
// line yields 0 with a warning.
func ResumePoint(path string, logger *slog.Logger) (int, error) {
	var (
		last  []byte
		lines int
	)
	err := EachLine(path, func(n int, line []byte) {
		lines = n
		last = append(last[:0], line...)
	})
	if err != nil {
		return 0, err
	}
	if lines == 0 {
		return 0, nil
	}

	if !gjson.ValidBytes(last) || !gjson.ParseBytes(last).IsObject() {
		logger.Warn("Failed to read last index from output file", "line", lines)
		return 0, nil
	}

	index := gjson.GetBytes(last, dataset.IndexField)
	if !index.Exists() {
		return lines, nil
	}
	if !isInteger(index) {
		logger.Warn("Last line has a non-integer index, using line count", "index", index.Raw, "lines", lines)
		return lines, nil
	}

	resume := int(index.Int())
	if resume < 0 {
		logger.Warn("Last line has a negative index, starting over", "index", resume)
		return 0, nil
	}
	return resume, nil
}

// Reconcile scans every sink line against a dataset of total records
func Reconcile(path string, total int) (*State, error) {
	state := &State{
		Total: total,
		Valid: make(map[int]struct{}),
	}

	err := EachLine(path, func(n int, line []byte) {
		state.Lines = n
		if index, ok := LineIndex(line); ok {
			state.Valid[index] = struct{}{}
			return
		}
		state.Malformed = append(state.Malformed, n)
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}

// Missing returns the indices in 1..Total that no valid line carries
func (s *State) Missing() []int {
	var missing []int
	for i := 1; i <= s.Total; i++ {
		if _, ok := s.Valid[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// Targets returns the recovery work list: missing indices merged with
// malformed line numbers, ascending and without duplicates
func (s *State) Targets() []int {
	seen := make(map[int]struct{}, len(s.Malformed))
	var targets []int
	add := func(i int) {
		if _, ok := seen[i]; ok {
			return
		}
		seen[i] = struct{}{}
		targets = append(targets, i)
	}

	for _, i := range s.Missing() {
		add(i)
	}
	for _, n := range s.Malformed {
		add(n)
	}

	sort.Ints(targets)
	return targets
}

// MaxIndex returns the highest valid index, or 0 for an empty sink
func (s *State) MaxIndex() int {
	highest := 0
	for i := range s.Valid {
		if i > highest {
			highest = i
		}
	}
	return highest
}

// Resume computes the normal-mode resume point using strategy
func Resume(path string, total int, strategy string, logger *slog.Logger) (int, error) {
	switch strategy {
	case "", StrategyLastLine:
		return ResumePoint(path, logger)
	case StrategyScan:
		state, err := Reconcile(path, total)
		if err != nil {
			return 0, err
		}
		if len(state.Malformed) > 0 {
			logger.Warn("Output file contains malformed lines, run with --recover afterwards",
				"malformed", len(state.Malformed))
		}
		return state.MaxIndex(), nil
	default:
		return 0, fmt.Errorf("unknown resume strategy: %s", strategy)
	}
}
