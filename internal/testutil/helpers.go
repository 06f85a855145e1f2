package testutil

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/snonux/alpacatrans/internal/dataset"
)

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// CreateDataset writes records as a JSON array source file and returns its path
func CreateDataset(t *testing.T, dir string, records []dataset.Record) string {
	t.Helper()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		t.Fatalf("Failed to encode dataset: %v", err)
	}

	path := filepath.Join(dir, "alpaca_data.json")
	CreateTestFile(t, path, data)
	return path
}

// CreateSink writes lines (newline terminated) as an output sink
func CreateSink(t *testing.T, path string, lines ...string) {
	t.Helper()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	CreateTestFile(t, path, []byte(b.String()))
}

// SinkLine renders a translated line for index i the way the sink writes it
func SinkLine(i int) string {
	return fmt.Sprintf(`{"instruction":"i%d","input":"","output":"o%d","index":%d}`, i, i, i)
}

// ReadLines returns the lines of a file without their terminators
func ReadLines(t *testing.T, path string) []string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return lines
}

// SinkIndices decodes the index field of every line in a sink
func SinkIndices(t *testing.T, path string) []int {
	t.Helper()

	var indices []int
	for n, line := range ReadLines(t, path) {
		var obj struct {
			Index *int `json:"index"`
		}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			t.Fatalf("Line %d of %s is not JSON: %v", n+1, path, err)
		}
		if obj.Index == nil {
			t.Fatalf("Line %d of %s has no index", n+1, path)
		}
		indices = append(indices, *obj.Index)
	}
	return indices
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertFileContent checks if a file has expected content
func AssertFileContent(t *testing.T, path string, expected []byte) {
	t.Helper()

	actual, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	if string(actual) != string(expected) {
		t.Errorf("File content mismatch in %s\nExpected: %q\nActual: %q", path, expected, actual)
	}
}

// AssertFileContains checks if a file contains a substring
func AssertFileContains(t *testing.T, path string, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	if !strings.Contains(string(content), substring) {
		t.Errorf("File %s does not contain expected substring: %q", path, substring)
	}
}
