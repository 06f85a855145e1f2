package checkpoint

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"codeberg.org/snonux/alpacatrans/internal/logging"
	"codeberg.org/snonux/alpacatrans/internal/testutil"
)

func TestResumePoint(t *testing.T) {
	tests := []struct {
		name    string
		content string
		missing bool
		want    int
	}{
		{name: "missing sink", missing: true, want: 0},
		{name: "empty sink", content: "", want: 0},
		{
			name:    "last index",
			content: testutil.SinkLine(1) + "\n" + testutil.SinkLine(2) + "\n" + testutil.SinkLine(3) + "\n",
			want:    3,
		},
		{
			name:    "gap before last line is ignored",
			content: testutil.SinkLine(1) + "\n" + testutil.SinkLine(20) + "\n",
			want:    20,
		},
		{
			name:    "no trailing newline",
			content: testutil.SinkLine(1) + "\n" + testutil.SinkLine(2),
			want:    2,
		},
		{
			name:    "index absent falls back to line count",
			content: testutil.SinkLine(1) + "\n" + `{"instruction":"a","input":"","output":"b"}` + "\n",
			want:    2,
		},
		{
			name:    "string index falls back to line count",
			content: testutil.SinkLine(1) + "\n" + testutil.SinkLine(2) + "\n" + `{"index":"3"}` + "\n",
			want:    3,
		},
		{
			name:    "unparseable last line starts over",
			content: testutil.SinkLine(1) + "\n" + `{"instruction":"uci` + "\n",
			want:    0,
		},
		{
			name:    "blank last line starts over",
			content: testutil.SinkLine(1) + "\n\n",
			want:    0,
		},
		{
			name:    "array last line starts over",
			content: testutil.SinkLine(1) + "\n[1,2]\n",
			want:    0,
		},
		{
			name:    "negative index starts over",
			content: `{"index":-4}` + "\n",
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "alpaca_data_pl.jsonl")
			if !tt.missing {
				testutil.CreateTestFile(t, path, []byte(tt.content))
			}

			got, err := ResumePoint(path, logging.Discard())
			if err != nil {
				t.Fatalf("ResumePoint() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResumePoint() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResumePoint_WarnsOnUnreadableLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	testutil.CreateSink(t, path, testutil.SinkLine(1), "garbage")

	var buf bytes.Buffer
	if _, err := ResumePoint(path, logging.New(&buf, false)); err != nil {
		t.Fatalf("ResumePoint failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Failed to read last index") {
		t.Errorf("Expected warning, got %q", buf.String())
	}
}

func TestResumePoint_Directory(t *testing.T) {
	if _, err := ResumePoint(t.TempDir(), logging.Discard()); err == nil {
		t.Error("Expected error when sink path is a directory")
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name          string
		lines         []string
		missing       bool
		total         int
		wantMissing   []int
		wantMalformed []int
		wantTargets   []int
	}{
		{
			name:        "missing sink targets everything",
			missing:     true,
			total:       3,
			wantMissing: []int{1, 2, 3},
			wantTargets: []int{1, 2, 3},
		},
		{
			name:  "complete sink",
			lines: []string{testutil.SinkLine(1), testutil.SinkLine(2), testutil.SinkLine(3)},
			total: 3,
		},
		{
			name:        "gaps only",
			lines:       []string{testutil.SinkLine(1), testutil.SinkLine(3), testutil.SinkLine(5)},
			total:       6,
			wantMissing: []int{2, 4, 6},
			wantTargets: []int{2, 4, 6},
		},
		{
			name:        "out of order recovery appends",
			lines:       []string{testutil.SinkLine(1), testutil.SinkLine(4), testutil.SinkLine(2)},
			total:       4,
			wantMissing: []int{3},
			wantTargets: []int{3},
		},
		{
			name: "malformed line counted even when index is present elsewhere",
			lines: []string{
				testutil.SinkLine(1),
				`{"instruction":"zepsute`,
				testutil.SinkLine(2),
				testutil.SinkLine(3),
			},
			total:         3,
			wantMalformed: []int{2},
			wantTargets:   []int{2},
		},
		{
			name: "kinds of malformed lines",
			lines: []string{
				`{"instruction":"a","input":"","output":"b"}`,
				`{"index":"2"}`,
				`{"index":2.5}`,
				`[1]`,
				``,
				testutil.SinkLine(6),
			},
			total:         6,
			wantMissing:   []int{1, 2, 3, 4, 5},
			wantMalformed: []int{1, 2, 3, 4, 5},
			wantTargets:   []int{1, 2, 3, 4, 5},
		},
		{
			name:          "missing and malformed merge without duplicates",
			lines:         []string{testutil.SinkLine(1), "oops", testutil.SinkLine(4)},
			total:         4,
			wantMissing:   []int{2, 3},
			wantMalformed: []int{2},
			wantTargets:   []int{2, 3},
		},
		{
			name:          "malformed line number beyond dataset",
			lines:         []string{testutil.SinkLine(1), testutil.SinkLine(2), "x", "y"},
			total:         2,
			wantMalformed: []int{3, 4},
			wantTargets:   []int{3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.jsonl")
			if !tt.missing {
				testutil.CreateSink(t, path, tt.lines...)
			}

			state, err := Reconcile(path, tt.total)
			if err != nil {
				t.Fatalf("Reconcile() unexpected error: %v", err)
			}

			if state.Lines != len(tt.lines) {
				t.Errorf("Lines = %d, want %d", state.Lines, len(tt.lines))
			}
			if got := state.Missing(); !reflect.DeepEqual(got, tt.wantMissing) {
				t.Errorf("Missing() = %v, want %v", got, tt.wantMissing)
			}
			if !reflect.DeepEqual(state.Malformed, tt.wantMalformed) {
				t.Errorf("Malformed = %v, want %v", state.Malformed, tt.wantMalformed)
			}
			if got := state.Targets(); !reflect.DeepEqual(got, tt.wantTargets) {
				t.Errorf("Targets() = %v, want %v", got, tt.wantTargets)
			}
		})
	}
}

func TestRecoveryTargetsEqualRemovedIndices(t *testing.T) {
	const total = 50
	removed := map[int]bool{3: true, 17: true, 18: true, 50: true}

	var lines []string
	for i := 1; i <= total; i++ {
		if !removed[i] {
			lines = append(lines, testutil.SinkLine(i))
		}
	}
	path := filepath.Join(t.TempDir(), "out.jsonl")
	testutil.CreateSink(t, path, lines...)

	state, err := Reconcile(path, total)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	want := []int{3, 17, 18, 50}
	if got := state.Targets(); !reflect.DeepEqual(got, want) {
		t.Errorf("Targets() = %v, want %v", got, want)
	}
}

func TestState_MaxIndex(t *testing.T) {
	state := &State{Valid: map[int]struct{}{4: {}, 9: {}, 2: {}}}
	if got := state.MaxIndex(); got != 9 {
		t.Errorf("MaxIndex() = %d, want 9", got)
	}
	if got := (&State{Valid: map[int]struct{}{}}).MaxIndex(); got != 0 {
		t.Errorf("MaxIndex() on empty state = %d, want 0", got)
	}
}

func TestResume_Strategies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	// A recovery pass appended index 2 after index 5
	testutil.CreateSink(t, path, testutil.SinkLine(1), testutil.SinkLine(3), testutil.SinkLine(5), testutil.SinkLine(2))

	tests := []struct {
		strategy string
		want     int
		wantErr  bool
	}{
		{strategy: "", want: 2},
		{strategy: StrategyLastLine, want: 2},
		{strategy: StrategyScan, want: 5},
		{strategy: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("strategy_"+tt.strategy, func(t *testing.T) {
			got, err := Resume(path, 10, tt.strategy, logging.Discard())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resume() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Resume() = %d, want %d", got, tt.want)
			}
		})
	}
}
