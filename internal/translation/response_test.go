package translation

import (
	"errors"
	"strings"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `[1]`, `[1]`},
		{"json fence", "```json\n[1]\n```", "\n[1]\n"},
		{"bare fence", "```\n[1]\n```", "\n[1]\n"},
		{"surrounding whitespace", "  \n```json[1]```  \n", "[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFences(tt.input); got != tt.want {
				t.Errorf("stripCodeFences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseArray(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantLen   int
		wantErr   error
		wantEmpty bool
	}{
		{name: "array of objects", content: `[{"a":1},{"b":2}]`, wantLen: 2},
		{name: "fenced array", content: "```json\n[{\"a\":1}]\n```", wantLen: 1},
		{name: "empty array", content: `[]`, wantLen: 0},
		{name: "object", content: `{"a":1}`, wantErr: errNotArray},
		{name: "string", content: `"tekst"`, wantErr: errNotArray},
		{name: "prose", content: `Here you go: [1]`, wantErr: ErrMalformedResponse},
		{name: "empty", content: ``, wantErr: ErrMalformedResponse},
		{name: "truncated", content: `[{"a":1},`, wantErr: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArray(tt.content)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("parseArray() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseArray() unexpected error: %v", err)
			}
			if got == nil {
				t.Fatal("parseArray() returned nil slice for valid array")
			}
			if len(got) != tt.wantLen {
				t.Errorf("parseArray() len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestParseArray_MalformedMessageMentionsCause(t *testing.T) {
	_, err := parseArray(`[{"a":}]`)
	if err == nil || !strings.Contains(err.Error(), "invalid character") {
		t.Errorf("Expected decoder detail in error, got %v", err)
	}
}
