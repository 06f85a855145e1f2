package internal

import "testing"

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{"shorter than limit", "abc", 10, "abc"},
		{"exact limit", "abc", 3, "abc"},
		{"ascii cut", "abcdef", 4, "abcd"},
		{"polish characters", "zażółć gęślą", 5, "zażół"},
		{"zero limit", "abc", 0, ""},
		{"empty string", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.input, tt.n); got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"alpaca_data_pl.jsonl", "alpaca_data_pl.jsonl"},
		{"my data.jsonl", "my_data.jsonl"},
		{"dane/pl:1", "dane_pl_1"},
		{"ąę", "__"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
