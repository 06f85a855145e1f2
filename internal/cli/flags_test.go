package cli

import (
	"reflect"
	"testing"
	"time"
)

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	// Test default values
	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"InputPath", flags.InputPath, "data/alpaca_data.json"},
		{"OutputPath", flags.OutputPath, "data/alpaca_data_pl.jsonl"},
		{"BatchSize", flags.BatchSize, 10},
		{"ResumeStrategy", flags.ResumeStrategy, "last-line"},
		{"Provider", flags.Provider, "openai"},
		{"BaseURL", flags.BaseURL, "http://localhost:11434/v1"},
		{"Model", flags.Model, "gemma3:12b"},
		{"Timeout", flags.Timeout, time.Duration(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.expected) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	// Test boolean defaults (should be false)
	boolTests := []struct {
		name  string
		value bool
	}{
		{"Recover", flags.Recover},
		{"Finalize", flags.Finalize},
		{"Status", flags.Status},
		{"ListModels", flags.ListModels},
		{"Debug", flags.Debug},
	}

	for _, tt := range boolTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != false {
				t.Errorf("%s = %v, want false", tt.name, tt.value)
			}
		})
	}

	if flags.CfgFile != "" {
		t.Errorf("CfgFile = %v, want empty string", flags.CfgFile)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Flags)
		wantErr bool
	}{
		{name: "defaults", modify: func(f *Flags) {}},
		{name: "recover only", modify: func(f *Flags) { f.Recover = true }},
		{name: "scan strategy", modify: func(f *Flags) { f.ResumeStrategy = "scan" }},
		{name: "zero batch size", modify: func(f *Flags) { f.BatchSize = 0 }, wantErr: true},
		{name: "negative batch size", modify: func(f *Flags) { f.BatchSize = -3 }, wantErr: true},
		{name: "two modes", modify: func(f *Flags) { f.Recover = true; f.Finalize = true }, wantErr: true},
		{name: "status and list models", modify: func(f *Flags) { f.Status = true; f.ListModels = true }, wantErr: true},
		{name: "unknown strategy", modify: func(f *Flags) { f.ResumeStrategy = "guess" }, wantErr: true},
		{name: "empty output", modify: func(f *Flags) { f.OutputPath = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := NewFlags()
			tt.modify(flags)
			if err := flags.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
