package cli

import (
	"time"

	"codeberg.org/snonux/alpacatrans/internal/checkpoint"
	"codeberg.org/snonux/alpacatrans/internal/translation"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile        string
	InputPath      string
	OutputPath     string
	BatchSize      int
	Recover        bool
	Finalize       bool
	Status         bool
	ListModels     bool
	Debug          bool
	ResumeStrategy string

	// Backend flags
	Provider string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		InputPath:      "data/alpaca_data.json",
		OutputPath:     "data/alpaca_data_pl.jsonl",
		BatchSize:      10,
		ResumeStrategy: checkpoint.StrategyLastLine,
		Provider:       translation.DefaultProvider,
		BaseURL:        translation.DefaultBaseURL,
		Model:          translation.DefaultModel,
	}
}
