// Package report summarizes the state of a translation sink for --status.
package report

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"codeberg.org/snonux/alpacatrans/internal/checkpoint"
)

// maxListed caps how many recovery targets are spelled out
const maxListed = 10

// Status describes a sink against its source dataset
type Status struct {
	Records     int
	Lines       int
	Valid       int
	Missing     int
	Malformed   int
	Targets     []int
	ResumePoint int
}

// Build reconciles the sink at path against total source records
func Build(path string, total int, logger *slog.Logger) (*Status, error) {
	state, err := checkpoint.Reconcile(path, total)
	if err != nil {
		return nil, err
	}
	resume, err := checkpoint.ResumePoint(path, logger)
	if err != nil {
		return nil, err
	}

	return &Status{
		Records:     total,
		Lines:       state.Lines,
		Valid:       len(state.Valid),
		Missing:     len(state.Missing()),
		Malformed:   len(state.Malformed),
		Targets:     state.Targets(),
		ResumePoint: resume,
	}, nil
}

// Percent is the share of source records with a valid line
func (s *Status) Percent() float64 {
	if s.Records == 0 {
		return 0
	}
	covered := s.Records - s.Missing
	return float64(covered) * 100 / float64(s.Records)
}

// Render formats the status as a table
func (s *Status) Render() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Source records", strconv.Itoa(s.Records)},
		{"Sink lines", strconv.Itoa(s.Lines)},
		{"Valid indices", strconv.Itoa(s.Valid)},
		{"Missing", strconv.Itoa(s.Missing)},
		{"Malformed lines", strconv.Itoa(s.Malformed)},
		{"Recovery targets", strconv.Itoa(len(s.Targets))},
		{"Resume point", strconv.Itoa(s.ResumePoint)},
		{"Complete", fmt.Sprintf("%.1f%%", s.Percent())},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	out := tw.Render()
	if len(s.Targets) > 0 {
		out += "\nRecovery targets: " + listTargets(s.Targets)
	}
	return out
}

func listTargets(targets []int) string {
	shown := targets
	if len(shown) > maxListed {
		shown = shown[:maxListed]
	}
	parts := make([]string, len(shown))
	for i, t := range shown {
		parts[i] = strconv.Itoa(t)
	}
	list := strings.Join(parts, ", ")
	if rest := len(targets) - len(shown); rest > 0 {
		list += fmt.Sprintf(" ... and %d more", rest)
	}
	return list
}
