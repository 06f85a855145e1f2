package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/snonux/alpacatrans/internal/checkpoint"
	"codeberg.org/snonux/alpacatrans/internal/cli"
	"codeberg.org/snonux/alpacatrans/internal/dataset"
	"codeberg.org/snonux/alpacatrans/internal/sink"
)

// Translator turns a batch of records into translated JSON elements. A nil
// result with a nil error marks a failed batch.
type Translator interface {
	Translate(ctx context.Context, batch []dataset.Record) ([]json.RawMessage, error)
}

// Output is the append-only sink both drivers write to
type Output interface {
	Append(obj dataset.Object, index int) error
	Flush() error
	Close() error
	Path() string
	Written() int
}

// Processor handles the main translation logic
type Processor struct {
	flags      *cli.Flags
	translator Translator
	logger     *slog.Logger
	records    []dataset.Record
	openOutput func(path string) (Output, error)
}

func openSink(path string) (Output, error) {
	w, err := sink.Open(path)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Summary reports what a run did
type Summary struct {
	Records        int
	ResumedFrom    int
	Targets        int
	Batches        int
	Written        int
	SkippedBatches int
	SkippedItems   int
}

// NewProcessor creates a new processor
func NewProcessor(flags *cli.Flags, translator Translator, logger *slog.Logger) *Processor {
	return &Processor{
		flags:      flags,
		translator: translator,
		logger:     logger,
		openOutput: openSink,
	}
}

// LoadRecords reads the source dataset. It must succeed before Run or
// Recover.
func (p *Processor) LoadRecords() error {
	records, err := dataset.Load(p.flags.InputPath)
	if err != nil {
		return err
	}
	p.records = records
	p.logger.Debug("Loaded dataset", "path", p.flags.InputPath, "records", len(records))
	return nil
}

// Run translates every record after the resume point in batches. The
// sink is locked before the resume point is read.
func (p *Processor) Run(ctx context.Context) (summary *Summary, err error) {
	total := len(p.records)
	out, err := p.openOutput(p.flags.OutputPath)
	if err != nil {
		return nil, err
	}
	summary = &Summary{Records: total}
	defer func() {
		summary.Written = out.Written()
		err = errors.Join(err, out.Close())
	}()

	processed, err := checkpoint.Resume(out.Path(), total, p.flags.ResumeStrategy, p.logger)
	if err != nil {
		return summary, err
	}
	if processed > total {
		processed = total
	}

	summary.ResumedFrom = processed
	remaining := p.records[processed:]
	p.logger.Info(fmt.Sprintf("Resuming from item %d, processing %d items in batches of %d.",
		processed, len(remaining), p.flags.BatchSize))

	batchSize := p.flags.BatchSize
	for i := 0; i < len(remaining); i += batchSize {
		batchStart := processed + i
		batchEnd := min(batchStart+batchSize, total)
		batch := remaining[i : batchEnd-processed]
		summary.Batches++

		p.logger.Info(fmt.Sprintf("Translating items %d–%d/%d", batchStart+1, batchEnd, total))

		translated, err := p.translator.Translate(ctx, batch)
		if err != nil {
			return summary, fmt.Errorf("batch %d–%d: %w", batchStart+1, batchEnd, err)
		}
		if translated == nil {
			p.logger.Warn(fmt.Sprintf("Skipping batch %d–%d: Invalid response format.", batchStart+1, batchEnd))
			summary.SkippedBatches++
			summary.SkippedItems += len(batch)
			continue
		}

		if len(translated) != len(batch) {
			p.logger.Warn("Response length does not match batch",
				"first", batchStart+1, "last", batchEnd,
				"expected", len(batch), "got", len(translated))
		}
		if len(translated) > len(batch) {
			translated = translated[:len(batch)]
		} else {
			summary.SkippedItems += len(batch) - len(translated)
		}

		for k, raw := range translated {
			index := batchStart + k + 1
			ok, err := p.appendElement(out, raw, index)
			if err != nil {
				return summary, err
			}
			if !ok {
				summary.SkippedItems++
			}
		}

		if err := out.Flush(); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// Recover re-translates every missing or malformed index one record at a
// time. The sink is locked before it is scanned.
func (p *Processor) Recover(ctx context.Context) (summary *Summary, err error) {
	total := len(p.records)
	p.logger.Info("Recovery mode activated...")

	out, err := p.openOutput(p.flags.OutputPath)
	if err != nil {
		return nil, err
	}
	summary = &Summary{Records: total}
	defer func() {
		summary.Written = out.Written()
		err = errors.Join(err, out.Close())
	}()

	state, err := checkpoint.Reconcile(out.Path(), total)
	if err != nil {
		return summary, err
	}
	targets := state.Targets()
	summary.Targets = len(targets)
	p.logger.Info(fmt.Sprintf("Found %d skipped/malformed items to recover.", len(targets)))

	for _, index := range targets {
		if index < 1 || index > total {
			p.logger.Error(fmt.Sprintf("Invalid index %d in input data.", index), "records", total)
			summary.SkippedItems++
			continue
		}

		summary.Batches++
		translated, err := p.translator.Translate(ctx, p.records[index-1:index])
		if err != nil {
			return summary, fmt.Errorf("index %d: %w", index, err)
		}
		if len(translated) == 0 || !dataset.IsObject(translated[0]) {
			p.logger.Warn(fmt.Sprintf("Still malformed after retry: index %d", index))
			summary.SkippedItems++
			continue
		}

		ok, err := p.appendElement(out, translated[0], index)
		if err != nil {
			return summary, err
		}
		if !ok {
			summary.SkippedItems++
			continue
		}

		if err := out.Flush(); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// appendElement writes one translated element if it is an object. It
// reports false for elements that had to be skipped.
func (p *Processor) appendElement(out Output, raw json.RawMessage, index int) (bool, error) {
	obj, err := dataset.DecodeObject(raw)
	if err != nil {
		p.logger.Warn(fmt.Sprintf("Skipping malformed item at batch index %d:", index),
			"item", string(raw))
		return false, nil
	}
	if err := out.Append(obj, index); err != nil {
		return false, err
	}
	return true, nil
}
