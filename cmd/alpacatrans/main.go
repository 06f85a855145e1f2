package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/alpacatrans/internal/cli"
	"codeberg.org/snonux/alpacatrans/internal/dataset"
	"codeberg.org/snonux/alpacatrans/internal/finalize"
	"codeberg.org/snonux/alpacatrans/internal/logging"
	"codeberg.org/snonux/alpacatrans/internal/models"
	"codeberg.org/snonux/alpacatrans/internal/processor"
	"codeberg.org/snonux/alpacatrans/internal/report"
	"codeberg.org/snonux/alpacatrans/internal/translation"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, flags *cli.Flags) error {
	cli.Resolve(flags)
	if err := flags.Validate(); err != nil {
		return err
	}

	logger := logging.New(os.Stderr, flags.Debug)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backendConfig := cli.BackendConfig(flags)

	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(backendConfig)
		return lister.ListAvailableModels(ctx, os.Stdout, flags.Model)
	}

	// Handle --finalize flag
	if flags.Finalize {
		result, err := finalize.Run(flags.OutputPath, logger)
		if err != nil {
			return fmt.Errorf("failed to finalize output: %w", err)
		}
		logger.Info("Output finalized",
			"kept", result.Kept, "duplicates", result.Duplicates, "malformed", result.Malformed)
		fmt.Printf("\nDone! Final dataset written to: %s\n", flags.OutputPath)
		return nil
	}

	// Handle --status flag
	if flags.Status {
		records, err := dataset.Load(flags.InputPath)
		if err != nil {
			return err
		}
		status, err := report.Build(flags.OutputPath, len(records), logger)
		if err != nil {
			return err
		}
		fmt.Println(status.Render())
		return nil
	}

	backend, err := translation.NewBackend(ctx, backendConfig)
	if err != nil {
		return err
	}
	translator := translation.NewTranslator(backend, translation.WithLogger(logger))

	proc := processor.NewProcessor(flags, translator, logger)
	if err := proc.LoadRecords(); err != nil {
		return err
	}

	logger.Debug("Using backend", "provider", backend.Name(), "model", flags.Model, "base_url", flags.BaseURL)

	var summary *processor.Summary
	if flags.Recover {
		summary, err = proc.Recover(ctx)
	} else {
		summary, err = proc.Run(ctx)
	}
	if summary != nil {
		logSummary(logger, summary, translator.Attempts())
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nDone! Translations saved to: %s\n", flags.OutputPath)
	return nil
}

func logSummary(logger *slog.Logger, s *processor.Summary, attempts int) {
	logger.Info("Summary",
		"records", s.Records,
		"resumed_from", s.ResumedFrom,
		"targets", s.Targets,
		"batches", s.Batches,
		"written", s.Written,
		"skipped_batches", s.SkippedBatches,
		"skipped_items", s.SkippedItems,
		"requests", attempts)
}
