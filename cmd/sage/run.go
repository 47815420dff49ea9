package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matsen/papersage/internal/archive"
	"github.com/matsen/papersage/internal/classify"
	"github.com/matsen/papersage/internal/config"
	"github.com/matsen/papersage/internal/ledger"
	"github.com/matsen/papersage/internal/paper"
	"github.com/matsen/papersage/internal/pdf"
	"github.com/matsen/papersage/internal/pipeline"
)

// batch holds everything needed to process the intake directory.
type batch struct {
	cfg    *config.Config
	logger *slog.Logger
	runner *pipeline.Runner
	ledger *ledger.Ledger
}

// mustNewBatch loads configuration and prompts and wires the pipeline, exits on error.
// The caller must call close.
func mustNewBatch() *batch {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	set := mustLoadPrompts(cfg)
	keywords, err := cfg.KeywordSet()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	reporter := pipeline.Multi(pipeline.NewConsole(statusWriter()), pipeline.NewLogger(logger))
	pipe := pipeline.New(
		pdf.NewExtractor(0),
		classify.New(keywords),
		archive.NewLayout(cfg.ResearchPath()),
		newSummarizer(cfg),
		set,
		pipeline.WithReporter(reporter),
	)

	b := &batch{cfg: cfg, logger: logger, ledger: openLedger(cfg, logger)}
	opts := []pipeline.RunnerOption{
		pipeline.WithBatchReporter(reporter),
		pipeline.WithLogger(logger),
	}
	if b.ledger != nil {
		opts = append(opts, pipeline.WithRecorder(ledgerRecorder{ledger: b.ledger}))
	}
	b.runner = pipeline.NewRunner(pipe, opts...)
	return b
}

func (b *batch) close() {
	if b.ledger != nil {
		b.ledger.Close()
	}
}

// run scans the intake directory and processes every PDF found.
func (b *batch) run(ctx context.Context, override paper.Category) RunResponse {
	resp := RunResponse{IntakeDir: b.cfg.IntakePath()}

	paths, err := pipeline.Scan(b.cfg.IntakePath())
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if len(paths) == 0 {
		b.logger.Info("intake directory is empty", "path", b.cfg.IntakePath())
	} else if b.ledger != nil {
		if resp.RunID, err = b.ledger.BeginRun(); err != nil {
			b.logger.Warn("run history unavailable", "error", err)
		}
	}

	resp.BatchResult = b.runner.Run(ctx, paths, override)
	if resp.Documents == nil {
		resp.Documents = []pipeline.DocumentResult{}
	}
	return resp
}

func runBatch(cmd *cobra.Command, args []string) error {
	override := resolveOverride(args, os.Stderr)
	b := mustNewBatch()
	defer b.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp := b.run(ctx, override)

	if humanOutput {
		printFailuresHuman(os.Stdout, resp.BatchResult)
		return nil
	}
	outputJSON(resp)
	return nil
}
