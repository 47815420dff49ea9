package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/matsen/papersage/internal/anthropic"
	"github.com/matsen/papersage/internal/config"
	"github.com/matsen/papersage/internal/ledger"
	"github.com/matsen/papersage/internal/logging"
	"github.com/matsen/papersage/internal/pipeline"
	"github.com/matsen/papersage/internal/progress"
	"github.com/matsen/papersage/internal/prompts"
	"github.com/matsen/papersage/internal/summarize"
)

// mustLoadConfig resolves configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		if humanOutput {
			fmt.Fprintf(os.Stderr, "error: %v\n\n%s\n", err, config.HelpfulConfigMessage())
			os.Exit(ExitConfigError)
		}
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// mustLoadPrompts reads the prompt templates, exits on error.
func mustLoadPrompts(cfg *config.Config) prompts.Set {
	set, err := prompts.Load(cfg.PromptsPath())
	if err != nil {
		if errors.Is(err, prompts.ErrPromptLoad) {
			exitWithError(ExitPromptError, "%v", err)
		}
		exitWithError(ExitError, "loading prompts: %v", err)
	}
	return set
}

// newLogger builds the diagnostic logger. The --log-level flag wins over configuration.
func newLogger(cfg *config.Config) *slog.Logger {
	level := logLevel
	if level == "" && cfg != nil {
		level = cfg.LogLevel
	}
	logger := logging.New(os.Stderr, level)
	slog.SetDefault(logger)
	return logger
}

// progressOptions returns indicator options from the command-line flags.
func progressOptions() []progress.Option {
	if noProgress {
		return []progress.Option{progress.WithAnimation(false)}
	}
	return nil
}

// newSummarizer wires the backend client to a summarization client.
func newSummarizer(cfg *config.Config) *summarize.Client {
	backend := anthropic.NewClient(cfg.APIKey,
		anthropic.WithBaseURL(cfg.BaseURL),
		anthropic.WithModel(cfg.Model),
		anthropic.WithMaxTokens(cfg.MaxTokens),
	)
	return summarize.New(backend, statusWriter(), summarize.WithProgressOptions(progressOptions()...))
}

// openLedger opens the run history. A ledger that cannot be opened is
// logged and skipped; the run goes ahead without history.
func openLedger(cfg *config.Config, logger *slog.Logger) *ledger.Ledger {
	l, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		logger.Warn("run history unavailable", "path", cfg.LedgerPath(), "error", err)
		return nil
	}
	return l
}

// ledgerRecorder stores batch results in the ledger.
type ledgerRecorder struct {
	ledger *ledger.Ledger
}

// Record implements pipeline.Recorder.
func (r ledgerRecorder) Record(res pipeline.DocumentResult) error {
	return r.ledger.Record(toLedgerRecord(res))
}

func toLedgerRecord(res pipeline.DocumentResult) ledger.Record {
	return ledger.Record{
		Source:      res.Document,
		Category:    string(res.Category),
		State:       string(res.State),
		Error:       res.Error,
		Destination: res.Destination,
		StartedAt:   res.StartedAt,
		FinishedAt:  res.FinishedAt,
	}
}
