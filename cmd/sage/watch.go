package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/papersage/internal/pipeline"
	"github.com/matsen/papersage/internal/watch"
)

var watchSettle time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle, "Quiet period after the last change before processing")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [empirical|theoretical|review]",
	Short: "Process new PDFs as they arrive in the downloads folder",
	Long: `Process the downloads folder, then keep watching it and process
new PDFs as they arrive. Stop with Ctrl-C.

A PDF that fails is left in downloads and is not retried until the file
is written again.

Examples:
  sage watch --human
  sage watch --settle 5s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	override := resolveOverride(args, os.Stderr)
	b := mustNewBatch()
	defer b.close()

	if err := os.MkdirAll(b.cfg.IntakePath(), 0755); err != nil {
		exitWithError(ExitError, "creating intake directory: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trigger := func(ctx context.Context) []string {
		resp := b.run(ctx, override)
		if humanOutput {
			printFailuresHuman(os.Stdout, resp.BatchResult)
		} else if len(resp.Documents) > 0 {
			outputJSONCompact(resp)
		}
		return leftInIntake(resp.BatchResult)
	}

	w := watch.New(b.cfg.IntakePath(), pipeline.PDFExt, trigger,
		watch.WithSettle(watchSettle),
		watch.WithLogger(b.logger),
	)
	if err := w.Run(ctx); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return nil
}

// leftInIntake returns the documents a run left in the intake directory.
func leftInIntake(result pipeline.BatchResult) []string {
	var left []string
	for _, d := range result.Documents {
		switch d.State {
		case pipeline.StateFailedNoMove, pipeline.StateFailedRolledBack:
			left = append(left, d.Document)
		}
	}
	return left
}
