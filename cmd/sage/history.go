package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/papersage/internal/ledger"
)

const defaultHistoryLimit = 20

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", defaultHistoryLimit, "Maximum records to return (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently processed PDFs",
	Long: `List the outcome of recently processed PDFs, newest first.

Every document a run attempts is recorded, including failures.

Examples:
  sage history
  sage history --limit 100 --human`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	l, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		exitWithError(ExitError, "opening history: %v", err)
	}
	defer l.Close()

	records, err := l.Recent(historyLimit)
	if err != nil {
		exitWithError(ExitError, "reading history: %v", err)
	}

	if humanOutput {
		printHistoryHuman(os.Stdout, records)
		return nil
	}
	if records == nil {
		records = []ledger.Record{}
	}
	outputJSON(records)
	return nil
}
