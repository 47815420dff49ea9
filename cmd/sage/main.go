// Package main provides the sage CLI entry point.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/papersage/internal/paper"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	noProgress  bool
	logLevel    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sage [empirical|theoretical|review]",
	Short: "File downloaded papers into an Obsidian vault with summaries",
	Long: `sage files academic papers from the vault's downloads folder.

Each PDF is classified as empirical, theoretical or review, moved to
MyPage/Research/<type>/<name>/ and summarized with the matching prompt
from _prompts/. The summary is saved next to the PDF as summary.md.
A PDF whose summary fails is moved back to downloads.

Pass a paper type to skip classification for every PDF in this run.

Environment Variables:
  ANTHROPIC_API_KEY     API key for the summarization backend (required)
  OBSIDIAN_VAULT_PATH   Root of the Obsidian vault (required)
  PAPERSAGE_MODEL       Model name (default claude-sonnet-4-20250514)
  PAPERSAGE_MAX_TOKENS  Maximum summary length in tokens (default 3000)
  PAPERSAGE_LOG_LEVEL   debug, info, warn or error (default info)

Results are printed as JSON unless --human is given.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runBatch,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (for ANTHROPIC_API_KEY and OBSIDIAN_VAULT_PATH)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "Disable the progress spinner")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides PAPERSAGE_LOG_LEVEL)")
	rootCmd.Version = Version
}

// resolveOverride turns the optional positional argument into a category.
// An unknown value is reported on warn and ignored.
func resolveOverride(args []string, warn io.Writer) paper.Category {
	if len(args) == 0 {
		return ""
	}
	c, err := paper.ParseCategory(args[0])
	if err != nil {
		fmt.Fprintf(warn, "warning: unknown paper type %q\n", args[0])
		fmt.Fprintf(warn, "  valid values: %s\n", strings.Join(paper.Names(), ", "))
		fmt.Fprintln(warn, "  continuing with automatic classification")
		return ""
	}
	return c
}
