package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matsen/papersage/internal/classify"
	"github.com/matsen/papersage/internal/ledger"
	"github.com/matsen/papersage/internal/pipeline"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputJSONCompact writes a value as compact JSON to stdout.
func outputJSONCompact(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// statusWriter returns where status lines and the spinner go. In JSON mode
// stdout is reserved for the result document.
func statusWriter() io.Writer {
	if humanOutput {
		return os.Stdout
	}
	return os.Stderr
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RunResponse is the result of a batch run.
type RunResponse struct {
	RunID     string `json:"run_id,omitempty"`
	IntakeDir string `json:"intake_dir"`
	pipeline.BatchResult
}

// ClassifyResult is one document in the classify command output.
type ClassifyResult struct {
	Path     string          `json:"path"`
	Category string          `json:"category,omitempty"`
	Scores   classify.Scores `json:"scores,omitempty"`
	DOI      string          `json:"doi,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	VaultPath   string              `json:"vault_path"`
	ResearchDir string              `json:"research_dir"`
	IntakeDir   string              `json:"intake_dir"`
	PromptsDir  string              `json:"prompts_dir"`
	LedgerPath  string              `json:"ledger_path"`
	ConfigFile  string              `json:"config_file"`
	Model       string              `json:"model"`
	MaxTokens   int                 `json:"max_tokens"`
	BaseURL     string              `json:"base_url"`
	LogLevel    string              `json:"log_level"`
	APIKeySet   bool                `json:"api_key_set"`
	Keywords    map[string][]string `json:"keywords"`
}

// printFailuresHuman lists documents that did not reach the archive.
func printFailuresHuman(w io.Writer, result pipeline.BatchResult) {
	if result.Failed() == 0 {
		return
	}
	fmt.Fprintf(w, "\nFailed (%d):\n", result.Failed())
	for _, d := range result.Documents {
		if d.Err == nil {
			continue
		}
		fmt.Fprintf(w, "  %s [%s]\n    %s\n", d.Document, d.State, d.Error)
		if d.State == pipeline.StateFailedRollback {
			fmt.Fprintf(w, "    PDF left at %s; move it back to downloads by hand\n", d.Destination)
		}
	}
}

// printHistoryHuman prints ledger records newest first.
func printHistoryHuman(w io.Writer, records []ledger.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No history recorded")
		return
	}
	for _, r := range records {
		category := r.Category
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(w, "%s  %-18s %-11s %s\n",
			r.FinishedAt.Local().Format(time.DateTime), r.State, category, r.Source)
		if r.Error != "" {
			fmt.Fprintf(w, "    %s\n", r.Error)
		}
	}
}
