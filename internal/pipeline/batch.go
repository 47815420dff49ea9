package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/matsen/papersage/internal/paper"
)

// PDFExt is the extension of files picked up from the intake directory.
const PDFExt = ".pdf"

// Processor processes a single document.
type Processor interface {
	Process(ctx context.Context, doc *Document) (Outcome, error)
}

// Recorder persists the result of each attempted document.
type Recorder interface {
	Record(result DocumentResult) error
}

// DocumentResult is the outcome of one document in a batch.
type DocumentResult struct {
	Outcome
	Err        error     `json:"-"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	Succeeded   int              `json:"succeeded"`
	Total       int              `json:"total"`
	Interrupted bool             `json:"interrupted,omitempty"`
	Documents   []DocumentResult `json:"documents"`
}

// Failed returns the number of documents that did not reach the archive.
func (r BatchResult) Failed() int {
	return len(r.Documents) - r.Succeeded
}

// Runner applies a Processor to documents one at a time.
type Runner struct {
	processor Processor
	reporter  Reporter
	recorder  Recorder
	logger    *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBatchReporter sets the status event sink for batch-level messages.
func WithBatchReporter(r Reporter) RunnerOption {
	return func(rn *Runner) {
		if r != nil {
			rn.reporter = r
		}
	}
}

// WithRecorder sets where per-document results are persisted.
func WithRecorder(rec Recorder) RunnerOption {
	return func(rn *Runner) {
		rn.recorder = rec
	}
}

// WithLogger sets the logger for diagnostics that are not status events.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(rn *Runner) {
		if l != nil {
			rn.logger = l
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(processor Processor, opts ...RunnerOption) *Runner {
	r := &Runner{
		processor: processor,
		reporter:  Discard,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes paths in order. A failing document is recorded and the
// batch moves on. An empty override means every document is classified.
// Run stops early, without starting another document, once ctx is done.
func (r *Runner) Run(ctx context.Context, paths []string, override paper.Category) BatchResult {
	result := BatchResult{Total: len(paths)}

	if len(paths) == 0 {
		r.reporter.Report(Event{Stage: StageBatch, Message: "No PDFs to process: nothing to do"})
		return result
	}

	r.reporter.Report(Event{Stage: StageBatch, Message: fmt.Sprintf("Processing %d PDF(s)", len(paths))})
	if override != "" {
		r.reporter.Report(Event{Stage: StageBatch, Message: fmt.Sprintf("Paper type specified: %s", override)})
	}

	for i, path := range paths {
		if ctx.Err() != nil {
			result.Interrupted = true
			r.logger.Warn("batch interrupted", "remaining", len(paths)-i, "error", ctx.Err())
			break
		}

		doc := NewDocument(path, override)
		r.reporter.Report(Event{
			Document: doc.Name(),
			Stage:    StageBegin,
			Message:  fmt.Sprintf("[%d/%d] %s", i+1, len(paths), doc.Name()),
		})

		res := r.processOne(ctx, doc)
		if res.Err == nil {
			result.Succeeded++
		} else {
			r.logger.Error("document failed", "document", path, "state", string(res.State), "error", res.Err)
		}
		result.Documents = append(result.Documents, res)

		if r.recorder != nil {
			if err := r.recorder.Record(res); err != nil {
				r.logger.Warn("recording result failed", "document", path, "error", err)
			}
		}
	}

	r.reporter.Report(Event{
		Stage:   StageBatch,
		Message: fmt.Sprintf("\nDone: %d/%d succeeded", result.Succeeded, result.Total),
	})
	return result
}

// processOne runs the processor, turning a panic into an error so one bad
// document cannot take the batch down.
func (r *Runner) processOne(ctx context.Context, doc *Document) (res DocumentResult) {
	res.StartedAt = time.Now()
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("unexpected panic: %v", p)
			if res.State == "" || !res.State.Failed() {
				res.State = failureStateFor(doc)
			}
			r.reporter.Report(Event{Document: doc.Name(), Stage: StageBatch, Failed: true, Message: res.Err.Error()})
		}
		if res.Document == "" {
			res.Document = doc.Path
		}
		if res.Err != nil {
			res.Error = res.Err.Error()
		}
		res.FinishedAt = time.Now()
	}()

	res.Outcome, res.Err = r.processor.Process(ctx, doc)
	return res
}

// failureStateFor picks a failure state from where the PDF currently is.
func failureStateFor(doc *Document) State {
	if doc.Location() == doc.Path {
		return StateFailedNoMove
	}
	return StateFailedRollback
}

// Scan lists the PDFs directly inside dir, sorted by name. A missing
// directory is not an error and yields no paths.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading intake directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), PDFExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
