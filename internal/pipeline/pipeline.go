// Package pipeline files academic papers into the archive.
//
// A Pipeline takes one PDF through extraction, classification, relocation,
// summarization and persistence. Relocation happens before the backend call
// so that a failed summary can be rolled back by moving the PDF back to
// where it was found. A Runner applies the pipeline to a batch of PDFs one
// at a time and keeps going when a single document fails.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/matsen/papersage/internal/archive"
	"github.com/matsen/papersage/internal/classify"
	"github.com/matsen/papersage/internal/paper"
	"github.com/matsen/papersage/internal/prompts"
)

// State is the lifecycle position of a document within one pipeline run.
type State string

const (
	StateDiscovered    State = "discovered"
	StateTextExtracted State = "text_extracted"
	StateClassified    State = "classified"
	StateRelocated     State = "relocated"
	StateSummarized    State = "summarized"
	StateArchived      State = "archived"

	// StateFailedNoMove means the PDF never left the intake directory.
	StateFailedNoMove State = "failed_no_move"
	// StateFailedRolledBack means the PDF was moved back after summarization failed.
	StateFailedRolledBack State = "failed_rolled_back"
	// StateFailedUnpersisted means the PDF is archived but summary.md is missing.
	StateFailedUnpersisted State = "failed_unpersisted"
	// StateFailedRollback means summarization failed and the PDF could not be moved back.
	StateFailedRollback State = "failed_rollback"
)

// Failed reports whether s is a terminal failure state.
func (s State) Failed() bool {
	switch s {
	case StateFailedNoMove, StateFailedRolledBack, StateFailedUnpersisted, StateFailedRollback:
		return true
	}
	return false
}

// Extractor reads the text of a PDF.
type Extractor interface {
	ExtractText(path string) (string, error)
}

// Summarizer produces a summary of paper text.
type Summarizer interface {
	Summarize(ctx context.Context, systemPrompt, taskPrompt, documentText string) (string, error)
}

// Document is a PDF owned by a single pipeline run.
type Document struct {
	// Path is where the PDF was discovered.
	Path string
	// Override, when set, is used instead of classification.
	Override paper.Category

	location  string
	text      string
	extracted bool
}

// NewDocument creates a Document for the PDF at path.
func NewDocument(path string, override paper.Category) *Document {
	return &Document{Path: path, Override: override, location: path}
}

// Name returns the PDF file name.
func (d *Document) Name() string {
	return filepath.Base(d.Path)
}

// Location returns where the PDF currently is.
func (d *Document) Location() string {
	return d.location
}

// Text extracts the PDF text on first use and caches it.
func (d *Document) Text(ex Extractor) (string, error) {
	if d.extracted {
		return d.text, nil
	}
	text, err := ex.ExtractText(d.location)
	if err != nil {
		return "", err
	}
	d.text = text
	d.extracted = true
	return text, nil
}

// Outcome describes where a document ended up.
type Outcome struct {
	Document    string          `json:"document"`
	State       State           `json:"state"`
	Category    paper.Category  `json:"category,omitempty"`
	Overridden  bool            `json:"overridden,omitempty"`
	Scores      classify.Scores `json:"scores,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Summary     string          `json:"summary,omitempty"`
}

// Pipeline processes one document end to end.
type Pipeline struct {
	extractor  Extractor
	classifier *classify.Classifier
	layout     archive.Layout
	summarizer Summarizer
	prompts    prompts.Set
	reporter   Reporter
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithReporter sets the status event sink.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.reporter = r
		}
	}
}

// WithClock sets the time source for summary timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline.
func New(extractor Extractor, classifier *classify.Classifier, layout archive.Layout, summarizer Summarizer, set prompts.Set, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:  extractor,
		classifier: classifier,
		layout:     layout,
		summarizer: summarizer,
		prompts:    set,
		reporter:   Discard,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs doc through every stage. On error the returned Outcome's
// State is one of the failure states and the error is a *StageError.
func (p *Pipeline) Process(ctx context.Context, doc *Document) (Outcome, error) {
	out := Outcome{Document: doc.Path, State: StateDiscovered}

	text, err := doc.Text(p.extractor)
	if err != nil {
		out.State = StateFailedNoMove
		return out, p.fail(doc, StageExtract, err)
	}
	out.State = StateTextExtracted
	p.ok(doc, StageExtract, "extracted %d characters", utf8.RuneCountInString(text))

	if doc.Override != "" {
		out.Category = doc.Override
		out.Overridden = true
		p.ok(doc, StageClassify, "using specified type: %s", doc.Override)
	} else {
		result := p.classifier.Classify(text)
		out.Category = result.Category
		out.Scores = result.Scores
		p.ok(doc, StageClassify, "classified as %s (%s)", result.Category, result.Scores)
	}
	out.State = StateClassified

	baseName := archive.BaseName(doc.Path)
	destDir := p.layout.DestinationDir(out.Category, baseName)
	target := filepath.Join(destDir, doc.Name())
	if err := p.relocate(doc, destDir, target); err != nil {
		out.State = StateFailedNoMove
		return out, p.fail(doc, StageRelocate, err)
	}
	out.State = StateRelocated
	out.Destination = target
	p.ok(doc, StageRelocate, "moved to %s", p.relative(target))

	summary, err := p.summarize(ctx, out.Category, text)
	if err != nil {
		sumErr := p.fail(doc, StageSummarize, err)
		if rbErr := p.rollback(doc, destDir); rbErr != nil {
			out.State = StateFailedRollback
			return out, p.fail(doc, StageRollback, errors.Join(sumErr, rbErr))
		}
		out.State = StateFailedRolledBack
		out.Destination = ""
		p.ok(doc, StageRollback, "moved back to %s", doc.Path)
		return out, sumErr
	}
	out.State = StateSummarized

	summaryPath := filepath.Join(destDir, archive.SummaryFile)
	content := archive.Header(p.now(), out.Category, doc.Name()) + summary
	if err := writeFileAtomic(summaryPath, []byte(content)); err != nil {
		out.State = StateFailedUnpersisted
		return out, p.fail(doc, StagePersist, err)
	}
	out.State = StateArchived
	out.Summary = summaryPath
	p.ok(doc, StagePersist, "saved %s", archive.SummaryFile)

	return out, nil
}

// summarize calls the summarizer, converting a panic into an error so the
// relocated PDF is still rolled back.
func (p *Pipeline) summarize(ctx context.Context, c paper.Category, text string) (summary string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("summarizer panicked: %v", r)
		}
	}()
	return p.summarizer.Summarize(ctx, p.prompts.System, p.prompts.Task(c), text)
}

// relocate creates destDir and moves the PDF to target. An existing file at
// target is never overwritten.
func (p *Pipeline) relocate(doc *Document, destDir, target string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if _, err := os.Lstat(target); err == nil {
		return fmt.Errorf("%s already exists", target)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking destination: %w", err)
	}
	if err := os.Rename(doc.location, target); err != nil {
		_ = os.Remove(destDir) // only succeeds when empty
		return fmt.Errorf("moving PDF: %w", err)
	}
	doc.location = target
	return nil
}

// rollback moves the PDF back to where it was discovered and removes the
// paper directory if it is left empty.
func (p *Pipeline) rollback(doc *Document, destDir string) error {
	if doc.location == doc.Path {
		return nil
	}
	if err := os.Rename(doc.location, doc.Path); err != nil {
		return fmt.Errorf("moving PDF back to %s: %w", doc.Path, err)
	}
	doc.location = doc.Path
	_ = os.Remove(destDir) // only succeeds when empty
	return nil
}

// relative renders path relative to the archive root when possible.
func (p *Pipeline) relative(path string) string {
	if rel, err := filepath.Rel(p.layout.Root(), path); err == nil {
		return rel
	}
	return path
}

func (p *Pipeline) ok(doc *Document, stage Stage, format string, args ...any) {
	p.reporter.Report(Event{Document: doc.Name(), Stage: stage, Message: fmt.Sprintf(format, args...)})
}

func (p *Pipeline) fail(doc *Document, stage Stage, err error) error {
	stageErr := &StageError{Stage: stage, Document: doc.Name(), Err: err}
	p.reporter.Report(Event{
		Document: doc.Name(),
		Stage:    stage,
		Failed:   true,
		Message:  fmt.Sprintf("%s: %v", stage.kind(), err),
	})
	return stageErr
}

// writeFileAtomic writes data to a temporary file in the same directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".summary-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing summary: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting summary permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming summary into place: %w", err)
	}
	return nil
}
