package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/papersage/internal/paper"
)

type recordingReporter struct {
	events []Event
}

func (r *recordingReporter) Report(e Event) {
	r.events = append(r.events, e)
}

func (r *recordingReporter) messages() []string {
	var out []string
	for _, e := range r.events {
		out = append(out, e.Message)
	}
	return out
}

type memRecorder struct {
	results []DocumentResult
	err     error
}

func (m *memRecorder) Record(res DocumentResult) error {
	m.results = append(m.results, res)
	return m.err
}

type panicProcessor struct {
	panicOn string
	inner   Processor
}

func (p panicProcessor) Process(ctx context.Context, doc *Document) (Outcome, error) {
	if doc.Name() == p.panicOn {
		panic("corrupt object stream")
	}
	return p.inner.Process(ctx, doc)
}

func TestRun_IsolatesFailures(t *testing.T) {
	f := newFixture(t)
	a := f.addPDF(t, "a.pdf", "regression")
	b := f.addPDF(t, "b.pdf", "framework")
	c := f.addPDF(t, "c.pdf", "meta-analysis")
	f.extractor.errs["b.pdf"] = errors.New("encrypted")

	rep := &recordingReporter{}
	rec := &memRecorder{}
	result := NewRunner(f.pipeline, WithBatchReporter(rep), WithRecorder(rec)).
		Run(context.Background(), []string{a, b, c}, "")

	if result.Total != 3 || result.Succeeded != 2 || result.Failed() != 1 {
		t.Fatalf("result = %+v, want 2/3 succeeded", result)
	}
	if len(result.Documents) != 3 {
		t.Fatalf("got %d document results, want 3", len(result.Documents))
	}

	wantStates := []State{StateArchived, StateFailedNoMove, StateArchived}
	for i, want := range wantStates {
		if got := result.Documents[i].State; got != want {
			t.Errorf("document %d state = %s, want %s", i, got, want)
		}
	}
	failed := result.Documents[1]
	if !errors.Is(failed.Err, ErrExtraction) || !strings.Contains(failed.Error, "encrypted") {
		t.Errorf("failed document error = %v / %q", failed.Err, failed.Error)
	}
	if !exists(b) {
		t.Error("b.pdf should remain in intake")
	}
	if !exists(filepath.Join(f.root, "review", "c", "c.pdf")) {
		t.Error("c.pdf should be archived after b.pdf failed")
	}

	if len(rec.results) != 3 {
		t.Errorf("recorder got %d results, want 3", len(rec.results))
	}

	msgs := rep.messages()
	if msgs[0] != "Processing 3 PDF(s)" {
		t.Errorf("first message = %q", msgs[0])
	}
	if msgs[1] != "[1/3] a.pdf" {
		t.Errorf("second message = %q", msgs[1])
	}
	if last := msgs[len(msgs)-1]; last != "\nDone: 2/3 succeeded" {
		t.Errorf("last message = %q", last)
	}
}

func TestRun_Empty(t *testing.T) {
	rep := &recordingReporter{}
	rec := &memRecorder{}
	result := NewRunner(nil, WithBatchReporter(rep), WithRecorder(rec)).
		Run(context.Background(), nil, "")

	if result.Total != 0 || result.Succeeded != 0 || len(result.Documents) != 0 {
		t.Errorf("result = %+v, want zero counts", result)
	}
	if len(rep.events) != 1 || !strings.Contains(rep.events[0].Message, "nothing to do") {
		t.Errorf("events = %+v, want a single nothing-to-do event", rep.events)
	}
	if len(rec.results) != 0 {
		t.Error("recorder should not be called for an empty batch")
	}
}

func TestRun_Override(t *testing.T) {
	f := newFixture(t)
	a := f.addPDF(t, "a.pdf", "regression")
	b := f.addPDF(t, "b.pdf", "framework")

	rep := &recordingReporter{}
	result := NewRunner(f.pipeline, WithBatchReporter(rep)).
		Run(context.Background(), []string{a, b}, paper.Theoretical)

	if result.Succeeded != 2 {
		t.Fatalf("Succeeded = %d, want 2", result.Succeeded)
	}
	for _, d := range result.Documents {
		if d.Category != paper.Theoretical || !d.Overridden {
			t.Errorf("%s: category = %s overridden=%v", d.Document, d.Category, d.Overridden)
		}
	}
	if rep.events[1].Message != "Paper type specified: theoretical" {
		t.Errorf("second event = %q", rep.events[1].Message)
	}
}

func TestRun_SummarizationFailuresRollBackEachDocument(t *testing.T) {
	f := newFixture(t)
	a := f.addPDF(t, "a.pdf", "regression FAIL")
	b := f.addPDF(t, "b.pdf", "regression")
	f.summarizer.failFor = "FAIL"

	result := NewRunner(f.pipeline).Run(context.Background(), []string{a, b}, "")

	if result.Succeeded != 1 {
		t.Fatalf("Succeeded = %d, want 1", result.Succeeded)
	}
	if result.Documents[0].State != StateFailedRolledBack {
		t.Errorf("a.pdf state = %s, want %s", result.Documents[0].State, StateFailedRolledBack)
	}

	// A rolled-back document is picked up again by the next scan.
	remaining, err := Scan(f.intake)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0] != a {
		t.Errorf("Scan() = %v, want [%s]", remaining, a)
	}
}

func TestRun_RecoversPanics(t *testing.T) {
	f := newFixture(t)
	a := f.addPDF(t, "a.pdf", "regression")
	b := f.addPDF(t, "b.pdf", "regression")

	proc := panicProcessor{panicOn: "a.pdf", inner: f.pipeline}
	result := NewRunner(proc).Run(context.Background(), []string{a, b}, "")

	if result.Succeeded != 1 {
		t.Fatalf("Succeeded = %d, want 1", result.Succeeded)
	}
	first := result.Documents[0]
	if first.State != StateFailedNoMove {
		t.Errorf("panicked document state = %s, want %s", first.State, StateFailedNoMove)
	}
	if !strings.Contains(first.Error, "corrupt object stream") {
		t.Errorf("Error = %q, want panic value", first.Error)
	}
	if first.Document != a {
		t.Errorf("Document = %q, want %q", first.Document, a)
	}
}

func TestRun_RecorderErrorsAreNotFatal(t *testing.T) {
	f := newFixture(t)
	a := f.addPDF(t, "a.pdf", "regression")

	rec := &memRecorder{err: errors.New("database is locked")}
	result := NewRunner(f.pipeline, WithRecorder(rec)).Run(context.Background(), []string{a}, "")

	if result.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1", result.Succeeded)
	}
	if len(rec.results) != 1 {
		t.Errorf("recorder called %d times, want 1", len(rec.results))
	}
}

func TestRun_StopsWhenContextDone(t *testing.T) {
	f := newFixture(t)
	a := f.addPDF(t, "a.pdf", "regression")
	b := f.addPDF(t, "b.pdf", "regression")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewRunner(f.pipeline).Run(ctx, []string{a, b}, "")
	if !result.Interrupted {
		t.Error("Interrupted = false, want true")
	}
	if len(result.Documents) != 0 {
		t.Errorf("processed %d documents after cancellation", len(result.Documents))
	}
	if !exists(a) || !exists(b) {
		t.Error("no document should be moved after cancellation")
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PDF", "notes.txt", "c.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "nested.pdf", "d.pdf"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.PDF"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "c.pdf"),
	}
	if len(got) != len(want) {
		t.Fatalf("Scan() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scan()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScan_MissingDirectory(t *testing.T) {
	got, err := Scan(filepath.Join(t.TempDir(), "downloads"))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Scan() = %v, want empty", got)
	}
}

func TestConsole(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"batch", Event{Stage: StageBatch, Message: "Processing 2 PDF(s)"}, "Processing 2 PDF(s)\n"},
		{"begin", Event{Stage: StageBegin, Message: "[1/2] a.pdf"}, "\n[1/2] a.pdf\n"},
		{"ok", Event{Stage: StageRelocate, Message: "moved to empirical/a/a.pdf"}, "  ✓ moved to empirical/a/a.pdf\n"},
		{"failed", Event{Stage: StageExtract, Failed: true, Message: "text extraction failed: bad"}, "  ✗ text extraction failed: bad\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewConsole(&buf).Report(tt.event)
			if buf.String() != tt.want {
				t.Errorf("Report() wrote %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestStageError(t *testing.T) {
	cause := errors.New("permission denied")
	err := error(&StageError{Stage: StageRelocate, Document: "a.pdf", Err: cause})

	if got, want := err.Error(), "a.pdf: relocation failed: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrRelocation) || !errors.Is(err, cause) {
		t.Error("errors.Is should match the stage sentinel and the cause")
	}
	if errors.Is(err, ErrExtraction) {
		t.Error("errors.Is should not match another stage's sentinel")
	}
}

func TestLoggerReporter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	Multi(NewLogger(log), Discard).Report(Event{Document: "a.pdf", Stage: StageExtract, Failed: true, Message: "no text"})

	out := buf.String()
	for _, want := range []string{"level=DEBUG", "msg=\"no text\"", "document=a.pdf", "stage=extract", "failed=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}
