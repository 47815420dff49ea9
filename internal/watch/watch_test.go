package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// recorder counts trigger calls and lets tests wait for them.
type recorder struct {
	mu    sync.Mutex
	calls int
	ch    chan int

	// onRun, when set, runs inside the trigger and supplies its result.
	onRun func(n int) []string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan int, 16)}
}

func (r *recorder) trigger(ctx context.Context) []string {
	r.mu.Lock()
	r.calls++
	n := r.calls
	r.mu.Unlock()

	var left []string
	if r.onRun != nil {
		left = r.onRun(n)
	}
	r.ch <- n
	return left
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *recorder) wait(t *testing.T, want int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case n := <-r.ch:
			if n >= want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for trigger call %d", want)
		}
	}
}

func startWatcher(t *testing.T, dir string, rec *recorder) (cancel func()) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan error, 1)
	w := New(dir, ".pdf", rec.trigger, WithSettle(50*time.Millisecond))
	go func() { done <- w.Run(ctx) }()

	return func() {
		cancelCtx()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run() did not return after cancel")
		}
	}
}

func TestWatcher_RunsOnStartAndOnNewPDF(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	stop := startWatcher(t, dir, rec)
	defer stop()

	rec.wait(t, 1)

	if err := os.WriteFile(filepath.Join(dir, "new.pdf"), []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}
	rec.wait(t, 2)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	stop := startWatcher(t, dir, rec)

	rec.wait(t, 1)
	if err := os.WriteFile(filepath.Join(dir, "paper.pdf.crdownload"), []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	stop()

	if n := rec.count(); n != 1 {
		t.Errorf("trigger called %d times, want 1", n)
	}
}

func TestWatcher_LeftBehindPDFDoesNotRetrigger(t *testing.T) {
	dir := t.TempDir()
	elsewhere := t.TempDir()
	pdf := filepath.Join(dir, "a.pdf")

	rec := newRecorder()
	rec.onRun = func(n int) []string {
		if n != 2 {
			return nil
		}
		// Archive and roll back: the PDF leaves and comes back with a Create.
		moved := filepath.Join(elsewhere, "a.pdf")
		if err := os.Rename(pdf, moved); err != nil {
			t.Errorf("moving out: %v", err)
			return nil
		}
		if err := os.Rename(moved, pdf); err != nil {
			t.Errorf("moving back: %v", err)
			return nil
		}
		return []string{pdf}
	}
	stop := startWatcher(t, dir, rec)
	defer stop()

	rec.wait(t, 1)
	if err := os.WriteFile(pdf, []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}
	rec.wait(t, 2)

	time.Sleep(300 * time.Millisecond)
	if n := rec.count(); n != 2 {
		t.Fatalf("trigger called %d times after rollback, want 2", n)
	}

	// A fresh write to the same file means the user replaced it.
	if err := os.WriteFile(pdf, []byte("%PDF-1.7"), 0644); err != nil {
		t.Fatal(err)
	}
	rec.wait(t, 3)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), ".pdf", func(context.Context) []string { return nil })
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() should fail for a missing directory")
	}
}
