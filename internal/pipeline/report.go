package pipeline

import (
	"fmt"
	"io"
	"log/slog"
)

// Event is a human-readable status update from the pipeline or batch runner.
// Events are informational only; nothing depends on how they are handled.
type Event struct {
	Document string `json:"document,omitempty"`
	Stage    Stage  `json:"stage"`
	Failed   bool   `json:"failed,omitempty"`
	Message  string `json:"message"`
}

// Reporter receives status events.
type Reporter interface {
	// Report is called once per event, on the goroutine driving the batch.
	Report(Event)
}

// ReporterFunc is a function adapter for Reporter.
type ReporterFunc func(Event)

// Report implements Reporter.
func (f ReporterFunc) Report(e Event) {
	f(e)
}

// Discard drops every event.
var Discard Reporter = ReporterFunc(func(Event) {})

// Console writes events as indented status lines.
type Console struct {
	out io.Writer
}

// NewConsole creates a Console reporter writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Report implements Reporter.
func (c *Console) Report(e Event) {
	switch {
	case e.Stage == StageBatch:
		fmt.Fprintln(c.out, e.Message)
	case e.Stage == StageBegin:
		fmt.Fprintf(c.out, "\n%s\n", e.Message)
	case e.Failed:
		fmt.Fprintf(c.out, "  ✗ %s\n", e.Message)
	default:
		fmt.Fprintf(c.out, "  ✓ %s\n", e.Message)
	}
}

// Logger forwards events to a structured logger at debug level.
type Logger struct {
	log *slog.Logger
}

// NewLogger creates a Logger reporter.
func NewLogger(log *slog.Logger) *Logger {
	return &Logger{log: log}
}

// Report implements Reporter.
func (l *Logger) Report(e Event) {
	l.log.Debug(e.Message, "document", e.Document, "stage", string(e.Stage), "failed", e.Failed)
}

// Multi fans events out to several reporters in order.
func Multi(reporters ...Reporter) Reporter {
	return ReporterFunc(func(e Event) {
		for _, r := range reporters {
			r.Report(e)
		}
	})
}
