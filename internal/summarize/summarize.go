// Package summarize builds summarization prompts and runs a single backend
// call under a progress indicator.
package summarize

import (
	"context"
	"io"
	"strings"

	"github.com/matsen/papersage/internal/progress"
)

const (
	// MaxDocumentChars is the number of characters of paper text sent to the backend.
	// Longer text is cut silently.
	MaxDocumentChars = 150000

	// sectionSeparator divides the system, task and document sections of a prompt.
	sectionSeparator = "\n\n---\n\n"

	// documentLabel introduces the paper text in a prompt.
	documentLabel = "Paper text:\n"

	// progressLabel is shown next to the spinner.
	progressLabel = "Calling summarization backend"
)

// Backend completes a single prompt.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client summarizes paper text through a Backend.
type Client struct {
	backend    Backend
	out        io.Writer
	indicators []progress.Option
}

// Option configures a Client.
type Option func(*Client)

// WithProgressOptions passes options to the progress indicator used for each call.
func WithProgressOptions(opts ...progress.Option) Option {
	return func(c *Client) {
		c.indicators = append(c.indicators, opts...)
	}
}

// New creates a Client. Progress is written to out; pass io.Discard to silence it.
func New(backend Backend, out io.Writer, opts ...Option) *Client {
	if out == nil {
		out = io.Discard
	}
	c := &Client{backend: backend, out: out}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Summarize sends the combined prompt to the backend and returns its text.
// Backend errors are returned as-is; there is no retry.
func (c *Client) Summarize(ctx context.Context, systemPrompt, taskPrompt, documentText string) (string, error) {
	prompt := BuildPrompt(systemPrompt, taskPrompt, documentText)

	var summary string
	ind := progress.New(c.out, progressLabel, c.indicators...)
	err := ind.Run(func() error {
		var err error
		summary, err = c.backend.Complete(ctx, prompt)
		return err
	})
	if err != nil {
		return "", err
	}
	return summary, nil
}

// BuildPrompt joins the system instructions, the task instructions and the
// truncated paper text into one prompt.
func BuildPrompt(systemPrompt, taskPrompt, documentText string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString(sectionSeparator)
	b.WriteString(taskPrompt)
	b.WriteString(sectionSeparator)
	b.WriteString(documentLabel)
	b.WriteString(Truncate(documentText, MaxDocumentChars))
	b.WriteString("\n")
	return b.String()
}

// Truncate returns the first max characters of s. It never splits a
// multi-byte character and never adds a marker.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
