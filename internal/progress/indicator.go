// Package progress renders a spinner on a single terminal line while a
// blocking call is outstanding.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	// DefaultInterval is the delay between animation frames.
	DefaultInterval = 100 * time.Millisecond

	// lineClearWidth is the width written to blank the progress line.
	lineClearWidth = 60
)

// DefaultFrames is the braille spinner sequence.
var DefaultFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Indicator animates a label while a function runs.
//
// Only the drain goroutine writes to the output while the function is
// running. The ticker goroutine requests redraws by sending frames over a
// channel, and Run does not return until the drain goroutine has exited.
type Indicator struct {
	out      io.Writer
	label    string
	frames   []string
	interval time.Duration
	animate  bool
}

// Option configures an Indicator.
type Option func(*Indicator)

// WithInterval sets the delay between frames.
func WithInterval(d time.Duration) Option {
	return func(ind *Indicator) {
		if d > 0 {
			ind.interval = d
		}
	}
}

// WithFrames sets the animation frames.
func WithFrames(frames []string) Option {
	return func(ind *Indicator) {
		if len(frames) > 0 {
			ind.frames = frames
		}
	}
}

// WithAnimation forces animation on or off.
func WithAnimation(enabled bool) Option {
	return func(ind *Indicator) {
		ind.animate = enabled
	}
}

// New creates an Indicator writing to out. Animation defaults to on only
// when out is a terminal.
func New(out io.Writer, label string, opts ...Option) *Indicator {
	ind := &Indicator{
		out:      out,
		label:    label,
		frames:   DefaultFrames,
		interval: DefaultInterval,
		animate:  IsTerminal(out),
	}
	for _, opt := range opts {
		opt(ind)
	}
	return ind
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run calls fn while animating, then replaces the progress line with a
// completion or failure line. The error from fn is returned unchanged.
func (ind *Indicator) Run(fn func() error) error {
	if !ind.animate {
		fmt.Fprintf(ind.out, "  %s...\n", ind.label)
		err := fn()
		ind.finish(err)
		return err
	}

	err := ind.animateWhile(fn)

	fmt.Fprintf(ind.out, "\r%s\r", strings.Repeat(" ", lineClearWidth))
	ind.finish(err)
	return err
}

// animateWhile calls fn with the ticker and drain goroutines running. Both
// have exited by the time it returns, including when fn panics.
func (ind *Indicator) animateWhile(fn func() error) error {
	frames := make(chan string)
	stop := make(chan struct{})
	drained := make(chan struct{})

	go ind.tick(frames, stop)
	go func() {
		defer close(drained)
		for frame := range frames {
			fmt.Fprintf(ind.out, "\r  %s %s", ind.label, frame)
		}
	}()
	defer func() {
		close(stop)
		<-drained
	}()

	return fn()
}

// tick sends one frame per interval until stop is closed, then closes frames.
func (ind *Indicator) tick(frames chan<- string, stop <-chan struct{}) {
	defer close(frames)

	ticker := time.NewTicker(ind.interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-stop:
			return
		case frames <- ind.frames[i%len(ind.frames)]:
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (ind *Indicator) finish(err error) {
	if err != nil {
		fmt.Fprintf(ind.out, "  %s failed\n", ind.label)
		return
	}
	fmt.Fprintf(ind.out, "  %s done\n", ind.label)
}
