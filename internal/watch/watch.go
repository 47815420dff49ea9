// Package watch reruns intake processing when PDFs land in the intake directory.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long the directory must be quiet before a run starts.
// Browsers write downloads in several chunks.
const DefaultSettle = 2 * time.Second

// Trigger processes the intake directory once. It returns the PDFs it left
// in the directory; those do not start another run until their content
// changes.
type Trigger func(ctx context.Context) (leftBehind []string)

// Watcher calls a Trigger whenever the intake directory gains a PDF.
type Watcher struct {
	dir     string
	ext     string
	settle  time.Duration
	trigger Trigger
	logger  *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets the quiet period before a run.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher for files with extension ext inside dir.
func New(dir, ext string, trigger Trigger, opts ...Option) *Watcher {
	w := &Watcher{
		dir:     dir,
		ext:     ext,
		settle:  DefaultSettle,
		trigger: trigger,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes the directory once, then again after every batch of
// changes, until ctx is cancelled. Runs never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("watching intake directory", "path", w.dir)

	ignored := w.runOnce(ctx)

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.settle)
			timerCh = timer.C
		} else {
			timer.Reset(w.settle)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watcher stopped")
			return nil

		case <-timerCh:
			timer, timerCh = nil, nil
			ignored = w.runOnce(ctx)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), w.ext) {
				continue
			}
			switch {
			case ev.Op&fsnotify.Write != 0:
				delete(ignored, ev.Name)
				schedule()
			case ev.Op&fsnotify.Create != 0:
				// A rolled-back PDF reappears with a Create event only.
				if ignored[ev.Name] {
					w.logger.Debug("ignoring returned PDF", "path", ev.Name)
					continue
				}
				schedule()
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", watchErr)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) map[string]bool {
	left := w.trigger(ctx)
	ignored := make(map[string]bool, len(left))
	for _, p := range left {
		ignored[p] = true
	}
	return ignored
}
