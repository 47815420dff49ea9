// Package prompts loads the summarization prompt templates from the vault.
package prompts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/matsen/papersage/internal/paper"
)

// SystemFile is the shared system prompt file name.
const SystemFile = "system.md"

// ErrPromptLoad indicates a prompt template is missing or unreadable.
var ErrPromptLoad = errors.New("prompt template could not be loaded")

// Set holds the system prompt and one task prompt per category.
type Set struct {
	System string
	tasks  map[paper.Category]string
}

// Task returns the task prompt for c.
func (s Set) Task(c paper.Category) string {
	return s.tasks[c]
}

// NewSet builds a Set from already loaded text. Every category needs a task prompt.
func NewSet(system string, tasks map[paper.Category]string) (Set, error) {
	out := make(map[paper.Category]string, len(paper.Categories))
	for _, c := range paper.Categories {
		t, ok := tasks[c]
		if !ok {
			return Set{}, fmt.Errorf("%w: no task prompt for %s", ErrPromptLoad, c)
		}
		out[c] = t
	}
	return Set{System: system, tasks: out}, nil
}

// FileFor returns the template file name for category c.
func FileFor(c paper.Category) string {
	return string(c) + ".md"
}

// Load reads system.md and one <category>.md per category from dir.
// Files must be valid UTF-8.
func Load(dir string) (Set, error) {
	system, err := readTemplate(filepath.Join(dir, SystemFile))
	if err != nil {
		return Set{}, err
	}

	tasks := make(map[paper.Category]string, len(paper.Categories))
	for _, c := range paper.Categories {
		text, err := readTemplate(filepath.Join(dir, FileFor(c)))
		if err != nil {
			return Set{}, err
		}
		tasks[c] = text
	}

	return NewSet(system, tasks)
}

func readTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPromptLoad, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrPromptLoad, path)
	}
	return string(data), nil
}
