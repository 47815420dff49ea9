package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/papersage/internal/paper"
)

func writePrompts(t *testing.T, dir string, skip string) {
	t.Helper()
	files := map[string]string{
		SystemFile:       "You summarize papers.",
		"empirical.md":   "Summarize the empirical paper.",
		"theoretical.md": "Summarize the theoretical paper.",
		"review.md":      "Summarize the review.",
	}
	for name, content := range files {
		if name == skip {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writePrompts(t, dir, "")

	set, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if set.System != "You summarize papers." {
		t.Errorf("System = %q", set.System)
	}
	if got := set.Task(paper.Review); got != "Summarize the review." {
		t.Errorf("Task(review) = %q", got)
	}
	if got := set.Task(paper.Theoretical); got != "Summarize the theoretical paper." {
		t.Errorf("Task(theoretical) = %q", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	for _, missing := range []string{SystemFile, "empirical.md", "theoretical.md", "review.md"} {
		t.Run(missing, func(t *testing.T) {
			dir := t.TempDir()
			writePrompts(t, dir, missing)

			_, err := Load(dir)
			if !errors.Is(err, ErrPromptLoad) {
				t.Fatalf("Load() error = %v, want ErrPromptLoad", err)
			}
		})
	}
}

func TestLoad_InvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	writePrompts(t, dir, "")
	if err := os.WriteFile(filepath.Join(dir, "review.md"), []byte{0xff, 0xfe, 0x00}, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); !errors.Is(err, ErrPromptLoad) {
		t.Fatalf("Load() error = %v, want ErrPromptLoad", err)
	}
}

func TestNewSet_RequiresEveryCategory(t *testing.T) {
	_, err := NewSet("sys", map[paper.Category]string{paper.Empirical: "e"})
	if !errors.Is(err, ErrPromptLoad) {
		t.Fatalf("NewSet() error = %v, want ErrPromptLoad", err)
	}
}
