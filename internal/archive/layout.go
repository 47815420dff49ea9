// Package archive computes where processed papers are filed.
//
// The archive is a directory tree rooted at the research directory:
//
//	<root>/<category>/<paper base name>/<paper file>
//	<root>/<category>/<paper base name>/summary.md
//
// Nothing in this package touches the filesystem.
package archive

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/matsen/papersage/internal/paper"
)

// SummaryFile is the name of the summary artifact inside each paper directory.
const SummaryFile = "summary.md"

// Layout maps categories to directories under a single archive root.
type Layout struct {
	root string
}

// NewLayout creates a Layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{root: root}
}

// Root returns the archive root.
func (l Layout) Root() string {
	return l.root
}

// RootFor returns the directory holding all papers of category c.
// It panics for a category outside the fixed set.
func (l Layout) RootFor(c paper.Category) string {
	if !c.Valid() {
		panic(fmt.Sprintf("archive: unknown category %q", c))
	}
	return filepath.Join(l.root, string(c))
}

// DestinationDir returns the directory a paper with the given base name is filed into.
func (l Layout) DestinationDir(c paper.Category, baseName string) string {
	return filepath.Join(l.RootFor(c), baseName)
}

// SummaryPath returns the path of the summary artifact for a paper.
func (l Layout) SummaryPath(c paper.Category, baseName string) string {
	return filepath.Join(l.DestinationDir(c, baseName), SummaryFile)
}

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Header returns the metadata block written at the top of a summary.
// sourceName is rendered as a wiki-link so the vault links back to the PDF.
func Header(created time.Time, c paper.Category, sourceName string) string {
	return fmt.Sprintf("---\ncreated: %s\npaper_type: %s\nsource: [[%s]]\n---\n\n",
		created.Format(time.RFC3339), c, sourceName)
}
