// Package classify assigns a paper to a structural category by keyword scoring.
//
// The heuristic is deliberately simple and explainable: each category owns a
// set of lowercase keywords, and a category scores one point for every
// distinct keyword that appears anywhere in the text. Repeated occurrences
// do not add weight. The highest score wins; ties go to the category listed
// first in paper.Categories.
package classify

import (
	"fmt"
	"strings"

	"github.com/matsen/papersage/internal/paper"
)

// KeywordSet maps each category to its keywords. It is immutable once built.
type KeywordSet struct {
	keywords map[paper.Category][]string
}

// defaultKeywords are the built-in keyword lists.
var defaultKeywords = map[paper.Category][]string{
	paper.Empirical: {
		"hypothesis", "hypotheses", "regression", "sample",
		"data collection", "statistical", "coefficient", "variable",
	},
	paper.Theoretical: {
		"proposition", "framework", "conceptual", "theorize", "construct",
	},
	paper.Review: {
		"literature review", "systematic review", "meta-analysis", "prior research",
	},
}

// DefaultKeywords returns the built-in keyword set.
func DefaultKeywords() KeywordSet {
	ks, err := NewKeywordSet(defaultKeywords)
	if err != nil {
		panic(fmt.Sprintf("classify: invalid default keywords: %v", err))
	}
	return ks
}

// NewKeywordSet validates and copies the given keyword lists.
// Every category must have at least one keyword; keywords must be lowercase
// and non-blank. Duplicates within a category are dropped, keeping first order.
func NewKeywordSet(m map[paper.Category][]string) (KeywordSet, error) {
	out := make(map[paper.Category][]string, len(paper.Categories))
	for c := range m {
		if !c.Valid() {
			return KeywordSet{}, fmt.Errorf("keywords given for unknown category %q", c)
		}
	}
	for _, c := range paper.Categories {
		words := m[c]
		if len(words) == 0 {
			return KeywordSet{}, fmt.Errorf("no keywords for category %s", c)
		}
		seen := make(map[string]bool, len(words))
		kept := make([]string, 0, len(words))
		for _, w := range words {
			if strings.TrimSpace(w) == "" {
				return KeywordSet{}, fmt.Errorf("blank keyword for category %s", c)
			}
			if w != strings.ToLower(w) {
				return KeywordSet{}, fmt.Errorf("keyword %q for category %s must be lowercase", w, c)
			}
			if seen[w] {
				continue
			}
			seen[w] = true
			kept = append(kept, w)
		}
		out[c] = kept
	}
	return KeywordSet{keywords: out}, nil
}

// Keywords returns a copy of the keywords for c.
func (ks KeywordSet) Keywords(c paper.Category) []string {
	words := ks.keywords[c]
	cp := make([]string, len(words))
	copy(cp, words)
	return cp
}

// Scores holds the number of distinct keywords matched per category.
type Scores map[paper.Category]int

// String renders the scores in priority order, e.g. "empirical:2, theoretical:0, review:0".
func (s Scores) String() string {
	parts := make([]string, len(paper.Categories))
	for i, c := range paper.Categories {
		parts[i] = fmt.Sprintf("%s:%d", c, s[c])
	}
	return strings.Join(parts, ", ")
}

// Result is a classification verdict with the scores that produced it.
type Result struct {
	Category paper.Category `json:"category"`
	Scores   Scores         `json:"scores"`
}

// Classifier scores text against a KeywordSet.
type Classifier struct {
	keywords KeywordSet
}

// New creates a classifier for the given keyword set.
func New(keywords KeywordSet) *Classifier {
	return &Classifier{keywords: keywords}
}

// Classify returns the best-scoring category for text. It never fails:
// text without any keyword falls back to the first category in priority order.
func (c *Classifier) Classify(text string) Result {
	lower := strings.ToLower(text)

	scores := make(Scores, len(paper.Categories))
	for _, cat := range paper.Categories {
		n := 0
		for _, kw := range c.keywords.keywords[cat] {
			if strings.Contains(lower, kw) {
				n++
			}
		}
		scores[cat] = n
	}

	best := paper.Categories[0]
	for _, cat := range paper.Categories[1:] {
		// Strictly greater keeps the earlier category on ties.
		if scores[cat] > scores[best] {
			best = cat
		}
	}

	return Result{Category: best, Scores: scores}
}
