// Package paper defines the structural categories a paper can be filed under.
package paper

import (
	"fmt"
	"strings"
)

// Category is the structural type of an academic paper.
type Category string

const (
	Empirical   Category = "empirical"
	Theoretical Category = "theoretical"
	Review      Category = "review"
)

// Categories lists every category in priority order.
// Ties during classification resolve to the earliest entry.
var Categories = []Category{Empirical, Theoretical, Review}

// ErrUnknownCategory is returned by ParseCategory for values outside the fixed set.
var ErrUnknownCategory = fmt.Errorf("unknown paper type (valid: %s)", strings.Join(Names(), ", "))

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// ParseCategory parses a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Names returns the category names in priority order.
func Names() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return names
}
