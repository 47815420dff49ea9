package pdf

import (
	"regexp"
	"strings"
)

// frontMatterRunes bounds the DOI search to the title page region.
const frontMatterRunes = 20000

var doiRE = regexp.MustCompile(`\b10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// FindDOI returns the first DOI printed near the start of text, or "".
func FindDOI(text string) string {
	if r := []rune(text); len(r) > frontMatterRunes {
		text = string(r[:frontMatterRunes])
	}
	for _, m := range doiRE.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;:)")
		if _, suffix, ok := strings.Cut(m, "/"); ok && suffix != "" {
			return m
		}
	}
	return ""
}
