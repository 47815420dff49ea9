// Package pdf extracts plain text from PDF files.
package pdf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoTextExtracted indicates the PDF has no extractable text layer
// (for example a scanned, image-only document).
var ErrNoTextExtracted = errors.New("no text could be extracted from PDF")

// Extractor reads the text of every page of a PDF.
type Extractor struct {
	maxPages int
}

// NewExtractor creates an Extractor. maxPages <= 0 reads every page.
func NewExtractor(maxPages int) *Extractor {
	return &Extractor{maxPages: maxPages}
}

// ExtractText returns the concatenated plain text of the PDF at path.
// Pages whose text cannot be decoded are skipped.
func (e *Extractor) ExtractText(path string) (string, error) {
	return ExtractText(path, e.maxPages)
}

// ExtractText extracts all text from the first maxPages pages of a PDF.
func ExtractText(filePath string, maxPages int) (text string, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing PDF %s: %v", filePath, r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(pageText)
		builder.WriteString("\n")
	}

	if strings.TrimSpace(builder.String()) == "" {
		return "", ErrNoTextExtracted
	}
	return builder.String(), nil
}
