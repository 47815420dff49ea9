package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papersage/internal/classify"
	"github.com/matsen/papersage/internal/config"
	"github.com/matsen/papersage/internal/pdf"
)

func init() {
	rootCmd.AddCommand(classifyCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify <pdf>...",
	Short: "Show how PDFs would be classified without moving them",
	Long: `Extract the text of each PDF and print the keyword scores and the
paper type it would be filed under. Nothing is moved and no summary is
requested, so no API key is needed.

Keywords come from the keywords section of the global config file when
present.

Examples:
  sage classify ~/Downloads/smith2024.pdf
  sage classify --human downloads/*.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	keywords := mustLoadKeywords()
	classifier := classify.New(keywords)
	extractor := pdf.NewExtractor(0)

	results := make([]ClassifyResult, 0, len(args))
	for _, path := range args {
		res := ClassifyResult{Path: path}
		text, err := extractor.ExtractText(path)
		if err != nil {
			res.Error = err.Error()
		} else {
			verdict := classifier.Classify(text)
			res.Category = string(verdict.Category)
			res.Scores = verdict.Scores
			res.DOI = pdf.FindDOI(text)
		}
		results = append(results, res)
	}

	if humanOutput {
		for _, r := range results {
			if r.Error != "" {
				fmt.Printf("%s\n  error: %s\n", r.Path, r.Error)
				continue
			}
			fmt.Printf("%s\n  %s (%s)\n", r.Path, r.Category, r.Scores)
			if r.DOI != "" {
				fmt.Printf("  doi: %s\n", r.DOI)
			}
		}
		return nil
	}

	outputJSON(results)
	return nil
}

// mustLoadKeywords reads classifier keywords from the global config file
// only, so classification works without credentials.
func mustLoadKeywords() classify.KeywordSet {
	file, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	m, err := file.CategoryKeywords()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if len(m) == 0 {
		return classify.DefaultKeywords()
	}
	ks, err := classify.NewKeywordSet(m)
	if err != nil {
		exitWithError(ExitConfigError, "keywords: %v", err)
	}
	return ks
}
