package parser

import (
	"errors"
	"strings"
)

// ErrNotAPaper is returned by CheckPaper when the text does not read like a
// research paper.
var ErrNotAPaper = errors.New("document does not look like a research paper")

// paperKeywords are matched as lowercase substrings anywhere in the text.
var paperKeywords = []string{
	"abstract",
	"introduction",
	"methodology",
	"results",
	"discussion",
	"conclusion",
	"references",
}

// minKeywordHits is how many distinct keywords must appear.
const minKeywordHits = 3

// KeywordHits counts how many of the paper keywords occur in text.
func KeywordHits(text string) int {
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range paperKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits
}

// LooksLikePaper is a cheap heuristic: at least three of the usual section
// words must appear somewhere in the text.
func LooksLikePaper(text string) bool {
	return KeywordHits(text) >= minKeywordHits
}

// CheckPaper returns ErrNotAPaper when LooksLikePaper is false.
func CheckPaper(text string) error {
	if !LooksLikePaper(text) {
		return ErrNotAPaper
	}
	return nil
}
