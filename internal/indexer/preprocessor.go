package indexer

import (
	"regexp"
	"strings"
)

var (
	// Control characters except tab, newline and carriage return. PDF
	// extraction in particular leaks these into the text.
	controlCharsRe = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	newlineRunsRe  = regexp.MustCompile(`\n{4,}`)
	spaceRunsRe    = regexp.MustCompile(` {3,}`)
)

// Preprocess normalizes extracted text before chunking: strips control
// characters and collapses excessive blank runs while keeping paragraph
// structure intact for the sentence splitter.
func Preprocess(text string) string {
	text = controlCharsRe.ReplaceAllString(text, "")
	text = newlineRunsRe.ReplaceAllString(text, "\n\n\n")
	text = spaceRunsRe.ReplaceAllString(text, "  ")
	return strings.TrimSpace(text)
}
