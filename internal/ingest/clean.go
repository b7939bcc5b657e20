// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"regexp"
	"strings"
)

var (
	// hyphenBreak matches a word split across a line end ("govern-\nance").
	hyphenBreak = regexp.MustCompile(`(\p{L})-\n(\p{L})`)

	// spaceRuns matches runs of spaces and tabs, newlines excluded.
	spaceRuns = regexp.MustCompile(`[ \t]+`)

	// blankRuns matches three or more consecutive newlines.
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes raw extracted text: control characters are stripped,
// words hyphenated across line breaks are rejoined, runs of spaces collapse
// to one, and runs of blank lines collapse to a single blank line. Newlines
// are preserved so line counts remain meaningful.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = stripControl(text)
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = spaceRuns.ReplaceAllString(text, " ")

	// Trim trailing spaces left at line ends by the collapse above.
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// stripControl removes control and non-character runes, keeping newlines.
func stripControl(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t':
			return ' '
		case r < 0x20, r == 0x7f:
			return -1
		case r >= 0x80 && r <= 0x9f:
			return -1
		case r == 0xfffd: // replacement char from bad encodings
			return -1
		}
		return r
	}, text)
}
