// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textproc normalizes and tokenizes extracted report text for the
// analysis stages: NFKC normalization, lowercasing, stopword removal, and
// optional Snowball stemming.
package textproc

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

const defaultMinTokenLength = 2

// Pipeline turns cleaned document text into a token stream according to a
// PreprocessConfig. Construct with NewPipeline.
type Pipeline struct {
	minLen    int
	keepNums  bool
	stem      bool
	stopwords map[string]struct{} // nil disables stopword removal
}

// NewPipeline builds a Pipeline, applying the config defaults.
func NewPipeline(cfg types.PreprocessConfig) *Pipeline {
	p := &Pipeline{
		minLen:   cfg.MinTokenLength,
		keepNums: cfg.KeepNumbers,
		stem:     cfg.Stem,
	}
	if p.minLen <= 0 {
		p.minLen = defaultMinTokenLength
	}
	if !cfg.KeepStopwords {
		p.stopwords = buildStopwordSet(cfg.ExtraStopwords)
	}
	return p
}

// Process normalizes, tokenizes, and filters text into the final token
// stream, in document order.
func (p *Pipeline) Process(text string) []string {
	raw := Tokenize(Normalize(text))

	tokens := raw[:0]
	for _, tok := range raw {
		if len([]rune(tok)) < p.minLen {
			continue
		}
		if !p.keepNums && isNumeric(tok) {
			continue
		}
		if p.stopwords != nil {
			if _, ok := p.stopwords[tok]; ok {
				continue
			}
		}
		if p.stem {
			tok = english.Stem(tok, false)
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Normalize applies NFKC normalization and lowercases. NFKC folds the
// ligatures and fullwidth forms PDF extractors commonly emit.
func Normalize(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}

// Tokenize splits text into word tokens. Hyphens and apostrophes are kept
// when interior to a token ("multi-step", "o'brien"); everything else
// separates tokens.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})

	tokens := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "-'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// isNumeric reports whether a token consists solely of digits and
// digit punctuation (e.g. "2025", "3-5").
func isNumeric(tok string) bool {
	hasDigit := false
	for _, r := range tok {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case r == '-' || r == '\'' || r == '.':
		default:
			return false
		}
	}
	return hasDigit
}
