// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"unicode"
)

// SourceType classifies the institution that published a report.
type SourceType string

const (
	SourceConsulting SourceType = "consulting"
	SourceAcademic   SourceType = "academic"
	SourceIndustry   SourceType = "industry"
	SourcePolicy     SourceType = "policy"
	SourceUnknown    SourceType = "unknown"
)

// sourceKeywords maps institution name fragments to a source type. Matching
// is case-insensitive substring matching against the filename or institution.
var sourceKeywords = map[SourceType][]string{
	SourceConsulting: {"mckinsey", "bain", "bcg", "pwc", "deloitte", "accenture", "kpmg", "gartner"},
	SourceAcademic:   {"mit", "stanford", "harvard", "oxford", "berkeley", "cmu", "eth"},
	SourceIndustry:   {"google", "microsoft", "openai", "anthropic", "ibm", "nvidia", "meta", "amazon", "salesforce"},
	SourcePolicy:     {"wef", "oecd", "undp", "iti", "nist", "unesco", "european-commission", "eu-"},
}

// classifyOrder fixes the match precedence so a name containing fragments
// from two classes resolves deterministically.
var classifyOrder = []SourceType{SourceConsulting, SourceAcademic, SourceIndustry, SourcePolicy}

// ClassifySource infers a SourceType from an institution name or PDF
// filename. Unrecognized names classify as unknown.
func ClassifySource(name string) SourceType {
	lower := strings.ToLower(name)
	for _, st := range classifyOrder {
		for _, kw := range sourceKeywords[st] {
			if strings.Contains(lower, kw) {
				return st
			}
		}
	}
	return SourceUnknown
}

// Slug lowercases s and replaces runs of non-alphanumeric runes with single
// hyphens. Document IDs are slugs of the source entry or PDF filename stem,
// stable across re-runs.
func Slug(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ValidSourceType reports whether s is one of the defined source types.
func ValidSourceType(s string) bool {
	switch SourceType(s) {
	case SourceConsulting, SourceAcademic, SourceIndustry, SourcePolicy, SourceUnknown:
		return true
	}
	return false
}
