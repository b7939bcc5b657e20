// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"sort"
	"strings"
)

// NGramEntry is one n-gram with its corpus frequency.
type NGramEntry struct {
	NGram string `json:"ngram" yaml:"ngram"`
	Count int    `json:"count" yaml:"count"`
}

// GroupNGrams holds the top n-grams of one order for one group.
type GroupNGrams struct {
	Group string       `json:"group" yaml:"group"`
	N     int          `json:"n" yaml:"n"`
	Top   []NGramEntry `json:"top" yaml:"top"`
}

// NGramReport is the output of an n-gram analysis run.
type NGramReport struct {
	GroupBy string        `json:"group_by" yaml:"group_by"`
	Sizes   []int         `json:"sizes" yaml:"sizes"`
	Groups  []GroupNGrams `json:"groups" yaml:"groups"`
}

// CountNGrams counts contiguous n-grams in a token stream. N-grams are
// space-joined token sequences; n-grams never cross document boundaries
// because each document's tokens are counted separately by callers that
// need that property.
func CountNGrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	if n <= 0 {
		return counts
	}
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

// mergeCounts adds src counts into dst.
func mergeCounts(dst, src map[string]int) {
	for k, v := range src {
		dst[k] += v
	}
}

// topNGrams ranks counts by frequency, breaking ties alphabetically.
func topNGrams(counts map[string]int, top int) []NGramEntry {
	entries := make([]NGramEntry, 0, len(counts))
	for ngram, count := range counts {
		entries = append(entries, NGramEntry{NGram: ngram, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].NGram < entries[j].NGram
	})
	if len(entries) > top {
		entries = entries[:top]
	}
	return entries
}

// NGrams counts n-grams per group for each configured order. Counting is
// per document then merged, so no n-gram spans two documents.
func (a *Analyzer) NGrams(groupBy GroupBy, sizes []int, top int) (NGramReport, error) {
	if len(sizes) == 0 {
		sizes = a.cfg.NGramSizes
	}
	if top <= 0 {
		top = a.cfg.TopTerms
	}

	files, err := a.loadTokenFiles()
	if err != nil {
		return NGramReport{}, err
	}

	// group -> n -> counts
	counts := make(map[string]map[int]map[string]int)
	for _, tf := range files {
		key := groupBy.key(tf)
		if counts[key] == nil {
			counts[key] = make(map[int]map[string]int)
		}
		for _, n := range sizes {
			if counts[key][n] == nil {
				counts[key][n] = make(map[string]int)
			}
			mergeCounts(counts[key][n], CountNGrams(tf.Tokens, n))
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	report := NGramReport{GroupBy: string(groupBy), Sizes: sizes}
	for _, name := range names {
		for _, n := range sizes {
			report.Groups = append(report.Groups, GroupNGrams{
				Group: name,
				N:     n,
				Top:   topNGrams(counts[name][n], top),
			})
		}
	}

	if _, err := a.writeResult("ngrams", report, false); err != nil {
		return NGramReport{}, err
	}
	return report, nil
}
