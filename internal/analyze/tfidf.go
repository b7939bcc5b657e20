// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"math"
	"sort"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

// TermWeight pairs a term with a TF-IDF weight.
type TermWeight struct {
	Term   string  `json:"term" yaml:"term"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// GroupTerms holds the highest-weighted terms of one group.
type GroupTerms struct {
	Group string       `json:"group" yaml:"group"`
	Docs  int          `json:"docs" yaml:"docs"`
	Top   []TermWeight `json:"top" yaml:"top"`
}

// TFIDFReport is the output of a TF-IDF analysis run.
type TFIDFReport struct {
	GroupBy    string       `json:"group_by" yaml:"group_by"`
	Documents  int          `json:"documents" yaml:"documents"`
	Vocabulary int          `json:"vocabulary" yaml:"vocabulary"`
	MinDocFreq int          `json:"min_doc_freq" yaml:"min_doc_freq"`
	Groups     []GroupTerms `json:"groups" yaml:"groups"`
}

// docFrequencies counts, for each term, how many documents contain it.
func docFrequencies(files []types.TokenFile) map[string]int {
	df := make(map[string]int)
	for _, tf := range files {
		seen := make(map[string]bool, len(tf.Tokens))
		for _, tok := range tf.Tokens {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}
	return df
}

// tfidfVector computes an L2-normalized TF-IDF vector for one document.
// IDF uses the smoothed form ln((1+N)/(1+df)) + 1, which keeps terms that
// appear in every document from zeroing out. Terms below minDocFreq are
// dropped.
func tfidfVector(tokens []string, df map[string]int, nDocs, minDocFreq int) map[string]float64 {
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}

	vec := make(map[string]float64, len(counts))
	var norm float64
	for term, count := range counts {
		if df[term] < minDocFreq {
			continue
		}
		tf := float64(count) / float64(len(tokens))
		idf := math.Log(float64(1+nDocs)/float64(1+df[term])) + 1
		w := tf * idf
		vec[term] = w
		norm += w * w
	}

	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

// groupVectors averages per-document TF-IDF vectors within each group and
// returns the mean vectors plus per-group document counts. Group names come
// back sorted.
func groupVectors(files []types.TokenFile, groupBy GroupBy, minDocFreq int) (map[string]map[string]float64, map[string]int, []string) {
	df := docFrequencies(files)
	nDocs := len(files)

	sums := make(map[string]map[string]float64)
	docCounts := make(map[string]int)
	for _, tf := range files {
		vec := tfidfVector(tf.Tokens, df, nDocs, minDocFreq)
		if vec == nil {
			continue
		}
		key := groupBy.key(tf)
		if sums[key] == nil {
			sums[key] = make(map[string]float64)
		}
		for term, w := range vec {
			sums[key][term] += w
		}
		docCounts[key]++
	}

	names := make([]string, 0, len(sums))
	for name, vec := range sums {
		n := float64(docCounts[name])
		for term := range vec {
			vec[term] /= n
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return sums, docCounts, names
}

// topWeights ranks a vector's terms by weight, breaking ties alphabetically.
func topWeights(vec map[string]float64, top int) []TermWeight {
	entries := make([]TermWeight, 0, len(vec))
	for term, w := range vec {
		entries = append(entries, TermWeight{Term: term, Weight: w})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight > entries[j].Weight
		}
		return entries[i].Term < entries[j].Term
	})
	if len(entries) > top {
		entries = entries[:top]
	}
	return entries
}

// TFIDF computes mean TF-IDF vectors per group and reports each group's
// highest-weighted terms.
func (a *Analyzer) TFIDF(groupBy GroupBy, top int) (TFIDFReport, error) {
	if top <= 0 {
		top = a.cfg.TopTerms
	}

	files, err := a.loadTokenFiles()
	if err != nil {
		return TFIDFReport{}, err
	}

	vectors, docCounts, names := groupVectors(files, groupBy, a.cfg.MinDocFreq)

	vocab := make(map[string]bool)
	for _, vec := range vectors {
		for term := range vec {
			vocab[term] = true
		}
	}

	report := TFIDFReport{
		GroupBy:    string(groupBy),
		Documents:  len(files),
		Vocabulary: len(vocab),
		MinDocFreq: a.cfg.MinDocFreq,
	}
	for _, name := range names {
		report.Groups = append(report.Groups, GroupTerms{
			Group: name,
			Docs:  docCounts[name],
			Top:   topWeights(vectors[name], top),
		})
	}

	if _, err := a.writeResult("tfidf", report, false); err != nil {
		return TFIDFReport{}, err
	}
	return report, nil
}
