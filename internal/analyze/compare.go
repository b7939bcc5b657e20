// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"fmt"
	"math"
	"sort"
)

// PairSimilarity is the cosine similarity between two groups' mean TF-IDF
// vectors.
type PairSimilarity struct {
	A          string  `json:"a" yaml:"a"`
	B          string  `json:"b" yaml:"b"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// GroupContrast lists the terms a group emphasizes well beyond every other
// group.
type GroupContrast struct {
	Group       string       `json:"group" yaml:"group"`
	Distinctive []TermWeight `json:"distinctive" yaml:"distinctive"`
}

// CompareReport is the output of a cross-group narrative comparison.
type CompareReport struct {
	GroupBy       string           `json:"group_by" yaml:"group_by"`
	Groups        []string         `json:"groups" yaml:"groups"`
	Similarities  []PairSimilarity `json:"similarities" yaml:"similarities"`
	MostSimilar   PairSimilarity   `json:"most_similar" yaml:"most_similar"`
	MostDivergent PairSimilarity   `json:"most_divergent" yaml:"most_divergent"`
	Shared        []TermWeight     `json:"shared" yaml:"shared"`
	Contrasts     []GroupContrast  `json:"contrasts" yaml:"contrasts"`
}

// cosine computes the cosine similarity of two sparse vectors.
func cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for term, wa := range a {
		na += wa * wa
		if wb, ok := b[term]; ok {
			dot += wa * wb
		}
	}
	for _, wb := range b {
		nb += wb * wb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// sharedTerms scores terms present in every group by their minimum weight,
// so the ranking reflects what all groups emphasize.
func sharedTerms(vectors map[string]map[string]float64, names []string, top int) []TermWeight {
	if len(names) == 0 {
		return nil
	}

	shared := make(map[string]float64)
	for term, w := range vectors[names[0]] {
		shared[term] = w
	}
	for _, name := range names[1:] {
		vec := vectors[name]
		for term, w := range shared {
			other, ok := vec[term]
			if !ok {
				delete(shared, term)
				continue
			}
			if other < w {
				shared[term] = other
			}
		}
	}
	return topWeights(shared, top)
}

// distinctiveTerms scores each of a group's terms by its weight margin over
// the maximum weight any other group gives that term.
func distinctiveTerms(vectors map[string]map[string]float64, names []string, group string, top int) []TermWeight {
	margins := make(map[string]float64)
	for term, w := range vectors[group] {
		var maxOther float64
		for _, name := range names {
			if name == group {
				continue
			}
			if other, ok := vectors[name][term]; ok && other > maxOther {
				maxOther = other
			}
		}
		if margin := w - maxOther; margin > 0 {
			margins[term] = margin
		}
	}
	return topWeights(margins, top)
}

// Compare contrasts group narratives: pairwise cosine similarity of mean
// TF-IDF vectors, the terms every group shares, and the terms each group
// emphasizes over all others. Requires at least two groups.
func (a *Analyzer) Compare(groupBy GroupBy, top int) (CompareReport, error) {
	if top <= 0 {
		top = a.cfg.TopTerms
	}

	files, err := a.loadTokenFiles()
	if err != nil {
		return CompareReport{}, err
	}

	vectors, _, names := groupVectors(files, groupBy, a.cfg.MinDocFreq)
	if len(names) < 2 {
		return CompareReport{}, fmt.Errorf("comparison needs at least 2 groups by %s, have %d", groupBy, len(names))
	}

	report := CompareReport{GroupBy: string(groupBy), Groups: names}

	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			report.Similarities = append(report.Similarities, PairSimilarity{
				A:          names[i],
				B:          names[j],
				Similarity: cosine(vectors[names[i]], vectors[names[j]]),
			})
		}
	}

	sorted := make([]PairSimilarity, len(report.Similarities))
	copy(sorted, report.Similarities)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Similarity > sorted[j].Similarity })
	report.MostSimilar = sorted[0]
	report.MostDivergent = sorted[len(sorted)-1]

	report.Shared = sharedTerms(vectors, names, top)
	for _, name := range names {
		report.Contrasts = append(report.Contrasts, GroupContrast{
			Group:       name,
			Distinctive: distinctiveTerms(vectors, names, name, top),
		})
	}

	if _, err := a.writeResult("compare", report, false); err != nil {
		return CompareReport{}, err
	}
	return report, nil
}
