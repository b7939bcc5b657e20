// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

const reportFile = "report.md"

// Report runs every analysis and assembles the results into a Markdown
// summary at analysis/results/report.md, returning the written path. The
// per-analysis YAML results are refreshed as a side effect.
func (a *Analyzer) Report(groupBy GroupBy, topics types.TopicConfig) (string, error) {
	ngrams, err := a.NGrams(groupBy, nil, 10)
	if err != nil {
		return "", err
	}
	tfidf, err := a.TFIDF(groupBy, 15)
	if err != nil {
		return "", err
	}
	topicReport, err := a.Topics(topics)
	if err != nil {
		return "", err
	}
	compare, err := a.Compare(groupBy, 15)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Narrative Analysis Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Documents: %d, vocabulary: %d terms, grouped by %s.\n",
		tfidf.Documents, tfidf.Vocabulary, groupBy)

	b.WriteString("\n## Characteristic Terms (TF-IDF)\n")
	for _, g := range tfidf.Groups {
		fmt.Fprintf(&b, "\n### %s (%d documents)\n\n", g.Group, g.Docs)
		for _, tw := range g.Top {
			fmt.Fprintf(&b, "- %s (%.4f)\n", tw.Term, tw.Weight)
		}
	}

	b.WriteString("\n## Frequent Phrases\n")
	for _, g := range ngrams.Groups {
		if g.N < 2 || len(g.Top) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s, %d-grams\n\n", g.Group, g.N)
		for _, e := range g.Top {
			fmt.Fprintf(&b, "- %q (%d)\n", e.NGram, e.Count)
		}
	}

	fmt.Fprintf(&b, "\n## Topics (LDA, K=%d, seed %d)\n", topicReport.K, topicReport.Seed)
	for _, topic := range topicReport.Topics {
		terms := make([]string, 0, len(topic.Terms))
		for _, tw := range topic.Terms {
			terms = append(terms, tw.Term)
		}
		fmt.Fprintf(&b, "\n- Topic %d (%d tokens): %s\n", topic.ID, topic.Tokens, strings.Join(terms, ", "))
	}

	b.WriteString("\n## Narrative Comparison\n\n")
	fmt.Fprintf(&b, "Most similar: %s and %s (%.3f). Most divergent: %s and %s (%.3f).\n",
		compare.MostSimilar.A, compare.MostSimilar.B, compare.MostSimilar.Similarity,
		compare.MostDivergent.A, compare.MostDivergent.B, compare.MostDivergent.Similarity)

	b.WriteString("\n### Pairwise similarity\n\n")
	b.WriteString("| A | B | Cosine |\n|---|---|--------|\n")
	for _, p := range compare.Similarities {
		fmt.Fprintf(&b, "| %s | %s | %.3f |\n", p.A, p.B, p.Similarity)
	}

	if len(compare.Shared) > 0 {
		b.WriteString("\n### Shared vocabulary\n\n")
		terms := make([]string, 0, len(compare.Shared))
		for _, tw := range compare.Shared {
			terms = append(terms, tw.Term)
		}
		fmt.Fprintf(&b, "%s\n", strings.Join(terms, ", "))
	}

	b.WriteString("\n### Distinctive emphasis\n")
	for _, c := range compare.Contrasts {
		if len(c.Distinctive) == 0 {
			continue
		}
		terms := make([]string, 0, len(c.Distinctive))
		for _, tw := range c.Distinctive {
			terms = append(terms, tw.Term)
		}
		fmt.Fprintf(&b, "\n- %s: %s\n", c.Group, strings.Join(terms, ", "))
	}

	dir := filepath.Join(a.cfg.AnalysisDir, resultsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}
	path := filepath.Join(dir, reportFile)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
