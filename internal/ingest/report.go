// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

const reportFile = "extraction-report.txt"

// LoadDocuments reads every metadata record under corpusDir/metadata/ that
// has been through extraction (records without a text path are fetch stubs
// and are excluded). Results are sorted by ID.
func LoadDocuments(corpusDir string) ([]types.Document, error) {
	metaDir := filepath.Join(corpusDir, metadataDir)
	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return nil, fmt.Errorf("reading metadata directory %s: %w", metaDir, err)
	}

	var docs []types.Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(metaDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		var doc types.Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}
		if doc.TextPath == "" {
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// ExtractionReport formats corpus-level extraction statistics: totals,
// the source-type distribution, and per-document detail.
func ExtractionReport(docs []types.Document) string {
	var b strings.Builder
	rule := strings.Repeat("=", 70)
	thin := strings.Repeat("-", 70)

	fmt.Fprintf(&b, "%s\nCORPUS EXTRACTION REPORT\n%s\n\n", rule, rule)

	var totalWords, totalPages int
	byType := make(map[types.SourceType]int)
	for _, d := range docs {
		totalWords += d.WordCount
		totalPages += d.PageCount
		byType[d.SourceType]++
	}

	avgWords := 0
	if len(docs) > 0 {
		avgWords = totalWords / len(docs)
	}

	fmt.Fprintf(&b, "Documents processed : %d\n", len(docs))
	fmt.Fprintf(&b, "Total words         : %d\n", totalWords)
	fmt.Fprintf(&b, "Total pages         : %d\n", totalPages)
	fmt.Fprintf(&b, "Avg words/document  : %d\n", avgWords)

	fmt.Fprintf(&b, "\nSOURCE TYPE DISTRIBUTION\n%s\n", thin)
	sourceTypes := make([]string, 0, len(byType))
	for st := range byType {
		sourceTypes = append(sourceTypes, string(st))
	}
	sort.Strings(sourceTypes)
	for _, st := range sourceTypes {
		fmt.Fprintf(&b, "%-12s : %d document(s)\n", st, byType[types.SourceType(st)])
	}

	fmt.Fprintf(&b, "\nDOCUMENT DETAIL\n%s\n", thin)
	for _, d := range docs {
		fmt.Fprintf(&b, "%s\n", d.Filename)
		fmt.Fprintf(&b, "  institution: %s | type: %s | extractor: %s\n", d.Institution, d.SourceType, d.Extractor)
		fmt.Fprintf(&b, "  words: %d | pages: %d | chars: %d\n", d.WordCount, d.PageCount, d.CharCount)
	}

	fmt.Fprintf(&b, "%s\n", rule)
	return b.String()
}

// WriteReport renders the extraction report for all ingested documents and
// writes it to corpusDir/extraction-report.txt, returning the path.
func WriteReport(corpusDir string) (string, error) {
	docs, err := LoadDocuments(corpusDir)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("no ingested documents under %s", corpusDir)
	}

	path := filepath.Join(corpusDir, reportFile)
	if err := os.WriteFile(path, []byte(ExtractionReport(docs)), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
