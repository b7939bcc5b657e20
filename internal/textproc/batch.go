// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textproc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

const (
	textsDir    = "texts"
	tokensDir   = "tokens"
	metadataDir = "metadata"
)

// BatchSummary holds counts from a batch preprocess run.
type BatchSummary struct {
	Processed int
	Skipped   int
	Failed    int
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Processed + s.Skipped + s.Failed
}

// HasFailures reports whether any documents failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// PreprocessBatch tokenizes every text under corpusDir/texts/ whose token
// file is missing or stale, writing corpus/tokens/[id]-tokens.yaml. Document
// institution and source type are joined in from the metadata records so
// the analysis stages can group without re-reading metadata.
func PreprocessBatch(cfg types.PreprocessConfig, w io.Writer) (BatchSummary, error) {
	textDir := filepath.Join(cfg.CorpusDir, textsDir)
	outDir := filepath.Join(cfg.CorpusDir, tokensDir)

	entries, err := os.ReadDir(textDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading texts directory %s: %w", textDir, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating tokens directory: %w", err)
	}

	pipeline := NewPipeline(cfg)

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".txt") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var summary BatchSummary
	for _, name := range names {
		docID := strings.TrimSuffix(name, ".txt")
		textPath := filepath.Join(textDir, name)
		outPath := filepath.Join(outDir, docID+"-tokens.yaml")

		stale, err := isStale(textPath, outPath)
		if err != nil {
			fmt.Fprintf(w, "failed    %s: %v\n", docID, err)
			summary.Failed++
			continue
		}
		if !stale {
			fmt.Fprintf(w, "skipped   %s\n", docID)
			summary.Skipped++
			continue
		}

		text, err := os.ReadFile(textPath)
		if err != nil {
			fmt.Fprintf(w, "failed    %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		tokens := pipeline.Process(string(text))
		if len(tokens) == 0 {
			fmt.Fprintf(w, "failed    %s: no tokens survived preprocessing\n", docID)
			summary.Failed++
			continue
		}

		tf := types.TokenFile{
			DocID:         docID,
			Tokens:        tokens,
			TokenCount:    len(tokens),
			DistinctTerms: countDistinct(tokens),
			ProcessedAt:   time.Now().UTC(),
		}
		if meta := loadDocumentMeta(filepath.Join(cfg.CorpusDir, metadataDir), docID); meta != nil {
			tf.Institution = meta.Institution
			tf.SourceType = meta.SourceType
		}

		if err := writeTokenFile(outPath, &tf); err != nil {
			fmt.Fprintf(w, "failed    %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "processed %s (%d tokens, %d distinct)\n", docID, tf.TokenCount, tf.DistinctTerms)
		summary.Processed++
	}

	fmt.Fprintf(w, "\nPreprocess summary: %d processed, %d skipped, %d failed (total: %d)\n",
		summary.Processed, summary.Skipped, summary.Failed, summary.Total())
	return summary, nil
}

// isStale reports whether the token output is missing or older than the
// text input.
func isStale(textPath, outPath string) (bool, error) {
	textInfo, err := os.Stat(textPath)
	if err != nil {
		return false, fmt.Errorf("stat text %s: %w", textPath, err)
	}
	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat tokens %s: %w", outPath, err)
	}
	return textInfo.ModTime().After(outInfo.ModTime()), nil
}

func countDistinct(tokens []string) int {
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[t] = struct{}{}
	}
	return len(seen)
}

// loadDocumentMeta reads a Document record from metaDir/[docID].yaml.
// Returns nil if the file does not exist or cannot be parsed.
func loadDocumentMeta(metaDir, docID string) *types.Document {
	data, err := os.ReadFile(filepath.Join(metaDir, docID+".yaml"))
	if err != nil {
		return nil
	}
	var doc types.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return &doc
}

func writeTokenFile(path string, tf *types.TokenFile) error {
	data, err := yaml.Marshal(tf)
	if err != nil {
		return fmt.Errorf("marshaling token file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadTokenFiles reads every token file under corpusDir/tokens/, sorted by
// document ID. The analyze stage consumes these directly.
func LoadTokenFiles(corpusDir string) ([]types.TokenFile, error) {
	dir := filepath.Join(corpusDir, tokensDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading tokens directory %s: %w", dir, err)
	}

	var files []types.TokenFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "-tokens.yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		var tf types.TokenFile
		if err := yaml.Unmarshal(data, &tf); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}
		files = append(files, tf)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].DocID < files[j].DocID })
	return files, nil
}
