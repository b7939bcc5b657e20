// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze computes corpus statistics over preprocessed token files:
// n-gram frequencies, TF-IDF term weights, LDA topics, and cross-group
// narrative comparisons. Results are written to analysis/results/.
package analyze

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/narrative-engine/internal/textproc"
	"github.com/pdiddy/narrative-engine/pkg/types"
)

const resultsDir = "results"

// GroupBy selects the document attribute used to aggregate analysis output.
type GroupBy string

const (
	GroupInstitution GroupBy = "institution"
	GroupSourceType  GroupBy = "source-type"
)

// ValidGroupBy reports whether s names a supported grouping.
func ValidGroupBy(s string) bool {
	switch GroupBy(s) {
	case GroupInstitution, GroupSourceType:
		return true
	}
	return false
}

// key returns the grouping value for one token file. Documents with no value
// fall into the "unknown" group rather than being dropped.
func (g GroupBy) key(tf types.TokenFile) string {
	var v string
	switch g {
	case GroupSourceType:
		v = string(tf.SourceType)
	default:
		v = tf.Institution
	}
	if v == "" {
		return "unknown"
	}
	return v
}

// Analyzer runs corpus analyses configured by an AnalyzeConfig.
type Analyzer struct {
	cfg types.AnalyzeConfig
}

// New returns an Analyzer with defaults applied: n-gram sizes 1-3, 25 top
// terms, and a minimum document frequency of 2.
func New(cfg types.AnalyzeConfig) *Analyzer {
	if len(cfg.NGramSizes) == 0 {
		cfg.NGramSizes = []int{1, 2, 3}
	}
	if cfg.TopTerms <= 0 {
		cfg.TopTerms = 25
	}
	if cfg.MinDocFreq <= 0 {
		cfg.MinDocFreq = 2
	}
	return &Analyzer{cfg: cfg}
}

// loadTokenFiles reads the preprocessed corpus, failing when it is empty.
func (a *Analyzer) loadTokenFiles() ([]types.TokenFile, error) {
	files, err := textproc.LoadTokenFiles(a.cfg.CorpusDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no token files under %s, run preprocess first",
			a.cfg.CorpusDir)
	}
	return files, nil
}

// writeResult marshals v and writes it to analysis/results/[name].yaml
// (or .json), returning the written path.
func (a *Analyzer) writeResult(name string, v any, asJSON bool) (string, error) {
	dir := filepath.Join(a.cfg.AnalysisDir, resultsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}

	var data []byte
	var err error
	ext := ".yaml"
	if asJSON {
		ext = ".json"
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return "", fmt.Errorf("marshaling %s result: %w", name, err)
	}

	path := filepath.Join(dir, name+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
