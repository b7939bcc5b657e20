// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const topTermsPerDoc = 20

// ExportEntry is one document in the portable corpus export.
type ExportEntry struct {
	DocumentRecord `yaml:",inline" json:",inline"`
	TopTerms       []TermCount `json:"top_terms" yaml:"top_terms"`
}

// buildExport assembles the export entries from the current index.
func (s *Store) buildExport(ctx context.Context) ([]ExportEntry, error) {
	docs, err := s.Documents(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]ExportEntry, 0, len(docs))
	for _, doc := range docs {
		terms, err := s.TopTerms(ctx, doc.ID, topTermsPerDoc)
		if err != nil {
			return nil, fmt.Errorf("terms for %s: %w", doc.ID, err)
		}
		entries = append(entries, ExportEntry{DocumentRecord: doc, TopTerms: terms})
	}
	return entries, nil
}

// ExportYAML writes the corpus summary to analysis/index/export.yaml.
func (s *Store) ExportYAML(ctx context.Context) error {
	entries, err := s.buildExport(ctx)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}

	path := filepath.Join(s.analysisDir, indexDir, "export.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ExportJSON writes the corpus summary to analysis/index/export.json.
func (s *Store) ExportJSON(ctx context.Context) error {
	entries, err := s.buildExport(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}

	path := filepath.Join(s.analysisDir, indexDir, "export.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
