// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

// Source describes one report to download.
type Source struct {
	// ID is the document slug. Optional; derived from institution and
	// title when empty.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Institution is the publishing institution (e.g. "McKinsey").
	Institution string `json:"institution" yaml:"institution"`

	// Title is the report title.
	Title string `json:"title" yaml:"title"`

	// URL is the direct PDF download URL.
	URL string `json:"url" yaml:"url"`
}

// SourcesFile is the on-disk list of reports to fetch.
type SourcesFile struct {
	Sources []Source `json:"sources" yaml:"sources"`
}

// LoadSources reads and validates a sources YAML file. Entries without a
// URL or institution are rejected; missing IDs are derived.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var sf SourcesFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}
	if len(sf.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s lists no sources", path)
	}

	seen := make(map[string]bool, len(sf.Sources))
	for i := range sf.Sources {
		s := &sf.Sources[i]
		if s.URL == "" {
			return nil, fmt.Errorf("source %d: missing url", i)
		}
		if s.Institution == "" {
			return nil, fmt.Errorf("source %d: missing institution", i)
		}
		if s.ID == "" {
			s.ID = types.Slug(s.Institution + " " + s.Title)
		}
		if s.ID == "" {
			return nil, fmt.Errorf("source %d: cannot derive an id", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("source %d: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
	}

	return sf.Sources, nil
}
