// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

func TestLoadSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	content := `sources:
  - institution: McKinsey
    title: The State of AI
    url: https://example.com/mckinsey.pdf
  - id: wef-jobs
    institution: WEF
    title: Future of Jobs
    url: https://example.com/wef.pdf
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].ID != "mckinsey-the-state-of-ai" {
		t.Errorf("derived ID = %q", sources[0].ID)
	}
	if sources[1].ID != "wef-jobs" {
		t.Errorf("explicit ID = %q", sources[1].ID)
	}
}

func TestLoadSourcesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing url", "sources:\n  - institution: X\n    title: Y\n"},
		{"missing institution", "sources:\n  - title: Y\n    url: https://x/y.pdf\n"},
		{"empty list", "sources: []\n"},
		{"duplicate id", "sources:\n  - id: a\n    institution: X\n    url: https://x/1.pdf\n  - id: a\n    institution: X\n    url: https://x/2.pdf\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sources.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadSources(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func testCfg(dir string) types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "narrative-engine-test/0.1",
		},
		DownloadDelay: time.Millisecond,
		CorpusDir:     dir,
	}
}

func TestFetchReport(t *testing.T) {
	pdfBytes := []byte("%PDF-1.4 fake report body")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.HasPrefix(got, "narrative-engine-test") {
			t.Errorf("User-Agent = %q", got)
		}
		w.Write(pdfBytes)
	}))
	defer ts.Close()

	dir := t.TempDir()
	src := Source{ID: "mckinsey-state-of-ai", Institution: "McKinsey", Title: "State of AI", URL: ts.URL}

	var out bytes.Buffer
	skipped, err := FetchReport(context.Background(), ts.Client(), src, testCfg(dir), &out)
	if err != nil {
		t.Fatalf("FetchReport: %v", err)
	}
	if skipped {
		t.Error("first fetch reported skipped")
	}

	pdfPath := filepath.Join(dir, "raw", "mckinsey-state-of-ai.pdf")
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatalf("reading downloaded PDF: %v", err)
	}
	if !bytes.Equal(data, pdfBytes) {
		t.Error("downloaded PDF content mismatch")
	}

	metaData, err := os.ReadFile(filepath.Join(dir, "metadata", "mckinsey-state-of-ai.yaml"))
	if err != nil {
		t.Fatalf("reading metadata: %v", err)
	}
	var doc types.Document
	if err := yaml.Unmarshal(metaData, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Institution != "McKinsey" {
		t.Errorf("Institution = %q", doc.Institution)
	}
	if doc.SourceType != types.SourceConsulting {
		t.Errorf("SourceType = %q", doc.SourceType)
	}
	if doc.FileSizeBytes != int64(len(pdfBytes)) {
		t.Errorf("FileSizeBytes = %d, want %d", doc.FileSizeBytes, len(pdfBytes))
	}
	if doc.SourceURL != ts.URL {
		t.Errorf("SourceURL = %q", doc.SourceURL)
	}

	// Second fetch with the PDF already on disk is skipped.
	skipped, err = FetchReport(context.Background(), ts.Client(), src, testCfg(dir), &out)
	if err != nil {
		t.Fatalf("second FetchReport: %v", err)
	}
	if !skipped {
		t.Error("second fetch not skipped")
	}
}

func TestFetchReportHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	dir := t.TempDir()
	src := Source{ID: "gone", Institution: "X", URL: ts.URL}

	var out bytes.Buffer
	_, err := FetchReport(context.Background(), ts.Client(), src, testCfg(dir), &out)
	if err == nil {
		t.Fatal("expected an error for HTTP 404")
	}

	// A failed download must not leave a partial PDF behind.
	if _, err := os.Stat(filepath.Join(dir, "raw", "gone.pdf")); !os.IsNotExist(err) {
		t.Error("partial PDF left on disk")
	}
}

func TestFetchBatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("%PDF-1.4 ok"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	sources := []Source{
		{ID: "good-one", Institution: "MIT", URL: ts.URL + "/one.pdf"},
		{ID: "bad-one", Institution: "MIT", URL: ts.URL + "/bad.pdf"},
		{ID: "good-two", Institution: "MIT", URL: ts.URL + "/two.pdf"},
	}

	var out bytes.Buffer
	result := FetchBatch(context.Background(), ts.Client(), sources, testCfg(dir), &out)

	if result.Downloaded != 2 || result.Failed != 1 || result.Skipped != 0 {
		t.Errorf("result = %+v", result)
	}
	if !result.HasFailures() {
		t.Error("HasFailures = false")
	}
	if result.Total() != 3 {
		t.Errorf("Total = %d", result.Total())
	}
	if !strings.Contains(out.String(), "Fetch summary: 2 downloaded, 0 skipped, 1 failed") {
		t.Errorf("summary line missing from output:\n%s", out.String())
	}
}
