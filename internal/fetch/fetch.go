// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads report PDFs listed in a sources file into the
// corpus and seeds metadata records for the ingest stage.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
	"golang.org/x/time/rate"

	"github.com/pdiddy/narrative-engine/internal/httputil"
	"github.com/pdiddy/narrative-engine/pkg/types"
)

const (
	rawDir      = "raw"
	metadataDir = "metadata"
)

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the total number of sources processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any downloads failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FetchReport downloads a single source's PDF into corpus/raw/ and writes a
// stub metadata record. If the PDF already exists on disk the download is
// skipped and the existing metadata is left untouched.
func FetchReport(ctx context.Context, client *http.Client, src Source, cfg types.FetchConfig, w io.Writer) (skipped bool, err error) {
	pdfPath := filepath.Join(cfg.CorpusDir, rawDir, src.ID+".pdf")
	metaPath := filepath.Join(cfg.CorpusDir, metadataDir, src.ID+".yaml")

	if _, err := os.Stat(pdfPath); err == nil {
		fmt.Fprintf(w, "skipped    %s (already downloaded)\n", src.ID)
		return true, nil
	}

	for _, dir := range []string{filepath.Dir(pdfPath), filepath.Dir(metaPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if err := downloadPDF(ctx, client, src.URL, pdfPath, cfg); err != nil {
		return false, err
	}

	doc := types.Document{
		ID:          src.ID,
		Filename:    src.ID + ".pdf",
		Title:       src.Title,
		Institution: src.Institution,
		SourceType:  types.ClassifySource(src.Institution),
		SourceURL:   src.URL,
		PDFPath:     pdfPath,
	}
	if info, err := os.Stat(pdfPath); err == nil {
		doc.FileSizeBytes = info.Size()
	}

	if err := writeMetadata(&doc, metaPath); err != nil {
		return false, fmt.Errorf("writing metadata: %w", err)
	}

	fmt.Fprintf(w, "downloaded %s (%s)\n", src.ID, src.Institution)
	return false, nil
}

// FetchBatch downloads every source in order, pacing requests with a rate
// limiter derived from DownloadDelay. One failed source never aborts the
// batch; failures are counted and reported in the summary.
func FetchBatch(ctx context.Context, client *http.Client, sources []Source, cfg types.FetchConfig, w io.Writer) BatchResult {
	delay := cfg.DownloadDelay
	if delay <= 0 {
		delay = time.Second
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)

	var result BatchResult
	for _, src := range sources {
		if err := limiter.Wait(ctx); err != nil {
			fmt.Fprintf(w, "failed     %s: %v\n", src.ID, err)
			result.Failed++
			continue
		}

		skipped, err := FetchReport(ctx, client, src, cfg, w)
		switch {
		case err != nil:
			fmt.Fprintf(w, "failed     %s: %v\n", src.ID, err)
			result.Failed++
		case skipped:
			result.Skipped++
		default:
			result.Downloaded++
		}
	}

	fmt.Fprintf(w, "\nFetch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// downloadPDF streams the URL to destPath via a temp file so a partial
// download never leaves a truncated PDF behind.
func downloadPDF(ctx context.Context, client *http.Client, url, destPath string, cfg types.FetchConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// writeMetadata marshals a Document record to a YAML file.
func writeMetadata(doc *types.Document, path string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
