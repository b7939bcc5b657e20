// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

const (
	rawDir      = "raw"
	textsDir    = "texts"
	metadataDir = "metadata"
)

// BatchResult holds the outcome of a batch ingest run.
type BatchResult struct {
	Ingested int
	Skipped  int
	Failed   int
	Docs     []*types.Document
}

// Total returns the total number of PDFs processed.
func (r BatchResult) Total() int {
	return r.Ingested + r.Skipped + r.Failed
}

// HasFailures reports whether any documents failed extraction.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// DiscoverPDFs lists the PDF files under corpusDir/raw/, sorted by name.
func DiscoverPDFs(corpusDir string) ([]string, error) {
	pattern := filepath.Join(corpusDir, rawDir, "*.pdf")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", pattern, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// IngestPDF extracts one PDF into corpus/texts/ and writes its metadata
// record. A document whose text output is newer than its PDF is skipped.
// When the primary backend errors or yields no visible text, the fallback
// backend (if any) is tried before the document is failed.
func IngestPDF(primary, fallback Extractor, pdfPath string, cfg types.IngestConfig, w io.Writer) (doc *types.Document, skipped bool, err error) {
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	id := types.Slug(stem)
	if id == "" {
		return nil, false, fmt.Errorf("cannot derive a document id from %q", pdfPath)
	}

	textPath := filepath.Join(cfg.CorpusDir, textsDir, id+".txt")
	metaPath := filepath.Join(cfg.CorpusDir, metadataDir, id+".yaml")

	pdfInfo, err := os.Stat(pdfPath)
	if err != nil {
		return nil, false, fmt.Errorf("stat PDF: %w", err)
	}
	if textInfo, err := os.Stat(textPath); err == nil && textInfo.ModTime().After(pdfInfo.ModTime()) {
		fmt.Fprintf(w, "skipped   %s (text up to date)\n", id)
		return nil, true, nil
	}

	ext, backend, err := extractWithFallback(primary, fallback, pdfPath, w)
	if err != nil {
		return nil, false, err
	}

	text := CleanText(ext.Text)
	if text == "" {
		return nil, false, fmt.Errorf("no text extracted from %s", filepath.Base(pdfPath))
	}

	doc = buildDocument(id, pdfPath, textPath, pdfInfo.Size(), text, ext, backend)

	// A fetch stub (or a previous run) may already carry institution,
	// title, and source URL; those win over filename-derived values.
	mergeStubMetadata(doc, metaPath)

	for _, dir := range []string{filepath.Dir(textPath), filepath.Dir(metaPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
		return nil, false, fmt.Errorf("writing text: %w", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return nil, false, fmt.Errorf("writing metadata: %w", err)
	}

	fmt.Fprintf(w, "%s %s (%d words, %d pages, %s)\n",
		color.GreenString("ingested "), id, doc.WordCount, doc.PageCount, doc.SourceType)
	return doc, false, nil
}

// IngestBatch runs IngestPDF over a list of PDFs with a progress bar,
// counting outcomes. One bad PDF never aborts the batch.
func IngestBatch(primary, fallback Extractor, pdfPaths []string, cfg types.IngestConfig, w io.Writer) BatchResult {
	var result BatchResult

	bar := progressbar.NewOptions(len(pdfPaths),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionClearOnFinish(),
	)

	for _, path := range pdfPaths {
		doc, skipped, err := IngestPDF(primary, fallback, path, cfg, w)
		switch {
		case err != nil:
			fmt.Fprintf(w, "%s %s: %v\n", color.RedString("failed   "), filepath.Base(path), err)
			result.Failed++
		case skipped:
			result.Skipped++
		default:
			result.Ingested++
			result.Docs = append(result.Docs, doc)
		}
		bar.Add(1)
	}

	fmt.Fprintf(w, "\nIngest summary: %d ingested, %d skipped, %d failed (total: %d)\n",
		result.Ingested, result.Skipped, result.Failed, result.Total())
	return result
}

// extractWithFallback runs the primary backend and falls back when it errors
// or produces no visible text.
func extractWithFallback(primary, fallback Extractor, pdfPath string, w io.Writer) (Extraction, string, error) {
	ext, err := primary.Extract(pdfPath)
	if err == nil && hasVisibleText(ext.Text) {
		return ext, primary.Name(), nil
	}

	if fallback == nil {
		if err != nil {
			return Extraction{}, "", err
		}
		return Extraction{}, "", fmt.Errorf("%s produced no text for %s", primary.Name(), filepath.Base(pdfPath))
	}

	fmt.Fprintf(w, "          %s: falling back to %s\n", filepath.Base(pdfPath), fallback.Name())
	fbExt, fbErr := fallback.Extract(pdfPath)
	if fbErr != nil {
		if err != nil {
			return Extraction{}, "", fmt.Errorf("%s: %v; %s: %w", primary.Name(), err, fallback.Name(), fbErr)
		}
		return Extraction{}, "", fbErr
	}

	// Keep the primary's page count and info when the fallback lacks them.
	if fbExt.PageCount == 0 {
		fbExt.PageCount = ext.PageCount
	}
	if fbExt.Info == (DocInfo{}) {
		fbExt.Info = ext.Info
	}
	return fbExt, fallback.Name(), nil
}

// hasVisibleText reports whether text contains at least one letter.
func hasVisibleText(text string) bool {
	return strings.ContainsFunc(text, unicode.IsLetter)
}

// buildDocument assembles the metadata record for an extracted document.
func buildDocument(id, pdfPath, textPath string, size int64, text string, ext Extraction, backend string) *types.Document {
	classifyKey := filepath.Base(pdfPath)
	return &types.Document{
		ID:            id,
		Filename:      filepath.Base(pdfPath),
		Title:         ext.Info.Title,
		Author:        ext.Info.Author,
		Subject:       ext.Info.Subject,
		Institution:   institutionFromFilename(id),
		SourceType:    types.ClassifySource(classifyKey),
		PDFPath:       pdfPath,
		TextPath:      textPath,
		FileSizeBytes: size,
		PageCount:     ext.PageCount,
		WordCount:     len(strings.Fields(text)),
		CharCount:     utf8.RuneCountInString(text),
		LineCount:     strings.Count(text, "\n") + 1,
		ExtractedAt:   time.Now().UTC(),
		Extractor:     backend,
	}
}

// institutionFromFilename takes the leading component of a slug as the
// institution ("mckinsey-state-of-ai" -> "mckinsey"). Reports placed by
// hand rarely carry anything better.
func institutionFromFilename(id string) string {
	if idx := strings.IndexByte(id, '-'); idx > 0 {
		return id[:idx]
	}
	return id
}

// mergeStubMetadata overlays fields from an existing metadata record (a
// fetch stub or earlier ingest run) onto doc. Institution, source URL, and
// title from the stub take precedence; extraction-derived fields do not.
func mergeStubMetadata(doc *types.Document, metaPath string) {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return
	}
	var stub types.Document
	if err := yaml.Unmarshal(data, &stub); err != nil {
		return
	}

	if stub.Institution != "" {
		doc.Institution = stub.Institution
		if stub.SourceType != "" && stub.SourceType != types.SourceUnknown {
			doc.SourceType = stub.SourceType
		} else {
			doc.SourceType = types.ClassifySource(stub.Institution)
		}
	}
	if stub.SourceURL != "" {
		doc.SourceURL = stub.SourceURL
	}
	if stub.Title != "" {
		doc.Title = stub.Title
	}
}
