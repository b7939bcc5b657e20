// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// pdftotextBinary is the poppler CLI tool. Tests override this to avoid a
// poppler install.
var pdftotextBinary = "pdftotext"

// PdftotextExtractor shells out to poppler's pdftotext. It handles documents
// the native reader cannot, at the cost of an external dependency and no
// access to the PDF information dictionary.
type PdftotextExtractor struct{}

// NewPdftotextExtractor verifies the pdftotext binary is on PATH before
// returning an extractor.
func NewPdftotextExtractor() (*PdftotextExtractor, error) {
	if _, err := exec.LookPath(pdftotextBinary); err != nil {
		return nil, fmt.Errorf("pdftotext not found on PATH (install poppler-utils): %w", err)
	}
	return &PdftotextExtractor{}, nil
}

// Name implements Extractor.
func (e *PdftotextExtractor) Name() string { return BackendPdftotext }

// Extract implements Extractor. pdftotext separates pages with form feeds,
// which gives the page count; the information dictionary is left empty.
func (e *PdftotextExtractor) Extract(pdfPath string) (Extraction, error) {
	cmd := exec.Command(pdftotextBinary, "-enc", "UTF-8", pdfPath, "-")

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return Extraction{}, fmt.Errorf("running pdftotext on %s: %w (%s)",
			pdfPath, err, strings.TrimSpace(errBuf.String()))
	}

	text := out.String()
	pageCount := 0
	if strings.TrimSpace(text) != "" {
		pageCount = strings.Count(text, "\f") + 1
	}

	return Extraction{
		Text:      strings.ReplaceAll(text, "\f", "\n"),
		PageCount: pageCount,
	}, nil
}
