// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest extracts text and metadata from corpus PDFs with pluggable
// backends and writes the plain-text and metadata records the downstream
// stages consume.
package ingest

import "fmt"

// DocInfo holds the document information dictionary fields a PDF may carry.
type DocInfo struct {
	Title   string
	Author  string
	Subject string
	Creator string
}

// Extraction is the raw output of one extraction backend run.
type Extraction struct {
	// Text is the extracted text before cleaning.
	Text string

	// PageCount is the number of pages, zero when unknown.
	PageCount int

	// Info carries the PDF information dictionary when the backend can
	// read it.
	Info DocInfo
}

// Extractor pulls text out of a PDF file. Backends differ in fidelity and
// dependencies: the native backend is pure Go, the pdftotext backend shells
// out to poppler.
type Extractor interface {
	// Name identifies the backend in metadata and status output.
	Name() string

	// Extract reads the PDF at pdfPath and returns its text and metadata.
	Extract(pdfPath string) (Extraction, error)
}

// NewExtractor constructs the named backend. Supported names: native,
// pdftotext. An empty name selects native.
func NewExtractor(name string) (Extractor, error) {
	switch name {
	case "", BackendNative:
		return &NativeExtractor{}, nil
	case BackendPdftotext:
		return NewPdftotextExtractor()
	default:
		return nil, fmt.Errorf("unknown extraction backend %q: use native or pdftotext", name)
	}
}

// Backend names accepted by NewExtractor.
const (
	BackendNative    = "native"
	BackendPdftotext = "pdftotext"
)
