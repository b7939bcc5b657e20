// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the narrative-engine
// pipeline: corpus documents, token files, and per-stage configuration.
package types

import "time"

// Document holds metadata for one report in the corpus. A record is created
// by the ingest stage (and pre-seeded by fetch for downloaded reports) and
// persisted as corpus/metadata/[id].yaml.
type Document struct {
	// ID is a slug derived from the PDF filename (stem, lowercased).
	ID string `json:"id" yaml:"id"`

	// Filename is the base name of the source PDF.
	Filename string `json:"filename" yaml:"filename"`

	// Title is the report title, from PDF info when present.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Author is the author string from PDF info.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Subject is the subject string from PDF info.
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`

	// Institution is the publishing institution (from the sources file for
	// fetched reports, otherwise derived from the filename).
	Institution string `json:"institution" yaml:"institution"`

	// SourceType classifies the institution: consulting, academic,
	// industry, policy, or unknown.
	SourceType SourceType `json:"source_type" yaml:"source_type"`

	// SourceURL is the URL the PDF was downloaded from, when fetched.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// PDFPath is the local path to the source PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// TextPath is the local path to the extracted plain text.
	TextPath string `json:"text_path,omitempty" yaml:"text_path,omitempty"`

	// FileSizeBytes is the size of the source PDF.
	FileSizeBytes int64 `json:"file_size_bytes" yaml:"file_size_bytes"`

	// PageCount is the number of pages in the PDF. Zero when the
	// extraction backend could not determine it.
	PageCount int `json:"page_count" yaml:"page_count"`

	// WordCount is the number of whitespace-separated words in the
	// extracted text.
	WordCount int `json:"word_count" yaml:"word_count"`

	// CharCount is the number of characters in the extracted text.
	CharCount int `json:"char_count" yaml:"char_count"`

	// LineCount is the number of lines in the extracted text.
	LineCount int `json:"line_count" yaml:"line_count"`

	// ExtractedAt records when text extraction ran.
	ExtractedAt time.Time `json:"extracted_at,omitempty" yaml:"extracted_at,omitempty"`

	// Extractor names the backend that produced the text (native, pdftotext).
	Extractor string `json:"extractor,omitempty" yaml:"extractor,omitempty"`
}

// TokenFile is the on-disk output of the preprocess stage for one document,
// written to corpus/tokens/[id]-tokens.yaml and consumed by the index and
// analyze stages.
type TokenFile struct {
	// DocID identifies the source document.
	DocID string `json:"doc_id" yaml:"doc_id"`

	// Institution and SourceType are copied from the document metadata so
	// analysis can group token streams without a metadata join.
	Institution string     `json:"institution" yaml:"institution"`
	SourceType  SourceType `json:"source_type" yaml:"source_type"`

	// Tokens is the normalized token stream in document order.
	Tokens []string `json:"tokens" yaml:"tokens"`

	// TokenCount is len(Tokens), stored for quick reporting.
	TokenCount int `json:"token_count" yaml:"token_count"`

	// DistinctTerms is the number of unique tokens.
	DistinctTerms int `json:"distinct_terms" yaml:"distinct_terms"`

	// ProcessedAt records when preprocessing ran.
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`
}
