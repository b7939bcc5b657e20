// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// NativeExtractor extracts text with the pure-Go PDF reader. It needs no
// external tools, reads the information dictionary, and reports exact page
// counts, but struggles with some scanned or exotic encodings — those fall
// through to the pdftotext backend.
type NativeExtractor struct{}

// Name implements Extractor.
func (e *NativeExtractor) Name() string { return BackendNative }

// Extract implements Extractor. Pages that fail to decode are skipped rather
// than failing the document; the caller decides whether the remaining text
// is usable.
func (e *NativeExtractor) Extract(pdfPath string) (Extraction, error) {
	f, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return Extraction{}, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	ext := Extraction{
		PageCount: reader.NumPage(),
		Info:      readInfo(reader),
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	ext.Text = b.String()
	return ext, nil
}

// readInfo pulls the information dictionary fields out of the PDF trailer.
// Missing or malformed entries yield empty strings.
func readInfo(reader *pdf.Reader) DocInfo {
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return DocInfo{}
	}
	return DocInfo{
		Title:   infoString(info, "Title"),
		Author:  infoString(info, "Author"),
		Subject: infoString(info, "Subject"),
		Creator: infoString(info, "Creator"),
	}
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(v.RawString())
}
