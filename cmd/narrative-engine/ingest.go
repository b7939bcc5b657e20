// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/narrative-engine/internal/ingest"
	"github.com/pdiddy/narrative-engine/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [pdfs...]",
	Short: "Extract and clean text from downloaded PDFs",
	Long: `Ingest extracts plain text from every PDF under corpus/raw/, cleans
it (control characters, hyphenation, whitespace), and writes the text to
corpus/texts/ plus a metadata record to corpus/metadata/. PDFs whose text
is already up to date are skipped.

The native backend parses PDFs in-process; pdftotext shells out to the
Poppler tool. When the primary backend fails or extracts no text, the
fallback backend is tried.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("corpus-dir", "corpus", "base directory for the corpus")
	ingestCmd.Flags().String("backend", ingest.BackendNative, "primary extraction backend: native or pdftotext")
	ingestCmd.Flags().String("fallback", ingest.BackendPdftotext, "fallback backend (empty disables fallback)")
	ingestCmd.Flags().Bool("report", true, "write corpus/extraction-report.txt after ingestion")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	backend, _ := cmd.Flags().GetString("backend")
	fallbackName, _ := cmd.Flags().GetString("fallback")
	writeReport, _ := cmd.Flags().GetBool("report")

	cfg := types.IngestConfig{
		CorpusDir:       configString(cmd, "corpus-dir", "corpus.dir"),
		Backend:         backend,
		FallbackBackend: fallbackName,
	}

	primary, err := ingest.NewExtractor(cfg.Backend)
	if err != nil {
		return err
	}
	var fallback ingest.Extractor
	if cfg.FallbackBackend != "" && cfg.FallbackBackend != cfg.Backend {
		// A missing pdftotext binary only disables the fallback.
		if fb, err := ingest.NewExtractor(cfg.FallbackBackend); err == nil {
			fallback = fb
		} else {
			fmt.Fprintf(os.Stderr, "fallback backend unavailable: %v\n", err)
		}
	}

	pdfs := args
	if len(pdfs) == 0 {
		pdfs, err = ingest.DiscoverPDFs(cfg.CorpusDir)
		if err != nil {
			return err
		}
	}
	if len(pdfs) == 0 {
		return fmt.Errorf("no PDFs found under %s/raw", cfg.CorpusDir)
	}

	result := ingest.IngestBatch(primary, fallback, pdfs, cfg, os.Stdout)

	if writeReport {
		path, err := ingest.WriteReport(cfg.CorpusDir)
		if err != nil {
			return err
		}
		fmt.Printf("Extraction report written to %s\n", path)
	}

	if result.HasFailures() {
		return fmt.Errorf("%d PDF(s) failed extraction", result.Failed)
	}
	return nil
}
