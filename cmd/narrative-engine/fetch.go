// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/narrative-engine/internal/fetch"
	"github.com/pdiddy/narrative-engine/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "narrative-engine/0.1"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [sources-file]",
	Short: "Download report PDFs listed in a sources file",
	Long: `Fetch reads a YAML sources file (URL, institution, title per entry),
downloads each PDF into corpus/raw/, and writes a metadata stub for the
ingest stage. Already-downloaded reports are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("sources", "sources.yaml", "YAML file listing reports to download")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")
	fetchCmd.Flags().String("corpus-dir", "corpus", "base directory for the corpus")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	sourcesPath, _ := cmd.Flags().GetString("sources")
	if len(args) > 0 {
		sourcesPath = args[0]
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}

	sources, err := fetch.LoadSources(sourcesPath)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources listed in %s", sourcesPath)
	}

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		DownloadDelay: delay,
		CorpusDir:     configString(cmd, "corpus-dir", "corpus.dir"),
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	result := fetch.FetchBatch(cmd.Context(), client, sources, cfg, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d report(s) failed to download", result.Failed)
	}
	return nil
}
