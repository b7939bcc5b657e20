// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/narrative-engine/internal/textproc"
	"github.com/pdiddy/narrative-engine/pkg/types"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Tokenize extracted text for analysis",
	Long: `Preprocess normalizes each document under corpus/texts/ (Unicode NFKC,
lowercasing), tokenizes it, removes stopwords and short tokens, optionally
stems, and writes the token stream to corpus/tokens/. Documents whose
tokens are already up to date are skipped.`,
	RunE: runPreprocess,
}

func init() {
	preprocessCmd.Flags().String("corpus-dir", "corpus", "base directory for the corpus")
	preprocessCmd.Flags().Int("min-length", 0, "drop tokens shorter than this many runes (default 2)")
	preprocessCmd.Flags().Bool("keep-numbers", false, "retain pure-number tokens")
	preprocessCmd.Flags().Bool("keep-stopwords", false, "disable stopword removal")
	preprocessCmd.Flags().StringSlice("stopwords", nil, "extra stopwords to remove")
	preprocessCmd.Flags().Bool("stem", false, "apply Snowball stemming")

	rootCmd.AddCommand(preprocessCmd)
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	minLength, _ := cmd.Flags().GetInt("min-length")
	keepNumbers, _ := cmd.Flags().GetBool("keep-numbers")
	keepStopwords, _ := cmd.Flags().GetBool("keep-stopwords")
	extraStopwords, _ := cmd.Flags().GetStringSlice("stopwords")
	stem, _ := cmd.Flags().GetBool("stem")

	cfg := types.PreprocessConfig{
		CorpusDir:      configString(cmd, "corpus-dir", "corpus.dir"),
		MinTokenLength: minLength,
		KeepNumbers:    keepNumbers,
		KeepStopwords:  keepStopwords,
		ExtraStopwords: extraStopwords,
		Stem:           stem,
	}

	summary, err := textproc.PreprocessBatch(cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed preprocessing", summary.Failed)
	}
	return nil
}
