// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/narrative-engine/internal/analyze"
	"github.com/pdiddy/narrative-engine/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute corpus statistics (ngrams, tfidf, topics, compare, report)",
	Long: `Analyze computes statistics over the preprocessed corpus. Each
analysis is a subcommand; results are written to analysis/results/ and
summarized on stdout.

Documents are grouped by institution or source type (--group-by).`,
}

// --- ngrams subcommand ---

var analyzeNGramsCmd = &cobra.Command{
	Use:   "ngrams",
	Short: "Count the most frequent n-grams per group",
	RunE:  runAnalyzeNGrams,
}

func runAnalyzeNGrams(cmd *cobra.Command, args []string) error {
	a, groupBy, err := analyzerFromFlags(cmd)
	if err != nil {
		return err
	}
	sizes, _ := cmd.Flags().GetIntSlice("n")
	top, _ := cmd.Flags().GetInt("top")

	report, err := a.NGrams(groupBy, sizes, top)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(report)
	}
	for _, g := range report.Groups {
		fmt.Printf("\n%s, %d-grams:\n", g.Group, g.N)
		for _, e := range g.Top {
			fmt.Printf("  %6d  %s\n", e.Count, e.NGram)
		}
	}
	return nil
}

// --- tfidf subcommand ---

var analyzeTFIDFCmd = &cobra.Command{
	Use:   "tfidf",
	Short: "Rank each group's characteristic terms by TF-IDF",
	RunE:  runAnalyzeTFIDF,
}

func runAnalyzeTFIDF(cmd *cobra.Command, args []string) error {
	a, groupBy, err := analyzerFromFlags(cmd)
	if err != nil {
		return err
	}
	top, _ := cmd.Flags().GetInt("top")

	report, err := a.TFIDF(groupBy, top)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(report)
	}
	fmt.Printf("%d documents, %d terms in vocabulary\n", report.Documents, report.Vocabulary)
	for _, g := range report.Groups {
		fmt.Printf("\n%s (%d documents):\n", g.Group, g.Docs)
		for _, tw := range g.Top {
			fmt.Printf("  %.4f  %s\n", tw.Weight, tw.Term)
		}
	}
	return nil
}

// --- topics subcommand ---

var analyzeTopicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Fit an LDA topic model to the corpus",
	Long: `Topics fits a latent Dirichlet allocation model by collapsed Gibbs
sampling and reports each topic's top terms plus every document's topic
mixture. Runs with the same seed are reproducible.`,
	RunE: runAnalyzeTopics,
}

func runAnalyzeTopics(cmd *cobra.Command, args []string) error {
	a, _, err := analyzerFromFlags(cmd)
	if err != nil {
		return err
	}

	report, err := a.Topics(topicConfigFromFlags(cmd))
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(report)
	}
	fmt.Printf("K=%d, %d iterations, seed %d, %d terms in vocabulary\n",
		report.K, report.Iterations, report.Seed, report.Vocabulary)
	for _, topic := range report.Topics {
		terms := make([]string, 0, len(topic.Terms))
		for _, tw := range topic.Terms {
			terms = append(terms, tw.Term)
		}
		fmt.Printf("\nTopic %d (%d tokens): %s\n", topic.ID, topic.Tokens, strings.Join(terms, ", "))
	}
	return nil
}

// --- compare subcommand ---

var analyzeCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Contrast group narratives by TF-IDF similarity",
	Long: `Compare computes pairwise cosine similarity between group TF-IDF
vectors, the vocabulary every group shares, and the terms each group
emphasizes over all others.`,
	RunE: runAnalyzeCompare,
}

func runAnalyzeCompare(cmd *cobra.Command, args []string) error {
	a, groupBy, err := analyzerFromFlags(cmd)
	if err != nil {
		return err
	}
	top, _ := cmd.Flags().GetInt("top")

	report, err := a.Compare(groupBy, top)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return printJSON(report)
	}
	for _, p := range report.Similarities {
		fmt.Printf("%.3f  %s / %s\n", p.Similarity, p.A, p.B)
	}
	fmt.Printf("\nMost similar:   %s / %s (%.3f)\n",
		report.MostSimilar.A, report.MostSimilar.B, report.MostSimilar.Similarity)
	fmt.Printf("Most divergent: %s / %s (%.3f)\n",
		report.MostDivergent.A, report.MostDivergent.B, report.MostDivergent.Similarity)
	for _, c := range report.Contrasts {
		terms := make([]string, 0, len(c.Distinctive))
		for _, tw := range c.Distinctive {
			terms = append(terms, tw.Term)
		}
		fmt.Printf("\n%s emphasizes: %s\n", c.Group, strings.Join(terms, ", "))
	}
	return nil
}

// --- report subcommand ---

var analyzeReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run every analysis and write a Markdown summary",
	RunE:  runAnalyzeReport,
}

func runAnalyzeReport(cmd *cobra.Command, args []string) error {
	a, groupBy, err := analyzerFromFlags(cmd)
	if err != nil {
		return err
	}

	path, err := a.Report(groupBy, topicConfigFromFlags(cmd))
	if err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", path)
	return nil
}

// --- shared helpers ---

func analyzerFromFlags(cmd *cobra.Command) (*analyze.Analyzer, analyze.GroupBy, error) {
	groupBy, _ := cmd.Flags().GetString("group-by")
	if !analyze.ValidGroupBy(groupBy) {
		return nil, "", fmt.Errorf("unknown grouping %q: use institution or source-type", groupBy)
	}

	minDocFreq, _ := cmd.Flags().GetInt("min-doc-freq")
	cfg := types.AnalyzeConfig{
		CorpusDir:   configString(cmd, "corpus-dir", "corpus.dir"),
		AnalysisDir: configString(cmd, "analysis-dir", "analysis.dir"),
		MinDocFreq:  minDocFreq,
	}
	return analyze.New(cfg), analyze.GroupBy(groupBy), nil
}

func topicConfigFromFlags(cmd *cobra.Command) types.TopicConfig {
	k, _ := cmd.Flags().GetInt("topics")
	iterations, _ := cmd.Flags().GetInt("iterations")
	seed, _ := cmd.Flags().GetInt64("seed")
	topWords, _ := cmd.Flags().GetInt("top-words")

	return types.TopicConfig{
		K:          k,
		Iterations: iterations,
		Seed:       seed,
		TopWords:   topWords,
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	analyzeCmd.PersistentFlags().String("corpus-dir", "corpus", "base directory for the corpus (contains tokens/)")
	analyzeCmd.PersistentFlags().String("analysis-dir", "analysis", "base directory for analysis output (contains results/)")
	analyzeCmd.PersistentFlags().String("group-by", "institution", "group documents by: institution or source-type")
	analyzeCmd.PersistentFlags().Int("min-doc-freq", 0, "prune terms appearing in fewer documents (default 2)")
	analyzeCmd.PersistentFlags().Bool("json", false, "output results as JSON")

	analyzeNGramsCmd.Flags().IntSlice("n", nil, "n-gram orders to count (default 1,2,3)")
	analyzeNGramsCmd.Flags().Int("top", 0, "n-grams reported per group (default 25)")

	analyzeTFIDFCmd.Flags().Int("top", 0, "terms reported per group (default 25)")

	analyzeCompareCmd.Flags().Int("top", 0, "terms reported per section (default 25)")

	for _, c := range []*cobra.Command{analyzeTopicsCmd, analyzeReportCmd} {
		c.Flags().Int("topics", 0, "number of topics K (default 6)")
		c.Flags().Int("iterations", 0, "Gibbs sampling sweeps (default 500)")
		c.Flags().Int64("seed", 0, "random seed (0 = fixed default)")
		c.Flags().Int("top-words", 0, "terms reported per topic (default 15)")
	}

	// Wire subcommands.
	analyzeCmd.AddCommand(analyzeNGramsCmd)
	analyzeCmd.AddCommand(analyzeTFIDFCmd)
	analyzeCmd.AddCommand(analyzeTopicsCmd)
	analyzeCmd.AddCommand(analyzeCompareCmd)
	analyzeCmd.AddCommand(analyzeReportCmd)

	rootCmd.AddCommand(analyzeCmd)
}
