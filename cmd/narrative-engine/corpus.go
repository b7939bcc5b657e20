// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/narrative-engine/internal/corpus"
	"github.com/pdiddy/narrative-engine/pkg/types"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the corpus index (index, search, export)",
	Long: `Corpus manages a local SQLite index built from preprocessed token
files. Use subcommands to index documents, search the full text, or export.`,
}

// --- index subcommand ---

var corpusIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index preprocessed documents into the corpus database",
	Long: `Index reads token files from corpus/tokens/, stores document metadata
and per-term counts in a SQLite database with FTS5 full-text indexing, and
refreshes the export file. Unchanged documents are skipped on subsequent runs.`,
	RunE: runCorpusIndex,
}

func runCorpusIndex(cmd *cobra.Command, args []string) error {
	store, err := corpus.NewStore(corpusConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Index(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}

	stats, err := store.IndexStats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("index: %d documents, %d distinct terms, %d tokens\n",
		stats.Documents, stats.DistinctTerms, stats.TotalTokens)

	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- search subcommand ---

var corpusSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the corpus with full-text search and filters",
	Long: `Search queries the corpus using FTS5 full-text search, metadata
filters (institution, source type), or a combination of both. Full-text
hits come back in relevance order with a matched snippet.

Use --trace with a document ID and --term to view matching lines in the
document's text.`,
	RunE: runCorpusSearch,
}

func runCorpusSearch(cmd *cobra.Command, args []string) error {
	traceID, _ := cmd.Flags().GetString("trace")
	term, _ := cmd.Flags().GetString("term")

	store, err := corpus.NewStore(corpusConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	// Trace mode: show term occurrences inside one document.
	if traceID != "" {
		if term == "" {
			return fmt.Errorf("--trace requires --term")
		}
		matches, err := store.Trace(cmd.Context(), traceID, term)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Printf("No occurrences of %q in %s.\n", term, traceID)
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%5d: %s\n", m.LineNumber, m.Line)
		}
		return nil
	}

	opts := searchOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --institution, or --source-type")
	}
	if opts.SourceType != "" && !types.ValidSourceType(string(opts.SourceType)) {
		return fmt.Errorf("unknown source type %q: use consulting, academic, industry, policy, or unknown", opts.SourceType)
	}

	results, err := store.Search(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(results, jsonOutput)
}

func formatSearchOutput(results []corpus.SearchResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-30s  %-15s  %-10s  %s\n",
		"Rank", "Document", "Institution", "Type", "Snippet")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range results {
		docID := r.DocID
		if len(docID) > 30 {
			docID = docID[:27] + "..."
		}
		institution := r.Institution
		if len(institution) > 15 {
			institution = institution[:12] + "..."
		}
		snippet := strings.ReplaceAll(r.Snippet, "\n", " ")
		fmt.Fprintf(os.Stdout, "%-4d  %-30s  %-15s  %-10s  %s\n",
			i+1, docID, institution, r.SourceType, snippet)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func searchOptsFromFlags(cmd *cobra.Command, args []string) corpus.SearchOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	institution, _ := cmd.Flags().GetString("institution")
	sourceType, _ := cmd.Flags().GetString("source-type")
	limit, _ := cmd.Flags().GetInt("limit")

	return corpus.SearchOptions{
		Query:       queryText,
		Institution: institution,
		SourceType:  types.SourceType(sourceType),
		MaxResults:  limit,
	}
}

// --- export subcommand ---

var corpusExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the corpus index to YAML or JSON",
	Long: `Export writes every indexed document with its top terms to
analysis/index/export.yaml or export.json.`,
	RunE: runCorpusExport,
}

func runCorpusExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := corpus.NewStore(corpusConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	analysisDir := configString(cmd, "analysis-dir", "analysis.dir")
	switch format {
	case "yaml", "":
		if err := store.ExportYAML(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/index/export.yaml\n", analysisDir)
	case "json":
		if err := store.ExportJSON(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/index/export.json\n", analysisDir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func corpusConfig(cmd *cobra.Command) types.CorpusConfig {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return types.CorpusConfig{
		CorpusDir:   configString(cmd, "corpus-dir", "corpus.dir"),
		AnalysisDir: configString(cmd, "analysis-dir", "analysis.dir"),
		MaxResults:  maxResults,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	corpusCmd.PersistentFlags().String("corpus-dir", "corpus", "base directory for the corpus (contains tokens/, texts/, metadata/)")
	corpusCmd.PersistentFlags().String("analysis-dir", "analysis", "base directory for analysis output (contains index/)")
	corpusCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Search flags.
	corpusSearchCmd.Flags().String("query", "", "full-text search query")
	corpusSearchCmd.Flags().String("institution", "", "filter by institution")
	corpusSearchCmd.Flags().String("source-type", "", "filter by source type: consulting, academic, industry, policy")
	corpusSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	corpusSearchCmd.Flags().String("trace", "", "show term occurrences in a document ID")
	corpusSearchCmd.Flags().String("term", "", "term to trace (with --trace)")
	corpusSearchCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	corpusExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	// Wire subcommands.
	corpusCmd.AddCommand(corpusIndexCmd)
	corpusCmd.AddCommand(corpusSearchCmd)
	corpusCmd.AddCommand(corpusExportCmd)

	rootCmd.AddCommand(corpusCmd)
}
