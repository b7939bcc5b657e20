// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

// --- test helpers ---

func setupAnalysis(t *testing.T, minDocFreq int) (*Analyzer, string) {
	t.Helper()
	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, "corpus", "tokens"), 0o755); err != nil {
		t.Fatal(err)
	}

	a := New(types.AnalyzeConfig{
		CorpusDir:   filepath.Join(tmpDir, "corpus"),
		AnalysisDir: filepath.Join(tmpDir, "analysis"),
		MinDocFreq:  minDocFreq,
	})
	return a, tmpDir
}

func writeTokenFile(t *testing.T, tmpDir, docID, institution string, st types.SourceType, tokens []string) {
	t.Helper()
	tf := types.TokenFile{
		DocID:         docID,
		Institution:   institution,
		SourceType:    st,
		Tokens:        tokens,
		TokenCount:    len(tokens),
		DistinctTerms: len(tokens),
		ProcessedAt:   time.Now().UTC(),
	}
	data, err := yaml.Marshal(&tf)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(tmpDir, "corpus", "tokens", docID+"-tokens.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// twoInstitutionCorpus writes two documents per institution with contrasting
// vocabularies around a shared core.
func twoInstitutionCorpus(t *testing.T, tmpDir string) {
	t.Helper()
	writeTokenFile(t, tmpDir, "mck-1", "mckinsey", types.SourceConsulting,
		[]string{"agent", "enterprise", "roi", "productivity", "agent", "roi"})
	writeTokenFile(t, tmpDir, "mck-2", "mckinsey", types.SourceConsulting,
		[]string{"agent", "enterprise", "roi", "value", "productivity"})
	writeTokenFile(t, tmpDir, "mit-1", "mit", types.SourceAcademic,
		[]string{"agent", "benchmark", "evaluation", "safety", "agent"})
	writeTokenFile(t, tmpDir, "mit-2", "mit", types.SourceAcademic,
		[]string{"agent", "benchmark", "safety", "alignment", "evaluation"})
}

// --- n-gram tests ---

func TestCountNGrams(t *testing.T) {
	tokens := []string{"agentic", "ai", "agentic", "ai", "systems"}

	tests := []struct {
		name string
		n    int
		want map[string]int
	}{
		{
			name: "unigrams",
			n:    1,
			want: map[string]int{"agentic": 2, "ai": 2, "systems": 1},
		},
		{
			name: "bigrams",
			n:    2,
			want: map[string]int{"agentic ai": 2, "ai agentic": 1, "ai systems": 1},
		},
		{
			name: "trigrams",
			n:    3,
			want: map[string]int{"agentic ai agentic": 1, "ai agentic ai": 1, "agentic ai systems": 1},
		},
		{
			name: "n exceeds length",
			n:    6,
			want: map[string]int{},
		},
		{
			name: "zero n",
			n:    0,
			want: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountNGrams(tokens, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CountNGrams(n=%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestTopNGramsTieBreak(t *testing.T) {
	counts := map[string]int{"zeta": 2, "alpha": 2, "mid": 3}

	got := topNGrams(counts, 3)
	want := []NGramEntry{{"mid", 3}, {"alpha", 2}, {"zeta", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("topNGrams = %v, want %v", got, want)
	}
}

func TestAnalyzerNGrams(t *testing.T) {
	a, tmpDir := setupAnalysis(t, 1)
	twoInstitutionCorpus(t, tmpDir)

	report, err := a.NGrams(GroupInstitution, []int{1, 2}, 5)
	if err != nil {
		t.Fatalf("NGrams: %v", err)
	}

	// Two groups x two orders.
	if len(report.Groups) != 4 {
		t.Fatalf("got %d group entries, want 4", len(report.Groups))
	}
	if report.Groups[0].Group != "mckinsey" || report.Groups[0].N != 1 {
		t.Errorf("first entry = %s/%d, want mckinsey/1", report.Groups[0].Group, report.Groups[0].N)
	}
	if report.Groups[0].Top[0].NGram != "agent" && report.Groups[0].Top[0].NGram != "roi" {
		t.Errorf("top mckinsey unigram = %q, want agent or roi", report.Groups[0].Top[0].NGram)
	}

	// The result file must be written.
	if _, err := os.Stat(filepath.Join(tmpDir, "analysis", "results", "ngrams.yaml")); err != nil {
		t.Errorf("ngrams.yaml not written: %v", err)
	}
}

func TestNGramsDoNotCrossDocuments(t *testing.T) {
	a, tmpDir := setupAnalysis(t, 1)
	writeTokenFile(t, tmpDir, "d1", "mckinsey", types.SourceConsulting, []string{"alpha", "omega"})
	writeTokenFile(t, tmpDir, "d2", "mckinsey", types.SourceConsulting, []string{"beta", "gamma"})

	report, err := a.NGrams(GroupInstitution, []int{2}, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range report.Groups[0].Top {
		if e.NGram == "omega beta" {
			t.Error("bigram spans a document boundary")
		}
	}
}

// --- TF-IDF tests ---

func TestDocFrequencies(t *testing.T) {
	files := []types.TokenFile{
		{Tokens: []string{"agent", "agent", "safety"}},
		{Tokens: []string{"agent", "roi"}},
	}

	df := docFrequencies(files)
	want := map[string]int{"agent": 2, "safety": 1, "roi": 1}
	if !reflect.DeepEqual(df, want) {
		t.Errorf("docFrequencies = %v, want %v", df, want)
	}
}

func TestTFIDFVectorIsL2Normalized(t *testing.T) {
	files := []types.TokenFile{
		{Tokens: []string{"agent", "agent", "safety"}},
		{Tokens: []string{"agent", "roi"}},
	}
	df := docFrequencies(files)

	vec := tfidfVector(files[0].Tokens, df, len(files), 1)
	var norm float64
	for _, w := range vec {
		norm += w * w
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Errorf("squared norm = %f, want 1", norm)
	}
}

func TestTFIDFVectorMinDocFreq(t *testing.T) {
	files := []types.TokenFile{
		{Tokens: []string{"agent", "safety"}},
		{Tokens: []string{"agent", "roi"}},
	}
	df := docFrequencies(files)

	vec := tfidfVector(files[0].Tokens, df, len(files), 2)
	if _, ok := vec["safety"]; ok {
		t.Error("term below min doc frequency survived")
	}
	if _, ok := vec["agent"]; !ok {
		t.Error("term at min doc frequency was dropped")
	}
}

func TestAnalyzerTFIDF(t *testing.T) {
	a, tmpDir := setupAnalysis(t, 1)
	twoInstitutionCorpus(t, tmpDir)

	report, err := a.TFIDF(GroupInstitution, 10)
	if err != nil {
		t.Fatalf("TFIDF: %v", err)
	}

	if report.Documents != 4 {
		t.Errorf("Documents = %d, want 4", report.Documents)
	}
	if len(report.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(report.Groups))
	}

	// roi appears only in consulting documents, so it must outweigh the
	// ubiquitous agent there.
	weights := make(map[string]float64)
	for _, tw := range report.Groups[0].Top {
		weights[tw.Term] = tw.Weight
	}
	if report.Groups[0].Group != "mckinsey" {
		t.Fatalf("first group = %q, want mckinsey", report.Groups[0].Group)
	}
	if weights["roi"] <= weights["agent"] {
		t.Errorf("roi (%.4f) should outweigh agent (%.4f) for mckinsey", weights["roi"], weights["agent"])
	}
	if _, ok := weights["benchmark"]; ok {
		t.Error("academic-only term appeared in the consulting vector")
	}
}

func TestAnalyzerFailsOnEmptyCorpus(t *testing.T) {
	a, _ := setupAnalysis(t, 1)

	if _, err := a.TFIDF(GroupInstitution, 10); err == nil {
		t.Error("expected error for empty corpus")
	}
}

// --- topic model tests ---

func TestTopicsStructure(t *testing.T) {
	a, tmpDir := setupAnalysis(t, 1)
	twoInstitutionCorpus(t, tmpDir)

	report, err := a.Topics(types.TopicConfig{K: 2, Iterations: 50, Seed: 7})
	if err != nil {
		t.Fatalf("Topics: %v", err)
	}

	if report.K != 2 || len(report.Topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(report.Topics))
	}
	if len(report.Documents) != 4 {
		t.Fatalf("got %d document mixtures, want 4", len(report.Documents))
	}

	// Topic mixtures are probability distributions.
	for _, doc := range report.Documents {
		var sum float64
		for _, w := range doc.Weights {
			if w < 0 {
				t.Errorf("doc %s has negative weight", doc.DocID)
			}
			sum += w
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("doc %s weights sum to %f, want 1", doc.DocID, sum)
		}
	}

	// Every corpus token lands in exactly one topic.
	total := 0
	for _, topic := range report.Topics {
		total += topic.Tokens
	}
	if total != 21 {
		t.Errorf("topic token total = %d, want 21", total)
	}
}

func TestTopicsDeterministicWithSeed(t *testing.T) {
	a, tmpDir := setupAnalysis(t, 1)
	twoInstitutionCorpus(t, tmpDir)

	cfg := types.TopicConfig{K: 3, Iterations: 30, Seed: 99}
	first, err := a.Topics(cfg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Topics(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.Topics, second.Topics) {
		t.Error("same seed produced different topics")
	}
	if !reflect.DeepEqual(first.Documents, second.Documents) {
		t.Error("same seed produced different document mixtures")
	}
}

func TestTopicsAppliesDefaults(t *testing.T) {
	a, tmpDir := setupAnalysis(t, 1)
	twoInstitutionCorpus(t, tmpDir)

	report, err := a.Topics(types.TopicConfig{Iterations: 10})
	if err != nil {
		t.Fatal(err)
	}
	if report.K != 6 {
		t.Errorf("K = %d, want 6", report.K)
	}
	if math.Abs(report.Alpha-50.0/6.0) > 1e-9 {
		t.Errorf("Alpha = %f, want %f", report.Alpha, 50.0/6.0)
	}
	if report.Beta != 0.01 {
		t.Errorf("Beta = %f, want 0.01", report.Beta)
	}
	if report.Seed != 42 {
		t.Errorf("Seed = %d, want 42", report.Seed)
	}
}

func TestTopicsNeedsTwoDocuments(t *testing.T) {
	a, tmpDir := setupAnalysis(t, 1)
	writeTokenFile(t, tmpDir, "only", "mckinsey", types.SourceConsulting, []string{"agent"})

	if _, err := a.Topics(types.TopicConfig{K: 2, Iterations: 10}); err == nil {
		t.Error("expected error for single-document corpus")
	}
}

// --- comparison tests ---

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]float64
		want float64
	}{
		{
			name: "identical",
			a:    map[string]float64{"x": 0.6, "y": 0.8},
			b:    map[string]float64{"x": 0.6, "y": 0.8},
			want: 1,
		},
		{
			name: "orthogonal",
			a:    map[string]float64{"x": 1},
			b:    map[string]float64{"y": 1},
			want: 0,
		},
		{
			name: "empty",
			a:    map[string]float64{},
			b:    map[string]float64{"y": 1},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosine = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	a, tmpDir := setupAnalysis(t, 1)
	twoInstitutionCorpus(t, tmpDir)

	report, err := a.Compare(GroupInstitution, 10)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if len(report.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(report.Groups))
	}
	if len(report.Similarities) != 1 {
		t.Fatalf("got %d pairs, want 1", len(report.Similarities))
	}

	sim := report.Similarities[0].Similarity
	if sim <= 0 || sim >= 1 {
		t.Errorf("similarity = %f, want strictly between 0 and 1", sim)
	}

	sharedTerms := make(map[string]bool)
	for _, tw := range report.Shared {
		sharedTerms[tw.Term] = true
	}
	if !sharedTerms["agent"] {
		t.Errorf("shared terms = %v, want agent included", report.Shared)
	}
	if sharedTerms["roi"] {
		t.Error("consulting-only term listed as shared")
	}

	distinctive := make(map[string]map[string]bool)
	for _, c := range report.Contrasts {
		distinctive[c.Group] = make(map[string]bool)
		for _, tw := range c.Distinctive {
			distinctive[c.Group][tw.Term] = true
		}
	}
	if !distinctive["mckinsey"]["roi"] {
		t.Error("roi missing from mckinsey distinctive terms")
	}
	if !distinctive["mit"]["benchmark"] {
		t.Error("benchmark missing from mit distinctive terms")
	}
}

func TestCompareNeedsTwoGroups(t *testing.T) {
	a, tmpDir := setupAnalysis(t, 1)
	writeTokenFile(t, tmpDir, "d1", "mckinsey", types.SourceConsulting, []string{"agent"})
	writeTokenFile(t, tmpDir, "d2", "mckinsey", types.SourceConsulting, []string{"agent"})

	if _, err := a.Compare(GroupInstitution, 10); err == nil {
		t.Error("expected error for single-group corpus")
	}
}

func TestCompareBySourceType(t *testing.T) {
	a, tmpDir := setupAnalysis(t, 1)
	twoInstitutionCorpus(t, tmpDir)

	report, err := a.Compare(GroupSourceType, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"academic", "consulting"}
	if !reflect.DeepEqual(report.Groups, want) {
		t.Errorf("Groups = %v, want %v", report.Groups, want)
	}
}

// --- report tests ---

func TestReportWritesMarkdown(t *testing.T) {
	a, tmpDir := setupAnalysis(t, 1)
	twoInstitutionCorpus(t, tmpDir)

	path, err := a.Report(GroupInstitution, types.TopicConfig{K: 2, Iterations: 20, Seed: 1})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	for _, want := range []string{
		"# Narrative Analysis Report",
		"## Characteristic Terms (TF-IDF)",
		"## Topics (LDA, K=2",
		"## Narrative Comparison",
		"mckinsey",
		"mit",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Intermediate results must also be on disk.
	for _, name := range []string{"ngrams.yaml", "tfidf.yaml", "topics.yaml", "compare.yaml"} {
		if _, err := os.Stat(filepath.Join(tmpDir, "analysis", "results", name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}
