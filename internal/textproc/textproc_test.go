// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textproc

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Agentic AI", "agentic ai"},
		{"ﬁrm-level eﬀects", "firm-level effects"}, // ligatures folded by NFKC
		{"ＡＩ", "ai"},                               // fullwidth forms
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"plain words", "agents automate workflows", []string{"agents", "automate", "workflows"}},
		{"punctuation splits", "agents, automate; workflows.", []string{"agents", "automate", "workflows"}},
		{"interior hyphen kept", "multi-step execution", []string{"multi-step", "execution"}},
		{"interior apostrophe kept", "o'brien's model", []string{"o'brien's", "model"}},
		{"edge hyphens trimmed", "-agents- 'quotes'", []string{"agents", "quotes"}},
		{"alphanumerics kept", "gpt-4 scored 87", []string{"gpt-4", "scored", "87"}},
		{"empty", "  ...  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPipelineProcess(t *testing.T) {
	p := NewPipeline(types.PreprocessConfig{})

	got := p.Process("The agents will automate the enterprise workflows in 2025.")
	want := []string{"agents", "automate", "enterprise", "workflows"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Process = %v, want %v", got, want)
	}
}

func TestPipelineKeepsStopwords(t *testing.T) {
	p := NewPipeline(types.PreprocessConfig{KeepStopwords: true})

	got := p.Process("the agents will automate")
	want := []string{"the", "agents", "will", "automate"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Process = %v, want %v", got, want)
	}
}

func TestPipelineExtraStopwords(t *testing.T) {
	p := NewPipeline(types.PreprocessConfig{ExtraStopwords: []string{"agentic"}})

	got := p.Process("agentic systems plan tasks")
	want := []string{"systems", "plan", "tasks"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Process = %v, want %v", got, want)
	}
}

func TestPipelineKeepNumbers(t *testing.T) {
	without := NewPipeline(types.PreprocessConfig{})
	if got := without.Process("revenue grew 40 percent"); !reflect.DeepEqual(got, []string{"revenue", "grew", "percent"}) {
		t.Errorf("numbers not dropped: %v", got)
	}

	with := NewPipeline(types.PreprocessConfig{KeepNumbers: true})
	if got := with.Process("revenue grew 40 percent"); !reflect.DeepEqual(got, []string{"revenue", "grew", "40", "percent"}) {
		t.Errorf("numbers not kept: %v", got)
	}
}

func TestPipelineMinTokenLength(t *testing.T) {
	p := NewPipeline(types.PreprocessConfig{MinTokenLength: 4, KeepStopwords: true})

	got := p.Process("ai can plan work autonomously")
	want := []string{"plan", "work", "autonomously"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Process = %v, want %v", got, want)
	}
}

func TestPipelineStemming(t *testing.T) {
	p := NewPipeline(types.PreprocessConfig{Stem: true})

	got := p.Process("agents planning autonomous execution")
	// Snowball: agents->agent, planning->plan, autonomous->autonom,
	// execution->execut.
	want := []string{"agent", "plan", "autonom", "execut"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Process = %v, want %v", got, want)
	}
}

// --- batch tests ---

func setupCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{textsDir, metadataDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func writeText(t *testing.T, dir, docID, text string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, textsDir, docID+".txt"), []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeMeta(t *testing.T, dir string, doc types.Document) {
	t.Helper()
	data, err := yaml.Marshal(&doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataDir, doc.ID+".yaml"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPreprocessBatch(t *testing.T) {
	dir := setupCorpus(t)
	writeText(t, dir, "mckinsey-ai", "Agents will automate the enterprise workflows.")
	writeMeta(t, dir, types.Document{
		ID: "mckinsey-ai", Institution: "McKinsey", SourceType: types.SourceConsulting,
	})

	var out bytes.Buffer
	summary, err := PreprocessBatch(types.PreprocessConfig{CorpusDir: dir}, &out)
	if err != nil {
		t.Fatalf("PreprocessBatch: %v", err)
	}
	if summary.Processed != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}

	data, err := os.ReadFile(filepath.Join(dir, tokensDir, "mckinsey-ai-tokens.yaml"))
	if err != nil {
		t.Fatalf("token file: %v", err)
	}
	var tf types.TokenFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		t.Fatal(err)
	}

	want := []string{"agents", "automate", "enterprise", "workflows"}
	if !reflect.DeepEqual(tf.Tokens, want) {
		t.Errorf("Tokens = %v, want %v", tf.Tokens, want)
	}
	if tf.Institution != "McKinsey" {
		t.Errorf("Institution = %q", tf.Institution)
	}
	if tf.SourceType != types.SourceConsulting {
		t.Errorf("SourceType = %q", tf.SourceType)
	}
	if tf.TokenCount != 4 || tf.DistinctTerms != 4 {
		t.Errorf("counts = %d/%d", tf.TokenCount, tf.DistinctTerms)
	}
}

func TestPreprocessBatchSkipsFresh(t *testing.T) {
	dir := setupCorpus(t)
	writeText(t, dir, "doc", "agents automate workflows")

	cfg := types.PreprocessConfig{CorpusDir: dir}
	var out bytes.Buffer
	if _, err := PreprocessBatch(cfg, &out); err != nil {
		t.Fatal(err)
	}

	// Token file is newer than the text, so the rerun skips it.
	future := time.Now().Add(time.Hour)
	tokPath := filepath.Join(dir, tokensDir, "doc-tokens.yaml")
	if err := os.Chtimes(tokPath, future, future); err != nil {
		t.Fatal(err)
	}

	summary, err := PreprocessBatch(cfg, &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 || summary.Processed != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestPreprocessBatchReprocessesStale(t *testing.T) {
	dir := setupCorpus(t)
	writeText(t, dir, "doc", "agents automate workflows")

	cfg := types.PreprocessConfig{CorpusDir: dir}
	var out bytes.Buffer
	if _, err := PreprocessBatch(cfg, &out); err != nil {
		t.Fatal(err)
	}

	// Touch the text file into the future so it is newer than the tokens.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(dir, textsDir, "doc.txt"), future, future); err != nil {
		t.Fatal(err)
	}

	summary, err := PreprocessBatch(cfg, &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 1 || summary.Skipped != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestPreprocessBatchFailsOnStopwordOnlyText(t *testing.T) {
	dir := setupCorpus(t)
	writeText(t, dir, "hollow", "the and of but")

	var out bytes.Buffer
	summary, err := PreprocessBatch(types.PreprocessConfig{CorpusDir: dir}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if !strings.Contains(out.String(), "no tokens survived") {
		t.Errorf("missing failure reason:\n%s", out.String())
	}
}

func TestLoadTokenFiles(t *testing.T) {
	dir := setupCorpus(t)
	writeText(t, dir, "b-doc", "policy frameworks for governance")
	writeText(t, dir, "a-doc", "agents automate workflows")

	var out bytes.Buffer
	if _, err := PreprocessBatch(types.PreprocessConfig{CorpusDir: dir}, &out); err != nil {
		t.Fatal(err)
	}

	files, err := LoadTokenFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d token files, want 2", len(files))
	}
	if files[0].DocID != "a-doc" || files[1].DocID != "b-doc" {
		t.Errorf("not sorted by ID: %s, %s", files[0].DocID, files[1].DocID)
	}
}
