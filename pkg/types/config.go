package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "narrative-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the minimum delay between consecutive downloads
	// (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// CorpusDir is the base directory for the corpus (contains raw/,
	// texts/, metadata/, tokens/).
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`

	// MaxRetries is the number of retries for rate-limited downloads.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// IngestConfig holds settings for the ingest (text extraction) stage.
type IngestConfig struct {
	// CorpusDir is the base directory for the corpus.
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`

	// Backend selects the primary extraction backend: native or pdftotext.
	Backend string `json:"backend" yaml:"backend"`

	// FallbackBackend is tried when the primary backend fails or yields
	// no text. Empty disables fallback.
	FallbackBackend string `json:"fallback_backend" yaml:"fallback_backend"`
}

// PreprocessConfig holds settings for the preprocess (tokenization) stage.
type PreprocessConfig struct {
	// CorpusDir is the base directory for the corpus.
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`

	// MinTokenLength drops tokens shorter than this many runes (default 2).
	MinTokenLength int `json:"min_token_length" yaml:"min_token_length"`

	// KeepNumbers retains pure-number tokens. Off by default.
	KeepNumbers bool `json:"keep_numbers" yaml:"keep_numbers"`

	// KeepStopwords disables stopword removal.
	KeepStopwords bool `json:"keep_stopwords" yaml:"keep_stopwords"`

	// ExtraStopwords are removed in addition to the built-in set.
	ExtraStopwords []string `json:"extra_stopwords,omitempty" yaml:"extra_stopwords,omitempty"`

	// Stem applies Snowball (Porter2) stemming after stopword removal.
	Stem bool `json:"stem" yaml:"stem"`
}

// CorpusConfig holds settings for the corpus index.
type CorpusConfig struct {
	// CorpusDir is the base directory for the corpus.
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`

	// AnalysisDir is the base directory for analysis output (contains
	// index/, results/).
	AnalysisDir string `json:"analysis_dir" yaml:"analysis_dir"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// TopicConfig holds LDA hyperparameters.
type TopicConfig struct {
	// K is the number of topics (default 6).
	K int `json:"k" yaml:"k"`

	// Iterations is the number of Gibbs sampling sweeps (default 500).
	Iterations int `json:"iterations" yaml:"iterations"`

	// Alpha is the document-topic Dirichlet prior. Zero means 50/K.
	Alpha float64 `json:"alpha" yaml:"alpha"`

	// Beta is the topic-term Dirichlet prior (default 0.01).
	Beta float64 `json:"beta" yaml:"beta"`

	// Seed fixes the sampler's random source for reproducible runs.
	Seed int64 `json:"seed" yaml:"seed"`

	// TopWords is the number of terms reported per topic (default 15).
	TopWords int `json:"top_words" yaml:"top_words"`
}

// AnalyzeConfig holds settings for the analyze stage.
type AnalyzeConfig struct {
	// CorpusDir is the base directory for the corpus (contains tokens/).
	CorpusDir string `json:"corpus_dir" yaml:"corpus_dir"`

	// AnalysisDir is the base directory for analysis output.
	AnalysisDir string `json:"analysis_dir" yaml:"analysis_dir"`

	// NGramSizes lists the n-gram orders to count (default [1, 2, 3]).
	NGramSizes []int `json:"ngram_sizes" yaml:"ngram_sizes"`

	// TopTerms is the number of terms reported per group (default 25).
	TopTerms int `json:"top_terms" yaml:"top_terms"`

	// MinDocFreq prunes terms that appear in fewer documents (default 2).
	MinDocFreq int `json:"min_doc_freq" yaml:"min_doc_freq"`

	// Topics configures the LDA topic model.
	Topics TopicConfig `json:"topics" yaml:"topics"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Ingest     IngestConfig     `json:"ingest" yaml:"ingest"`
	Preprocess PreprocessConfig `json:"preprocess" yaml:"preprocess"`
	Corpus     CorpusConfig     `json:"corpus" yaml:"corpus"`
	Analyze    AnalyzeConfig    `json:"analyze" yaml:"analyze"`
}
