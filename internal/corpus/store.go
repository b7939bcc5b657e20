// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus persists the document index and provides full-text search
// over the ingested reports.
package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

const (
	indexDir    = "index"
	textsDir    = "texts"
	tokensDir   = "tokens"
	metadataDir = "metadata"
	dbFile      = "corpus.db"
)

// Store manages the corpus SQLite database.
type Store struct {
	db          *sql.DB
	corpusDir   string
	analysisDir string
	maxResults  int
}

// NewStore opens or creates the corpus database at
// analysisDir/index/corpus.db, creating the schema if needed.
func NewStore(cfg types.CorpusConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.AnalysisDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:          db,
		corpusDir:   cfg.CorpusDir,
		analysisDir: cfg.AnalysisDir,
		maxResults:  maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT,
			institution TEXT,
			source_type TEXT,
			page_count INTEGER,
			word_count INTEGER,
			token_count INTEGER,
			extracted_at TEXT,
			text_path TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS doc_terms (
			doc_id TEXT NOT NULL REFERENCES documents(id),
			term TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (doc_id, term)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_doc_terms_term ON doc_terms(term)`,
		`CREATE TABLE IF NOT EXISTS doc_text (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL UNIQUE REFERENCES documents(id),
			content TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			doc_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='documents_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE documents_fts USING fts5(content, content=doc_text, content_rowid=rowid)`,
			`CREATE TRIGGER doc_text_ai AFTER INSERT ON doc_text BEGIN
				INSERT INTO documents_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER doc_text_ad AFTER DELETE ON doc_text BEGIN
				INSERT INTO documents_fts(documents_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER doc_text_au AFTER UPDATE ON doc_text BEGIN
				INSERT INTO documents_fts(documents_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO documents_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IndexSummary holds counts from a corpus indexing run.
type IndexSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s IndexSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// HasFailures reports whether any documents failed indexing.
func (s IndexSummary) HasFailures() bool {
	return s.Failed > 0
}

// Index reads token files from corpus/tokens/ and populates the database:
// document metadata, per-term counts, and the full text for FTS. It detects
// new, changed, and unchanged files for incremental updates.
func (s *Store) Index(ctx context.Context, w io.Writer) (IndexSummary, error) {
	tokDir := filepath.Join(s.corpusDir, tokensDir)
	metaDir := filepath.Join(s.corpusDir, metadataDir)

	entries, err := os.ReadDir(tokDir)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("reading tokens directory %s: %w", tokDir, err)
	}

	var summary IndexSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "-tokens.yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		docID := strings.TrimSuffix(entry.Name(), "-tokens.yaml")

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", docID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		// Unchanged token files are skipped on subsequent runs.
		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE doc_id = ?`, docID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped  %s\n", docID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filepath.Join(tokDir, entry.Name()))
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		var tf types.TokenFile
		if err := yaml.Unmarshal(data, &tf); err != nil {
			fmt.Fprintf(w, "failed   %s: parse error: %v\n", docID, err)
			summary.Failed++
			continue
		}

		doc := loadDocumentMeta(metaDir, docID)
		text := loadText(filepath.Join(s.corpusDir, textsDir, docID+".txt"))

		if err := s.indexDocument(ctx, docID, &tf, doc, text, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated  %s (%d tokens)\n", docID, tf.TokenCount)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed  %s (%d tokens)\n", docID, tf.TokenCount)
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	// Refresh the export after a successful run.
	if summary.Indexed > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

func (s *Store) indexDocument(ctx context.Context, docID string, tf *types.TokenFile, doc *types.Document, text, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM doc_terms WHERE doc_id = ?`, docID); err != nil {
			return fmt.Errorf("deleting old terms: %w", err)
		}
		// DELETE (not REPLACE) so the FTS delete trigger fires.
		if _, err := tx.ExecContext(ctx, `DELETE FROM doc_text WHERE doc_id = ?`, docID); err != nil {
			return fmt.Errorf("deleting old text: %w", err)
		}
	}

	// Upsert the document record, preferring metadata fields but falling
	// back to the token file's join columns.
	title, institution, sourceType := "", tf.Institution, string(tf.SourceType)
	pageCount, wordCount := 0, 0
	extractedAt, textPath := "", ""
	if doc != nil {
		title = doc.Title
		if doc.Institution != "" {
			institution = doc.Institution
		}
		if doc.SourceType != "" {
			sourceType = string(doc.SourceType)
		}
		pageCount = doc.PageCount
		wordCount = doc.WordCount
		if !doc.ExtractedAt.IsZero() {
			extractedAt = doc.ExtractedAt.Format(time.RFC3339)
		}
		textPath = doc.TextPath
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, title, institution, source_type, page_count, word_count, token_count, extracted_at, text_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, institution=excluded.institution,
			source_type=excluded.source_type, page_count=excluded.page_count,
			word_count=excluded.word_count, token_count=excluded.token_count,
			extracted_at=excluded.extracted_at, text_path=excluded.text_path`,
		docID, title, institution, sourceType, pageCount, wordCount, tf.TokenCount, extractedAt, textPath,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	// Insert per-term counts.
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO doc_terms (doc_id, term, count) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing term insert: %w", err)
	}
	defer stmt.Close()

	for term, count := range countTerms(tf.Tokens) {
		if _, err := stmt.ExecContext(ctx, docID, term, count); err != nil {
			return fmt.Errorf("inserting term %q: %w", term, err)
		}
	}

	if text != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO doc_text (doc_id, content) VALUES (?, ?)`, docID, text,
		); err != nil {
			return fmt.Errorf("inserting text: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (doc_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		docID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// countTerms reduces a token stream to per-term counts.
func countTerms(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

// loadDocumentMeta reads a Document record from metaDir/[docID].yaml.
// Returns nil if the file does not exist or cannot be parsed.
func loadDocumentMeta(metaDir, docID string) *types.Document {
	data, err := os.ReadFile(filepath.Join(metaDir, docID+".yaml"))
	if err != nil {
		return nil
	}
	var doc types.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return &doc
}

// loadText reads a document's cleaned text, returning "" when missing.
func loadText(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// Stats summarizes the index contents.
type Stats struct {
	Documents     int `json:"documents" yaml:"documents"`
	DistinctTerms int `json:"distinct_terms" yaml:"distinct_terms"`
	TotalTokens   int `json:"total_tokens" yaml:"total_tokens"`
}

// IndexStats returns document, vocabulary, and token counts.
func (s *Store) IndexStats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*), coalesce(sum(token_count), 0) FROM documents`,
	).Scan(&st.Documents, &st.TotalTokens); err != nil {
		return Stats{}, fmt.Errorf("counting documents: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(DISTINCT term) FROM doc_terms`,
	).Scan(&st.DistinctTerms); err != nil {
		return Stats{}, fmt.Errorf("counting terms: %w", err)
	}
	return st, nil
}
