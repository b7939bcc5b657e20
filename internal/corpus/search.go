// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/narrative-engine/pkg/types"
)

// SearchOptions filters a corpus query. Query is matched against the full
// text; Institution and SourceType restrict by document metadata. All
// criteria are combined with AND.
type SearchOptions struct {
	Query       string
	Institution string
	SourceType  types.SourceType
	MaxResults  int
}

// IsEmpty reports whether no search criteria were provided.
func (o SearchOptions) IsEmpty() bool {
	return o.Query == "" && o.Institution == "" && o.SourceType == ""
}

// SearchResult is a single corpus search hit.
type SearchResult struct {
	DocID       string
	Title       string
	Institution string
	SourceType  string
	Snippet     string
	Rank        float64
}

// Search runs a query against the corpus. With a full-text query, results
// come back in relevance order with a matched snippet; metadata-only
// queries list documents by institution then ID.
func (s *Store) Search(ctx context.Context, opts SearchOptions) ([]SearchResult, error) {
	if opts.IsEmpty() {
		return nil, fmt.Errorf("search requires a query, institution, or source type")
	}

	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}

	if opts.Query != "" {
		return s.searchFullText(ctx, opts, limit)
	}
	return s.searchMetadata(ctx, opts, limit)
}

func (s *Store) searchFullText(ctx context.Context, opts SearchOptions, limit int) ([]SearchResult, error) {
	query := `
		SELECT d.id, d.title, d.institution, d.source_type,
		       snippet(documents_fts, 0, '[', ']', '…', 12),
		       documents_fts.rank
		FROM documents_fts
		JOIN doc_text t ON t.rowid = documents_fts.rowid
		JOIN documents d ON d.id = t.doc_id
		WHERE documents_fts MATCH ?`
	args := []any{ftsQuote(opts.Query)}

	if opts.Institution != "" {
		query += ` AND d.institution = ? COLLATE NOCASE`
		args = append(args, opts.Institution)
	}
	if opts.SourceType != "" {
		query += ` AND d.source_type = ?`
		args = append(args, string(opts.SourceType))
	}

	query += ` ORDER BY documents_fts.rank LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocID, &r.Title, &r.Institution, &r.SourceType, &r.Snippet, &r.Rank); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) searchMetadata(ctx context.Context, opts SearchOptions, limit int) ([]SearchResult, error) {
	query := `SELECT id, title, institution, source_type FROM documents WHERE 1=1`
	var args []any

	if opts.Institution != "" {
		query += ` AND institution = ? COLLATE NOCASE`
		args = append(args, opts.Institution)
	}
	if opts.SourceType != "" {
		query += ` AND source_type = ?`
		args = append(args, string(opts.SourceType))
	}

	query += ` ORDER BY institution, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocID, &r.Title, &r.Institution, &r.SourceType); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ftsQuote wraps each whitespace-separated word in double quotes so FTS5
// treats hyphens and other punctuation as literal text rather than syntax.
func ftsQuote(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		words[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
	}
	return strings.Join(words, " ")
}

// TraceMatch is one line of context around a traced term.
type TraceMatch struct {
	LineNumber int
	Line       string
}

// Trace locates occurrences of a term in a document's cleaned text and
// returns the matching lines with their line numbers, capped at maxResults.
func (s *Store) Trace(ctx context.Context, docID, term string) ([]TraceMatch, error) {
	if term == "" {
		return nil, fmt.Errorf("trace requires a term")
	}

	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM doc_text WHERE doc_id = ?`, docID,
	).Scan(&content)
	if err != nil {
		return nil, fmt.Errorf("document %s not found in index: %w", docID, err)
	}

	needle := strings.ToLower(term)
	var matches []TraceMatch
	for i, line := range strings.Split(content, "\n") {
		if strings.Contains(strings.ToLower(line), needle) {
			matches = append(matches, TraceMatch{LineNumber: i + 1, Line: strings.TrimSpace(line)})
			if len(matches) >= s.maxResults {
				break
			}
		}
	}
	return matches, nil
}

// TermCount pairs a term with its frequency.
type TermCount struct {
	Term  string `json:"term" yaml:"term"`
	Count int    `json:"count" yaml:"count"`
}

// TopTerms returns the n most frequent terms for a single document.
func (s *Store) TopTerms(ctx context.Context, docID string, n int) ([]TermCount, error) {
	if n <= 0 {
		n = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, count FROM doc_terms WHERE doc_id = ? ORDER BY count DESC, term LIMIT ?`,
		docID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	var terms []TermCount
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}
		terms = append(terms, tc)
	}
	return terms, rows.Err()
}

// DocumentRecord is a document row as stored in the index.
type DocumentRecord struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Institution string `json:"institution" yaml:"institution"`
	SourceType  string `json:"source_type" yaml:"source_type"`
	PageCount   int    `json:"page_count" yaml:"page_count"`
	WordCount   int    `json:"word_count" yaml:"word_count"`
	TokenCount  int    `json:"token_count" yaml:"token_count"`
}

// Documents lists all indexed documents ordered by institution then ID.
func (s *Store) Documents(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, institution, source_type, page_count, word_count, token_count
		 FROM documents ORDER BY institution, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentRecord
	for rows.Next() {
		var d DocumentRecord
		if err := rows.Scan(&d.ID, &d.Title, &d.Institution, &d.SourceType,
			&d.PageCount, &d.WordCount, &d.TokenCount); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
