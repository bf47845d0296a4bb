package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/rixingyike/rustpress/internal/corpus"
	"github.com/rixingyike/rustpress/internal/errors"
)

// sqliteColumns is the fixed FTS5 column order; bm25() weights follow it.
var sqliteColumns = []string{FieldTitle, FieldContent, FieldTags, FieldCategories}

// SQLiteIndex ranks with SQLite FTS5 bm25() over an in-memory database.
// Fields are stored pre-tokenized by Tokenize, so FTS5's unicode61 tokenizer
// only splits on the spaces this package inserted.
//
// FTS5 clamps IDF to about 1e-6 for a term found in half the documents or
// more, so common terms score near zero. Ranking still follows the column
// weights.
type SQLiteIndex struct {
	mu    sync.RWMutex
	cfg   Config
	db    *sql.DB
	rank  string
	ids   []string
	built bool
}

var _ Index = (*SQLiteIndex)(nil)

// NewSQLiteIndex opens an in-memory FTS5 database.
func NewSQLiteIndex(cfg Config) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database, so pin one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteIndex{cfg: cfg, db: db, rank: bm25Expr(cfg)}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteIndex) initSchema() error {
	_, err := s.db.Exec(`
	CREATE VIRTUAL TABLE IF NOT EXISTS docs USING fts5(
		pos UNINDEXED,
		title,
		content,
		tags,
		categories,
		tokenize='unicode61'
	);`)
	return err
}

// bm25Expr builds the rank expression. Unconfigured columns get weight 0
// and so never contribute.
func bm25Expr(cfg Config) string {
	weights := make([]string, 0, len(sqliteColumns)+1)
	weights = append(weights, "0") // pos
	for _, col := range sqliteColumns {
		weights = append(weights, fmt.Sprintf("%g", cfg.Weight(col)))
	}
	return "bm25(docs, " + strings.Join(weights, ", ") + ")"
}

// Build replaces the table contents in one transaction.
func (s *SQLiteIndex) Build(ctx context.Context, docs []corpus.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return buildFailed(BackendSQLite, fmt.Errorf("index is closed"))
	}
	s.built = false
	s.ids = nil

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return buildFailed(BackendSQLite, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM docs`); err != nil {
		return buildFailed(BackendSQLite, fmt.Errorf("failed to clear index: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO docs(pos, title, content, tags, categories) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return buildFailed(BackendSQLite, fmt.Errorf("failed to prepare insert: %w", err))
	}
	defer stmt.Close()

	ids := make([]string, len(docs))
	for pos, doc := range docs {
		ids[pos] = doc.ID
		_, err := stmt.ExecContext(ctx, pos,
			fieldText(doc, FieldTitle),
			fieldText(doc, FieldContent),
			fieldText(doc, FieldTags),
			fieldText(doc, FieldCategories))
		if err != nil {
			return buildFailed(BackendSQLite, fmt.Errorf("failed to index document %s: %w", doc.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return buildFailed(BackendSQLite, fmt.Errorf("failed to commit: %w", err))
	}

	s.ids = ids
	s.built = true
	return nil
}

// Search ORs the distinct query terms. Each term is quoted so FTS5 never
// reads it as query syntax.
func (s *SQLiteIndex) Search(ctx context.Context, q string) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.built {
		return nil, errors.IndexNotBuilt(BackendSQLite)
	}

	toks := uniqueTokens(q)
	if len(toks) == 0 {
		return []Hit{}, nil
	}
	quoted := make([]string, len(toks))
	for i, t := range toks {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	match := strings.Join(quoted, " OR ")

	// bm25() is negative; lower is better.
	rows, err := s.db.QueryContext(ctx,
		`SELECT pos, `+s.rank+` AS score FROM docs WHERE docs MATCH ? ORDER BY score, pos`, match)
	if err != nil {
		return nil, fmt.Errorf("sqlite search failed: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var pos int
		var score float64
		if err := rows.Scan(&pos, &score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if -score <= 0 || pos < 0 || pos >= len(s.ids) {
			continue
		}
		hits = append(hits, Hit{DocID: s.ids[pos], Position: pos, Score: -score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []Hit{}
	}
	SortHits(hits)
	return hits, nil
}

// Stats implements Index.
func (s *SQLiteIndex) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Backend: BackendSQLite, Documents: len(s.ids), Built: s.built}
}

// Close closes the database. Idempotent.
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.built = false
	s.ids = nil
	return err
}
