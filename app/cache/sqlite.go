package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the cache in a single SQLite file. Every write is an
// immediate commit, so a mid-run crash never loses already-marked papers.
type SQLiteStore struct {
	db          *sql.DB
	authorTTL   time.Duration
	negativeTTL time.Duration
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the cache database at the given path and
// applies pending migrations. An error here is fatal for a run: dedup
// correctness cannot be guaranteed without the store.
func OpenSQLite(path string, authorTTL, negativeTTL time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{
		db:          db,
		authorTTL:   authorTTL,
		negativeTTL: negativeTTL,
	}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Contains reports whether the paper identifier has already been notified.
func (s *SQLiteStore) Contains(identifier string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM seen_papers WHERE identifier = ?`, identifier).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check seen papers: %w", err)
	}
	return true, nil
}

// MarkSeen records a notified paper. Marking the same identifier twice is a
// no-op; the original first-seen timestamp is kept.
func (s *SQLiteStore) MarkSeen(p SeenPaper) error {
	firstSeen := p.FirstSeenAt
	if firstSeen.IsZero() {
		firstSeen = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO seen_papers (identifier, doi, title, source, first_seen_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (identifier) DO NOTHING
	`, p.Identifier, p.DOI, p.Title, p.Source, firstSeen.Unix())

	if err != nil {
		return fmt.Errorf("failed to mark paper seen: %w", err)
	}
	return nil
}

// SeenPapers returns all notified papers ordered by first-seen time.
func (s *SQLiteStore) SeenPapers() ([]SeenPaper, error) {
	rows, err := s.db.Query(`
		SELECT identifier, doi, title, source, first_seen_at
		FROM seen_papers
		ORDER BY first_seen_at, identifier
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seen papers: %w", err)
	}
	defer rows.Close()

	var papers []SeenPaper
	for rows.Next() {
		var p SeenPaper
		var firstSeen int64
		if err := rows.Scan(&p.Identifier, &p.DOI, &p.Title, &p.Source, &firstSeen); err != nil {
			return nil, fmt.Errorf("failed to scan seen paper: %w", err)
		}
		p.FirstSeenAt = time.Unix(firstSeen, 0).UTC()
		papers = append(papers, p)
	}

	return papers, rows.Err()
}

// GetAuthorEval returns the cached evaluation for a normalized author key,
// or nil when absent or stale. Failed lookups expire on the negative TTL.
func (s *SQLiteStore) GetAuthorEval(key string) (*AuthorEval, error) {
	var eval AuthorEval
	var notFound int
	var evaluatedAt int64

	err := s.db.QueryRow(`
		SELECT name, h_index, citation_count, paper_count, profile_url, not_found, evaluated_at
		FROM author_evals
		WHERE author_key = ?
	`, key).Scan(&eval.Name, &eval.HIndex, &eval.CitationCount, &eval.PaperCount,
		&eval.ProfileURL, &notFound, &evaluatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get author evaluation: %w", err)
	}

	eval.NotFound = notFound != 0
	eval.EvaluatedAt = time.Unix(evaluatedAt, 0).UTC()

	ttl := s.authorTTL
	if eval.NotFound {
		ttl = s.negativeTTL
	}
	if time.Since(eval.EvaluatedAt) > ttl {
		return nil, nil
	}

	return &eval, nil
}

// PutAuthorEval stores or replaces an author evaluation.
func (s *SQLiteStore) PutAuthorEval(key string, eval AuthorEval) error {
	evaluatedAt := eval.EvaluatedAt
	if evaluatedAt.IsZero() {
		evaluatedAt = time.Now().UTC()
	}

	notFound := 0
	if eval.NotFound {
		notFound = 1
	}

	_, err := s.db.Exec(`
		INSERT INTO author_evals (author_key, name, h_index, citation_count, paper_count, profile_url, not_found, evaluated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (author_key) DO UPDATE SET
			name = EXCLUDED.name,
			h_index = EXCLUDED.h_index,
			citation_count = EXCLUDED.citation_count,
			paper_count = EXCLUDED.paper_count,
			profile_url = EXCLUDED.profile_url,
			not_found = EXCLUDED.not_found,
			evaluated_at = EXCLUDED.evaluated_at
	`, key, eval.Name, eval.HIndex, eval.CitationCount, eval.PaperCount,
		eval.ProfileURL, notFound, evaluatedAt.Unix())

	if err != nil {
		return fmt.Errorf("failed to store author evaluation: %w", err)
	}
	return nil
}
