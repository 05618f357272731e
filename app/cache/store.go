// Package cache provides the persistent run-to-run state: the grow-only set
// of already-notified papers and the author evaluation cache with its
// freshness policy.
package cache

import "time"

// SeenPaper is one row of the notified-papers set. The set only grows; a
// paper notified once is never notified again.
type SeenPaper struct {
	Identifier  string
	DOI         string
	Title       string
	Source      string
	FirstSeenAt time.Time
}

// AuthorEval is a cached reputation lookup result. NotFound records a failed
// lookup; such entries expire on the (shorter) negative TTL so the next
// scheduled run retries.
type AuthorEval struct {
	Name          string
	HIndex        int
	CitationCount int
	PaperCount    int
	ProfileURL    string
	NotFound      bool
	EvaluatedAt   time.Time
}

// Store is the cache contract shared by the SQLite and in-memory
// implementations. Implementations enforce the freshness windows on read:
// GetAuthorEval returns nil for absent or stale entries.
//
// The store is process-wide shared state; callers serialize writes (the
// pipeline performs all writes from a single goroutine).
type Store interface {
	Contains(identifier string) (bool, error)
	MarkSeen(p SeenPaper) error
	SeenPapers() ([]SeenPaper, error)

	GetAuthorEval(key string) (*AuthorEval, error)
	PutAuthorEval(key string, eval AuthorEval) error

	Close() error
}
