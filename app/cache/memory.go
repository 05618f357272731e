package cache

import (
	"sync"
	"time"
)

// MemoryStore satisfies the Store contract without any I/O. It backs tests
// and makes the pipeline deterministic to exercise.
type MemoryStore struct {
	mu          sync.Mutex
	seen        map[string]SeenPaper
	evals       map[string]AuthorEval
	authorTTL   time.Duration
	negativeTTL time.Duration
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(authorTTL, negativeTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		seen:        make(map[string]SeenPaper),
		evals:       make(map[string]AuthorEval),
		authorTTL:   authorTTL,
		negativeTTL: negativeTTL,
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) Contains(identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[identifier]
	return ok, nil
}

func (s *MemoryStore) MarkSeen(p SeenPaper) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[p.Identifier]; ok {
		return nil
	}
	if p.FirstSeenAt.IsZero() {
		p.FirstSeenAt = time.Now().UTC()
	}
	s.seen[p.Identifier] = p
	return nil
}

func (s *MemoryStore) SeenPapers() ([]SeenPaper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	papers := make([]SeenPaper, 0, len(s.seen))
	for _, p := range s.seen {
		papers = append(papers, p)
	}
	return papers, nil
}

func (s *MemoryStore) GetAuthorEval(key string) (*AuthorEval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eval, ok := s.evals[key]
	if !ok {
		return nil, nil
	}

	ttl := s.authorTTL
	if eval.NotFound {
		ttl = s.negativeTTL
	}
	if time.Since(eval.EvaluatedAt) > ttl {
		return nil, nil
	}

	return &eval, nil
}

func (s *MemoryStore) PutAuthorEval(key string, eval AuthorEval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if eval.EvaluatedAt.IsZero() {
		eval.EvaluatedAt = time.Now().UTC()
	}
	s.evals[key] = eval
	return nil
}
