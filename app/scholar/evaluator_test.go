package scholar

import (
	"context"
	"testing"
	"time"

	"github.com/ktmits/paperwatch/app/cache"
	"github.com/ktmits/paperwatch/app/paper"
)

type fakeSearcher struct {
	results map[string]*AuthorResult
	err     error
	calls   int
}

func (f *fakeSearcher) SearchAuthor(_ context.Context, name string) (*AuthorResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if result, ok := f.results[name]; ok {
		return result, nil
	}
	return nil, ErrNotFound
}

func TestEvaluatePaper(t *testing.T) {
	searcher := &fakeSearcher{results: map[string]*AuthorResult{
		"Alice Smith": {AuthorID: "1", Name: "Alice Smith", HIndex: 42, CitationCount: 9000, PaperCount: 120},
	}}
	store := cache.NewMemoryStore(time.Hour, time.Hour)
	evaluator := NewEvaluator(searcher, store, 0)

	p := &paper.Paper{
		Title:   "Test paper",
		Authors: []paper.Author{paper.ParseAuthor("Alice Smith"), paper.ParseAuthor("Unknown Person")},
	}
	if err := evaluator.EvaluatePaper(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	if p.Authors[0].Metrics == nil {
		t.Fatal("Expected metrics for Alice Smith")
	}
	if p.Authors[0].Metrics.HIndex != 42 {
		t.Errorf("Expected h-index 42, got %d", p.Authors[0].Metrics.HIndex)
	}
	if p.Authors[1].Metrics != nil {
		t.Error("Unknown author should stay unresolved")
	}
}

func TestEvaluatePaperUsesCache(t *testing.T) {
	searcher := &fakeSearcher{results: map[string]*AuthorResult{
		"Alice Smith": {AuthorID: "1", Name: "Alice Smith", HIndex: 42},
	}}
	store := cache.NewMemoryStore(time.Hour, time.Hour)
	evaluator := NewEvaluator(searcher, store, 0)

	for range 3 {
		p := &paper.Paper{Authors: []paper.Author{paper.ParseAuthor("Alice Smith")}}
		if err := evaluator.EvaluatePaper(context.Background(), p); err != nil {
			t.Fatal(err)
		}
		if p.Authors[0].Metrics == nil || p.Authors[0].Metrics.HIndex != 42 {
			t.Fatal("Expected cached metrics on every pass")
		}
	}

	if searcher.calls != 1 {
		t.Errorf("Expected a single API call for a cached author, got %d", searcher.calls)
	}
}

func TestEvaluatePaperCachesNotFound(t *testing.T) {
	searcher := &fakeSearcher{}
	store := cache.NewMemoryStore(time.Hour, time.Hour)
	evaluator := NewEvaluator(searcher, store, 0)

	for range 2 {
		p := &paper.Paper{Authors: []paper.Author{paper.ParseAuthor("Unknown Person")}}
		if err := evaluator.EvaluatePaper(context.Background(), p); err != nil {
			t.Fatal(err)
		}
		if p.Authors[0].Metrics != nil {
			t.Error("Not-found author must stay unresolved")
		}
	}

	if searcher.calls != 1 {
		t.Errorf("Expected the not-found result to be cached, got %d calls", searcher.calls)
	}
}

func TestEvaluatePaperMaxAuthors(t *testing.T) {
	searcher := &fakeSearcher{results: map[string]*AuthorResult{
		"Author One": {AuthorID: "1", Name: "Author One", HIndex: 10},
		"Author Two": {AuthorID: "2", Name: "Author Two", HIndex: 20},
	}}
	store := cache.NewMemoryStore(time.Hour, time.Hour)
	evaluator := NewEvaluator(searcher, store, 1)

	p := &paper.Paper{Authors: []paper.Author{
		paper.ParseAuthor("Author One"),
		paper.ParseAuthor("Author Two"),
	}}
	if err := evaluator.EvaluatePaper(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	if p.Authors[0].Metrics == nil {
		t.Error("First author should be evaluated")
	}
	if p.Authors[1].Metrics != nil {
		t.Error("Authors beyond the limit must not be evaluated")
	}
	if searcher.calls != 1 {
		t.Errorf("Expected 1 API call, got %d", searcher.calls)
	}
}

func TestEvaluatePaperSharedCacheKey(t *testing.T) {
	searcher := &fakeSearcher{results: map[string]*AuthorResult{
		"Alice  Smith": {AuthorID: "1", Name: "Alice Smith", HIndex: 42},
		"ALICE SMITH":  {AuthorID: "1", Name: "Alice Smith", HIndex: 42},
	}}
	store := cache.NewMemoryStore(time.Hour, time.Hour)
	evaluator := NewEvaluator(searcher, store, 0)

	first := &paper.Paper{Authors: []paper.Author{paper.ParseAuthor("Alice  Smith")}}
	if err := evaluator.EvaluatePaper(context.Background(), first); err != nil {
		t.Fatal(err)
	}
	second := &paper.Paper{Authors: []paper.Author{paper.ParseAuthor("ALICE SMITH")}}
	if err := evaluator.EvaluatePaper(context.Background(), second); err != nil {
		t.Fatal(err)
	}

	if searcher.calls != 1 {
		t.Errorf("Case and spacing variants must share a cache entry, got %d calls", searcher.calls)
	}
	if second.Authors[0].Metrics == nil || second.Authors[0].Metrics.HIndex != 42 {
		t.Error("Second variant should resolve from cache")
	}
}
