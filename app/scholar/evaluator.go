package scholar

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/ktmits/paperwatch/app/cache"
	"github.com/ktmits/paperwatch/app/paper"
)

type authorSearcher interface {
	SearchAuthor(ctx context.Context, name string) (*AuthorResult, error)
}

// Evaluator resolves author metrics for papers, consulting the cache before
// the API. Lookups that fail are cached as negative entries so repeated runs
// do not hammer the API for unknown names.
type Evaluator struct {
	searcher   authorSearcher
	store      cache.Store
	maxAuthors int
	folder     cases.Caser
}

// NewEvaluator creates an evaluator that checks at most maxAuthors authors
// per paper. A maxAuthors of zero or less means all authors are checked.
func NewEvaluator(searcher authorSearcher, store cache.Store, maxAuthors int) *Evaluator {
	return &Evaluator{
		searcher:   searcher,
		store:      store,
		maxAuthors: maxAuthors,
		folder:     cases.Fold(),
	}
}

// EvaluatePaper fills in Metrics for the paper's authors in place. Authors
// beyond the maxAuthors limit keep a nil Metrics. Cache read/write errors
// are returned; API failures are logged and leave the author unresolved.
func (e *Evaluator) EvaluatePaper(ctx context.Context, p *paper.Paper) error {
	for i := range p.Authors {
		if e.maxAuthors > 0 && i >= e.maxAuthors {
			break
		}
		if err := e.evaluateAuthor(ctx, &p.Authors[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) evaluateAuthor(ctx context.Context, author *paper.Author) error {
	key := e.normalizeKey(author.FullName)
	if key == "" {
		return nil
	}

	eval, err := e.store.GetAuthorEval(key)
	if err != nil {
		return err
	}
	if eval != nil {
		if !eval.NotFound {
			author.Metrics = metricsFromEval(eval)
		}
		return nil
	}

	result, err := e.searcher.SearchAuthor(ctx, author.FullName)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !errors.Is(err, ErrNotFound) {
			slog.Warn("Author lookup failed", "author", author.FullName, "error", err)
		}

		// Cache the miss either way so the next run retries no sooner than
		// the negative TTL allows.
		return e.store.PutAuthorEval(key, cache.AuthorEval{
			Name:        author.FullName,
			NotFound:    true,
			EvaluatedAt: time.Now().UTC(),
		})
	}

	eval = &cache.AuthorEval{
		Name:          result.Name,
		HIndex:        result.HIndex,
		CitationCount: result.CitationCount,
		PaperCount:    result.PaperCount,
		ProfileURL:    result.URL,
		EvaluatedAt:   time.Now().UTC(),
	}
	if err := e.store.PutAuthorEval(key, *eval); err != nil {
		return err
	}

	author.Metrics = metricsFromEval(eval)
	return nil
}

// normalizeKey produces the cache key for an author name: case-folded with
// collapsed whitespace, so "J. Smith" and "j.  smith" share an entry.
func (e *Evaluator) normalizeKey(name string) string {
	return e.folder.String(strings.Join(strings.Fields(name), " "))
}

func metricsFromEval(eval *cache.AuthorEval) *paper.Metrics {
	return &paper.Metrics{
		HIndex:        eval.HIndex,
		CitationCount: eval.CitationCount,
		PaperCount:    eval.PaperCount,
		ProfileURL:    eval.ProfileURL,
	}
}
