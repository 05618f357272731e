// Package pipeline runs one watch cycle: fetch all sources, filter, dedup
// against the cache, gate on author reputation and dispatch notifications.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ktmits/paperwatch/app/cache"
	"github.com/ktmits/paperwatch/app/paper"
	"github.com/ktmits/paperwatch/app/source"
)

// Evaluator resolves author metrics for a paper in place.
type Evaluator interface {
	EvaluatePaper(ctx context.Context, p *paper.Paper) error
}

// Notifier dispatches a notification for a single paper.
type Notifier interface {
	Send(ctx context.Context, p paper.Paper) error
}

// Options control how a run treats the cache and dispatching.
type Options struct {
	// MinHIndex gates papers from reputation-enabled sources: a paper is
	// dropped when its best resolved author h-index is below the threshold.
	// Zero disables the gate. Papers with no resolved author pass.
	MinHIndex int

	// MaxPapers caps dispatches per run. Papers beyond the cap are left
	// unmarked so the next run picks them up. Zero means no cap.
	MaxPapers int

	// DryRun reports what would be dispatched without sending or marking.
	DryRun bool

	// NoCache skips cache reads and writes entirely.
	NoCache bool

	// Seed marks every passing paper as seen without dispatching. Used to
	// initialize the cache against an existing feed backlog.
	Seed bool
}

// Deps wires the pipeline's collaborators.
type Deps struct {
	Sources   []source.Source
	Store     cache.Store
	Evaluator Evaluator
	Notifier  Notifier
	Options   Options
}

// Stats summarizes one run.
type Stats struct {
	Fetched            int
	KeywordFiltered    int
	Duplicates         int
	ReputationFiltered int
	Dispatched         int
	DryRun             int
	DispatchFailed     int
	Seeded             int
	Deferred           int

	// Warnings are non-fatal per-source or per-paper failures.
	Warnings []error
}

type Pipeline struct {
	deps Deps
}

func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// Run executes one cycle. It returns an error only for failures that make
// the run's results untrustworthy, such as a broken cache store; source and
// dispatch failures are collected in Stats.Warnings instead.
func (pl *Pipeline) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	results := pl.fetchAll(ctx)

	// All cache reads and writes happen on this goroutine.
	dispatched := 0
	seen := make(map[string]bool)

	for _, result := range results {
		if result.err != nil {
			stats.Warnings = append(stats.Warnings, fmt.Errorf("source %s: %w", result.name, result.err))
			slog.Error("Source fetch failed", "source", result.name, "error", result.err)
			continue
		}

		slog.Info("Fetched source", "source", result.name, "papers", len(result.papers))
		stats.Fetched += len(result.papers)

		for _, p := range result.papers {
			if p.Filtered {
				stats.KeywordFiltered++
				slog.Debug("Paper filtered", "title", p.Title, "reason", p.FilterReason)
				continue
			}

			id := p.Identifier()
			if seen[id] {
				stats.Duplicates++
				continue
			}
			seen[id] = true

			if !pl.deps.Options.NoCache {
				contains, err := pl.deps.Store.Contains(id)
				if err != nil {
					return stats, fmt.Errorf("cache read failed: %w", err)
				}
				if contains {
					stats.Duplicates++
					continue
				}
			}

			if pl.deps.Options.Seed {
				if err := pl.markSeen(p); err != nil {
					return stats, err
				}
				stats.Seeded++
				continue
			}

			if result.source.ReputationEnabled() && pl.deps.Evaluator != nil {
				if err := pl.deps.Evaluator.EvaluatePaper(ctx, &p); err != nil {
					return stats, fmt.Errorf("author evaluation failed: %w", err)
				}
				if pl.reputationFiltered(p) {
					stats.ReputationFiltered++
					slog.Info("Paper below reputation threshold", "title", p.Title)
					continue
				}
			}

			if pl.deps.Options.MaxPapers > 0 && dispatched >= pl.deps.Options.MaxPapers {
				stats.Deferred++
				continue
			}

			if pl.deps.Options.DryRun {
				dispatched++
				stats.DryRun++
				slog.Info("Would notify", "title", p.Title, "identifier", id)
				continue
			}

			if err := pl.deps.Notifier.Send(ctx, p); err != nil {
				stats.DispatchFailed++
				stats.Warnings = append(stats.Warnings, fmt.Errorf("notify %s: %w", id, err))
				slog.Error("Notification failed", "title", p.Title, "error", err)
				// Not marked seen and no cap slot consumed, so the next run
				// (and later papers in this one) are unaffected.
				continue
			}
			dispatched++
			stats.Dispatched++
			slog.Info("Notified", "title", p.Title, "identifier", id)

			if err := pl.markSeen(p); err != nil {
				return stats, err
			}
		}
	}

	if stats.Deferred > 0 {
		slog.Info("Dispatch cap reached, papers deferred to next run", "deferred", stats.Deferred)
	}

	return stats, nil
}

func (pl *Pipeline) markSeen(p paper.Paper) error {
	if pl.deps.Options.NoCache {
		return nil
	}
	err := pl.deps.Store.MarkSeen(cache.SeenPaper{
		Identifier: p.Identifier(),
		DOI:        p.DOI,
		Title:      p.Title,
		Source:     p.Source,
	})
	if err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	return nil
}

// reputationFiltered applies the h-index gate. Papers whose authors all
// failed to resolve pass: a lookup gap must not silently drop papers.
func (pl *Pipeline) reputationFiltered(p paper.Paper) bool {
	if pl.deps.Options.MinHIndex <= 0 {
		return false
	}
	max, resolved := paper.MaxHIndex(p)
	if !resolved {
		return false
	}
	return max < pl.deps.Options.MinHIndex
}

type fetchResult struct {
	source source.Source
	name   string
	papers []paper.Paper
	err    error
}

// fetchAll fetches every source concurrently and returns results in the
// configured source order.
func (pl *Pipeline) fetchAll(ctx context.Context) []fetchResult {
	results := make([]fetchResult, len(pl.deps.Sources))

	var wg sync.WaitGroup
	for i, src := range pl.deps.Sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			papers, err := src.Fetch(ctx)
			results[i] = fetchResult{source: src, name: src.Name(), papers: papers, err: err}
		}()
	}
	wg.Wait()

	return results
}
