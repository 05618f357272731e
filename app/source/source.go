// Package source converts configured remote feeds into paper.Paper values.
// Each feed family (arXiv-style, journal-style RSS) has its own adapter;
// the set is closed and selected by configuration at startup.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ktmits/paperwatch/app/config"
	"github.com/ktmits/paperwatch/app/paper"
)

// Source fetches papers from one configured feed. Fetch applies the
// source's keyword rules: rejected entries are returned with Filtered set
// rather than dropped, so the pipeline can account for them.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]paper.Paper, error)
	ReputationEnabled() bool
}

// New builds the adapter for a source configuration.
func New(cfg *config.Source, client *http.Client, userAgent string) (Source, error) {
	switch cfg.Kind {
	case config.KindArxiv:
		return NewArxiv(cfg, client, userAgent), nil
	case config.KindJournal:
		return NewJournal(cfg, client, userAgent), nil
	default:
		return nil, fmt.Errorf("unknown source kind: %q", cfg.Kind)
	}
}

// fetchFeed retrieves the raw feed document with a per-source timeout.
func fetchFeed(ctx context.Context, client *http.Client, url, userAgent string, timeout time.Duration) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// cleanTitle normalizes whitespace and drops embedded newlines.
func cleanTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}
