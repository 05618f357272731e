package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/ktmits/paperwatch/app/config"
	"github.com/ktmits/paperwatch/app/paper"
)

var doiPattern = regexp.MustCompile(`(10\.\d{4,}/[^\s]+)`)

// JournalSource fetches papers from a journal RSS feed (APS, Nature and
// similar publisher feeds).
type JournalSource struct {
	cfg       *config.Source
	client    *http.Client
	userAgent string
	parser    *gofeed.Parser
	matcher   *Matcher
}

func NewJournal(cfg *config.Source, client *http.Client, userAgent string) *JournalSource {
	return &JournalSource{
		cfg:       cfg,
		client:    client,
		userAgent: userAgent,
		parser:    gofeed.NewParser(),
		matcher:   NewMatcher(cfg.Keywords.Include, cfg.Keywords.Exclude),
	}
}

func (s *JournalSource) Name() string {
	return s.cfg.Name
}

func (s *JournalSource) ReputationEnabled() bool {
	return s.cfg.ReputationEnabled()
}

func (s *JournalSource) Fetch(ctx context.Context) ([]paper.Paper, error) {
	data, err := fetchFeed(ctx, s.client, s.cfg.URL, s.userAgent, time.Duration(s.cfg.Settings.Timeout)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	feed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	papers := make([]paper.Paper, 0, len(feed.Items))
	for i, entry := range feed.Items {
		if len(papers) >= s.cfg.Settings.MaxItems {
			break
		}

		p, err := s.parseEntry(entry)
		if err != nil {
			slog.Warn("Skipping malformed entry", "source", s.cfg.Name, "entry", i, "error", err)
			continue
		}

		p.Source = s.cfg.Title
		p.SourceSymbol = s.cfg.Symbol

		if s.cfg.Keywords.Enabled {
			passes, matched := s.matcher.Match(p.Title + " " + p.Abstract)
			if !passes {
				p.Filtered = true
				p.FilterReason = "keyword filter"
			}
			p.MatchedKeywords = matched
		}

		papers = append(papers, p)
	}

	return papers, nil
}

func (s *JournalSource) parseEntry(entry *gofeed.Item) (paper.Paper, error) {
	link := entry.Link
	if link == "" {
		link = entry.GUID
	}
	if link == "" {
		return paper.Paper{}, fmt.Errorf("entry has no link or id")
	}
	if entry.Title == "" {
		return paper.Paper{}, fmt.Errorf("entry has no title")
	}

	p := paper.Paper{
		Title:      cleanTitle(stripHTML(entry.Title)),
		Abstract:   stripHTML(entry.Description),
		URL:        link,
		Authors:    parseJournalAuthors(entry),
		Categories: entry.Categories,
		DOI:        extractDOI(entry),
		OpenAccess: s.cfg.OpenAccess,
	}

	if entry.PublishedParsed != nil {
		p.Published = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		p.Published = *entry.UpdatedParsed
	}

	return p, nil
}

// extractDOI looks for a DOI in the dc:identifier field (common in APS
// feeds) and falls back to scanning the entry link.
func extractDOI(entry *gofeed.Item) string {
	if entry.DublinCoreExt != nil {
		for _, id := range entry.DublinCoreExt.Identifier {
			if m := doiPattern.FindStringSubmatch(id); m != nil {
				return m[1]
			}
		}
	}

	if m := doiPattern.FindStringSubmatch(entry.Link); m != nil {
		return m[1]
	}

	return ""
}

func parseJournalAuthors(entry *gofeed.Item) []paper.Author {
	var authors []paper.Author

	switch {
	case len(entry.Authors) > 0:
		for _, a := range entry.Authors {
			if a != nil && a.Name != "" {
				authors = append(authors, paper.ParseAuthor(a.Name))
			}
		}
	case entry.DublinCoreExt != nil && len(entry.DublinCoreExt.Creator) > 0:
		for _, name := range entry.DublinCoreExt.Creator {
			if name != "" {
				authors = append(authors, paper.ParseAuthor(name))
			}
		}
	}

	return authors
}

// stripHTML flattens HTML fragments in publisher summaries to plain text.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}
