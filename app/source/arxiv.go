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

	"github.com/mmcdole/gofeed"

	"github.com/ktmits/paperwatch/app/config"
	"github.com/ktmits/paperwatch/app/paper"
)

// arXiv RSS quirks: all authors arrive comma-separated in a single name
// field, and entry ids look like https://arxiv.org/abs/XXXX.XXXXX.
var arxivIDPattern = regexp.MustCompile(`arxiv\.org/abs/(\d{4}\.\d{4,5}(?:v\d+)?)`)

// ArxivSource fetches papers from an arXiv category RSS feed.
type ArxivSource struct {
	cfg       *config.Source
	client    *http.Client
	userAgent string
	parser    *gofeed.Parser
	matcher   *Matcher
}

func NewArxiv(cfg *config.Source, client *http.Client, userAgent string) *ArxivSource {
	return &ArxivSource{
		cfg:       cfg,
		client:    client,
		userAgent: userAgent,
		parser:    gofeed.NewParser(),
		matcher:   NewMatcher(cfg.Keywords.Include, cfg.Keywords.Exclude),
	}
}

func (s *ArxivSource) Name() string {
	return s.cfg.Name
}

func (s *ArxivSource) ReputationEnabled() bool {
	return s.cfg.ReputationEnabled()
}

// Fetch retrieves and parses the category feed. Malformed entries are
// skipped with a warning; keyword-rejected entries are kept with Filtered
// set so the pipeline can count them.
func (s *ArxivSource) Fetch(ctx context.Context) ([]paper.Paper, error) {
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

		p.Source = "arXiv:" + s.cfg.Category
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

func (s *ArxivSource) parseEntry(entry *gofeed.Item) (paper.Paper, error) {
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

	arxivID := extractArxivID(entry.GUID)
	if arxivID == "" {
		arxivID = extractArxivID(link)
	}

	p := paper.Paper{
		Title:      cleanTitle(entry.Title),
		Abstract:   strings.TrimSpace(entry.Description),
		URL:        link,
		Authors:    parseArxivAuthors(entry),
		Categories: entry.Categories,
		ArxivID:    arxivID,
		OpenAccess: true,
	}

	if arxivID != "" {
		p.PDFURL = "https://arxiv.org/pdf/" + arxivID + ".pdf"
	}

	if entry.PublishedParsed != nil {
		p.Published = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		p.Published = *entry.UpdatedParsed
	}

	return p, nil
}

func extractArxivID(url string) string {
	if m := arxivIDPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

func parseArxivAuthors(entry *gofeed.Item) []paper.Author {
	var authors []paper.Author

	for _, a := range entry.Authors {
		if a == nil {
			continue
		}
		// Split the comma-separated author list arXiv packs into one field.
		for _, name := range strings.Split(a.Name, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				authors = append(authors, paper.ParseAuthor(name))
			}
		}
	}

	return authors
}
