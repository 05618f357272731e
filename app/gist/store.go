// Package gist mirrors the seen-papers cache to a GitHub Gist as CSV. The
// mirror survives environments where the local cache file is ephemeral, such
// as CI runners.
package gist

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ktmits/paperwatch/app/cache"
)

const (
	// BaseURL is the GitHub API base URL.
	BaseURL = "https://api.github.com"

	// Filename is the CSV file name inside the gist.
	Filename = "seen_papers.csv"
)

var csvColumns = []string{"identifier", "doi", "title", "source", "first_seen_at"}

// Errors.
var (
	ErrGistNotFound = errors.New("gist not found")
	ErrUnauthorized = errors.New("gist API authentication failed")
	ErrAPIError     = errors.New("gist API error")
	ErrNetworkError = errors.New("network error connecting to gist API")
)

// Store reads and writes the seen-papers CSV inside a single gist.
type Store struct {
	httpClient *http.Client
	baseURL    string
	gistID     string
	token      string
	userAgent  string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) StoreOption {
	return func(s *Store) {
		s.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) StoreOption {
	return func(s *Store) {
		s.baseURL = url
	}
}

// WithUserAgent sets the User-Agent header for requests.
func WithUserAgent(ua string) StoreOption {
	return func(s *Store) {
		s.userAgent = ua
	}
}

// NewStore creates a gist-backed mirror for the given gist ID. The token
// needs the gist scope.
func NewStore(gistID, token string, opts ...StoreOption) *Store {
	s := &Store{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    BaseURL,
		gistID:     gistID,
		token:      token,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load downloads the seen-papers CSV from the gist. A gist without the file
// yet, or with an empty file, yields an empty slice.
func (s *Store) Load(ctx context.Context) ([]cache.SeenPaper, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/gists/"+s.gistID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var gist struct {
		Files map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gist); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrAPIError, err)
	}

	file, ok := gist.Files[Filename]
	if !ok || file.Content == "" {
		slog.Info("Gist has no seen-papers file yet, starting fresh", "gist_id", s.gistID)
		return nil, nil
	}

	return parseCSV(file.Content)
}

// Save uploads the given papers as the gist's seen-papers CSV, replacing the
// previous content.
func (s *Store) Save(ctx context.Context, papers []cache.SeenPaper) error {
	content, err := renderCSV(papers)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"files": map[string]any{
			Filename: map[string]string{"content": content},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal gist payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.baseURL+"/gists/"+s.gistID, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	slog.Info("Saved seen papers to gist", "gist_id", s.gistID, "count", len(papers))
	return nil
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Authorization", "token "+s.token)
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
}

func checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrGistNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}
}

func parseCSV(content string) ([]cache.SeenPaper, error) {
	reader := csv.NewReader(bytes.NewReader([]byte(content)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse gist CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	// Map header positions so column reordering in the gist stays harmless.
	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[name] = i
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var papers []cache.SeenPaper
	for _, row := range records[1:] {
		p := cache.SeenPaper{
			Identifier: field(row, "identifier"),
			DOI:        field(row, "doi"),
			Title:      field(row, "title"),
			Source:     field(row, "source"),
		}
		if p.Identifier == "" {
			continue
		}
		if raw := field(row, "first_seen_at"); raw != "" {
			unix, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				slog.Warn("Skipping gist row with bad timestamp", "identifier", p.Identifier, "value", raw)
				continue
			}
			p.FirstSeenAt = time.Unix(unix, 0).UTC()
		}
		papers = append(papers, p)
	}

	return papers, nil
}

func renderCSV(papers []cache.SeenPaper) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvColumns); err != nil {
		return "", fmt.Errorf("failed to render gist CSV: %w", err)
	}
	for _, p := range papers {
		row := []string{
			p.Identifier,
			p.DOI,
			p.Title,
			p.Source,
			strconv.FormatInt(p.FirstSeenAt.Unix(), 10),
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to render gist CSV: %w", err)
		}
	}

	writer.Flush()
	return buf.String(), writer.Error()
}
