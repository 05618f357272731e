package gist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ktmits/paperwatch/app/cache"
)

func TestLoad(t *testing.T) {
	csv := "identifier,doi,title,source,first_seen_at\n" +
		"arxiv:2401.12345,,Quantum widgets,arXiv:hep-th,1700000000\n" +
		"doi:10.1103/x,10.1103/x,Classical widgets,PRL,1700000100\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gists/abc123" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "token test-token" {
			t.Errorf("Unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"files": map[string]any{
				Filename: map[string]string{"content": csv},
			},
		})
	}))
	defer server.Close()

	store := NewStore("abc123", "test-token", WithBaseURL(server.URL))

	papers, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(papers) != 2 {
		t.Fatalf("Expected 2 papers, got %d", len(papers))
	}
	if papers[0].Identifier != "arxiv:2401.12345" {
		t.Errorf("Unexpected identifier %q", papers[0].Identifier)
	}
	if papers[1].DOI != "10.1103/x" {
		t.Errorf("Unexpected DOI %q", papers[1].DOI)
	}
	want := time.Unix(1700000000, 0).UTC()
	if !papers[0].FirstSeenAt.Equal(want) {
		t.Errorf("Expected first seen %v, got %v", want, papers[0].FirstSeenAt)
	}
}

func TestLoadMissingFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"files": {}}`))
	}))
	defer server.Close()

	store := NewStore("abc123", "test-token", WithBaseURL(server.URL))

	papers, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 0 {
		t.Errorf("Expected no papers for a fresh gist, got %d", len(papers))
	}
}

func TestLoadNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store := NewStore("missing", "test-token", WithBaseURL(server.URL))

	_, err := store.Load(context.Background())
	if !errors.Is(err, ErrGistNotFound) {
		t.Errorf("Expected ErrGistNotFound, got %v", err)
	}
}

func TestSave(t *testing.T) {
	var gotMethod string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store := NewStore("abc123", "test-token", WithBaseURL(server.URL))

	papers := []cache.SeenPaper{
		{
			Identifier:  "arxiv:2401.12345",
			Title:       "Quantum widgets",
			Source:      "arXiv:hep-th",
			FirstSeenAt: time.Unix(1700000000, 0).UTC(),
		},
	}
	if err := store.Save(context.Background(), papers); err != nil {
		t.Fatal(err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("Expected PATCH, got %s", gotMethod)
	}

	var payload struct {
		Files map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatal(err)
	}

	content := payload.Files[Filename].Content
	if !strings.HasPrefix(content, "identifier,doi,title,source,first_seen_at\n") {
		t.Errorf("CSV missing header: %q", content)
	}
	if !strings.Contains(content, "arxiv:2401.12345,,Quantum widgets,arXiv:hep-th,1700000000") {
		t.Errorf("CSV missing paper row: %q", content)
	}
}

func TestSaveUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := NewStore("abc123", "bad-token", WithBaseURL(server.URL))

	err := store.Save(context.Background(), nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	papers := []cache.SeenPaper{
		{Identifier: "doi:10.1103/x", DOI: "10.1103/x", Title: "A title, with comma", Source: "PRL", FirstSeenAt: time.Unix(1700000000, 0).UTC()},
		{Identifier: "arxiv:2401.00001", Title: "Plain", Source: "arXiv:math.CO", FirstSeenAt: time.Unix(1700000500, 0).UTC()},
	}

	content, err := renderCSV(papers)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := parseCSV(content)
	if err != nil {
		t.Fatal(err)
	}

	if len(parsed) != len(papers) {
		t.Fatalf("Expected %d papers, got %d", len(papers), len(parsed))
	}
	for i := range papers {
		if parsed[i].Identifier != papers[i].Identifier ||
			parsed[i].Title != papers[i].Title ||
			!parsed[i].FirstSeenAt.Equal(papers[i].FirstSeenAt) {
			t.Errorf("Row %d mismatch: got %+v, want %+v", i, parsed[i], papers[i])
		}
	}
}
