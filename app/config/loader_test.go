package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	content := `
kind: "arxiv"
title: "arXiv hep-th"
url: "https://rss.arxiv.org/rss/hep-th"
category: "hep-th"

settings:
  enabled: true
  timeout: 15
  max_items: 25

keywords:
  enabled: true
  include:
    - "quantum gravity"
  exclude:
    - "erratum"
`

	writeConfig(t, tempDir, "hep-th.yml", content)

	loader := NewLoader(tempDir)
	sources, err := loader.LoadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(sources) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(sources))
	}

	source := sources[0]
	if source.Name != "hep-th" {
		t.Errorf("Expected name 'hep-th' derived from filename, got '%s'", source.Name)
	}
	if source.Kind != KindArxiv {
		t.Errorf("Expected kind 'arxiv', got '%s'", source.Kind)
	}
	if source.Settings.Timeout != 15 {
		t.Errorf("Expected timeout 15, got %d", source.Settings.Timeout)
	}
	if source.Settings.MaxItems != 25 {
		t.Errorf("Expected max items 25, got %d", source.Settings.MaxItems)
	}
	if len(source.Keywords.Include) != 1 || source.Keywords.Include[0] != "quantum gravity" {
		t.Errorf("Unexpected include keywords: %v", source.Keywords.Include)
	}
	if source.Symbol != "arxiv/hep-th" {
		t.Errorf("Expected default symbol 'arxiv/hep-th', got '%s'", source.Symbol)
	}
	if !source.ReputationEnabled() {
		t.Error("arXiv sources should default to reputation enabled")
	}
}

func TestLoadDefaults(t *testing.T) {
	tempDir := t.TempDir()

	content := `
kind: "journal"
url: "https://example.org/rss"
settings:
  enabled: true
`

	writeConfig(t, tempDir, "prx-quantum.yaml", content)

	loader := NewLoader(tempDir)
	sources, err := loader.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(sources))
	}

	source := sources[0]
	if source.Settings.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", source.Settings.Timeout)
	}
	if source.Settings.MaxItems != 100 {
		t.Errorf("Expected default max items 100, got %d", source.Settings.MaxItems)
	}
	if source.Title != "prx-quantum" {
		t.Errorf("Expected title defaulted from name, got '%s'", source.Title)
	}
	if source.ReputationEnabled() {
		t.Error("Journal sources should default to reputation disabled")
	}
}

func TestReputationOverride(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "nature.yml", `
kind: "journal"
url: "https://example.org/rss"
reputation:
  enabled: true
`)

	loader := NewLoader(tempDir)
	sources, err := loader.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if !sources[0].ReputationEnabled() {
		t.Error("Explicit reputation.enabled should override the journal default")
	}
}

func TestLoadSorted(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, "b-feed.yml", "kind: journal\nurl: https://example.org/b\n")
	writeConfig(t, tempDir, "a-feed.yaml", "kind: journal\nurl: https://example.org/a\n")

	loader := NewLoader(tempDir)
	sources, err := loader.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if sources[0].Name != "a-feed" || sources[1].Name != "b-feed" {
		t.Errorf("Expected sources sorted by name, got %s, %s", sources[0].Name, sources[1].Name)
	}
}

func TestValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing kind", "url: https://example.org/rss\n"},
		{"unknown kind", "kind: mailing-list\nurl: https://example.org/rss\n"},
		{"missing url", "kind: journal\n"},
		{"arxiv without category", "kind: arxiv\nurl: https://example.org/rss\n"},
		{"empty keyword filter", "kind: journal\nurl: https://example.org/rss\nkeywords:\n  enabled: true\n"},
	}

	for _, tc := range cases {
		tempDir := t.TempDir()
		writeConfig(t, tempDir, "bad.yml", tc.content)

		loader := NewLoader(tempDir)
		if _, err := loader.LoadAll(); err == nil {
			t.Errorf("%s: expected validation error, got none", tc.name)
		}
	}
}

func TestMissingDirectory(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "does-not-exist"))
	sources, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("Missing directory should not be an error, got %v", err)
	}
	if len(sources) != 0 {
		t.Errorf("Expected no sources, got %d", len(sources))
	}
}
