package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of source configurations
type Loader struct {
	sourcesDir string
}

// NewLoader creates a new configuration loader
func NewLoader(sourcesDir string) *Loader {
	return &Loader{sourcesDir: sourcesDir}
}

// LoadAll loads all YAML configuration files from the sources directory,
// sorted by name so runs process sources in a stable order.
func (l *Loader) LoadAll() ([]*Source, error) {
	if _, err := os.Stat(l.sourcesDir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(l.sourcesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.sourcesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	var sources []*Source
	for _, file := range files {
		source, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(source); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}

		sources = append(sources, source)
		slog.Debug("Loaded source configuration", "file", file, "kind", source.Kind)
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })

	return sources, nil
}

// loadFile loads a single YAML configuration file
func (l *Loader) loadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var source Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Base(path)
	source.Name = strings.TrimSuffix(base, filepath.Ext(base))

	l.setDefaults(&source)

	return &source, nil
}

// setDefaults applies default values to a source configuration
func (l *Loader) setDefaults(source *Source) {
	if source.Settings.Timeout == 0 {
		source.Settings.Timeout = 30 // seconds
	}
	if source.Settings.MaxItems == 0 {
		source.Settings.MaxItems = 100
	}
	if source.Title == "" {
		source.Title = source.Name
	}
	if source.Symbol == "" {
		if source.Kind == KindArxiv && source.Category != "" {
			source.Symbol = "arxiv/" + source.Category
		} else {
			source.Symbol = source.Name
		}
	}
	if source.Reputation.Enabled == nil {
		enabled := source.Kind == KindArxiv
		source.Reputation.Enabled = &enabled
	}
}

// validate validates a source configuration
func (l *Loader) validate(source *Source) error {
	switch source.Kind {
	case KindArxiv, KindJournal:
	case "":
		return fmt.Errorf("source kind is required")
	default:
		return fmt.Errorf("unknown source kind: %q", source.Kind)
	}

	if source.URL == "" {
		return fmt.Errorf("source URL is required")
	}
	if source.Kind == KindArxiv && source.Category == "" {
		return fmt.Errorf("arxiv sources require a category")
	}

	if source.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if source.Settings.MaxItems < 0 {
		return fmt.Errorf("max items must be non-negative")
	}

	if source.Keywords.Enabled && len(source.Keywords.Include) == 0 && len(source.Keywords.Exclude) == 0 {
		return fmt.Errorf("keyword filtering enabled but no include or exclude keywords configured")
	}

	return nil
}
