package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Pipeline configuration
	SourcesDir string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	CachePath  string `long:"cache-path" env:"CACHE_PATH" default:"./paperwatch.db" description:"Path to the SQLite cache database"`
	MinHIndex  int    `long:"min-h-index" env:"MIN_H_INDEX" default:"0" description:"Minimum author h-index required for dispatch (0 disables the gate)"`
	MaxAuthors int    `long:"max-authors" env:"MAX_AUTHORS" default:"5" description:"Maximum authors to evaluate per paper"`
	MaxPapers  int    `long:"max-papers" env:"MAX_PAPERS" default:"50" description:"Maximum papers to process per run"`

	// Author evaluation cache windows
	AuthorTTLDays    int `long:"author-ttl-days" env:"AUTHOR_TTL_DAYS" default:"180" description:"Days before a cached author evaluation expires"`
	NegativeTTLHours int `long:"negative-ttl-hours" env:"NEGATIVE_TTL_HOURS" default:"12" description:"Hours before a failed author lookup is retried"`

	// External call pacing
	LookupInterval int `long:"lookup-interval" env:"LOOKUP_INTERVAL" default:"1" description:"Minimum seconds between reputation lookups"`
	FetchTimeout   int `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Default feed fetch timeout in seconds"`

	// Run modes
	DryRun  bool `long:"dry-run" env:"DRY_RUN" description:"Run all decision logic without sending mail or updating the cache"`
	NoCache bool `long:"no-cache" env:"NO_CACHE" description:"Skip the seen-papers cache entirely: every paper is treated as unseen and nothing is marked seen"`
	Seed    bool `long:"seed" env:"SEED" description:"Mark current feed contents as seen without sending anything"`

	// SMTP notifier
	SMTPHost     string `long:"smtp-host" env:"SMTP_HOST" default:"smtp.gmail.com" description:"SMTP server host"`
	SMTPPort     int    `long:"smtp-port" env:"SMTP_PORT" default:"587" description:"SMTP server port"`
	SMTPUser     string `long:"smtp-user" env:"SMTP_USER" description:"SMTP username"`
	SMTPPassword string `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
	MailFrom     string `long:"mail-from" env:"MAIL_FROM" description:"Notification sender address"`
	MailTo       string `long:"mail-to" env:"MAIL_TO" description:"Notification recipient address"`

	// Optional integrations
	S2APIKey  string `long:"s2-api-key" env:"S2_API_KEY" description:"Semantic Scholar API key (optional)"`
	GistID    string `long:"gist-id" env:"GIST_ID" description:"GitHub Gist ID for the seen-papers mirror (optional)"`
	GistToken string `long:"gist-token" env:"GIST_TOKEN" description:"GitHub token with gist scope"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"paperwatch/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SourcesDir:     raw.SourcesDir,
		CachePath:      raw.CachePath,
		MinHIndex:      raw.MinHIndex,
		MaxAuthors:     raw.MaxAuthors,
		MaxPapers:      raw.MaxPapers,
		AuthorTTL:      time.Duration(raw.AuthorTTLDays) * 24 * time.Hour,
		NegativeTTL:    time.Duration(raw.NegativeTTLHours) * time.Hour,
		LookupInterval: time.Duration(raw.LookupInterval) * time.Second,
		FetchTimeout:   time.Duration(raw.FetchTimeout) * time.Second,
		DryRun:         raw.DryRun,
		NoCache:        raw.NoCache,
		Seed:           raw.Seed,
		SMTPHost:       raw.SMTPHost,
		SMTPPort:       raw.SMTPPort,
		SMTPUser:       raw.SMTPUser,
		SMTPPassword:   raw.SMTPPassword,
		MailFrom:       raw.MailFrom,
		MailTo:         raw.MailTo,
		S2APIKey:       raw.S2APIKey,
		GistID:         raw.GistID,
		GistToken:      raw.GistToken,
		UserAgent:      raw.UserAgent,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if cfg.NegativeTTL > cfg.AuthorTTL {
		return nil, fmt.Errorf("negative TTL (%s) must not exceed author TTL (%s)", cfg.NegativeTTL, cfg.AuthorTTL)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
