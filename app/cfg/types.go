package cfg

import "time"

type Cfg struct {
	// Pipeline configuration
	SourcesDir string
	CachePath  string
	MinHIndex  int
	MaxAuthors int
	MaxPapers  int

	// Author evaluation cache windows
	AuthorTTL   time.Duration
	NegativeTTL time.Duration

	// External call pacing
	LookupInterval time.Duration
	FetchTimeout   time.Duration

	// Run modes
	DryRun  bool
	NoCache bool
	Seed    bool

	// SMTP notifier
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	MailTo       string

	// Optional integrations
	S2APIKey  string
	GistID    string
	GistToken string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
