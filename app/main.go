package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ktmits/paperwatch/app/cache"
	"github.com/ktmits/paperwatch/app/cfg"
	"github.com/ktmits/paperwatch/app/config"
	"github.com/ktmits/paperwatch/app/gist"
	"github.com/ktmits/paperwatch/app/notify"
	"github.com/ktmits/paperwatch/app/pipeline"
	"github.com/ktmits/paperwatch/app/scholar"
	"github.com/ktmits/paperwatch/app/source"
)

func main() {
	// Optional .env for local development; environment wins in CI.
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Configuration error", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting paperwatch", "version", appCfg.Version, "dry_run", appCfg.DryRun)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(appCfg.SourcesDir)
	sourceConfigs, err := loader.LoadAll()
	if err != nil {
		slog.Error("Failed to load source configurations", "error", err)
		os.Exit(1)
	}
	if len(sourceConfigs) == 0 {
		slog.Error("No source configurations found", "dir", appCfg.SourcesDir)
		os.Exit(1)
	}

	store, err := cache.OpenSQLite(appCfg.CachePath, appCfg.AuthorTTL, appCfg.NegativeTTL)
	if err != nil {
		slog.Error("Failed to open cache", "path", appCfg.CachePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// The gist mirror is best-effort: a mirror outage must not block a run.
	var mirror *gist.Store
	if mirrorEnabled(appCfg) {
		mirror = gist.NewStore(appCfg.GistID, appCfg.GistToken, gist.WithUserAgent(appCfg.UserAgent))
		if err := importMirror(ctx, mirror, store); err != nil {
			slog.Warn("Failed to import gist mirror", "error", err)
		}
	}

	httpClient := &http.Client{Timeout: appCfg.FetchTimeout}

	var sources []source.Source
	for _, sc := range sourceConfigs {
		if !sc.Settings.Enabled {
			slog.Info("Source disabled, skipping", "source", sc.Name)
			continue
		}
		src, err := source.New(sc, httpClient, appCfg.UserAgent)
		if err != nil {
			slog.Error("Failed to build source", "source", sc.Name, "error", err)
			os.Exit(1)
		}
		sources = append(sources, src)
	}
	slog.Info("Sources configured", "enabled", len(sources), "total", len(sourceConfigs))

	client := scholar.NewClient(
		scholar.WithAPIKey(appCfg.S2APIKey),
		scholar.WithUserAgent(appCfg.UserAgent),
		scholar.WithLookupInterval(appCfg.LookupInterval),
	)
	evaluator := scholar.NewEvaluator(client, store, appCfg.MaxAuthors)

	notifier := notify.NewEmailNotifier(
		appCfg.SMTPHost, appCfg.SMTPPort,
		appCfg.SMTPUser, appCfg.SMTPPassword,
		appCfg.MailFrom, appCfg.MailTo,
	)

	pl := pipeline.New(pipeline.Deps{
		Sources:   sources,
		Store:     store,
		Evaluator: evaluator,
		Notifier:  notifier,
		Options: pipeline.Options{
			MinHIndex: appCfg.MinHIndex,
			MaxPapers: appCfg.MaxPapers,
			DryRun:    appCfg.DryRun,
			NoCache:   appCfg.NoCache,
			Seed:      appCfg.Seed,
		},
	})

	stats, err := pl.Run(ctx)
	if err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}

	if mirror != nil {
		if err := exportMirror(ctx, mirror, store); err != nil {
			slog.Warn("Failed to export gist mirror", "error", err)
		}
	}

	for _, warning := range stats.Warnings {
		slog.Warn("Run warning", "warning", warning)
	}

	slog.Info("Run complete",
		"fetched", stats.Fetched,
		"dispatched", stats.Dispatched,
		"would_dispatch", stats.DryRun,
		"duplicates", stats.Duplicates,
		"keyword_filtered", stats.KeywordFiltered,
		"reputation_filtered", stats.ReputationFiltered,
		"dispatch_failed", stats.DispatchFailed,
		"seeded", stats.Seeded,
		"deferred", stats.Deferred,
	)
}

// mirrorEnabled reports whether the gist mirror is used for this run.
// Dry-run and no-cache runs skip it in both directions: the import writes
// seen-papers rows into the local cache, which those modes must not do.
func mirrorEnabled(c *cfg.Cfg) bool {
	return c.GistID != "" && c.GistToken != "" && !c.DryRun && !c.NoCache
}

// importMirror merges the gist's seen papers into the local cache. MarkSeen
// is idempotent, so papers already present locally keep their original
// first-seen timestamps.
func importMirror(ctx context.Context, mirror *gist.Store, store cache.Store) error {
	papers, err := mirror.Load(ctx)
	if err != nil {
		return err
	}
	for _, p := range papers {
		if err := store.MarkSeen(p); err != nil {
			return err
		}
	}
	slog.Info("Imported seen papers from gist mirror", "count", len(papers))
	return nil
}

// exportMirror uploads the full local seen-papers set to the gist.
func exportMirror(ctx context.Context, mirror *gist.Store, store cache.Store) error {
	papers, err := store.SeenPapers()
	if err != nil {
		return err
	}
	return mirror.Save(ctx, papers)
}
