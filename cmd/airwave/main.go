package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/sydlexius/airwave/internal/cache"
	"github.com/sydlexius/airwave/internal/catalog"
	"github.com/sydlexius/airwave/internal/catalog/itunes"
	"github.com/sydlexius/airwave/internal/catalog/musicbrainz"
	"github.com/sydlexius/airwave/internal/config"
	"github.com/sydlexius/airwave/internal/database"
	"github.com/sydlexius/airwave/internal/enrich"
	"github.com/sydlexius/airwave/internal/logging"
	"github.com/sydlexius/airwave/internal/playlist"
	"github.com/sydlexius/airwave/internal/scrape"
	"github.com/sydlexius/airwave/internal/version"
)

const usage = `Usage: airwave <command> [flags]

Commands:
  scrape   fetch the station playlist page and merge new plays into the playlist file
  enrich   fill playlist records with catalog metadata (iTunes, MusicBrainz)

Run "airwave <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Local .env files are a convenience for development; absence is fine.
	_ = godotenv.Load()

	var err error
	switch os.Args[1] {
	case "scrape":
		err = runScrape(os.Args[2:])
	case "enrich":
		err = runEnrich(os.Args[2:])
	case "version":
		fmt.Printf("airwave %s (%s)\n", version.Version, version.Commit)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runScrape(args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("AW_CONFIG_PATH"), "path to config YAML")
	output := fs.String("output", "", "playlist file path (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *output != "" {
		cfg.Scrape.OutputPath = *output
	}

	logger, closeLog := logging.Setup(cfg.Logging)
	defer closeLog() //nolint:errcheck
	slog.SetDefault(logger)
	logger = logger.With(slog.String("run_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scraper, err := scrape.New(cfg.Scrape, logger)
	if err != nil {
		return err
	}

	logger.Info("starting scrape",
		slog.String("version", version.Version),
		slog.String("output", cfg.Scrape.OutputPath))

	html, err := scraper.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Scheduled runs should not fail on a transient network problem;
		// the next run picks the plays up.
		logger.Warn("network error, skipping this run", slog.Any("error", err))
		return nil
	}

	scraped, err := scraper.Parse(html)
	if err != nil {
		return err
	}
	if len(scraped) == 0 {
		logger.Warn("no playlist entries found, markup may have changed")
		return nil
	}

	existing, err := playlist.Load(cfg.Scrape.OutputPath)
	if err != nil {
		return err
	}

	merged, added := playlist.MergeDedup(existing, scraped)
	if err := playlist.Save(cfg.Scrape.OutputPath, merged); err != nil {
		return err
	}

	logger.Info("scrape complete",
		slog.Int("scraped", len(scraped)),
		slog.Int("added", added),
		slog.Int("total", len(merged)))

	writeStepSummary(logger, "### Scraper result\n",
		fmt.Sprintf("- New records added: **%d**\n", added),
		fmt.Sprintf("- Total records: **%d**\n", len(merged)))

	return nil
}

func runEnrich(args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("AW_CONFIG_PATH"), "path to config YAML")
	input := fs.String("input", "", "playlist file path (overrides config)")
	force := fs.Bool("force", false, "retry lookups previously cached as misses")
	itunesLimit := fs.Int("itunes-limit", -1, "max iTunes calls this run (overrides config)")
	mbLimit := fs.Int("mb-limit", -1, "max MusicBrainz calls this run (overrides config)")
	country := fs.String("country", "", "iTunes storefront country (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *input != "" {
		cfg.Scrape.OutputPath = *input
	}
	if *itunesLimit >= 0 {
		cfg.Enrich.ITunesLimit = *itunesLimit
	}
	if *mbLimit >= 0 {
		cfg.Enrich.MBLimit = *mbLimit
	}
	if *country != "" {
		cfg.Enrich.ITunesCountry = *country
	}

	logger, closeLog := logging.Setup(cfg.Logging)
	defer closeLog() //nolint:errcheck
	slog.SetDefault(logger)
	logger = logger.With(slog.String("run_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := playlist.Load(cfg.Scrape.OutputPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		logger.Info("playlist is empty, nothing to enrich",
			slog.String("path", cfg.Scrape.OutputPath))
		return nil
	}

	db, err := database.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("opening cache database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing cache database", slog.Any("error", err))
		}
	}()
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	store := cache.NewStore(db, *force)
	if err := store.Load(ctx); err != nil {
		return err
	}

	limiters := catalog.NewRateLimiterMap(map[catalog.SourceName]time.Duration{
		catalog.NameITunes:      secondsToDuration(cfg.Enrich.ITunesDelaySeconds),
		catalog.NameMusicBrainz: secondsToDuration(cfg.Enrich.MBDelaySeconds),
	})
	budgets := catalog.NewBudgetMap(map[catalog.SourceName]int{
		catalog.NameITunes:      cfg.Enrich.ITunesLimit,
		catalog.NameMusicBrainz: cfg.Enrich.MBLimit,
	})
	client := catalog.NewClient(limiters, budgets, logger, cfg.Enrich.MBContact)

	engine := enrich.New(
		itunes.New(client, logger, cfg.Enrich.ITunesCountry),
		musicbrainz.New(client, logger),
		store,
		logger,
	)

	logger.Info("starting enrichment",
		slog.String("version", version.Version),
		slog.Int("records", len(records)),
		slog.Int("itunes_limit", cfg.Enrich.ITunesLimit),
		slog.Int("mb_limit", cfg.Enrich.MBLimit),
		slog.Bool("force", *force))

	stats, runErr := engine.Run(ctx, records)

	// Whatever was learned before an interrupt is still worth keeping.
	if err := store.Flush(context.Background()); err != nil {
		logger.Error("flushing lookup cache", slog.Any("error", err))
	}
	if stats.Changed > 0 {
		if err := playlist.Save(cfg.Scrape.OutputPath, records); err != nil {
			return err
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	logger.Info("enrichment complete",
		slog.Int("changed", stats.Changed),
		slog.Int("itunes_lookups", stats.Lookups[catalog.NameITunes]),
		slog.Int("itunes_enriched", stats.Enriched[catalog.NameITunes]),
		slog.Int("mb_lookups", stats.Lookups[catalog.NameMusicBrainz]),
		slog.Int("mb_enriched", stats.Enriched[catalog.NameMusicBrainz]))

	writeStepSummary(logger, "### Enrichment result\n",
		fmt.Sprintf("- Records changed: **%d**\n", stats.Changed),
		fmt.Sprintf("- iTunes lookups: **%d** (enriched %d records)\n",
			stats.Lookups[catalog.NameITunes], stats.Enriched[catalog.NameITunes]),
		fmt.Sprintf("- MusicBrainz lookups: **%d** (enriched %d records)\n",
			stats.Lookups[catalog.NameMusicBrainz], stats.Enriched[catalog.NameMusicBrainz]))

	return nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// writeStepSummary appends markdown lines to the GitHub Actions step summary
// when running inside a workflow. A no-op everywhere else.
func writeStepSummary(logger *slog.Logger, lines ...string) {
	path := os.Getenv("GITHUB_STEP_SUMMARY")
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Warn("opening step summary", slog.Any("error", err))
		return
	}
	defer f.Close() //nolint:errcheck
	for _, line := range lines {
		if _, err := f.WriteString(line); err != nil {
			logger.Warn("writing step summary", slog.Any("error", err))
			return
		}
	}
}
