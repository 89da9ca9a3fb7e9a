// Package enrich fills playlist records with catalog metadata.
//
// The engine walks records one at a time, consulting the durable lookup
// cache before spending any network budget. The primary catalog (iTunes)
// is tried first for track metadata; whatever it leaves unresolved falls
// through to MusicBrainz, which also serves artist countries and
// songwriter credits. Fields a run could not resolve are stamped
// not-found so the next run can skip them.
package enrich

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sydlexius/airwave/internal/cache"
	"github.com/sydlexius/airwave/internal/catalog"
	"github.com/sydlexius/airwave/internal/match"
	"github.com/sydlexius/airwave/internal/normalize"
	"github.com/sydlexius/airwave/internal/playlist"
)

// TrackSearcher is the primary catalog: a flat candidate search whose
// selection happens here, in the engine.
type TrackSearcher interface {
	SearchTrack(ctx context.Context, artist, title string) ([]catalog.TrackCandidate, error)
}

// FallbackCatalog is the secondary catalog. Its lookups do their own
// candidate selection and serve the metadata classes the primary cannot.
type FallbackCatalog interface {
	LookupTrack(ctx context.Context, artist, title string) (*catalog.TrackMetadata, error)
	LookupArtistCountry(ctx context.Context, artist string) (string, error)
	LookupSongwriters(ctx context.Context, artist, title string) ([]string, error)
}

// Stats summarizes one enrichment run.
type Stats struct {
	// Lookups counts network-backed lookups per source (cache hits excluded).
	Lookups map[catalog.SourceName]int
	// Enriched counts records that gained at least one genuine value from
	// each source.
	Enriched map[catalog.SourceName]int
	// Changed counts records modified in any way, not-found stamps included.
	Changed int
}

func newStats() *Stats {
	return &Stats{
		Lookups:  make(map[catalog.SourceName]int),
		Enriched: make(map[catalog.SourceName]int),
	}
}

// Engine runs enrichment passes over playlist records.
type Engine struct {
	primary  TrackSearcher
	fallback FallbackCatalog
	cache    *cache.Store
	logger   *slog.Logger
}

// New creates an enrichment engine. Budget and rate limiting live in the
// catalog clients; force semantics live in the cache store.
func New(primary TrackSearcher, fallback FallbackCatalog, store *cache.Store, logger *slog.Logger) *Engine {
	return &Engine{
		primary:  primary,
		fallback: fallback,
		cache:    store,
		logger:   logger,
	}
}

// Run enriches every record in place and returns run statistics. It stops
// early only on context cancellation; exhausted lookup budgets and failed
// lookups degrade to not-found stamps and the run continues.
func (e *Engine) Run(ctx context.Context, records []*playlist.TrackRecord) (*Stats, error) {
	stats := newStats()
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := e.enrichRecord(ctx, rec, stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (e *Engine) enrichRecord(ctx context.Context, rec *playlist.TrackRecord, stats *Stats) error {
	if !rec.HasIdentity() {
		// Nothing to look up; close the fields out so the record is not
		// re-examined every run.
		if stampNotFound(rec) {
			stats.Changed++
		}
		return nil
	}

	artist := strings.TrimSpace(rec.Artist)
	title := strings.TrimSpace(rec.Title)

	changed := false
	realITunes := false
	realMB := false

	if !hasAllTrackMeta(rec) {
		ch, real, err := e.primaryPhase(ctx, rec, artist, title, stats)
		if err != nil {
			return err
		}
		changed = changed || ch
		realITunes = realITunes || real
	}

	if !hasAllTrackMeta(rec) || !rec.CountryCode.IsResolved() {
		ch, real, err := e.fallbackTrackPhase(ctx, rec, artist, title, stats)
		if err != nil {
			return err
		}
		changed = changed || ch
		realMB = realMB || real
	}

	if !rec.CountryCode.IsResolved() {
		ch, real, err := e.countryPhase(ctx, rec, artist, stats)
		if err != nil {
			return err
		}
		changed = changed || ch
		realMB = realMB || real
	}

	if !rec.Songwriters.IsResolved() {
		ch, real, err := e.songwritersPhase(ctx, rec, artist, title, stats)
		if err != nil {
			return err
		}
		changed = changed || ch
		realMB = realMB || real
	}

	if stampNotFound(rec) {
		changed = true
	}

	if changed {
		stats.Changed++
	}
	if realITunes {
		stats.Enriched[catalog.NameITunes]++
	}
	if realMB {
		stats.Enriched[catalog.NameMusicBrainz]++
	}
	return nil
}

// primaryPhase resolves track metadata through the iTunes candidate search,
// scoring candidates against the query and caching the winner.
func (e *Engine) primaryPhase(ctx context.Context, rec *playlist.TrackRecord, artist, title string, stats *Stats) (changed, real bool, err error) {
	key := normalize.CacheKey(artist, title)

	var meta catalog.TrackMetadata
	hit, err := e.cache.Resolve(cache.NSITunes, key, &meta)
	if err != nil {
		e.logger.Warn("discarding unreadable cache entry",
			slog.String("namespace", string(cache.NSITunes)),
			slog.String("key", key),
			slog.Any("error", err))
	} else if hit {
		changed, real = applyTrackMeta(rec, &meta)
		return changed, real, nil
	}
	if _, state := e.cache.Get(cache.NSITunes, key); state == cache.Miss {
		return false, false, nil
	}

	candidates, err := e.primary.SearchTrack(ctx, artist, title)
	switch {
	case errors.Is(err, catalog.ErrBudgetExhausted):
		// Out of budget for this run. Leave the cache untouched so the
		// lookup is retried next time.
		return false, false, nil
	case err != nil:
		if cerr := ctx.Err(); cerr != nil {
			return false, false, cerr
		}
		stats.Lookups[catalog.NameITunes]++
		e.logger.Debug("primary lookup failed",
			slog.String("artist", artist),
			slog.String("title", title),
			slog.Any("error", err))
		e.cache.PutMiss(cache.NSITunes, key)
		return false, false, nil
	}

	stats.Lookups[catalog.NameITunes]++
	idx, score := match.SelectBest(artist, title, toMatchCandidates(candidates), match.TrackWeights)
	if idx < 0 {
		e.logger.Debug("no acceptable primary candidate",
			slog.String("artist", artist),
			slog.String("title", title),
			slog.Int("candidates", len(candidates)),
			slog.Float64("best_score", score))
		e.cache.PutMiss(cache.NSITunes, key)
		return false, false, nil
	}

	meta = candidates[idx].Meta
	if err := e.cache.PutResolved(cache.NSITunes, key, &meta); err != nil {
		return false, false, err
	}
	changed, real = applyTrackMeta(rec, &meta)
	return changed, real, nil
}

// fallbackTrackPhase fills track metadata gaps from MusicBrainz. Its cached
// payload shares the TrackMetadata shape with the primary phase but lives
// in its own namespace, so the two sources never shadow each other.
func (e *Engine) fallbackTrackPhase(ctx context.Context, rec *playlist.TrackRecord, artist, title string, stats *Stats) (changed, real bool, err error) {
	key := normalize.CacheKey(artist, title)

	var meta catalog.TrackMetadata
	hit, err := e.cache.Resolve(cache.NSMBTrack, key, &meta)
	if err != nil {
		e.logger.Warn("discarding unreadable cache entry",
			slog.String("namespace", string(cache.NSMBTrack)),
			slog.String("key", key),
			slog.Any("error", err))
	} else if hit {
		changed, real = applyTrackMeta(rec, &meta)
		return changed, real, nil
	}
	if _, state := e.cache.Get(cache.NSMBTrack, key); state == cache.Miss {
		return false, false, nil
	}

	found, err := e.fallback.LookupTrack(ctx, artist, title)
	switch {
	case errors.Is(err, catalog.ErrBudgetExhausted):
		return false, false, nil
	case err != nil:
		if cerr := ctx.Err(); cerr != nil {
			return false, false, cerr
		}
		stats.Lookups[catalog.NameMusicBrainz]++
		e.logger.Debug("fallback track lookup failed",
			slog.String("artist", artist),
			slog.String("title", title),
			slog.Any("error", err))
		e.cache.PutMiss(cache.NSMBTrack, key)
		return false, false, nil
	}

	stats.Lookups[catalog.NameMusicBrainz]++
	if err := e.cache.PutResolved(cache.NSMBTrack, key, found); err != nil {
		return false, false, err
	}
	changed, real = applyTrackMeta(rec, found)
	return changed, real, nil
}

// countryPhase resolves the artist's country, keyed by artist alone so one
// lookup serves every track by that artist. A cached empty string means the
// artist matched but MusicBrainz lists no country; that answer is final.
func (e *Engine) countryPhase(ctx context.Context, rec *playlist.TrackRecord, artist string, stats *Stats) (changed, real bool, err error) {
	key := normalize.Key(artist)

	var code string
	hit, err := e.cache.Resolve(cache.NSArtistCountry, key, &code)
	if err != nil {
		e.logger.Warn("discarding unreadable cache entry",
			slog.String("namespace", string(cache.NSArtistCountry)),
			slog.String("key", key),
			slog.Any("error", err))
	} else if hit {
		changed, real = applyCountry(rec, code)
		return changed, real, nil
	}
	if _, state := e.cache.Get(cache.NSArtistCountry, key); state == cache.Miss {
		return false, false, nil
	}

	code, err = e.fallback.LookupArtistCountry(ctx, artist)
	switch {
	case errors.Is(err, catalog.ErrBudgetExhausted):
		return false, false, nil
	case err != nil:
		if cerr := ctx.Err(); cerr != nil {
			return false, false, cerr
		}
		stats.Lookups[catalog.NameMusicBrainz]++
		e.logger.Debug("artist country lookup failed",
			slog.String("artist", artist),
			slog.Any("error", err))
		e.cache.PutMiss(cache.NSArtistCountry, key)
		return false, false, nil
	}

	stats.Lookups[catalog.NameMusicBrainz]++
	if err := e.cache.PutResolved(cache.NSArtistCountry, key, code); err != nil {
		return false, false, err
	}
	changed, real = applyCountry(rec, code)
	return changed, real, nil
}

// songwritersPhase resolves writer credits. An empty cached list means the
// recording matched but credits no writers, which is distinct from a miss.
func (e *Engine) songwritersPhase(ctx context.Context, rec *playlist.TrackRecord, artist, title string, stats *Stats) (changed, real bool, err error) {
	key := normalize.CacheKey(artist, title)

	var names []string
	hit, err := e.cache.Resolve(cache.NSSongwriters, key, &names)
	if err != nil {
		e.logger.Warn("discarding unreadable cache entry",
			slog.String("namespace", string(cache.NSSongwriters)),
			slog.String("key", key),
			slog.Any("error", err))
	} else if hit {
		changed, real = applySongwriters(rec, names)
		return changed, real, nil
	}
	if _, state := e.cache.Get(cache.NSSongwriters, key); state == cache.Miss {
		return false, false, nil
	}

	names, err = e.fallback.LookupSongwriters(ctx, artist, title)
	switch {
	case errors.Is(err, catalog.ErrBudgetExhausted):
		return false, false, nil
	case err != nil:
		if cerr := ctx.Err(); cerr != nil {
			return false, false, cerr
		}
		stats.Lookups[catalog.NameMusicBrainz]++
		e.logger.Debug("songwriter lookup failed",
			slog.String("artist", artist),
			slog.String("title", title),
			slog.Any("error", err))
		e.cache.PutMiss(cache.NSSongwriters, key)
		return false, false, nil
	}

	stats.Lookups[catalog.NameMusicBrainz]++
	if err := e.cache.PutResolved(cache.NSSongwriters, key, names); err != nil {
		return false, false, err
	}
	changed, real = applySongwriters(rec, names)
	return changed, real, nil
}

func toMatchCandidates(candidates []catalog.TrackCandidate) []match.Candidate {
	out := make([]match.Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = match.Candidate{
			Artist:      c.Artist,
			Title:       c.Title,
			SourceScore: c.SourceScore,
		}
	}
	return out
}
