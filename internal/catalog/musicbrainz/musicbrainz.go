// Package musicbrainz adapts the MusicBrainz WS/2 API as the fallback
// metadata catalog: track metadata, artist country and songwriter credits.
package musicbrainz

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/sydlexius/airwave/internal/catalog"
	"github.com/sydlexius/airwave/internal/match"
	"github.com/sydlexius/airwave/internal/normalize"
)

const defaultBaseURL = "https://musicbrainz.org/ws/2"

// artistHitSimilarity is the bar an artist credit on a recording must clear
// to count as confirming the queried artist.
const artistHitSimilarity = 0.85

// maxLinkedWorks caps the work lookups performed per recording when
// collecting songwriters.
const maxLinkedWorks = 2

// writerRoles are the relation types that credit a songwriter.
var writerRoles = map[string]bool{
	"writer":   true,
	"composer": true,
	"lyricist": true,
	"author":   true,
}

// Adapter queries MusicBrainz. Anonymous access; the shared client's user
// agent must carry contact information per the MusicBrainz guidelines.
type Adapter struct {
	client  *catalog.Client
	logger  *slog.Logger
	baseURL string
}

// New creates a MusicBrainz adapter with the default base URL.
func New(client *catalog.Client, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(client, logger, defaultBaseURL)
}

// NewWithBaseURL creates a MusicBrainz adapter with a custom base URL (for testing).
func NewWithBaseURL(client *catalog.Client, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  client,
		logger:  logger.With(slog.String("source", "musicbrainz")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the source identifier.
func (a *Adapter) Name() catalog.SourceName { return catalog.NameMusicBrainz }

// LookupArtistCountry resolves an artist credit to an ISO 3166-1 alpha-2
// country code. It returns an empty string with a nil error when the artist
// matched but has no country on record (a confirmed-empty answer, distinct
// from ErrNotFound).
func (a *Adapter) LookupArtistCountry(ctx context.Context, artist string) (string, error) {
	params := url.Values{
		"query": {`artist:"` + luceneEscape(artist) + `"`},
		"fmt":   {"json"},
		"limit": {"5"},
	}
	reqURL := a.baseURL + "/artist?" + params.Encode()

	var resp artistSearchResponse
	if err := a.client.GetJSON(ctx, catalog.NameMusicBrainz, reqURL, &resp); err != nil {
		return "", err
	}

	candidates := make([]match.Candidate, 0, len(resp.Artists))
	for _, art := range resp.Artists {
		candidates = append(candidates, match.Candidate{
			Artist:      art.Name,
			SourceScore: art.Score,
			Aux:         art.Country != "",
		})
	}

	idx, score := match.SelectBest(artist, "", candidates, match.ArtistWeights)
	if idx < 0 {
		a.logger.Debug("artist rejected",
			slog.String("artist", artist),
			slog.Float64("best_score", score))
		return "", &catalog.ErrNotFound{Source: catalog.NameMusicBrainz, Query: artist}
	}

	best := resp.Artists[idx]
	if best.Country != "" {
		return best.Country, nil
	}
	if best.Area != nil && len(best.Area.ISOCodes) > 0 {
		return best.Area.ISOCodes[0], nil
	}
	return "", nil
}

// LookupTrack resolves (artist, title) to track metadata: earliest release
// album and year, genre, duration, track number and the artist's country.
// Detail stages degrade gracefully: whatever was collected before a budget
// or transport failure is still returned.
func (a *Adapter) LookupTrack(ctx context.Context, artist, title string) (*catalog.TrackMetadata, error) {
	rec, err := a.searchRecording(ctx, artist, title)
	if err != nil {
		return nil, err
	}

	meta := &catalog.TrackMetadata{
		DurationMS: rec.Length,
		Genre:      genreFromRecording(rec),
	}

	earliest := pickEarliestRelease(rec.Releases)
	if earliest != nil {
		meta.Album = earliest.Title
		meta.Year = releaseYear(earliest.Date)
	}

	// Track position and a more precise length come from the release detail.
	if earliest != nil {
		if position, length, ok := a.fetchTrackDetail(ctx, earliest.ID, rec.ID); ok {
			meta.TrackNumber = position
			if length > 0 {
				meta.DurationMS = length
			}
		}
	}

	if mbid := primaryArtistID(rec); mbid != "" {
		if code, ok := a.fetchArtistArea(ctx, mbid); ok {
			meta.CountryCode = code
		}
	}

	return meta, nil
}

// LookupSongwriters resolves (artist, title) to the credited songwriters,
// deduplicated and sorted. A matched recording with no writer credits
// returns an empty, non-nil slice: a confirmed-empty answer that callers
// cache so it is never retried.
func (a *Adapter) LookupSongwriters(ctx context.Context, artist, title string) ([]string, error) {
	rec, err := a.searchRecording(ctx, artist, title)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"fmt": {"json"},
		"inc": {"work-rels+artist-rels+work-level-rels"},
	}
	reqURL := a.baseURL + "/recording/" + url.PathEscape(rec.ID) + "?" + params.Encode()

	var detail mbRecording
	if err := a.client.GetJSON(ctx, catalog.NameMusicBrainz, reqURL, &detail); err != nil {
		return nil, err
	}

	names := make(map[string]string) // casefolded -> display form
	collectWriters(names, detail.Relations)

	works := 0
	for _, rel := range detail.Relations {
		if rel.TargetType != "work" || rel.Work == nil || rel.Work.ID == "" {
			continue
		}
		if works >= maxLinkedWorks {
			break
		}
		works++

		wparams := url.Values{
			"fmt": {"json"},
			"inc": {"artist-rels"},
		}
		wURL := a.baseURL + "/work/" + url.PathEscape(rel.Work.ID) + "?" + wparams.Encode()

		var work workDetailResponse
		if err := a.client.GetJSON(ctx, catalog.NameMusicBrainz, wURL, &work); err != nil {
			if errors.Is(err, catalog.ErrBudgetExhausted) {
				break
			}
			continue
		}
		collectWriters(names, work.Relations)
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out, nil
}

// searchRecording finds the best-matching recording for (artist, title),
// retrying once with a swapped two-token artist name when the first search
// finds nothing acceptable.
func (a *Adapter) searchRecording(ctx context.Context, artist, title string) (*mbRecording, error) {
	primary := normalize.PrimaryArtist(artist)

	rec, err := a.searchRecordingOnce(ctx, primary, artist, title)
	if err == nil || !catalog.IsNotFound(err) {
		return rec, err
	}

	if swapped := normalize.SwapNameOrder(primary); swapped != primary {
		rec, err2 := a.searchRecordingOnce(ctx, swapped, swapped, title)
		if err2 == nil {
			return rec, nil
		}
		if errors.Is(err2, catalog.ErrBudgetExhausted) {
			return nil, err2
		}
	}
	return nil, err
}

func (a *Adapter) searchRecordingOnce(ctx context.Context, queryArtist, scoreArtist, title string) (*mbRecording, error) {
	q := `artist:"` + luceneEscape(queryArtist) + `" AND recording:"` + luceneEscape(title) + `"`
	params := url.Values{
		"query": {q},
		"fmt":   {"json"},
		"limit": {"10"},
		"inc":   {"artist-credits+releases+genres+tags"},
	}
	reqURL := a.baseURL + "/recording?" + params.Encode()

	var resp recordingSearchResponse
	if err := a.client.GetJSON(ctx, catalog.NameMusicBrainz, reqURL, &resp); err != nil {
		return nil, err
	}

	wantArtist := normalize.Key(scoreArtist)
	candidates := make([]match.Candidate, 0, len(resp.Recordings))
	for _, rec := range resp.Recordings {
		candidates = append(candidates, match.Candidate{
			Title:       rec.Title,
			SourceScore: rec.Score,
			Aux:         creditMatches(rec.ArtistCredit, wantArtist),
		})
	}

	idx, score := match.SelectBest(scoreArtist, title, candidates, match.RecordingWeights)
	if idx < 0 {
		a.logger.Debug("recording rejected",
			slog.String("artist", queryArtist),
			slog.String("title", title),
			slog.Float64("best_score", score))
		return nil, &catalog.ErrNotFound{
			Source: catalog.NameMusicBrainz,
			Query:  queryArtist + " - " + title,
		}
	}
	return &resp.Recordings[idx], nil
}

// fetchTrackDetail looks up the release and returns the queried recording's
// track position and length. Failures are soft: the caller keeps whatever
// it already has.
func (a *Adapter) fetchTrackDetail(ctx context.Context, releaseID, recordingID string) (position, length int, ok bool) {
	params := url.Values{
		"fmt": {"json"},
		"inc": {"recordings+media"},
	}
	reqURL := a.baseURL + "/release/" + url.PathEscape(releaseID) + "?" + params.Encode()

	var detail releaseDetailResponse
	if err := a.client.GetJSON(ctx, catalog.NameMusicBrainz, reqURL, &detail); err != nil {
		return 0, 0, false
	}

	for _, medium := range detail.Media {
		for _, track := range medium.Tracks {
			if track.Recording != nil && track.Recording.ID == recordingID {
				return track.Position, track.Length, true
			}
		}
	}
	return 0, 0, false
}

// fetchArtistArea returns the artist's ISO country code from their area or
// begin-area. Failures are soft.
func (a *Adapter) fetchArtistArea(ctx context.Context, mbid string) (string, bool) {
	params := url.Values{
		"fmt": {"json"},
		"inc": {"area+begin-area"},
	}
	reqURL := a.baseURL + "/artist/" + url.PathEscape(mbid) + "?" + params.Encode()

	var detail artistDetailResponse
	if err := a.client.GetJSON(ctx, catalog.NameMusicBrainz, reqURL, &detail); err != nil {
		return "", false
	}

	if code := areaCode(detail.Area); code != "" {
		return code, true
	}
	if code := areaCode(detail.BeginArea); code != "" {
		return code, true
	}
	return "", false
}

func areaCode(area *mbArea) string {
	if area == nil || len(area.ISOCodes) == 0 {
		return ""
	}
	return area.ISOCodes[0]
}

// creditMatches reports whether any artist credit on a recording is close
// enough to the queried artist key.
func creditMatches(credits []mbArtistCredit, wantArtist string) bool {
	for _, credit := range credits {
		name := credit.Name
		if name == "" && credit.Artist != nil {
			name = credit.Artist.Name
		}
		if match.Similarity(normalize.Key(name), wantArtist) > artistHitSimilarity {
			return true
		}
	}
	return false
}

// genreFromRecording prefers the genres array (the curated system) and
// falls back to the most-voted tag.
func genreFromRecording(rec *mbRecording) string {
	if len(rec.Genres) > 0 && rec.Genres[0].Name != "" {
		return rec.Genres[0].Name
	}
	best := ""
	bestCount := 0
	for _, tag := range rec.Tags {
		if tag.Name != "" && tag.Count > bestCount {
			best, bestCount = tag.Name, tag.Count
		}
	}
	return best
}

// collectWriters adds songwriter names from artist relations into names.
func collectWriters(names map[string]string, relations []mbRelation) {
	for _, rel := range relations {
		if !writerRoles[rel.Type] || rel.Artist == nil {
			continue
		}
		name := strings.TrimSpace(rel.Artist.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, seen := names[key]; !seen {
			names[key] = name
		}
	}
}

// pickEarliestRelease returns the release with the earliest date; unknown
// date parts sort last, so a dated release always beats an undated one.
func pickEarliestRelease(releases []mbRelease) *mbRelease {
	if len(releases) == 0 {
		return nil
	}
	best := 0
	bestKey := dateSortKey(releases[0].Date)
	for i := 1; i < len(releases); i++ {
		if key := dateSortKey(releases[i].Date); key < bestKey {
			best, bestKey = i, key
		}
	}
	return &releases[best]
}

// dateSortKey converts "YYYY", "YYYY-MM" or "YYYY-MM-DD" into a comparable
// integer; missing parts count as the end of the period.
func dateSortKey(date string) int {
	year, month, day := 9999, 12, 31
	parts := strings.SplitN(date, "-", 3)
	if len(parts) > 0 {
		if y, err := strconv.Atoi(parts[0]); err == nil {
			year = y
		}
	}
	if len(parts) > 1 {
		if m, err := strconv.Atoi(parts[1]); err == nil {
			month = m
		}
	}
	if len(parts) > 2 {
		if d, err := strconv.Atoi(parts[2]); err == nil {
			day = d
		}
	}
	return year*10000 + month*100 + day
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// luceneEscape keeps user text from breaking out of a quoted Lucene term.
func luceneEscape(s string) string {
	return strings.ReplaceAll(s, `"`, `'`)
}

func primaryArtistID(rec *mbRecording) string {
	if len(rec.ArtistCredit) == 0 || rec.ArtistCredit[0].Artist == nil {
		return ""
	}
	return rec.ArtistCredit[0].Artist.ID
}
