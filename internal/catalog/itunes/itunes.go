// Package itunes adapts the iTunes Search API as a track metadata catalog.
package itunes

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/sydlexius/airwave/internal/catalog"
)

const defaultBaseURL = "https://itunes.apple.com"

// Adapter queries the iTunes Search API. No authentication is required.
type Adapter struct {
	client  *catalog.Client
	logger  *slog.Logger
	baseURL string
	country string
}

// New creates an iTunes adapter with the default base URL. The country is
// the two-letter storefront code searches run against.
func New(client *catalog.Client, logger *slog.Logger, country string) *Adapter {
	return NewWithBaseURL(client, logger, country, defaultBaseURL)
}

// NewWithBaseURL creates an iTunes adapter with a custom base URL (for testing).
func NewWithBaseURL(client *catalog.Client, logger *slog.Logger, country, baseURL string) *Adapter {
	return &Adapter{
		client:  client,
		logger:  logger.With(slog.String("source", "itunes")),
		baseURL: strings.TrimRight(baseURL, "/"),
		country: country,
	}
}

// Name returns the source identifier.
func (a *Adapter) Name() catalog.SourceName { return catalog.NameITunes }

// SearchTrack searches the song catalog for "artist title" and returns raw
// candidates. Candidate selection is the caller's job; iTunes supplies no
// relevance score of its own.
func (a *Adapter) SearchTrack(ctx context.Context, artist, title string) ([]catalog.TrackCandidate, error) {
	params := url.Values{
		"term":    {artist + " " + title},
		"country": {a.country},
		"media":   {"music"},
		"entity":  {"song"},
		"limit":   {"5"},
	}
	reqURL := a.baseURL + "/search?" + params.Encode()

	var resp searchResponse
	if err := a.client.GetJSON(ctx, catalog.NameITunes, reqURL, &resp); err != nil {
		return nil, err
	}

	candidates := make([]catalog.TrackCandidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		candidates = append(candidates, catalog.TrackCandidate{
			Artist:      r.ArtistName,
			Title:       r.TrackName,
			SourceScore: -1,
			Meta: catalog.TrackMetadata{
				Year:        releaseYear(r.ReleaseDate),
				DurationMS:  r.TrackTimeMillis,
				Genre:       r.PrimaryGenreName,
				Album:       r.CollectionName,
				TrackNumber: r.TrackNumber,
			},
		})
	}

	a.logger.Debug("track search completed",
		slog.String("artist", artist),
		slog.String("title", title),
		slog.Int("results", len(candidates)))

	return candidates, nil
}

// releaseYear extracts the year from an ISO release date like
// "1974-03-04T08:00:00Z". Returns 0 when absent or malformed.
func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}
