// Package catalog defines the contract between the enrichment engine and
// the external music catalogs it queries: candidate and metadata types,
// typed errors, per-source rate limiting, per-run lookup budgets and a
// shared HTTP helper with bounded retry.
package catalog

import (
	"errors"
	"fmt"
)

// SourceName uniquely identifies an external catalog.
type SourceName string

// Known catalog sources.
const (
	NameITunes      SourceName = "itunes"
	NameMusicBrainz SourceName = "musicbrainz"
)

// DisplayName returns a human-readable name for the source.
func (n SourceName) DisplayName() string {
	switch n {
	case NameITunes:
		return "iTunes"
	case NameMusicBrainz:
		return "MusicBrainz"
	default:
		return string(n)
	}
}

// TrackMetadata is the enrichable metadata one catalog can supply for a
// track. Zero values mean the catalog had nothing for that field.
type TrackMetadata struct {
	Year        int    `json:"year,omitempty"`
	DurationMS  int    `json:"duration_ms,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Album       string `json:"album,omitempty"`
	TrackNumber int    `json:"track_number,omitempty"`
	CountryCode string `json:"artist_country_code,omitempty"`
}

// Empty reports whether the catalog supplied no field at all.
func (m *TrackMetadata) Empty() bool {
	return m.Year == 0 && m.DurationMS == 0 && m.Genre == "" &&
		m.Album == "" && m.TrackNumber == 0 && m.CountryCode == ""
}

// TrackCandidate is one raw hit from a track search, carrying the strings
// the scorer compares and the metadata applied if the hit is accepted.
type TrackCandidate struct {
	Artist      string
	Title       string
	SourceScore int // catalog relevance 0-100, -1 when the catalog has none
	Meta        TrackMetadata
}

// ErrBudgetExhausted gates outbound calls once a source's per-run lookup
// budget is spent. It is a normal termination condition, not a failure, and
// callers must not record a cache miss for lookups it suppressed.
var ErrBudgetExhausted = errors.New("lookup budget exhausted")

// ErrSourceUnavailable indicates a transient failure (network error,
// rate-limited, server error) talking to a catalog.
type ErrSourceUnavailable struct {
	Source SourceName
	Cause  error
}

func (e *ErrSourceUnavailable) Error() string {
	return fmt.Sprintf("catalog %s unavailable: %v", e.Source, e.Cause)
}

func (e *ErrSourceUnavailable) Unwrap() error { return e.Cause }

// ErrNotFound indicates the catalog answered but had no acceptable match.
type ErrNotFound struct {
	Source SourceName
	Query  string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("catalog %s: no match for %q", e.Source, e.Query)
}

// IsNotFound reports whether err is a catalog no-match error.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}
