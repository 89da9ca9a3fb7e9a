// Package playlist defines the played-track record model and its JSON store.
//
// Enrichable fields are tri-state: unset (never attempted), not-found
// (attempted, no answer) and resolved (concrete value). On disk the three
// states map to a missing key, an explicit null, and a value. Older files
// written with the literal "Not found" sentinel, a legacy "artist_country"
// key, or empty songwriter lists are migrated on load.
package playlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// State describes the lifecycle of one enrichable field.
type State int

const (
	// Unset means enrichment has never been attempted for the field.
	Unset State = iota
	// NotFound means enrichment was attempted and produced no answer.
	NotFound
	// Resolved means the field holds a genuine, trusted value.
	Resolved
)

// Field is a tri-state enrichable attribute. The zero value is Unset.
type Field[T any] struct {
	state State
	value T
}

// ResolvedField returns a Field holding a concrete value.
func ResolvedField[T any](v T) Field[T] {
	return Field[T]{state: Resolved, value: v}
}

// NotFoundField returns a Field in the attempted-but-unanswered state.
func NotFoundField[T any]() Field[T] {
	return Field[T]{state: NotFound}
}

// State returns the field's lifecycle state.
func (f Field[T]) State() State { return f.state }

// Value returns the resolved value; meaningful only when State is Resolved.
func (f Field[T]) Value() T { return f.value }

// IsResolved reports whether the field holds a genuine value.
func (f Field[T]) IsResolved() bool { return f.state == Resolved }

// IsSet reports whether enrichment has been attempted (resolved or not-found).
func (f Field[T]) IsSet() bool { return f.state != Unset }

// TrackRecord is one playlist entry. Identity fields come from the scrape
// and are immutable; enrichable fields are filled by enrichment passes and,
// once resolved, are never downgraded or overwritten.
type TrackRecord struct {
	Title     string
	Artist    string
	Date      string // DD.MM.YYYY
	Time      string // HH:MM
	PlayedAt  string // ISO-8601 with zone, may be empty
	TrackURL  string
	SourceURL string

	Year        Field[int]
	DurationMS  Field[int]
	Genre       Field[string]
	Album       Field[string]
	TrackNumber Field[int]
	CountryCode Field[string] // ISO 3166-1 alpha-2
	Songwriters Field[[]string]
}

// HasIdentity reports whether both identity strings needed for lookups are
// present.
func (r *TrackRecord) HasIdentity() bool {
	return strings.TrimSpace(r.Artist) != "" && strings.TrimSpace(r.Title) != ""
}

// UniqueKey identifies a played-track event for deduplication.
func (r *TrackRecord) UniqueKey() string {
	return fmt.Sprintf("%s %s | %s | %s", r.Date, r.Time, r.Artist, r.Title)
}

// PlayedTime parses the record's date and time. The second return value is
// false when either is missing or malformed.
func (r *TrackRecord) PlayedTime() (time.Time, bool) {
	t, err := time.Parse("02.01.2006 15:04", r.Date+" "+r.Time)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type recordJSON struct {
	Title       string          `json:"title"`
	Artist      string          `json:"artist"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	PlayedAt    string          `json:"played_at_iso,omitempty"`
	TrackURL    string          `json:"track_url,omitempty"`
	SourceURL   string          `json:"source_url,omitempty"`
	Year        json.RawMessage `json:"year,omitempty"`
	DurationMS  json.RawMessage `json:"duration_ms,omitempty"`
	Genre       json.RawMessage `json:"genre,omitempty"`
	Album       json.RawMessage `json:"album,omitempty"`
	TrackNumber json.RawMessage `json:"track_number,omitempty"`
	CountryCode json.RawMessage `json:"artist_country_code,omitempty"`
	Songwriters json.RawMessage `json:"songwriters,omitempty"`

	// Legacy field name, read-only; migrated into artist_country_code.
	LegacyCountry json.RawMessage `json:"artist_country,omitempty"`
}

// MarshalJSON serializes the record with tri-state field encoding: unset
// fields are omitted, not-found fields are null, resolved fields carry the
// value.
func (r *TrackRecord) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Title:     r.Title,
		Artist:    r.Artist,
		Date:      r.Date,
		Time:      r.Time,
		PlayedAt:  r.PlayedAt,
		TrackURL:  r.TrackURL,
		SourceURL: r.SourceURL,
	}

	var err error
	if out.Year, err = encodeField(r.Year); err != nil {
		return nil, err
	}
	if out.DurationMS, err = encodeField(r.DurationMS); err != nil {
		return nil, err
	}
	if out.Genre, err = encodeField(r.Genre); err != nil {
		return nil, err
	}
	if out.Album, err = encodeField(r.Album); err != nil {
		return nil, err
	}
	if out.TrackNumber, err = encodeField(r.TrackNumber); err != nil {
		return nil, err
	}
	if out.CountryCode, err = encodeField(r.CountryCode); err != nil {
		return nil, err
	}
	if out.Songwriters, err = encodeField(r.Songwriters); err != nil {
		return nil, err
	}

	return json.Marshal(out)
}

// UnmarshalJSON deserializes a record, migrating legacy forms on the way in.
func (r *TrackRecord) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	r.Title = in.Title
	r.Artist = in.Artist
	r.Date = in.Date
	r.Time = in.Time
	r.PlayedAt = in.PlayedAt
	r.TrackURL = in.TrackURL
	r.SourceURL = in.SourceURL

	r.Year = decodeIntField(in.Year)
	r.DurationMS = decodeIntField(in.DurationMS)
	r.Genre = decodeStringField(in.Genre)
	r.Album = decodeStringField(in.Album)
	r.TrackNumber = decodeIntField(in.TrackNumber)
	r.CountryCode = decodeStringField(in.CountryCode)
	r.Songwriters = decodeStringsField(in.Songwriters)

	// Migrate the pre-rename country field when the new one is absent.
	if !r.CountryCode.IsSet() && in.LegacyCountry != nil {
		r.CountryCode = decodeStringField(in.LegacyCountry)
	}

	return nil
}

var nullJSON = []byte("null")

func encodeField[T any](f Field[T]) (json.RawMessage, error) {
	switch f.state {
	case Unset:
		return nil, nil
	case NotFound:
		return nullJSON, nil
	default:
		return json.Marshal(f.value)
	}
}

// isNotFoundText reports whether raw is the legacy "Not found" string
// sentinel, which older runs mixed in with real values.
func isNotFoundText(raw json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(s), "not found")
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), nullJSON)
}

func decodeIntField(raw json.RawMessage) Field[int] {
	if raw == nil {
		return Field[int]{}
	}
	if isNull(raw) || isNotFoundText(raw) {
		return NotFoundField[int]()
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return ResolvedField(n)
	}
	// Some legacy files carried numbers as digit strings.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return ResolvedField(n)
		}
	}
	return NotFoundField[int]()
}

func decodeStringField(raw json.RawMessage) Field[string] {
	if raw == nil {
		return Field[string]{}
	}
	if isNull(raw) || isNotFoundText(raw) {
		return NotFoundField[string]()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
		return NotFoundField[string]()
	}
	return ResolvedField(s)
}

func decodeStringsField(raw json.RawMessage) Field[[]string] {
	if raw == nil {
		return Field[[]string]{}
	}
	if isNull(raw) || isNotFoundText(raw) {
		return NotFoundField[[]string]()
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return NotFoundField[[]string]()
	}
	// Legacy runs wrote empty lists where they meant "no answer".
	if len(list) == 0 {
		return NotFoundField[[]string]()
	}
	return ResolvedField(list)
}
