package enrich

import (
	"github.com/sydlexius/airwave/internal/catalog"
	"github.com/sydlexius/airwave/internal/playlist"
)

// applyTrackMeta merges fetched metadata into a record. Only fields that
// are unset or not-found are written; a resolved field is never downgraded
// or replaced, so the first source to resolve a field wins and later
// sources only fill gaps. It returns whether anything changed and whether
// at least one genuine (non-placeholder) value was written.
func applyTrackMeta(rec *playlist.TrackRecord, meta *catalog.TrackMetadata) (changed, real bool) {
	if !rec.Year.IsResolved() && meta.Year != 0 {
		rec.Year = playlist.ResolvedField(meta.Year)
		changed, real = true, true
	}
	if !rec.DurationMS.IsResolved() && meta.DurationMS != 0 {
		rec.DurationMS = playlist.ResolvedField(meta.DurationMS)
		changed, real = true, true
	}
	if !rec.Genre.IsResolved() && meta.Genre != "" {
		rec.Genre = playlist.ResolvedField(meta.Genre)
		changed, real = true, true
	}
	if !rec.Album.IsResolved() && meta.Album != "" {
		rec.Album = playlist.ResolvedField(meta.Album)
		changed, real = true, true
	}
	if !rec.TrackNumber.IsResolved() && meta.TrackNumber != 0 {
		rec.TrackNumber = playlist.ResolvedField(meta.TrackNumber)
		changed, real = true, true
	}
	if !rec.CountryCode.IsResolved() && meta.CountryCode != "" {
		rec.CountryCode = playlist.ResolvedField(meta.CountryCode)
		changed, real = true, true
	}
	return changed, real
}

// applyCountry merges a resolved country code into the record.
func applyCountry(rec *playlist.TrackRecord, code string) (changed, real bool) {
	if code == "" || rec.CountryCode.IsResolved() {
		return false, false
	}
	rec.CountryCode = playlist.ResolvedField(code)
	return true, true
}

// applySongwriters merges resolved songwriter credits into the record.
func applySongwriters(rec *playlist.TrackRecord, names []string) (changed, real bool) {
	if len(names) == 0 || rec.Songwriters.IsResolved() {
		return false, false
	}
	rec.Songwriters = playlist.ResolvedField(names)
	return true, true
}

// stampNotFound marks every still-unset enrichable field as not-found, so
// later runs can tell "tried and failed" from "never attempted". Fields
// already not-found or resolved are left alone.
func stampNotFound(rec *playlist.TrackRecord) bool {
	changed := false
	if rec.Year.State() == playlist.Unset {
		rec.Year = playlist.NotFoundField[int]()
		changed = true
	}
	if rec.DurationMS.State() == playlist.Unset {
		rec.DurationMS = playlist.NotFoundField[int]()
		changed = true
	}
	if rec.Genre.State() == playlist.Unset {
		rec.Genre = playlist.NotFoundField[string]()
		changed = true
	}
	if rec.Album.State() == playlist.Unset {
		rec.Album = playlist.NotFoundField[string]()
		changed = true
	}
	if rec.TrackNumber.State() == playlist.Unset {
		rec.TrackNumber = playlist.NotFoundField[int]()
		changed = true
	}
	if rec.CountryCode.State() == playlist.Unset {
		rec.CountryCode = playlist.NotFoundField[string]()
		changed = true
	}
	if rec.Songwriters.State() == playlist.Unset {
		rec.Songwriters = playlist.NotFoundField[[]string]()
		changed = true
	}
	return changed
}

// hasAllTrackMeta reports whether every field the primary catalog serves is
// already resolved, in which case its lookup can be skipped entirely.
func hasAllTrackMeta(rec *playlist.TrackRecord) bool {
	return rec.Year.IsResolved() &&
		rec.DurationMS.IsResolved() &&
		rec.Genre.IsResolved() &&
		rec.Album.IsResolved() &&
		rec.TrackNumber.IsResolved()
}
