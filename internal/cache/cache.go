// Package cache is the durable lookup cache shared by enrichment runs.
//
// Every key is in one of three states: absent (never tried), miss (tried,
// the catalog had no acceptable answer) and resolved (a concrete payload).
// A resolved payload may be an empty value — "the catalog matched, and the
// answer is genuinely nothing" — which is deliberately distinct from a
// miss so confirmed-empty results are never retried.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// State is the lookup state of one cache key.
type State int

const (
	// Absent means the key has never been looked up.
	Absent State = iota
	// Miss means a lookup ran and found nothing acceptable.
	Miss
	// Resolved means a lookup succeeded and the payload is authoritative.
	Resolved
)

// Namespace separates the independent lookup maps sharing one store.
type Namespace string

// Cache namespaces, one per metadata class.
const (
	NSITunes        Namespace = "itunes"         // norm(artist)|norm(title) -> track metadata
	NSMBTrack       Namespace = "mb_track"       // norm(artist)|norm(title) -> track metadata
	NSArtistCountry Namespace = "artist_country" // norm(artist) -> ISO code ("" = matched, no country)
	NSSongwriters   Namespace = "songwriters"    // norm(artist)|norm(title) -> names ([] = matched, none credited)
)

type entry struct {
	payload json.RawMessage
	miss    bool
	dirty   bool
}

// Store is the in-memory working copy of the cache for one run, loaded from
// SQLite at start and flushed back at the end. It assumes a single-threaded
// run; concurrent callers must serialize access themselves.
type Store struct {
	db      *sql.DB
	force   bool
	entries map[Namespace]map[string]*entry
}

// NewStore creates a Store over an opened, migrated database. With force
// set, miss entries are reported as absent so previously failed lookups are
// re-attempted; resolved entries are still served from cache.
func NewStore(db *sql.DB, force bool) *Store {
	return &Store{
		db:      db,
		force:   force,
		entries: make(map[Namespace]map[string]*entry),
	}
}

// Load reads the whole cache into memory.
func (s *Store) Load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT namespace, key, payload, miss FROM lookup_cache`)
	if err != nil {
		return fmt.Errorf("loading lookup cache: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var (
			ns      string
			key     string
			payload sql.NullString
			miss    bool
		)
		if err := rows.Scan(&ns, &key, &payload, &miss); err != nil {
			return fmt.Errorf("scanning cache row: %w", err)
		}
		e := &entry{miss: miss}
		if payload.Valid {
			e.payload = json.RawMessage(payload.String)
		}
		s.bucket(Namespace(ns))[key] = e
	}
	return rows.Err()
}

// Get returns the payload and state for a key. Payload is non-nil only in
// the Resolved state.
func (s *Store) Get(ns Namespace, key string) (json.RawMessage, State) {
	e, ok := s.bucket(ns)[key]
	if !ok {
		return nil, Absent
	}
	if e.miss {
		if s.force {
			return nil, Absent
		}
		return nil, Miss
	}
	return e.payload, Resolved
}

// Resolve unmarshals a resolved payload into out. It reports false when the
// key is not in the Resolved state.
func (s *Store) Resolve(ns Namespace, key string, out any) (bool, error) {
	payload, state := s.Get(ns, key)
	if state != Resolved {
		return false, nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("decoding cache entry %s/%s: %w", ns, key, err)
	}
	return true, nil
}

// PutMiss records that a lookup ran and found nothing acceptable.
func (s *Store) PutMiss(ns Namespace, key string) {
	s.bucket(ns)[key] = &entry{miss: true, dirty: true}
}

// PutResolved records a successful lookup result.
func (s *Store) PutResolved(ns Namespace, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s/%s: %w", ns, key, err)
	}
	s.bucket(ns)[key] = &entry{payload: payload, dirty: true}
	return nil
}

// Flush writes all entries modified during this run back to the database in
// one transaction.
func (s *Store) Flush(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cache flush: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lookup_cache (namespace, key, payload, miss, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT (namespace, key) DO UPDATE SET
			payload = excluded.payload,
			miss = excluded.miss,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing cache flush: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for ns, bucket := range s.entries {
		for key, e := range bucket {
			if !e.dirty {
				continue
			}
			var payload any
			if e.payload != nil {
				payload = string(e.payload)
			}
			if _, err := stmt.ExecContext(ctx, string(ns), key, payload, e.miss); err != nil {
				return fmt.Errorf("flushing cache entry %s/%s: %w", ns, key, err)
			}
		}
	}

	return tx.Commit()
}

// Len returns the number of entries in a namespace.
func (s *Store) Len(ns Namespace) int {
	return len(s.bucket(ns))
}

func (s *Store) bucket(ns Namespace) map[string]*entry {
	b, ok := s.entries[ns]
	if !ok {
		b = make(map[string]*entry)
		s.entries[ns] = b
	}
	return b
}
