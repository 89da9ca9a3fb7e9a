package cache

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/sydlexius/airwave/internal/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func TestGetAbsentByDefault(t *testing.T) {
	store := NewStore(openTestDB(t), false)
	if _, state := store.Get(NSITunes, "abba|dancing queen"); state != Absent {
		t.Fatalf("state = %v, want Absent", state)
	}
}

func TestPutMissRoundTrip(t *testing.T) {
	store := NewStore(openTestDB(t), false)
	store.PutMiss(NSITunes, "nobody|nothing")
	if _, state := store.Get(NSITunes, "nobody|nothing"); state != Miss {
		t.Fatalf("state = %v, want Miss", state)
	}
}

func TestPutResolvedRoundTrip(t *testing.T) {
	store := NewStore(openTestDB(t), false)

	type payload struct {
		Year int `json:"year"`
	}
	if err := store.PutResolved(NSITunes, "abba|dancing queen", payload{Year: 1976}); err != nil {
		t.Fatalf("PutResolved: %v", err)
	}

	var got payload
	ok, err := store.Resolve(NSITunes, "abba|dancing queen", &got)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !ok || got.Year != 1976 {
		t.Fatalf("Resolve = (%v, %+v), want resolved year 1976", ok, got)
	}
}

func TestResolvedEmptyIsNotMiss(t *testing.T) {
	// "The catalog matched and the answer is nothing" must survive as a
	// resolved entry, not degrade into a retryable miss.
	store := NewStore(openTestDB(t), false)

	if err := store.PutResolved(NSArtistCountry, "some artist", ""); err != nil {
		t.Fatalf("PutResolved: %v", err)
	}

	_, state := store.Get(NSArtistCountry, "some artist")
	if state != Resolved {
		t.Fatalf("state = %v, want Resolved for confirmed-empty", state)
	}

	var code string
	ok, err := store.Resolve(NSArtistCountry, "some artist", &code)
	if err != nil || !ok {
		t.Fatalf("Resolve = (%v, %v), want (true, nil)", ok, err)
	}
	if code != "" {
		t.Errorf("code = %q, want empty", code)
	}
}

func TestForceTreatsMissAsAbsent(t *testing.T) {
	db := openTestDB(t)

	store := NewStore(db, false)
	store.PutMiss(NSITunes, "k")
	if err := store.PutResolved(NSMBTrack, "k", map[string]int{"year": 1999}); err != nil {
		t.Fatalf("PutResolved: %v", err)
	}

	forced := NewStore(db, true)
	forced.entries = store.entries // same in-memory content

	if _, state := forced.Get(NSITunes, "k"); state != Absent {
		t.Errorf("forced miss state = %v, want Absent", state)
	}
	if _, state := forced.Get(NSMBTrack, "k"); state != Resolved {
		t.Errorf("forced resolved state = %v, want Resolved (never re-fetched)", state)
	}
}

func TestFlushAndReload(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	store := NewStore(db, false)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	store.PutMiss(NSSongwriters, "a|b")
	if err := store.PutResolved(NSSongwriters, "c|d", []string{"B. Andersson", "B. Ulvaeus"}); err != nil {
		t.Fatalf("PutResolved: %v", err)
	}
	if err := store.PutResolved(NSSongwriters, "e|f", []string{}); err != nil {
		t.Fatalf("PutResolved empty: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reloaded := NewStore(db, false)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if _, state := reloaded.Get(NSSongwriters, "a|b"); state != Miss {
		t.Errorf("a|b state = %v, want Miss", state)
	}

	var names []string
	ok, err := reloaded.Resolve(NSSongwriters, "c|d", &names)
	if err != nil || !ok {
		t.Fatalf("Resolve c|d = (%v, %v)", ok, err)
	}
	if len(names) != 2 || names[0] != "B. Andersson" {
		t.Errorf("names = %v", names)
	}

	// Confirmed-empty writer list survives the round trip as Resolved.
	if _, state := reloaded.Get(NSSongwriters, "e|f"); state != Resolved {
		t.Errorf("e|f state = %v, want Resolved", state)
	}
}

func TestFlushUpsertsExistingKey(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := NewStore(db, false)
	first.PutMiss(NSITunes, "k")
	if err := first.Flush(ctx); err != nil {
		t.Fatalf("first Flush: %v", err)
	}

	second := NewStore(db, true)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := second.PutResolved(NSITunes, "k", map[string]int{"year": 2001}); err != nil {
		t.Fatalf("PutResolved: %v", err)
	}
	if err := second.Flush(ctx); err != nil {
		t.Fatalf("second Flush: %v", err)
	}

	third := NewStore(db, false)
	if err := third.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, state := third.Get(NSITunes, "k"); state != Resolved {
		t.Fatalf("state = %v, want Resolved after upgrade from miss", state)
	}
}

func TestNamespacesAreIndependent(t *testing.T) {
	store := NewStore(openTestDB(t), false)
	store.PutMiss(NSITunes, "k")
	if _, state := store.Get(NSMBTrack, "k"); state != Absent {
		t.Fatalf("state = %v, want Absent in the other namespace", state)
	}
}
