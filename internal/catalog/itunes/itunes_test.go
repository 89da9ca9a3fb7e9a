package itunes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sydlexius/airwave/internal/catalog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) (*Adapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := catalog.NewClient(
		catalog.NewRateLimiterMap(map[catalog.SourceName]time.Duration{}),
		catalog.NewBudgetMap(map[catalog.SourceName]int{}),
		testLogger(),
		"airwave-test/1.0",
	)
	return NewWithBaseURL(client, testLogger(), "sk", server.URL), server
}

func serveFixture(t *testing.T, name string) http.HandlerFunc {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data) //nolint:errcheck
	}
}

func TestSearchTrack(t *testing.T) {
	var gotQuery map[string]string
	fixture := serveFixture(t, "search_dancing_queen.json")
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"term":    q.Get("term"),
			"country": q.Get("country"),
			"media":   q.Get("media"),
			"entity":  q.Get("entity"),
			"limit":   q.Get("limit"),
		}
		fixture(w, r)
	})

	candidates, err := adapter.SearchTrack(context.Background(), "ABBA", "Dancing Queen")
	if err != nil {
		t.Fatalf("SearchTrack: %v", err)
	}

	if gotQuery["term"] != "ABBA Dancing Queen" {
		t.Errorf("term = %q", gotQuery["term"])
	}
	if gotQuery["country"] != "sk" || gotQuery["media"] != "music" || gotQuery["entity"] != "song" || gotQuery["limit"] != "5" {
		t.Errorf("query = %v", gotQuery)
	}

	if len(candidates) != 3 {
		t.Fatalf("len = %d, want 3", len(candidates))
	}

	first := candidates[0]
	if first.Artist != "ABBA" || first.Title != "Dancing Queen" {
		t.Errorf("first = %+v", first)
	}
	if first.SourceScore != -1 {
		t.Errorf("SourceScore = %d, want -1 (iTunes supplies none)", first.SourceScore)
	}
	if first.Meta.Year != 1976 {
		t.Errorf("year = %d, want 1976", first.Meta.Year)
	}
	if first.Meta.DurationMS != 230893 || first.Meta.Album != "Arrival" || first.Meta.Genre != "Pop" || first.Meta.TrackNumber != 2 {
		t.Errorf("meta = %+v", first.Meta)
	}
	if first.Meta.CountryCode != "" {
		t.Errorf("country = %q, iTunes never supplies one", first.Meta.CountryCode)
	}
}

func TestSearchTrackEmptyResult(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resultCount":0,"results":[]}`)) //nolint:errcheck
	})

	candidates, err := adapter.SearchTrack(context.Background(), "Nobody", "Nothing")
	if err != nil {
		t.Fatalf("SearchTrack: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("len = %d, want 0", len(candidates))
	}
}

func TestSearchTrackServerError(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	})

	_, err := adapter.SearchTrack(context.Background(), "ABBA", "Dancing Queen")
	var unavailable *catalog.ErrSourceUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	if unavailable.Source != catalog.NameITunes {
		t.Errorf("source = %q", unavailable.Source)
	}
}

func TestSearchTrackBudgetExhausted(t *testing.T) {
	server := httptest.NewServer(serveFixture(t, "search_dancing_queen.json"))
	t.Cleanup(server.Close)

	client := catalog.NewClient(
		catalog.NewRateLimiterMap(map[catalog.SourceName]time.Duration{}),
		catalog.NewBudgetMap(map[catalog.SourceName]int{catalog.NameITunes: 1}),
		testLogger(),
		"airwave-test/1.0",
	)
	adapter := NewWithBaseURL(client, testLogger(), "sk", server.URL)

	if _, err := adapter.SearchTrack(context.Background(), "ABBA", "Dancing Queen"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, err := adapter.SearchTrack(context.Background(), "ABBA", "Waterloo")
	if !errors.Is(err, catalog.ErrBudgetExhausted) {
		t.Fatalf("err = %v, want ErrBudgetExhausted", err)
	}
}

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"1976-08-15T07:00:00Z", 1976},
		{"2024", 2024},
		{"", 0},
		{"bad", 0},
	}
	for _, tt := range tests {
		if got := releaseYear(tt.input); got != tt.want {
			t.Errorf("releaseYear(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
