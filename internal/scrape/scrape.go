// Package scrape fetches and parses the station's public playlist page.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/sydlexius/airwave/internal/config"
	"github.com/sydlexius/airwave/internal/playlist"
)

const (
	fetchTimeout     = 45 * time.Second
	fetchRetries     = 4
	fetchRetryWait   = 2 * time.Second
	fetchMaxWait     = 30 * time.Second
	fetchJitterCeil  = 1500 * time.Millisecond
	playedTimeLayout = "02.01.2006 15:04"
	dateLayout       = "02.01.2006"
)

// Scraper downloads the playlist page and turns it into track records.
type Scraper struct {
	client *resty.Client
	cfg    config.ScrapeConfig
	logger *slog.Logger
	loc    *time.Location

	// Injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a Scraper for the configured hosts.
func New(cfg config.ScrapeConfig, logger *slog.Logger) (*Scraper, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}

	client := resty.New().
		SetTimeout(fetchTimeout).
		SetRetryCount(fetchRetries).
		SetRetryWaitTime(fetchRetryWait).
		SetRetryMaxWaitTime(fetchMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		}).
		SetHeaders(map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "sk-SK,sk;q=0.9,en;q=0.8",
			"Referer":         cfg.Hosts[0] + "/",
		})

	return &Scraper{
		client: client,
		cfg:    cfg,
		logger: logger,
		loc:    loc,
		now:    time.Now,
		sleep:  time.Sleep,
	}, nil
}

// primaryURL is the canonical playlist URL used for source attribution and
// for resolving relative track links, regardless of which host answered.
func (s *Scraper) primaryURL() string {
	return s.cfg.Hosts[0] + s.cfg.PlaylistPath
}

// Fetch downloads the playlist page, trying each configured host in order.
// A short random delay spreads scheduled runs so they do not all hit the
// server in the same second.
func (s *Scraper) Fetch(ctx context.Context) (string, error) {
	s.sleep(time.Duration(rand.Int63n(int64(fetchJitterCeil))))

	var lastErr error
	for _, host := range s.cfg.Hosts {
		pageURL := host + s.cfg.PlaylistPath
		resp, err := s.client.R().SetContext(ctx).Get(pageURL)
		if err != nil {
			lastErr = fmt.Errorf("fetching %s: %w", pageURL, err)
			s.logger.Warn("playlist fetch failed, trying next host",
				slog.String("url", pageURL),
				slog.Any("error", err))
			continue
		}
		if !resp.IsSuccess() {
			lastErr = fmt.Errorf("fetching %s: unexpected status %d", pageURL, resp.StatusCode())
			s.logger.Warn("playlist fetch returned error status, trying next host",
				slog.String("url", pageURL),
				slog.Int("status", resp.StatusCode()))
			continue
		}
		return resp.String(), nil
	}
	return "", lastErr
}

// Parse extracts track records from the playlist page HTML. An empty result
// with a nil error means the page rendered without the playlist table,
// which usually signals a markup change worth investigating.
func (s *Scraper) Parse(html string) ([]*playlist.TrackRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing playlist page: %w", err)
	}

	table := doc.Find("#playlist_table")
	if table.Length() == 0 {
		return nil, nil
	}

	base, err := url.Parse(s.primaryURL())
	if err != nil {
		return nil, fmt.Errorf("parsing playlist url: %w", err)
	}

	var records []*playlist.TrackRecord
	table.Find("div.row.data").Each(func(_ int, row *goquery.Selection) {
		a := row.Find("a.block.columngroup.datum_cas_skladba").First()
		if a.Length() == 0 {
			a = row.Find("a").First()
		}
		if a.Length() == 0 {
			return
		}

		date := s.normalizeDate(text(a.Find("span.datum")))
		timeHM := text(a.Find("span.cas"))

		rec := &playlist.TrackRecord{
			Title:     text(a.Find("span.titul")),
			Artist:    text(a.Find("span.interpret")),
			Date:      date,
			Time:      timeHM,
			SourceURL: s.primaryURL(),
		}

		if href, ok := a.Attr("href"); ok && href != "" {
			if ref, err := url.Parse(href); err == nil {
				rec.TrackURL = base.ResolveReference(ref).String()
			}
		}

		// Exact play timestamp with the station's zone. Left empty when the
		// date or time did not parse; the record is still kept.
		if t, err := time.ParseInLocation(playedTimeLayout, date+" "+timeHM, s.loc); err == nil {
			rec.PlayedAt = t.Format(time.RFC3339)
		}

		records = append(records, rec)
	})

	return records, nil
}

// normalizeDate turns the page's relative day labels ("dnes", "včera") into
// DD.MM.YYYY. A value that is neither a known label nor a parseable date is
// returned trimmed but otherwise untouched.
func (s *Scraper) normalizeDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	today := s.now().In(s.loc)

	switch strings.ToLower(trimmed) {
	case "dnes":
		return today.Format(dateLayout)
	case "včera", "vcera":
		return today.AddDate(0, 0, -1).Format(dateLayout)
	}

	if _, err := time.Parse(dateLayout, trimmed); err != nil {
		return trimmed
	}
	return trimmed
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.First().Text())
}
