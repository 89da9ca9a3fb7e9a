// Package match scores catalog search candidates against a query and picks
// the best one, if any candidate clears the acceptance threshold.
package match

import (
	"github.com/hbollon/go-edlib"

	"github.com/sydlexius/airwave/internal/normalize"
)

// Candidate is one raw search hit from a catalog, reduced to the fields the
// scorer looks at. SourceScore is the catalog's own relevance score on a
// 0-100 scale, or -1 when the catalog supplies none. Aux reports whether
// the hit carries auxiliary entity data (such as a country code) that makes
// it more likely to be the right entity.
type Candidate struct {
	Artist      string
	Title       string
	SourceScore int
	Aux         bool
}

// Weights is one scoring profile: a convex combination of artist
// similarity, title similarity and the source's own relevance score, plus
// a small fixed bonus for auxiliary data, compared against Threshold.
type Weights struct {
	Artist    float64
	Title     float64
	Source    float64
	AuxBonus  float64
	Threshold float64
}

// Scoring profiles. Name and title similarity dominate the catalog's own
// relevance score in every profile; track matching requires a higher bar
// than artist-only matching since a wrong-song false positive is costlier
// than a wrong-artist one.
var (
	// TrackWeights matches (artist, title) queries against song catalogs.
	TrackWeights = Weights{Artist: 0.45, Title: 0.55, Threshold: 0.72}

	// ArtistWeights matches artist-only queries.
	ArtistWeights = Weights{Artist: 0.70, Source: 0.30, AuxBonus: 0.05, Threshold: 0.60}

	// RecordingWeights matches recording searches where the artist credit
	// is checked separately and enters as the auxiliary bonus.
	RecordingWeights = Weights{Title: 0.60, Source: 0.35, AuxBonus: 0.05, Threshold: 0.66}
)

// SelectBest scans candidates and returns the index of the best-scoring one
// together with its score, or (-1, score) when there are no candidates or
// the best score is below the profile's threshold. Ties keep the first-seen
// candidate. Query strings are raw; normalization is applied here.
func SelectBest(queryArtist, queryTitle string, candidates []Candidate, w Weights) (int, float64) {
	wantArtist := normalize.Key(queryArtist)
	wantTitle := normalize.TitleKey(queryTitle)

	bestIdx, bestScore := -1, 0.0
	for i, c := range candidates {
		score := w.score(wantArtist, wantTitle, c)
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	if bestIdx < 0 || bestScore < w.Threshold {
		return -1, bestScore
	}
	return bestIdx, bestScore
}

func (w Weights) score(wantArtist, wantTitle string, c Candidate) float64 {
	score := 0.0
	if w.Artist > 0 {
		score += w.Artist * Similarity(wantArtist, normalize.Key(c.Artist))
	}
	if w.Title > 0 {
		score += w.Title * Similarity(wantTitle, normalize.TitleKey(c.Title))
	}
	if w.Source > 0 && c.SourceScore >= 0 {
		score += w.Source * clamp01(float64(c.SourceScore)/100.0)
	}
	if c.Aux {
		score += w.AuxBonus
	}
	return score
}

// Similarity returns an edit-distance ratio in [0, 1]. A missing side
// contributes zero, so candidates without an expected field are tolerated
// but never rewarded.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	sim, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return float64(sim)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
