package match

import (
	"math"
	"testing"
)

func TestSelectBestExactMatch(t *testing.T) {
	candidates := []Candidate{
		{Artist: "Wrong Band", Title: "Wrong Song"},
		{Artist: "ABBA", Title: "Dancing Queen"},
	}
	idx, score := SelectBest("ABBA", "Dancing Queen", candidates, TrackWeights)
	if idx != 1 {
		t.Fatalf("idx = %d, want 1", idx)
	}
	if math.Abs(score-1.0) > 1e-9 {
		t.Errorf("score = %f, want 1.0", score)
	}
}

func TestSelectBestBelowThreshold(t *testing.T) {
	candidates := []Candidate{
		{Artist: "Completely Different", Title: "Nothing Alike"},
	}
	idx, _ := SelectBest("ABBA", "Dancing Queen", candidates, TrackWeights)
	if idx != -1 {
		t.Fatalf("idx = %d, want -1 for a below-threshold best", idx)
	}
}

func TestSelectBestNoCandidates(t *testing.T) {
	idx, score := SelectBest("ABBA", "Dancing Queen", nil, TrackWeights)
	if idx != -1 || score != 0 {
		t.Fatalf("got (%d, %f), want (-1, 0)", idx, score)
	}
}

func TestSelectBestTieKeepsFirst(t *testing.T) {
	// Identical candidates score identically; the first seen must win so
	// selection is deterministic.
	candidates := []Candidate{
		{Artist: "ABBA", Title: "Dancing Queen"},
		{Artist: "ABBA", Title: "Dancing Queen"},
		{Artist: "ABBA", Title: "Dancing Queen"},
	}
	idx, _ := SelectBest("ABBA", "Dancing Queen", candidates, TrackWeights)
	if idx != 0 {
		t.Fatalf("idx = %d, want 0 (first of the tie)", idx)
	}
}

func TestSelectBestNormalizesBeforeScoring(t *testing.T) {
	candidates := []Candidate{
		{Artist: "Vašo Patejdl", Title: "Ak nie si moja"},
	}
	idx, _ := SelectBest("Patejdl, Vašo", "Ak nie si moja", candidates, TrackWeights)
	if idx != 0 {
		t.Fatalf("idx = %d, want 0: surname-first credit should match", idx)
	}
}

func TestSelectBestCloseVariantAccepted(t *testing.T) {
	// A near-identical title (punctuation drift) must still clear the bar.
	candidates := []Candidate{
		{Artist: "Elán", Title: "Voda čo ma drží nad vodou"},
	}
	idx, score := SelectBest("Elán", "Voda, čo ma drží nad vodou", candidates, TrackWeights)
	if idx != 0 {
		t.Fatalf("idx = %d (score %f), want 0", idx, score)
	}
}

func TestArtistWeightsSourceScore(t *testing.T) {
	// Same name similarity; the catalog's own score breaks the tie.
	candidates := []Candidate{
		{Artist: "Queen", SourceScore: 50},
		{Artist: "Queen", SourceScore: 100},
	}
	idx, _ := SelectBest("Queen", "", candidates, ArtistWeights)
	if idx != 1 {
		t.Fatalf("idx = %d, want 1 (higher source score)", idx)
	}
}

func TestArtistWeightsAuxBonus(t *testing.T) {
	candidates := []Candidate{
		{Artist: "Queen", SourceScore: 100},
		{Artist: "Queen", SourceScore: 100, Aux: true},
	}
	idx, _ := SelectBest("Queen", "", candidates, ArtistWeights)
	if idx != 1 {
		t.Fatalf("idx = %d, want 1 (aux data preferred)", idx)
	}
}

func TestArtistWeightsMissingSourceScore(t *testing.T) {
	// SourceScore -1 means "no score supplied" and must contribute nothing
	// rather than a zero that can be outweighed by garbage.
	candidates := []Candidate{
		{Artist: "Queen", SourceScore: -1},
	}
	idx, score := SelectBest("Queen", "", candidates, ArtistWeights)
	if idx != 0 {
		t.Fatalf("idx = %d (score %f), want 0", idx, score)
	}
	if math.Abs(score-0.70) > 1e-9 {
		t.Errorf("score = %f, want 0.70 (name weight only)", score)
	}
}

func TestRecordingWeightsAuxIsArtistConfirmation(t *testing.T) {
	// Recording profile scores the title; the artist credit check enters as
	// the aux bonus. An unconfirmed candidate with a perfect title and score
	// sits at 0.95 weight mass, a confirmed one gets the extra 0.05.
	unconfirmed := []Candidate{{Title: "Dancing Queen", SourceScore: 100}}
	confirmed := []Candidate{{Title: "Dancing Queen", SourceScore: 100, Aux: true}}

	_, su := SelectBest("", "Dancing Queen", unconfirmed, RecordingWeights)
	_, sc := SelectBest("", "Dancing Queen", confirmed, RecordingWeights)
	if sc <= su {
		t.Fatalf("confirmed score %f not above unconfirmed %f", sc, su)
	}
	if math.Abs(sc-su-0.05) > 1e-9 {
		t.Errorf("bonus = %f, want 0.05", sc-su)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abba", "abba", 1.0},
		{"", "abba", 0},
		{"abba", "", 0},
		{"", "", 0},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSelectBestPure(t *testing.T) {
	candidates := []Candidate{
		{Artist: "ABBA", Title: "Dancing Queen"},
		{Artist: "ABBA", Title: "Waterloo"},
	}
	i1, s1 := SelectBest("ABBA", "Dancing Queen", candidates, TrackWeights)
	i2, s2 := SelectBest("ABBA", "Dancing Queen", candidates, TrackWeights)
	if i1 != i2 || s1 != s2 {
		t.Fatalf("selection not deterministic: (%d, %f) vs (%d, %f)", i1, s1, i2, s2)
	}
	if candidates[0].Artist != "ABBA" || candidates[1].Title != "Waterloo" {
		t.Error("SelectBest mutated its input")
	}
}
