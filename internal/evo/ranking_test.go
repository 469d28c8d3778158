package evo

import (
	"math"
	"testing"
)

func TestResolveRankingPrecedence(t *testing.T) {
	cases := []struct {
		name    string
		novelty bool
		sharing bool
		want    string
	}{
		{"raw by default", false, false, "raw_fitness"},
		{"sharing alone", false, true, "shared_fitness"},
		{"novelty alone", true, false, "novelty_combined"},
		{"novelty beats sharing", true, true, "novelty_combined"},
	}
	for _, tc := range cases {
		cfg := Config{}
		cfg.Novelty.Enabled = tc.novelty
		cfg.Sharing.Enabled = tc.sharing
		if got := resolveRanking(cfg).Name(); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestNoveltyCombinedScoreUsesFixedDivisors(t *testing.T) {
	r := NoveltyCombinedRanking{Weight: 0.3}
	a := &Agent{Fitness: 500, Novelty: 50}
	want := 0.7*500/combinedFitnessNorm + 0.3*50/combinedNoveltyNorm
	if got := r.Score(a); math.Abs(got-want) > 1e-15 {
		t.Fatalf("combined score: got %v, want %v", got, want)
	}
}

func TestNoveltyCombinedWeightExtremes(t *testing.T) {
	a := &Agent{Fitness: 1000, Novelty: 100}
	if got := (NoveltyCombinedRanking{Weight: 0}).Score(a); got != 1 {
		t.Fatalf("weight 0 should be pure fitness: %v", got)
	}
	if got := (NoveltyCombinedRanking{Weight: 1}).Score(a); got != 1 {
		t.Fatalf("weight 1 should be pure novelty: %v", got)
	}
}

func TestRankingByName(t *testing.T) {
	for _, name := range []string{"", "raw_fitness", "shared_fitness", "novelty_combined"} {
		if _, err := RankingByName(name, 0.5); err != nil {
			t.Fatalf("ranking %q: %v", name, err)
		}
	}
	if _, err := RankingByName("pareto", 0); err == nil {
		t.Fatal("expected error for unknown ranking")
	}
}
