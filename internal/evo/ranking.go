package evo

import "fmt"

// Fixed normalization divisors for the combined novelty score; keeping them
// constant makes the fitness/novelty blend comparable across generations.
const (
	combinedFitnessNorm = 1000.0
	combinedNoveltyNorm = 100.0
)

// RankingStrategy is the scoring key used to order a generation. It is
// resolved once per generation from configuration, never re-branched per
// comparison.
type RankingStrategy interface {
	Name() string
	Score(a *Agent) float64
}

// RawFitnessRanking orders by raw fitness.
type RawFitnessRanking struct{}

func (RawFitnessRanking) Name() string {
	return "raw_fitness"
}

func (RawFitnessRanking) Score(a *Agent) float64 {
	return a.Fitness
}

// SharedFitnessRanking orders by niche-penalized fitness.
type SharedFitnessRanking struct{}

func (SharedFitnessRanking) Name() string {
	return "shared_fitness"
}

func (SharedFitnessRanking) Score(a *Agent) float64 {
	return a.SharedFitness
}

// NoveltyCombinedRanking blends normalized fitness with normalized novelty.
type NoveltyCombinedRanking struct {
	Weight float64
}

func (NoveltyCombinedRanking) Name() string {
	return "novelty_combined"
}

func (r NoveltyCombinedRanking) Score(a *Agent) float64 {
	return (1-r.Weight)*a.Fitness/combinedFitnessNorm + r.Weight*a.Novelty/combinedNoveltyNorm
}

// resolveRanking applies the precedence rule: novelty search beats fitness
// sharing beats raw fitness.
func resolveRanking(cfg Config) RankingStrategy {
	switch {
	case cfg.Novelty.Enabled:
		return NoveltyCombinedRanking{Weight: cfg.Novelty.Weight}
	case cfg.Sharing.Enabled:
		return SharedFitnessRanking{}
	default:
		return RawFitnessRanking{}
	}
}

// RankingByName resolves a strategy for reporting surfaces.
func RankingByName(name string, noveltyWeight float64) (RankingStrategy, error) {
	switch name {
	case "", "raw_fitness":
		return RawFitnessRanking{}, nil
	case "shared_fitness":
		return SharedFitnessRanking{}, nil
	case "novelty_combined":
		return NoveltyCombinedRanking{Weight: noveltyWeight}, nil
	default:
		return nil, fmt.Errorf("unsupported ranking strategy: %s", name)
	}
}
