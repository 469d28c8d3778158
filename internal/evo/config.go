package evo

import "fmt"

// AdaptiveMutationConfig controls stagnation-driven mutation-rate boosting.
type AdaptiveMutationConfig struct {
	Enabled             bool
	StagnationThreshold int
	MaxBoost            float64
}

// NoveltyConfig controls novelty-search scoring and the behavior archive.
type NoveltyConfig struct {
	Enabled     bool
	Weight      float64
	ArchiveSize int
	KNeighbors  int
	Threshold   float64
}

// SharingConfig controls fitness sharing over behavior space.
type SharingConfig struct {
	Enabled bool
	Sigma   float64
}

// Config is the explicit parameter bundle for the engine. It is passed by
// value at construction; there is no ambient global configuration.
type Config struct {
	PopulationSize int
	InputSize      int
	HiddenSize     int
	OutputSize     int
	Activation     string

	MutationRate  float64
	Elitism       int
	CrossoverRate float64

	// SeedAll clones the all-time-best into every slot of a fresh population
	// instead of half of it.
	SeedAll bool

	Adaptive AdaptiveMutationConfig
	Novelty  NoveltyConfig
	Sharing  SharingConfig
}

func (c Config) Validate() error {
	if c.PopulationSize < 1 {
		return fmt.Errorf("population size must be >= 1: %d", c.PopulationSize)
	}
	if c.InputSize <= 0 || c.HiddenSize <= 0 || c.OutputSize <= 0 {
		return fmt.Errorf("controller sizes must be > 0: in=%d hidden=%d out=%d", c.InputSize, c.HiddenSize, c.OutputSize)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be in [0,1]: %v", c.MutationRate)
	}
	if c.Elitism < 0 || c.Elitism > c.PopulationSize {
		return fmt.Errorf("elitism must be in [0, population size]: %d", c.Elitism)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("crossover rate must be in [0,1]: %v", c.CrossoverRate)
	}
	if c.Adaptive.Enabled {
		if c.Adaptive.StagnationThreshold < 1 {
			return fmt.Errorf("stagnation threshold must be >= 1: %d", c.Adaptive.StagnationThreshold)
		}
		if c.Adaptive.MaxBoost < 0 {
			return fmt.Errorf("mutation boost must be >= 0: %v", c.Adaptive.MaxBoost)
		}
	}
	if c.Novelty.Enabled {
		if c.Novelty.Weight < 0 || c.Novelty.Weight > 1 {
			return fmt.Errorf("novelty weight must be in [0,1]: %v", c.Novelty.Weight)
		}
		if c.Novelty.ArchiveSize < 1 {
			return fmt.Errorf("novelty archive size must be >= 1: %d", c.Novelty.ArchiveSize)
		}
		if c.Novelty.KNeighbors < 1 {
			return fmt.Errorf("novelty k-neighbors must be >= 1: %d", c.Novelty.KNeighbors)
		}
		if c.Novelty.Threshold < 0 {
			return fmt.Errorf("novelty threshold must be >= 0: %v", c.Novelty.Threshold)
		}
	}
	if c.Sharing.Enabled && c.Sharing.Sigma <= 0 {
		return fmt.Errorf("sharing sigma must be > 0: %v", c.Sharing.Sigma)
	}
	return nil
}
