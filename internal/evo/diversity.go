package evo

// diversitySampleLimit bounds the pairwise diversity scan so the metric stays
// O(1) per generation regardless of population size.
const diversitySampleLimit = 20

// ApplyFitnessSharing penalizes agents clustered in behavior space: each
// agent's fitness is divided by 1 + the summed closeness of its neighbors
// within sigma. Promotes niche diversity without touching raw fitness.
func ApplyFitnessSharing(population []*Agent, sigma float64) {
	if sigma <= 0 {
		return
	}
	for _, agent := range population {
		sharingSum := 0.0
		for _, other := range population {
			if other == agent {
				continue
			}
			d := BehaviorDistance(agent.Behavior, other.Behavior)
			if d < sigma {
				sharingSum += 1 - d/sigma
			}
		}
		agent.SharedFitness = agent.Fitness / (1 + sharingSum)
	}
}

// PopulationDiversity reports the average pairwise behavior distance over at
// most the first diversitySampleLimit members. Purely observational; never
// feeds back into selection.
func PopulationDiversity(population []*Agent) float64 {
	n := len(population)
	if n > diversitySampleLimit {
		n = diversitySampleLimit
	}
	if n < 2 {
		return 0
	}

	total := 0.0
	pairs := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			total += BehaviorDistance(population[i].Behavior, population[j].Behavior)
			pairs++
		}
	}
	return total / float64(pairs)
}
