// Package evo implements the generational evolutionary loop: selection,
// elitism, crossover, mutation, and the novelty/fitness-sharing diversity
// mechanisms. The per-frame simulation lives outside; the engine consumes
// terminal-state records and produces next-generation controllers.
package evo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"raceline/internal/ctrl"
	"raceline/internal/model"
)

var ErrEmptyPopulation = errors.New("population is empty")

const (
	// Hard cap on the effective mutation rate, a last defense against total
	// randomization even under adaptive boosting.
	maxMutationRate = 0.8

	// Elite pool: top quarter of the population, never fewer than four, so
	// reproduction keeps enough genetic diversity with tiny populations.
	eliteFloor    = 4
	eliteFraction = 0.25

	// A generation counts as stagnant unless the raw best improves by more
	// than 1%.
	stagnationTolerance = 1.01

	tournamentSize = 4

	// Hypermutation escape once stagnation exceeds twice the threshold.
	hypermutationChance = 0.1
	hypermutationRate   = 0.5
)

// Engine runs Selecting and Reproducing; Running (per-frame simulation) is
// the external driver's state. Single-threaded, synchronous.
type Engine struct {
	cfg     Config
	rng     *rand.Rand
	archive *NoveltyArchive
	ranking RankingStrategy

	generation      int
	bestFitness     float64
	bestLaps        int
	bestLapTime     float64
	best            *ctrl.Controller
	bestAgent       *Agent
	lastBestFitness float64
	stagnation      int

	diversity  float64
	lastMean   float64
	lastMin    float64
	aliveAtEnd int
}

func NewEngine(cfg Config, seed int64) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if cfg.Activation == "" {
		cfg.Activation = ctrl.ActivationSigmoid
	}
	if _, err := ctrl.GetActivation(cfg.Activation); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
	e.resetState()
	return e, nil
}

func (e *Engine) resetState() {
	e.generation = 1
	e.bestFitness = math.Inf(-1)
	e.bestLaps = 0
	e.bestLapTime = model.NoLapTime()
	e.best = nil
	e.bestAgent = nil
	e.lastBestFitness = math.Inf(-1)
	e.stagnation = 0
	e.diversity = 0
	e.lastMean = 0
	e.lastMin = 0
	e.aliveAtEnd = 0
	e.ranking = resolveRanking(e.cfg)
	e.archive = NewNoveltyArchive(e.cfg.Novelty.ArchiveSize, e.cfg.Novelty.KNeighbors, e.cfg.Novelty.Threshold)
}

// Reset drops all accumulated state: generation counter, best-ever records,
// stagnation and the novelty archive.
func (e *Engine) Reset() {
	e.resetState()
}

// SeedBest installs a deserialized controller as the all-time-best seed for
// the next CreatePopulation. Only dimension consistency against the current
// configuration is validated; on mismatch the caller must discard the seed
// and start fresh.
func (e *Engine) SeedBest(rec model.ControllerRecord) error {
	if rec.InputSize != e.cfg.InputSize || rec.HiddenSize != e.cfg.HiddenSize || rec.OutputSize != e.cfg.OutputSize {
		return fmt.Errorf("%w: seed %dx%dx%d, config %dx%dx%d",
			ctrl.ErrDimensionMismatch,
			rec.InputSize, rec.HiddenSize, rec.OutputSize,
			e.cfg.InputSize, e.cfg.HiddenSize, e.cfg.OutputSize)
	}
	best, err := ctrl.FromRecord(rec)
	if err != nil {
		return err
	}
	e.best = best
	return nil
}

// CreatePopulation builds a full generation of fresh agents. When an
// all-time-best controller exists, new individuals are seeded by cloning it
// and mutating harder at later indexes, so the population explores around the
// known best while keeping near-exact copies. Otherwise every controller is
// freshly randomized.
func (e *Engine) CreatePopulation() ([]*Agent, error) {
	n := e.cfg.PopulationSize
	population := make([]*Agent, 0, n)

	seeded := 0
	if e.best != nil {
		seeded = n
		if !e.cfg.SeedAll {
			seeded = n / 2
			if seeded < 1 {
				seeded = 1
			}
		}
	}

	for i := 0; i < n; i++ {
		var controller *ctrl.Controller
		if i < seeded {
			controller = e.best.Clone()
			if i > 0 {
				controller.Mutate(e.rng, e.seedMutationRate(i))
			}
		} else {
			fresh, err := ctrl.NewWithActivation(e.rng, e.cfg.InputSize, e.cfg.HiddenSize, e.cfg.OutputSize, e.cfg.Activation)
			if err != nil {
				return nil, err
			}
			controller = fresh
		}
		population = append(population, &Agent{Controller: controller, BestLapTime: model.NoLapTime()})
	}
	return population, nil
}

func (e *Engine) seedMutationRate(index int) float64 {
	rate := e.cfg.MutationRate * float64(index)
	if rate > maxMutationRate {
		rate = maxMutationRate
	}
	return rate
}

// Selection scores a terminal generation and reduces it to the elite pool.
// Order of scoring: fitness sharing first, then novelty; both optional and
// independent. Ranking precedence: novelty combined > shared fitness > raw.
func (e *Engine) Selection(population []*Agent) ([]*Agent, error) {
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}

	if e.cfg.Sharing.Enabled {
		ApplyFitnessSharing(population, e.cfg.Sharing.Sigma)
	}
	if e.cfg.Novelty.Enabled {
		for _, agent := range population {
			agent.Novelty = e.archive.CalculateNovelty(agent.Behavior)
		}
	}
	e.diversity = PopulationDiversity(population)

	e.ranking = resolveRanking(e.cfg)
	for _, agent := range population {
		agent.rankScore = e.ranking.Score(agent)
		if e.cfg.Novelty.Enabled {
			agent.CombinedScore = agent.rankScore
		}
	}

	ranked := make([]*Agent, len(population))
	copy(ranked, population)
	// Stable: ties keep original population order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].rankScore > ranked[j].rankScore
	})

	rawBest := population[0]
	total := 0.0
	minFitness := population[0].Fitness
	alive := 0
	for _, agent := range population {
		if agent.Fitness > rawBest.Fitness {
			rawBest = agent
		}
		if agent.Fitness < minFitness {
			minFitness = agent.Fitness
		}
		if agent.Alive {
			alive++
		}
		total += agent.Fitness
	}
	e.lastMean = total / float64(len(population))
	e.lastMin = minFitness
	e.aliveAtEnd = alive

	// Stagnation always tracks raw fitness so novelty or sharing never mask
	// a true plateau.
	if !math.IsInf(e.lastBestFitness, -1) && rawBest.Fitness <= e.lastBestFitness*stagnationTolerance {
		e.stagnation++
	} else {
		e.stagnation = 0
	}
	e.lastBestFitness = rawBest.Fitness

	previousBest := e.bestFitness
	if rawBest.Fitness >= e.bestFitness {
		e.bestFitness = rawBest.Fitness
		if rawBest.Laps > e.bestLaps {
			e.bestLaps = rawBest.Laps
		}
		if rawBest.BestLapTime < e.bestLapTime {
			e.bestLapTime = rawBest.BestLapTime
		}
	}
	// The brain snapshot replaces only on strict improvement; equal-fitness
	// generations keep the incumbent.
	if e.best == nil || rawBest.Fitness > previousBest {
		e.best = rawBest.Controller.Clone()
	}

	winner := ranked[0]
	e.bestAgent = winner
	if e.cfg.Novelty.Enabled {
		e.archive.MaybeAdd(winner.Behavior, winner.Novelty)
	}

	eliteCount := int(math.Floor(float64(len(population)) * eliteFraction))
	if eliteCount < eliteFloor {
		eliteCount = eliteFloor
	}
	if eliteCount > len(ranked) {
		eliteCount = len(ranked)
	}
	return ranked[:eliteCount], nil
}

// Evolve breeds the next generation from the elite pool: verbatim elitism
// clones first, then tournament-selected offspring via crossover or cloning,
// mutated at the current adaptive rate. Increments the generation counter
// exactly once, after the population is fully built.
func (e *Engine) Evolve(elite []*Agent) ([]*Agent, error) {
	if len(elite) == 0 {
		return nil, ErrEmptyPopulation
	}

	n := e.cfg.PopulationSize
	next := make([]*Agent, 0, n)

	for i := 0; i < e.cfg.Elitism && i < len(elite) && len(next) < n; i++ {
		next = append(next, &Agent{Controller: elite[i].Controller.Clone(), BestLapTime: model.NoLapTime()})
	}

	hypermutating := e.cfg.Adaptive.StagnationThreshold > 0 &&
		e.stagnation > 2*e.cfg.Adaptive.StagnationThreshold
	rate := e.CurrentMutationRate()

	for len(next) < n {
		parent1 := e.TournamentSelect(elite)
		parent2 := e.TournamentSelect(elite)

		var child *ctrl.Controller
		if e.rng.Float64() < e.cfg.CrossoverRate {
			crossed, err := ctrl.Crossover(e.rng, parent1.Controller, parent2.Controller)
			if err != nil {
				return nil, err
			}
			child = crossed
		} else {
			child = parent1.Controller.Clone()
		}

		child.Mutate(e.rng, rate)
		if hypermutating && e.rng.Float64() < hypermutationChance {
			child.Mutate(e.rng, hypermutationRate)
		}
		next = append(next, &Agent{Controller: child, BestLapTime: model.NoLapTime()})
	}

	e.generation++
	return next, nil
}

// TournamentSelect samples min(4, |elite|) candidates uniformly with
// replacement and returns the highest by the active ranking score.
func (e *Engine) TournamentSelect(elite []*Agent) *Agent {
	size := tournamentSize
	if size > len(elite) {
		size = len(elite)
	}
	best := elite[e.rng.Intn(len(elite))]
	for i := 1; i < size; i++ {
		candidate := elite[e.rng.Intn(len(elite))]
		if candidate.rankScore > best.rankScore {
			best = candidate
		}
	}
	return best
}

// CurrentMutationRate reports the effective rate: the configured base,
// boosted by stagnation when adaptive mutation is enabled, hard-capped at
// maxMutationRate.
func (e *Engine) CurrentMutationRate() float64 {
	rate := e.cfg.MutationRate
	if e.cfg.Adaptive.Enabled && e.cfg.Adaptive.StagnationThreshold > 0 {
		progress := float64(e.stagnation) / float64(e.cfg.Adaptive.StagnationThreshold)
		if progress > 1 {
			progress = 1
		}
		rate += progress * e.cfg.Adaptive.MaxBoost
	}
	if rate > maxMutationRate {
		rate = maxMutationRate
	}
	if rate < 0 {
		rate = 0
	}
	return rate
}
