package evo

import (
	"raceline/internal/ctrl"
	"raceline/internal/model"
)

// Agent is the per-individual record the engine tracks for one generation:
// a controller reference plus the fitness-relevant outcome of its run.
// Scores are only meaningful once Finish has applied a terminal record.
type Agent struct {
	Controller *ctrl.Controller

	Fitness       float64
	SharedFitness float64
	Novelty       float64
	CombinedScore float64

	Behavior    model.Behavior
	Laps        int
	BestLapTime float64
	Alive       bool
	Terminal    bool

	// rankScore caches the active ranking strategy's score, set once per
	// generation during selection.
	rankScore float64
}

// Finish applies the simulation layer's terminal-state snapshot. The engine
// never reads live simulation state; this record is the only coupling.
func (a *Agent) Finish(rec model.TerminalRecord) {
	a.Fitness = rec.Fitness
	a.SharedFitness = rec.Fitness
	a.Laps = rec.Laps
	a.BestLapTime = rec.BestLapTime
	a.Alive = rec.Alive
	a.Behavior = rec.Behavior
	a.Terminal = true
}

// RankScore reports the score assigned by the generation's active ranking
// strategy.
func (a *Agent) RankScore() float64 {
	return a.rankScore
}
