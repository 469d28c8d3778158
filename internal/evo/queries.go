package evo

import (
	"math"

	"raceline/internal/model"
)

// Read-only query surface for reporting and UI layers. Nothing here mutates
// engine state.

func (e *Engine) Generation() int {
	return e.generation
}

func (e *Engine) BestFitness() float64 {
	if math.IsInf(e.bestFitness, -1) {
		return 0
	}
	return e.bestFitness
}

func (e *Engine) BestLaps() int {
	return e.bestLaps
}

func (e *Engine) BestLapTime() float64 {
	return e.bestLapTime
}

func (e *Engine) Diversity() float64 {
	return e.diversity
}

func (e *Engine) StagnationCounter() int {
	return e.stagnation
}

// AliveAtEnd reports how many agents of the last selected generation were
// still running when their episode ended.
func (e *Engine) AliveAtEnd() int {
	return e.aliveAtEnd
}

func (e *Engine) ArchiveSize() int {
	return e.archive.Len()
}

func (e *Engine) RankingName() string {
	return e.ranking.Name()
}

// BestAgent returns the winner of the most recent selection by the active
// ranking key, or nil before the first selection.
func (e *Engine) BestAgent() *Agent {
	return e.bestAgent
}

// HasBest reports whether an all-time-best controller snapshot exists.
func (e *Engine) HasBest() bool {
	return e.best != nil
}

// BestControllerRecord exports the all-time-best controller for persistence.
func (e *Engine) BestControllerRecord() (model.ControllerRecord, bool) {
	if e.best == nil {
		return model.ControllerRecord{}, false
	}
	return e.best.Record(), true
}

// Snapshot summarizes the most recent selected generation.
func (e *Engine) Snapshot() model.GenerationDiagnostics {
	return model.GenerationDiagnostics{
		Generation:   e.generation,
		BestFitness:  e.BestFitness(),
		MeanFitness:  e.lastMean,
		MinFitness:   e.lastMin,
		Diversity:    e.diversity,
		Stagnation:   e.stagnation,
		MutationRate: e.CurrentMutationRate(),
		ArchiveSize:  e.archive.Len(),
		AliveAtEnd:   e.aliveAtEnd,
	}
}
