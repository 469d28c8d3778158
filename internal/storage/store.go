package storage

import (
	"context"

	"raceline/internal/model"
)

// Store defines persistence operations for training runs: the checkpoint
// (all-time-best controller plus run progress), per-generation fitness
// history, and generation diagnostics.
type Store interface {
	Init(ctx context.Context) error
	SaveCheckpoint(ctx context.Context, checkpoint model.Checkpoint) error
	GetCheckpoint(ctx context.Context, runID string) (model.Checkpoint, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
	ListRuns(ctx context.Context) ([]string, error)
}
