// Package raceline is the public API for training vehicle controllers with
// the evolutionary engine. A Client owns a store and runs whole training
// sessions: build population, evaluate on a track, select, evolve, persist.
package raceline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raceline/internal/ctrl"
	"raceline/internal/evo"
	"raceline/internal/model"
	"raceline/internal/storage"
	"raceline/internal/track"
)

const defaultDBPath = "raceline.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

// NewClientWithStore wires an already-initialized store, mainly for tests.
func NewClientWithStore(store storage.Store) *Client {
	return &Client{store: store}
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

type RunRequest struct {
	RunID       string
	Track       string
	Generations int
	Seed        int64
	// Resume seeds the engine from the run's persisted checkpoint. A
	// checkpoint whose controller shape no longer matches the configuration
	// is discarded and the run starts fresh.
	Resume bool

	Population    int
	HiddenSize    int
	MutationRate  float64
	Elitism       int
	CrossoverRate float64
	SeedAll       bool

	AdaptiveMutation    bool
	StagnationThreshold int
	MutationBoost       float64

	NoveltySearch    bool
	NoveltyWeight    float64
	ArchiveSize      int
	KNeighbors       int
	NoveltyThreshold float64

	FitnessSharing bool
	SharingSigma   float64
}

type RunSummary struct {
	RunID            string
	Track            string
	Generations      int
	Evaluations      int
	FinalBestFitness float64
	BestLaps         int
	BestLapTime      float64
	FinalDiversity   float64
	FinalStagnation  int
	ResumedFromSeed  bool
}

func applyRunDefaults(req RunRequest) RunRequest {
	if req.Generations <= 0 {
		req.Generations = 50
	}
	if req.Population <= 0 {
		req.Population = 50
	}
	if req.HiddenSize <= 0 {
		req.HiddenSize = 8
	}
	if req.MutationRate <= 0 {
		req.MutationRate = 0.05
	}
	if req.Elitism <= 0 {
		req.Elitism = 2
	}
	if req.CrossoverRate <= 0 {
		req.CrossoverRate = 0.7
	}
	if req.StagnationThreshold <= 0 {
		req.StagnationThreshold = 10
	}
	if req.MutationBoost <= 0 {
		req.MutationBoost = 0.2
	}
	if req.NoveltyWeight <= 0 {
		req.NoveltyWeight = 0.3
	}
	if req.ArchiveSize <= 0 {
		req.ArchiveSize = 100
	}
	if req.KNeighbors <= 0 {
		req.KNeighbors = 15
	}
	if req.NoveltyThreshold <= 0 {
		req.NoveltyThreshold = 10
	}
	if req.SharingSigma <= 0 {
		req.SharingSigma = 50
	}
	return req
}

func engineConfig(req RunRequest, tr track.Track) evo.Config {
	return evo.Config{
		PopulationSize: req.Population,
		InputSize:      tr.InputSize(),
		HiddenSize:     req.HiddenSize,
		OutputSize:     tr.OutputSize(),
		MutationRate:   req.MutationRate,
		Elitism:        req.Elitism,
		CrossoverRate:  req.CrossoverRate,
		SeedAll:        req.SeedAll,
		Adaptive: evo.AdaptiveMutationConfig{
			Enabled:             req.AdaptiveMutation,
			StagnationThreshold: req.StagnationThreshold,
			MaxBoost:            req.MutationBoost,
		},
		Novelty: evo.NoveltyConfig{
			Enabled:     req.NoveltySearch,
			Weight:      req.NoveltyWeight,
			ArchiveSize: req.ArchiveSize,
			KNeighbors:  req.KNeighbors,
			Threshold:   req.NoveltyThreshold,
		},
		Sharing: evo.SharingConfig{
			Enabled: req.FitnessSharing,
			Sigma:   req.SharingSigma,
		},
	}
}

// Run executes a full training session and persists its checkpoint, fitness
// history and per-generation diagnostics under the run ID.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	req = applyRunDefaults(req)

	tr, err := track.ByName(req.Track)
	if err != nil {
		return RunSummary{}, err
	}
	engine, err := evo.NewEngine(engineConfig(req, tr), req.Seed)
	if err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = fmt.Sprintf("%s-%d-%d", tr.Name(), req.Seed, time.Now().Unix())
	}

	resumed := false
	if req.Resume {
		checkpoint, ok, err := c.store.GetCheckpoint(ctx, runID)
		if err != nil {
			return RunSummary{}, err
		}
		if ok {
			switch err := engine.SeedBest(checkpoint.Controller); {
			case err == nil:
				resumed = true
			case errors.Is(err, ctrl.ErrDimensionMismatch):
				// Stale shape: discard the seed and start fresh.
			default:
				return RunSummary{}, err
			}
		}
	}

	population, err := engine.CreatePopulation()
	if err != nil {
		return RunSummary{}, err
	}

	history := make([]float64, 0, req.Generations)
	diagnostics := make([]model.GenerationDiagnostics, 0, req.Generations)
	evaluations := 0

	for gen := 1; gen <= req.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunSummary{}, err
		}

		for _, agent := range population {
			rec, err := tr.Evaluate(ctx, agent.Controller)
			if err != nil {
				return RunSummary{}, fmt.Errorf("evaluate generation %d: %w", gen, err)
			}
			agent.Finish(rec)
			evaluations++
		}

		elite, err := engine.Selection(population)
		if err != nil {
			return RunSummary{}, fmt.Errorf("selection generation %d: %w", gen, err)
		}
		history = append(history, engine.BestFitness())
		diagnostics = append(diagnostics, engine.Snapshot())

		if gen == req.Generations {
			break
		}
		population, err = engine.Evolve(elite)
		if err != nil {
			return RunSummary{}, fmt.Errorf("evolve generation %d: %w", gen, err)
		}
	}

	if err := c.persistRun(ctx, runID, engine, history, diagnostics); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		Track:            tr.Name(),
		Generations:      req.Generations,
		Evaluations:      evaluations,
		FinalBestFitness: engine.BestFitness(),
		BestLaps:         engine.BestLaps(),
		BestLapTime:      engine.BestLapTime(),
		FinalDiversity:   engine.Diversity(),
		FinalStagnation:  engine.StagnationCounter(),
		ResumedFromSeed:  resumed,
	}, nil
}

func (c *Client) persistRun(ctx context.Context, runID string, engine *evo.Engine, history []float64, diagnostics []model.GenerationDiagnostics) error {
	if rec, ok := engine.BestControllerRecord(); ok {
		rec.VersionedRecord = storage.StampVersion()
		checkpoint := model.Checkpoint{
			VersionedRecord: storage.StampVersion(),
			RunID:           runID,
			Generation:      engine.Generation(),
			BestFitness:     engine.BestFitness(),
			BestLaps:        engine.BestLaps(),
			BestLapTime:     engine.BestLapTime(),
			Controller:      rec,
		}
		if err := c.store.SaveCheckpoint(ctx, checkpoint); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, history); err != nil {
		return fmt.Errorf("save fitness history: %w", err)
	}
	if err := c.store.SaveDiagnostics(ctx, runID, diagnostics); err != nil {
		return fmt.Errorf("save diagnostics: %w", err)
	}
	return nil
}

// Runs lists the run IDs that have checkpoints.
func (c *Client) Runs(ctx context.Context) ([]string, error) {
	return c.store.ListRuns(ctx)
}

// FitnessHistory returns the best-by-generation series for a run.
func (c *Client) FitnessHistory(ctx context.Context, runID string) ([]float64, error) {
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run: %s", runID)
	}
	return history, nil
}

// Diagnostics returns the per-generation diagnostics for a run.
func (c *Client) Diagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, error) {
	diagnostics, ok, err := c.store.GetDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run: %s", runID)
	}
	return diagnostics, nil
}

// ExportBest returns the run's persisted all-time-best controller.
func (c *Client) ExportBest(ctx context.Context, runID string) (model.ControllerRecord, error) {
	checkpoint, ok, err := c.store.GetCheckpoint(ctx, runID)
	if err != nil {
		return model.ControllerRecord{}, err
	}
	if !ok {
		return model.ControllerRecord{}, fmt.Errorf("checkpoint not found for run: %s", runID)
	}
	return checkpoint.Controller, nil
}
