package model

import "math"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// ControllerRecord is the serialized form of a feedforward controller:
// layer sizes plus the four weight/bias tensors. Round-tripping a record
// through the codec must reproduce predictions bit-for-bit.
type ControllerRecord struct {
	VersionedRecord
	InputSize  int         `json:"input_size"`
	HiddenSize int         `json:"hidden_size"`
	OutputSize int         `json:"output_size"`
	Activation string      `json:"activation"`
	WeightsIH  [][]float64 `json:"weights_ih"`
	WeightsHO  [][]float64 `json:"weights_ho"`
	BiasH      []float64   `json:"bias_h"`
	BiasO      []float64   `json:"bias_o"`
}

// Behavior is the compact terminal-state summary used for novelty and
// diversity comparisons.
type Behavior struct {
	FinalX            float64 `json:"final_x"`
	FinalY            float64 `json:"final_y"`
	CheckpointsPassed int     `json:"checkpoints_passed"`
	TotalDistance     float64 `json:"total_distance"`
	AvgSpeed          float64 `json:"avg_speed"`
}

// TerminalRecord is the read-only snapshot the simulation layer hands the
// engine for one agent once that agent is terminal for the generation.
type TerminalRecord struct {
	Fitness     float64  `json:"fitness"`
	Laps        int      `json:"laps"`
	BestLapTime float64  `json:"best_lap_time"`
	Alive       bool     `json:"alive"`
	Behavior    Behavior `json:"behavior"`
}

// NoLapTime marks an agent that never completed a lap.
func NoLapTime() float64 {
	return math.Inf(1)
}

// Checkpoint is the persisted model format: run progress plus the
// all-time-best controller.
type Checkpoint struct {
	VersionedRecord
	RunID       string           `json:"run_id"`
	Generation  int              `json:"generation"`
	BestFitness float64          `json:"best_fitness"`
	BestLaps    int              `json:"best_laps"`
	BestLapTime float64          `json:"best_lap_time"`
	Controller  ControllerRecord `json:"controller"`
}

// GenerationDiagnostics summarizes one generation for reporting surfaces.
type GenerationDiagnostics struct {
	Generation   int     `json:"generation"`
	BestFitness  float64 `json:"best_fitness"`
	MeanFitness  float64 `json:"mean_fitness"`
	MinFitness   float64 `json:"min_fitness"`
	Diversity    float64 `json:"diversity"`
	Stagnation   int     `json:"stagnation"`
	MutationRate float64 `json:"mutation_rate"`
	ArchiveSize  int     `json:"archive_size"`
	AliveAtEnd   int     `json:"alive_at_end"`
}
