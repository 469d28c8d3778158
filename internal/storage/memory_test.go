package storage

import (
	"context"
	"math/rand"
	"reflect"
	"testing"

	"raceline/internal/ctrl"
	"raceline/internal/model"
)

func testCheckpoint(t *testing.T, runID string) model.Checkpoint {
	t.Helper()
	rng := rand.New(rand.NewSource(17))
	controller, err := ctrl.New(rng, 6, 8, 3)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return model.Checkpoint{
		VersionedRecord: StampVersion(),
		RunID:           runID,
		Generation:      42,
		BestFitness:     1234.5,
		BestLaps:        3,
		BestLapTime:     28.7,
		Controller:      controller.Record(),
	}
}

func newInitializedMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return store
}

func TestMemoryStoreCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	want := testCheckpoint(t, "run-1")
	if err := store.SaveCheckpoint(ctx, want); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}

	got, ok, err := store.GetCheckpoint(ctx, "run-1")
	if err != nil {
		t.Fatalf("get checkpoint: %v", err)
	}
	if !ok {
		t.Fatal("checkpoint not found")
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("checkpoint mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestMemoryStoreMissingCheckpoint(t *testing.T) {
	store := newInitializedMemoryStore(t)
	_, ok, err := store.GetCheckpoint(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get checkpoint: %v", err)
	}
	if ok {
		t.Fatal("found a checkpoint that was never saved")
	}
}

func TestMemoryStoreFitnessHistoryIsCopied(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	history := []float64{1, 2, 3}
	if err := store.SaveFitnessHistory(ctx, "run-1", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history[0] = 999 // must not leak into the store

	got, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok || got[0] != 1 {
		t.Fatalf("stored history aliased caller slice: %v", got)
	}
}

func TestMemoryStoreDiagnosticsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	want := []model.GenerationDiagnostics{
		{Generation: 1, BestFitness: 10, MeanFitness: 5},
		{Generation: 2, BestFitness: 20, MeanFitness: 9, Stagnation: 1},
	}
	if err := store.SaveDiagnostics(ctx, "run-1", want); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	got, ok, err := store.GetDiagnostics(ctx, "run-1")
	if err != nil {
		t.Fatalf("get diagnostics: %v", err)
	}
	if !ok || !reflect.DeepEqual(want, got) {
		t.Fatalf("diagnostics mismatch: %+v", got)
	}
}

func TestMemoryStoreListRunsSorted(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)
	for _, runID := range []string{"run-c", "run-a", "run-b"} {
		if err := store.SaveCheckpoint(ctx, testCheckpoint(t, runID)); err != nil {
			t.Fatalf("save %s: %v", runID, err)
		}
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	want := []string{"run-a", "run-b", "run-c"}
	if !reflect.DeepEqual(runs, want) {
		t.Fatalf("runs: got %v, want %v", runs, want)
	}
}

func TestNewStoreFactory(t *testing.T) {
	for _, kind := range []string{"", "memory"} {
		store, err := NewStore(kind, "")
		if err != nil {
			t.Fatalf("kind %q: %v", kind, err)
		}
		if _, ok := store.(*MemoryStore); !ok {
			t.Fatalf("kind %q: unexpected store type %T", kind, store)
		}
	}
	if _, err := NewStore("redis", ""); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}
