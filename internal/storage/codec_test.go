package storage

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"raceline/internal/ctrl"
	"raceline/internal/model"
)

func TestCheckpointCodecRoundTrip(t *testing.T) {
	want := testCheckpoint(t, "codec-run")

	data, err := EncodeCheckpoint(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeCheckpoint(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestCheckpointCodecPreservesPredictions(t *testing.T) {
	checkpoint := testCheckpoint(t, "codec-run")
	data, err := EncodeCheckpoint(checkpoint)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeCheckpoint(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	original, err := ctrl.FromRecord(checkpoint.Controller)
	if err != nil {
		t.Fatalf("original from record: %v", err)
	}
	restored, err := ctrl.FromRecord(decoded.Controller)
	if err != nil {
		t.Fatalf("restored from record: %v", err)
	}

	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 100; trial++ {
		input := make([]float64, original.InputSize())
		for i := range input {
			input[i] = rng.Float64()*2 - 1
		}
		want, _ := original.Predict(input)
		got, _ := restored.Predict(input)
		for i := range want {
			if want[i] != got[i] {
				t.Fatalf("trial %d: persisted prediction differs at %d", trial, i)
			}
		}
	}
}

func TestCheckpointCodecHandlesNoLapTime(t *testing.T) {
	checkpoint := testCheckpoint(t, "codec-run")
	checkpoint.BestLapTime = model.NoLapTime()

	data, err := EncodeCheckpoint(checkpoint)
	if err != nil {
		t.Fatalf("encode with infinite lap time: %v", err)
	}
	decoded, err := DecodeCheckpoint(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !math.IsInf(decoded.BestLapTime, 1) {
		t.Fatalf("no-lap sentinel not restored: %v", decoded.BestLapTime)
	}
}

func TestDecodeCheckpointRejectsVersionMismatch(t *testing.T) {
	checkpoint := testCheckpoint(t, "codec-run")
	checkpoint.SchemaVersion = 99

	data, err := EncodeCheckpoint(checkpoint)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeCheckpoint(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestFitnessHistoryCodec(t *testing.T) {
	want := []float64{0, 12.5, 80, 80, 143.75}
	data, err := EncodeFitnessHistory(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeFitnessHistory(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("history mismatch: %v", got)
	}
}

func TestDiagnosticsCodec(t *testing.T) {
	want := []model.GenerationDiagnostics{
		{Generation: 1, BestFitness: 100, Diversity: 12.25, MutationRate: 0.05},
	}
	data, err := EncodeDiagnostics(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeDiagnostics(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("diagnostics mismatch: %+v", got)
	}
}
