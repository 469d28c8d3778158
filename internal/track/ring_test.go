package track

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"raceline/internal/ctrl"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"", "ring"} {
		tr, err := ByName(name)
		if err != nil {
			t.Fatalf("track %q: %v", name, err)
		}
		if tr.Name() != "ring" {
			t.Fatalf("track name: %s", tr.Name())
		}
	}
	if _, err := ByName("figure-eight"); err == nil {
		t.Fatal("expected error for unknown track")
	}
}

func TestRingInputOutputSizes(t *testing.T) {
	ring := NewRing(DefaultRingConfig())
	if ring.InputSize() != 6 {
		t.Fatalf("input size: got %d, want 6", ring.InputSize())
	}
	if ring.OutputSize() != 3 {
		t.Fatalf("output size: got %d, want 3", ring.OutputSize())
	}
}

func TestRingRejectsMismatchedController(t *testing.T) {
	ring := NewRing(DefaultRingConfig())
	rng := rand.New(rand.NewSource(1))
	controller, err := ctrl.New(rng, 4, 8, 3)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	_, err = ring.Evaluate(context.Background(), controller)
	if !errors.Is(err, ctrl.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

func TestRingEvaluateIsDeterministic(t *testing.T) {
	ring := NewRing(DefaultRingConfig())
	rng := rand.New(rand.NewSource(42))
	controller, err := ctrl.New(rng, ring.InputSize(), 8, ring.OutputSize())
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	first, err := ring.Evaluate(context.Background(), controller)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	second, err := ring.Evaluate(context.Background(), controller)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if first.Fitness != second.Fitness ||
		first.Behavior.FinalX != second.Behavior.FinalX ||
		first.Behavior.TotalDistance != second.Behavior.TotalDistance {
		t.Fatalf("evaluation not deterministic: %+v vs %+v", first, second)
	}
}

func TestRingTerminalRecordIsConsistent(t *testing.T) {
	ring := NewRing(DefaultRingConfig())
	rng := rand.New(rand.NewSource(7))
	controller, err := ctrl.New(rng, ring.InputSize(), 8, ring.OutputSize())
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	rec, err := ring.Evaluate(context.Background(), controller)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if rec.Behavior.TotalDistance < 0 || rec.Behavior.AvgSpeed < 0 {
		t.Fatalf("negative distance/speed: %+v", rec.Behavior)
	}
	if rec.Fitness < rec.Behavior.TotalDistance {
		t.Fatalf("fitness below distance component: %v < %v", rec.Fitness, rec.Behavior.TotalDistance)
	}
	if rec.Laps == 0 && !math.IsInf(rec.BestLapTime, 1) {
		t.Fatalf("no lap but finite lap time: %v", rec.BestLapTime)
	}
	// A car stays inside the walls or ends right at one.
	radius := math.Hypot(rec.Behavior.FinalX, rec.Behavior.FinalY)
	cfg := DefaultRingConfig()
	if radius < cfg.InnerRadius-2 || radius > cfg.OuterRadius+2 {
		t.Fatalf("final position far outside road: radius %v", radius)
	}
	if rec.Alive && (radius <= cfg.InnerRadius || radius >= cfg.OuterRadius) {
		t.Fatalf("alive car ended outside the road: radius %v", radius)
	}
}

func TestRingCancellation(t *testing.T) {
	ring := NewRing(DefaultRingConfig())
	rng := rand.New(rand.NewSource(3))
	controller, err := ctrl.New(rng, ring.InputSize(), 8, ring.OutputSize())
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ring.Evaluate(ctx, controller); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRayCircle(t *testing.T) {
	// From (50,0) heading +x, the circle r=100 is 50 away.
	d, ok := rayCircle(50, 0, 1, 0, 100)
	if !ok || d != 50 {
		t.Fatalf("outward ray: got %v %v", d, ok)
	}
	// Heading -x it hits the far side of the inner circle r=20 at t=30.
	d, ok = rayCircle(50, 0, -1, 0, 20)
	if !ok || d != 30 {
		t.Fatalf("inward ray: got %v %v", d, ok)
	}
	// Ray that misses entirely.
	if _, ok := rayCircle(50, 0, 0, 1, 20); ok {
		t.Fatal("tangential ray should miss inner circle")
	}
}
