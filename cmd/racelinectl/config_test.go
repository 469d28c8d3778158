package main

import (
	"os"
	"path/filepath"
	"testing"

	"raceline/pkg/raceline"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.ini")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRunRequestFromConfig(t *testing.T) {
	path := writeConfig(t, `
[run]
run_id = night-session
track = ring
generations = 120
seed = 42
population = 80
hidden_size = 12
mutation_rate = 0.08
elitism = 3
crossover_rate = 0.6
seed_all = true

[adaptive]
enabled = true
stagnation_threshold = 8
mutation_boost = 0.25

[novelty]
enabled = true
weight = 0.4
archive_size = 200
k_neighbors = 10
threshold = 12.5

[sharing]
enabled = true
sigma = 35
`)

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	want := raceline.RunRequest{
		RunID:               "night-session",
		Track:               "ring",
		Generations:         120,
		Seed:                42,
		Population:          80,
		HiddenSize:          12,
		MutationRate:        0.08,
		Elitism:             3,
		CrossoverRate:       0.6,
		SeedAll:             true,
		AdaptiveMutation:    true,
		StagnationThreshold: 8,
		MutationBoost:       0.25,
		NoveltySearch:       true,
		NoveltyWeight:       0.4,
		ArchiveSize:         200,
		KNeighbors:          10,
		NoveltyThreshold:    12.5,
		FitnessSharing:      true,
		SharingSigma:        35,
	}
	if req != want {
		t.Fatalf("config mismatch:\nwant %+v\ngot  %+v", want, req)
	}
}

func TestLoadRunRequestPartialConfig(t *testing.T) {
	path := writeConfig(t, `
[run]
track = ring
generations = 10 ; inline comment
`)

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if req.Track != "ring" || req.Generations != 10 {
		t.Fatalf("partial config: %+v", req)
	}
	if req.NoveltySearch || req.FitnessSharing || req.AdaptiveMutation {
		t.Fatalf("absent sections must stay disabled: %+v", req)
	}
}

func TestLoadRunRequestMissingFile(t *testing.T) {
	if _, err := loadRunRequestFromConfig(filepath.Join(t.TempDir(), "nope.ini")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestOverrideFromFlags(t *testing.T) {
	req := raceline.RunRequest{Track: "ring", Generations: 100, Population: 80}
	overrideFromFlags(&req, map[string]bool{"gens": true, "seed": true}, map[string]any{
		"gens": 5,
		"seed": int64(9),
		"pop":  30, // not in set, must not apply
	})
	if req.Generations != 5 || req.Seed != 9 {
		t.Fatalf("overrides not applied: %+v", req)
	}
	if req.Population != 80 {
		t.Fatalf("unset flag leaked into request: %+v", req)
	}
}
