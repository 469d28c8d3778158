package main

import (
	"fmt"

	"gopkg.in/ini.v1"

	"raceline/pkg/raceline"
)

// Run configs are INI files with [run], [adaptive], [novelty] and [sharing]
// sections. Every key is optional; flags set on the command line override
// values loaded here.
type runSection struct {
	RunID         string  `ini:"run_id"`
	Track         string  `ini:"track"`
	Generations   int     `ini:"generations"`
	Seed          int64   `ini:"seed"`
	Resume        bool    `ini:"resume"`
	Population    int     `ini:"population"`
	HiddenSize    int     `ini:"hidden_size"`
	MutationRate  float64 `ini:"mutation_rate"`
	Elitism       int     `ini:"elitism"`
	CrossoverRate float64 `ini:"crossover_rate"`
	SeedAll       bool    `ini:"seed_all"`
}

type adaptiveSection struct {
	Enabled             bool    `ini:"enabled"`
	StagnationThreshold int     `ini:"stagnation_threshold"`
	MutationBoost       float64 `ini:"mutation_boost"`
}

type noveltySection struct {
	Enabled     bool    `ini:"enabled"`
	Weight      float64 `ini:"weight"`
	ArchiveSize int     `ini:"archive_size"`
	KNeighbors  int     `ini:"k_neighbors"`
	Threshold   float64 `ini:"threshold"`
}

type sharingSection struct {
	Enabled bool    `ini:"enabled"`
	Sigma   float64 `ini:"sigma"`
}

func loadRunRequestFromConfig(path string) (raceline.RunRequest, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return raceline.RunRequest{}, fmt.Errorf("load config file %q: %w", path, err)
	}

	var run runSection
	if err := cfg.Section("run").MapTo(&run); err != nil {
		return raceline.RunRequest{}, fmt.Errorf("map [run] section: %w", err)
	}
	var adaptive adaptiveSection
	if err := cfg.Section("adaptive").MapTo(&adaptive); err != nil {
		return raceline.RunRequest{}, fmt.Errorf("map [adaptive] section: %w", err)
	}
	var novelty noveltySection
	if err := cfg.Section("novelty").MapTo(&novelty); err != nil {
		return raceline.RunRequest{}, fmt.Errorf("map [novelty] section: %w", err)
	}
	var sharing sharingSection
	if err := cfg.Section("sharing").MapTo(&sharing); err != nil {
		return raceline.RunRequest{}, fmt.Errorf("map [sharing] section: %w", err)
	}

	return raceline.RunRequest{
		RunID:         run.RunID,
		Track:         run.Track,
		Generations:   run.Generations,
		Seed:          run.Seed,
		Resume:        run.Resume,
		Population:    run.Population,
		HiddenSize:    run.HiddenSize,
		MutationRate:  run.MutationRate,
		Elitism:       run.Elitism,
		CrossoverRate: run.CrossoverRate,
		SeedAll:       run.SeedAll,

		AdaptiveMutation:    adaptive.Enabled,
		StagnationThreshold: adaptive.StagnationThreshold,
		MutationBoost:       adaptive.MutationBoost,

		NoveltySearch:    novelty.Enabled,
		NoveltyWeight:    novelty.Weight,
		ArchiveSize:      novelty.ArchiveSize,
		KNeighbors:       novelty.KNeighbors,
		NoveltyThreshold: novelty.Threshold,

		FitnessSharing: sharing.Enabled,
		SharingSigma:   sharing.Sigma,
	}, nil
}

func loadOrDefaultRunRequest(configPath string) (raceline.RunRequest, error) {
	if configPath == "" {
		return raceline.RunRequest{}, nil
	}
	return loadRunRequestFromConfig(configPath)
}
