package main

import (
	"context"
	"math"
	"strings"
	"testing"
)

func TestRunDispatchRejectsUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"teleport"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("error text: %v", err)
	}
}

func TestRunDispatchRequiresCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing command")
	}
}

func TestRunCommandMemoryStore(t *testing.T) {
	args := []string{
		"run",
		"--run-id", "cli-run",
		"--track", "ring",
		"--pop", "6",
		"--gens", "2",
		"--seed", "11",
	}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("run command: %v", err)
	}
}

func TestRunCommandWithConfigAndOverride(t *testing.T) {
	path := writeConfig(t, `
[run]
run_id = cli-config-run
track = ring
generations = 50
population = 6
seed = 5
`)
	args := []string{
		"run",
		"--config", path,
		"--gens", "2",
	}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("run command with config: %v", err)
	}
}

func TestFitnessCommandRequiresRunID(t *testing.T) {
	if err := run(context.Background(), []string{"fitness"}); err == nil {
		t.Fatal("expected error without --run-id")
	}
}

func TestReportCommandUnknownRun(t *testing.T) {
	args := []string{"report", "--run-id", "missing"}
	if err := run(context.Background(), args); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestFormatLapTime(t *testing.T) {
	if got := formatLapTime(math.Inf(1)); got != "n/a" {
		t.Fatalf("infinite lap time: %q", got)
	}
	if got := formatLapTime(31.257); got != "31.26s" {
		t.Fatalf("lap time: %q", got)
	}
}
