// Package stats summarizes training runs for reporting surfaces.
package stats

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Report condenses a per-generation best-fitness history.
type Report struct {
	Generations    int     `json:"generations"`
	FirstBest      float64 `json:"first_best"`
	FinalBest      float64 `json:"final_best"`
	PeakBest       float64 `json:"peak_best"`
	PeakGeneration int     `json:"peak_generation"`
	Mean           float64 `json:"mean"`
	StdDev         float64 `json:"std_dev"`
	Improvement    float64 `json:"improvement"`
}

// BuildReport computes summary statistics over a best-by-generation series.
func BuildReport(history []float64) (Report, error) {
	if len(history) == 0 {
		return Report{}, fmt.Errorf("fitness history is empty")
	}

	peak := history[0]
	peakGeneration := 1
	for i, value := range history {
		if value > peak {
			peak = value
			peakGeneration = i + 1
		}
	}

	report := Report{
		Generations:    len(history),
		FirstBest:      history[0],
		FinalBest:      history[len(history)-1],
		PeakBest:       peak,
		PeakGeneration: peakGeneration,
		Mean:           stat.Mean(history, nil),
	}
	if len(history) > 1 {
		report.StdDev = stat.StdDev(history, nil)
	}
	if history[0] != 0 {
		report.Improvement = (report.FinalBest - history[0]) / history[0]
	}
	return report, nil
}

// Format renders the report for terminal output.
func (r Report) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "generations:      %d\n", r.Generations)
	fmt.Fprintf(&b, "first best:       %.3f\n", r.FirstBest)
	fmt.Fprintf(&b, "final best:       %.3f\n", r.FinalBest)
	fmt.Fprintf(&b, "peak best:        %.3f (generation %d)\n", r.PeakBest, r.PeakGeneration)
	fmt.Fprintf(&b, "mean best:        %.3f\n", r.Mean)
	fmt.Fprintf(&b, "std dev:          %.3f\n", r.StdDev)
	fmt.Fprintf(&b, "improvement:      %.1f%%\n", r.Improvement*100)
	return b.String()
}
