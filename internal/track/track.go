// Package track provides reference evaluation environments for controllers.
// The evolutionary engine never depends on this package; it is the external
// driver's side of the contract, producing the terminal-state records the
// engine consumes.
package track

import (
	"context"
	"fmt"

	"raceline/internal/ctrl"
	"raceline/internal/model"
)

// Track drives one controller until it reaches terminal state and reports
// the fitness-relevant outcome.
type Track interface {
	Name() string
	// InputSize/OutputSize declare the controller shape this track drives.
	InputSize() int
	OutputSize() int
	Evaluate(ctx context.Context, controller *ctrl.Controller) (model.TerminalRecord, error)
}

// ByName resolves a track by name with default geometry.
func ByName(name string) (Track, error) {
	switch name {
	case "", "ring":
		return NewRing(DefaultRingConfig()), nil
	default:
		return nil, fmt.Errorf("unsupported track: %s", name)
	}
}
