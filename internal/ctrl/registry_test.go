package ctrl

import (
	"errors"
	"testing"
)

func TestBuiltInActivationsRegistered(t *testing.T) {
	for _, name := range []string{ActivationSigmoid, ActivationTanh} {
		if _, err := GetActivation(name); err != nil {
			t.Fatalf("activation %s: %v", name, err)
		}
	}
}

func TestGetActivationUnknown(t *testing.T) {
	if _, err := GetActivation("softsign"); !errors.Is(err, ErrActivationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRegisterActivationRejectsDuplicate(t *testing.T) {
	if err := RegisterActivation(ActivationSigmoid, func(x float64) float64 { return x }); !errors.Is(err, ErrActivationExists) {
		t.Fatalf("expected exists error, got %v", err)
	}
}

func TestListActivationsSorted(t *testing.T) {
	names := ListActivations()
	if len(names) < 2 {
		t.Fatalf("expected at least 2 activations, got %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("activation list not sorted: %v", names)
		}
	}
}

func TestSigmoidBounds(t *testing.T) {
	sig, err := GetActivation(ActivationSigmoid)
	if err != nil {
		t.Fatalf("get sigmoid: %v", err)
	}
	if v := sig(0); v != 0.5 {
		t.Fatalf("sigmoid(0): got %v, want 0.5", v)
	}
	if v := sig(40); v <= 0.99 {
		t.Fatalf("sigmoid(40): got %v, want near 1", v)
	}
	if v := sig(-40); v >= 0.01 {
		t.Fatalf("sigmoid(-40): got %v, want near 0", v)
	}
}
