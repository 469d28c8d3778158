// Package ctrl implements the fixed-topology feedforward controller that maps
// a sensor/state vector to an action vector. A controller's dimensions never
// change after construction; reproduction always produces a new instance.
package ctrl

import (
	"errors"
	"fmt"
	"math/rand"
)

var ErrDimensionMismatch = errors.New("controller dimension mismatch")

const (
	// Mutation perturbs a selected weight by uniform(-1,1) * perturbScale,
	// a single step rather than a sustained drift.
	perturbScale = 0.5
)

// Controller is a two-layer feedforward network. Weights are finite reals in
// no fixed range: initialized uniformly in [-1,1], then perturbed over
// generations.
type Controller struct {
	inputSize  int
	hiddenSize int
	outputSize int
	activation string
	act        ActivationFunc

	weightsIH [][]float64 // [hidden][input]
	weightsHO [][]float64 // [output][hidden]
	biasH     []float64
	biasO     []float64
}

// New builds a randomized controller with weights and biases in [-1,1].
func New(rng *rand.Rand, inputSize, hiddenSize, outputSize int) (*Controller, error) {
	return NewWithActivation(rng, inputSize, hiddenSize, outputSize, ActivationSigmoid)
}

func NewWithActivation(rng *rand.Rand, inputSize, hiddenSize, outputSize int, activation string) (*Controller, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if inputSize <= 0 || hiddenSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("controller sizes must be > 0: in=%d hidden=%d out=%d", inputSize, hiddenSize, outputSize)
	}
	act, err := GetActivation(activation)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		outputSize: outputSize,
		activation: activation,
		act:        act,
		weightsIH:  randomMatrix(rng, hiddenSize, inputSize),
		weightsHO:  randomMatrix(rng, outputSize, hiddenSize),
		biasH:      randomVector(rng, hiddenSize),
		biasO:      randomVector(rng, outputSize),
	}
	return c, nil
}

func randomMatrix(rng *rand.Rand, rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = randomVector(rng, cols)
	}
	return m
}

func randomVector(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64()*2 - 1
	}
	return v
}

func (c *Controller) InputSize() int     { return c.inputSize }
func (c *Controller) HiddenSize() int    { return c.hiddenSize }
func (c *Controller) OutputSize() int    { return c.outputSize }
func (c *Controller) Activation() string { return c.activation }

// Predict computes the action vector for one input vector. It is a pure
// function of the current weights.
func (c *Controller) Predict(input []float64) ([]float64, error) {
	if len(input) != c.inputSize {
		return nil, fmt.Errorf("%w: input length %d, want %d", ErrDimensionMismatch, len(input), c.inputSize)
	}

	hidden := make([]float64, c.hiddenSize)
	for h := 0; h < c.hiddenSize; h++ {
		total := c.biasH[h]
		row := c.weightsIH[h]
		for i := 0; i < c.inputSize; i++ {
			total += row[i] * input[i]
		}
		hidden[h] = c.act(total)
	}

	output := make([]float64, c.outputSize)
	for o := 0; o < c.outputSize; o++ {
		total := c.biasO[o]
		row := c.weightsHO[o]
		for h := 0; h < c.hiddenSize; h++ {
			total += row[h] * hidden[h]
		}
		output[o] = c.act(total)
	}
	return output, nil
}

// Clone deep-copies all weights and biases; the clone mutates independently.
func (c *Controller) Clone() *Controller {
	return &Controller{
		inputSize:  c.inputSize,
		hiddenSize: c.hiddenSize,
		outputSize: c.outputSize,
		activation: c.activation,
		act:        c.act,
		weightsIH:  cloneMatrix(c.weightsIH),
		weightsHO:  cloneMatrix(c.weightsHO),
		biasH:      cloneVector(c.biasH),
		biasO:      cloneVector(c.biasO),
	}
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = cloneVector(m[i])
	}
	return out
}

func cloneVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// Mutate perturbs every weight and bias independently with probability rate.
// Rate bounds are the configuration layer's responsibility, not this method's.
func (c *Controller) Mutate(rng *rand.Rand, rate float64) {
	mutateMatrix(rng, c.weightsIH, rate)
	mutateMatrix(rng, c.weightsHO, rate)
	mutateVector(rng, c.biasH, rate)
	mutateVector(rng, c.biasO, rate)
}

func mutateMatrix(rng *rand.Rand, m [][]float64, rate float64) {
	for i := range m {
		mutateVector(rng, m[i], rate)
	}
}

func mutateVector(rng *rand.Rand, v []float64, rate float64) {
	for i := range v {
		if rng.Float64() < rate {
			v[i] += (rng.Float64()*2 - 1) * perturbScale
		}
	}
}

// Crossover produces a child whose every weight and bias is copied from
// parent a or parent b with equal probability. Parents must share dimensions
// and activation.
func Crossover(rng *rand.Rand, a, b *Controller) (*Controller, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if a == nil || b == nil {
		return nil, errors.New("both parents are required")
	}
	if a.inputSize != b.inputSize || a.hiddenSize != b.hiddenSize || a.outputSize != b.outputSize {
		return nil, fmt.Errorf("%w: parents %dx%dx%d vs %dx%dx%d",
			ErrDimensionMismatch,
			a.inputSize, a.hiddenSize, a.outputSize,
			b.inputSize, b.hiddenSize, b.outputSize)
	}
	if a.activation != b.activation {
		return nil, fmt.Errorf("%w: parent activations %s vs %s", ErrDimensionMismatch, a.activation, b.activation)
	}

	child := a.Clone()
	crossMatrix(rng, child.weightsIH, b.weightsIH)
	crossMatrix(rng, child.weightsHO, b.weightsHO)
	crossVector(rng, child.biasH, b.biasH)
	crossVector(rng, child.biasO, b.biasO)
	return child, nil
}

func crossMatrix(rng *rand.Rand, dst, other [][]float64) {
	for i := range dst {
		crossVector(rng, dst[i], other[i])
	}
}

func crossVector(rng *rand.Rand, dst, other []float64) {
	for i := range dst {
		if rng.Float64() < 0.5 {
			dst[i] = other[i]
		}
	}
}
