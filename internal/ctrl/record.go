package ctrl

import (
	"fmt"

	"raceline/internal/model"
)

// Record exports the controller as a plain serializable record. The copied
// tensors round-trip bit-for-bit through FromRecord.
func (c *Controller) Record() model.ControllerRecord {
	return model.ControllerRecord{
		InputSize:  c.inputSize,
		HiddenSize: c.hiddenSize,
		OutputSize: c.outputSize,
		Activation: c.activation,
		WeightsIH:  cloneMatrix(c.weightsIH),
		WeightsHO:  cloneMatrix(c.weightsHO),
		BiasH:      cloneVector(c.biasH),
		BiasO:      cloneVector(c.biasO),
	}
}

// FromRecord rebuilds a controller from its serialized form, validating
// tensor shapes against the declared sizes.
func FromRecord(rec model.ControllerRecord) (*Controller, error) {
	if rec.InputSize <= 0 || rec.HiddenSize <= 0 || rec.OutputSize <= 0 {
		return nil, fmt.Errorf("%w: sizes in=%d hidden=%d out=%d", ErrDimensionMismatch, rec.InputSize, rec.HiddenSize, rec.OutputSize)
	}
	activation := rec.Activation
	if activation == "" {
		activation = ActivationSigmoid
	}
	act, err := GetActivation(activation)
	if err != nil {
		return nil, err
	}
	if err := checkMatrix("weights_ih", rec.WeightsIH, rec.HiddenSize, rec.InputSize); err != nil {
		return nil, err
	}
	if err := checkMatrix("weights_ho", rec.WeightsHO, rec.OutputSize, rec.HiddenSize); err != nil {
		return nil, err
	}
	if len(rec.BiasH) != rec.HiddenSize {
		return nil, fmt.Errorf("%w: bias_h length %d, want %d", ErrDimensionMismatch, len(rec.BiasH), rec.HiddenSize)
	}
	if len(rec.BiasO) != rec.OutputSize {
		return nil, fmt.Errorf("%w: bias_o length %d, want %d", ErrDimensionMismatch, len(rec.BiasO), rec.OutputSize)
	}

	return &Controller{
		inputSize:  rec.InputSize,
		hiddenSize: rec.HiddenSize,
		outputSize: rec.OutputSize,
		activation: activation,
		act:        act,
		weightsIH:  cloneMatrix(rec.WeightsIH),
		weightsHO:  cloneMatrix(rec.WeightsHO),
		biasH:      cloneVector(rec.BiasH),
		biasO:      cloneVector(rec.BiasO),
	}, nil
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("%w: %s rows %d, want %d", ErrDimensionMismatch, name, len(m), rows)
	}
	for i := range m {
		if len(m[i]) != cols {
			return fmt.Errorf("%w: %s row %d length %d, want %d", ErrDimensionMismatch, name, i, len(m[i]), cols)
		}
	}
	return nil
}
