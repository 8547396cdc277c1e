// Package layer implements the forward pass, loss, and backward pass of
// a single fully-connected layer with sigmoid activation, trained by
// scaled gradient descent on squared error. The weight matrix is owned
// by the caller and mutated in place by Backward; the layer itself keeps
// no state between calls.
package layer

import (
	"errors"
	"fmt"

	"gradforge/internal/mathops"
)

// Forward computes output = sigmoid(w . input). The output buffer is
// caller-supplied and doubles as the pre-activation buffer; the sigmoid
// is applied in place over it.
func Forward(output, input []float64, w *mathops.Matrix) error {
	if err := checkDims(len(output), len(input), w); err != nil {
		return err
	}
	mathops.MatVecMul(output, w, input)
	mathops.SigmoidTo(output, output)
	return nil
}

// MSE returns the mean squared error between an actual and expected
// output vector. Monitoring only; Backward recomputes the error term
// itself.
func MSE(actual, expected []float64) (float64, error) {
	if len(actual) != len(expected) {
		return 0, fmt.Errorf("layer: mse: actual length %d does not match expected length %d", len(actual), len(expected))
	}
	if len(actual) == 0 {
		return 0, errors.New("layer: mse: empty vectors")
	}
	return mathops.MSE(actual, expected), nil
}

// Backward applies one scaled gradient-descent step to w in place:
//
//	d     = actual * (1 - actual)        sigmoid derivative at the output
//	delta = eta * (actual - expected) * d
//	w    -= delta (x) input              outer-product gradient
//
// actual must hold the untouched output of Forward for the same input
// and weights; the derivative is evaluated at the activated output, so
// the shortcut is only valid then. actual, expected, and input are read
// only, never written. The step order matters: the derivative is taken
// from actual before the error term is formed.
func Backward(actual, expected, input []float64, eta float64, w *mathops.Matrix, s *Scratch) error {
	if err := checkDims(len(actual), len(input), w); err != nil {
		return err
	}
	if len(expected) != len(actual) {
		return fmt.Errorf("layer: expected length %d does not match output length %d", len(expected), len(actual))
	}
	if s == nil {
		return errors.New("layer: nil scratch")
	}
	deriv, delta, grad, err := s.reserve(w.Rows, w.Cols)
	if err != nil {
		return err
	}

	mathops.SigmoidPrimeActivated(deriv, actual)
	mathops.SubTo(delta, actual, expected)
	mathops.MulTo(delta, delta, deriv)
	mathops.Scale(eta, delta)
	mathops.OuterTo(grad, delta, input)
	mathops.AddScaledMatrix(w, -1, grad)

	s.lastRows = w.Rows
	s.lastCols = w.Cols
	return nil
}

func checkDims(outLen, inLen int, w *mathops.Matrix) error {
	if w == nil {
		return errors.New("layer: nil weight matrix")
	}
	if w.Rows <= 0 || w.Cols <= 0 || len(w.Data) != w.Rows*w.Cols {
		return fmt.Errorf("layer: malformed %dx%d weight matrix with %d elements", w.Rows, w.Cols, len(w.Data))
	}
	if inLen != w.Cols {
		return fmt.Errorf("layer: input length %d does not match weight cols %d", inLen, w.Cols)
	}
	if outLen != w.Rows {
		return fmt.Errorf("layer: output length %d does not match weight rows %d", outLen, w.Rows)
	}
	return nil
}
