package layer

import (
	"errors"
	"fmt"

	"gradforge/internal/mathops"
)

// ErrScratchCapacity indicates a backward pass was asked to handle
// dimensions larger than the scratch space was built for.
var ErrScratchCapacity = errors.New("layer: scratch capacity exceeded")

// Scratch holds the temporary buffers a backward pass needs: the
// sigmoid-derivative vector, the scaled delta vector, and the gradient
// matrix. One Scratch serves one training context; concurrent training
// contexts each need their own (Scratch is not safe for concurrent use).
// Buffers are write-before-read on every call and carry no state between
// calls beyond the read-only snapshot exposed for diagnostics.
type Scratch struct {
	maxOut int
	maxIn  int
	deriv  []float64
	delta  []float64
	grad   []float64

	// dimensions of the last completed backward pass, for introspection
	lastRows int
	lastCols int
}

// NewScratch allocates scratch space for weight matrices up to
// maxOut x maxIn.
func NewScratch(maxOut, maxIn int) (*Scratch, error) {
	if maxOut <= 0 || maxIn <= 0 {
		return nil, fmt.Errorf("layer: scratch dimensions must be positive (got %dx%d)", maxOut, maxIn)
	}
	return &Scratch{
		maxOut: maxOut,
		maxIn:  maxIn,
		deriv:  make([]float64, maxOut),
		delta:  make([]float64, maxOut),
		grad:   make([]float64, maxOut*maxIn),
	}, nil
}

// reserve checks a rows x cols backward pass fits and returns sized views.
func (s *Scratch) reserve(rows, cols int) (deriv, delta []float64, grad *mathops.Matrix, err error) {
	if rows > s.maxOut || cols > s.maxIn {
		return nil, nil, nil, fmt.Errorf("%w: need %dx%d, have %dx%d", ErrScratchCapacity, rows, cols, s.maxOut, s.maxIn)
	}
	grad = &mathops.Matrix{Data: s.grad[:rows*cols], Rows: rows, Cols: cols}
	return s.deriv[:rows], s.delta[:rows], grad, nil
}

// DerivPrefix returns a copy of the first k elements of the derivative
// vector from the last backward pass, clamped to its length. Diagnostic
// only; returns nil before the first backward pass.
func (s *Scratch) DerivPrefix(k int) []float64 {
	if k > s.lastRows {
		k = s.lastRows
	}
	if k <= 0 {
		return nil
	}
	out := make([]float64, k)
	copy(out, s.deriv[:k])
	return out
}

// GradBlock returns a copy of the top-left rows x cols block of the
// gradient matrix from the last backward pass, clamped to its
// dimensions. Diagnostic only; returns nil before the first backward
// pass.
func (s *Scratch) GradBlock(rows, cols int) [][]float64 {
	if rows > s.lastRows {
		rows = s.lastRows
	}
	if cols > s.lastCols {
		cols = s.lastCols
	}
	if rows <= 0 || cols <= 0 {
		return nil
	}
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		copy(out[i], s.grad[i*s.lastCols:i*s.lastCols+cols])
	}
	return out
}
