// Package mathops provides the leaf numeric primitives for the trainer:
// matrix-vector products, the logistic activation and its derivative,
// element-wise vector arithmetic, outer products, and the mean squared
// error reduction. Every primitive writes into a caller-supplied buffer
// and allocates nothing. Length mismatches panic, following the gonum
// convention for leaf kernels; recoverable validation belongs to the
// callers in the layer package.
package mathops

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// MatVecMul computes dst = m . v, where row i of dst is the dot product
// of weight row i with v. dst must not alias v.
func MatVecMul(dst []float64, m *Matrix, v []float64) {
	if len(v) != m.Cols {
		panic(fmt.Sprintf("mathops: matvec: vector length %d, matrix cols %d", len(v), m.Cols))
	}
	if len(dst) != m.Rows {
		panic(fmt.Sprintf("mathops: matvec: dst length %d, matrix rows %d", len(dst), m.Rows))
	}
	for i := 0; i < m.Rows; i++ {
		dst[i] = floats.Dot(m.Row(i), v)
	}
}

// SigmoidTo applies the logistic function 1/(1+e^-x) element-wise.
// The formulation branches on the sign of x so the exponent is always
// non-positive; large |x| saturates to 0 or 1 instead of overflowing.
// dst may alias src.
func SigmoidTo(dst, src []float64) {
	if len(dst) != len(src) {
		panic(fmt.Sprintf("mathops: sigmoid: dst length %d, src length %d", len(dst), len(src)))
	}
	for i, x := range src {
		if x >= 0 {
			dst[i] = 1 / (1 + math.Exp(-x))
		} else {
			e := math.Exp(x)
			dst[i] = e / (1 + e)
		}
	}
}

// SigmoidPrimeActivated computes the sigmoid derivative evaluated at an
// already-activated output: for y = sigmoid(x), sigma'(x) = y*(1-y).
// act must hold activated values, not pre-activations.
func SigmoidPrimeActivated(dst, act []float64) {
	if len(dst) != len(act) {
		panic(fmt.Sprintf("mathops: sigmoid prime: dst length %d, act length %d", len(dst), len(act)))
	}
	for i, y := range act {
		dst[i] = y * (1 - y)
	}
}

// SubTo computes dst = a - b element-wise.
func SubTo(dst, a, b []float64) {
	floats.SubTo(dst, a, b)
}

// MulTo computes the Hadamard product dst = a * b element-wise.
func MulTo(dst, a, b []float64) {
	floats.MulTo(dst, a, b)
}

// Scale multiplies v by c in place.
func Scale(c float64, v []float64) {
	floats.Scale(c, v)
}

// OuterTo computes the outer product dst[i][j] = u[i] * v[j].
func OuterTo(dst *Matrix, u, v []float64) {
	if dst.Rows != len(u) || dst.Cols != len(v) {
		panic(fmt.Sprintf("mathops: outer: dst %dx%d, vectors %d and %d", dst.Rows, dst.Cols, len(u), len(v)))
	}
	for i, ui := range u {
		floats.ScaleTo(dst.Row(i), ui, v)
	}
}

// AddScaledMatrix computes dst += alpha * g over the flattened extent.
func AddScaledMatrix(dst *Matrix, alpha float64, g *Matrix) {
	if dst.Rows != g.Rows || dst.Cols != g.Cols {
		panic(fmt.Sprintf("mathops: add scaled: dst %dx%d, g %dx%d", dst.Rows, dst.Cols, g.Rows, g.Cols))
	}
	floats.AddScaled(dst.Data, alpha, g.Data)
}

// MSE returns the mean squared error (1/n) * sum((a_i - e_i)^2).
func MSE(actual, expected []float64) float64 {
	if len(actual) != len(expected) {
		panic(fmt.Sprintf("mathops: mse: actual length %d, expected length %d", len(actual), len(expected)))
	}
	var sum float64
	for i, a := range actual {
		d := a - expected[i]
		sum += d * d
	}
	return sum / float64(len(actual))
}
