package model

import (
	"math"
	"math/rand"

	"gradforge/internal/layer"
	"gradforge/internal/mathops"
)

// SingleLayer is a fully-connected sigmoid layer trained by per-sample
// gradient descent on squared error. It owns its weight matrix and one
// scratch context, so a SingleLayer supports one training step at a
// time.
type SingleLayer struct {
	outputs int
	inputs  int
	eta     float64
	weights *mathops.Matrix
	scratch *layer.Scratch
	out     []float64
}

// NewSingleLayer constructs the model with uniform random weights in
// [-1/sqrt(inputs), 1/sqrt(inputs)].
func NewSingleLayer(outputs, inputs int, eta float64, seed int64) *SingleLayer {
	if outputs <= 0 {
		outputs = 1
	}
	if inputs <= 0 {
		inputs = 16
	}
	if eta <= 0 {
		eta = 0.1
	}
	rng := rand.New(rand.NewSource(seed))
	weights := mathops.NewMatrix(outputs, inputs)
	max := 1 / math.Sqrt(float64(inputs))
	for i := range weights.Data {
		weights.Data[i] = (rng.Float64()*2 - 1) * max
	}
	scratch, err := layer.NewScratch(outputs, inputs)
	if err != nil {
		// dimensions are positive by construction
		panic(err)
	}
	return &SingleLayer{
		outputs: outputs,
		inputs:  inputs,
		eta:     eta,
		weights: weights,
		scratch: scratch,
		out:     make([]float64, outputs),
	}
}

// TrainStep executes one forward/backward pass per sample and returns
// the mean squared error measured before each update. Samples whose
// dimensions do not match the layer are skipped.
func (m *SingleLayer) TrainStep(batch Batch) float64 {
	totalLoss := 0.0
	count := 0
	for i, input := range batch.Inputs {
		if len(input) != m.inputs {
			continue
		}
		target := batch.Targets[i]
		if len(target) != m.outputs {
			continue
		}
		if err := layer.Forward(m.out, input, m.weights); err != nil {
			continue
		}
		loss, err := layer.MSE(m.out, target)
		if err != nil {
			continue
		}
		if err := layer.Backward(m.out, target, input, m.eta, m.weights, m.scratch); err != nil {
			continue
		}
		totalLoss += loss
		count++
	}
	if count == 0 {
		return 0
	}
	return totalLoss / float64(count)
}

// Predict writes the forward-pass output for input into dst.
func (m *SingleLayer) Predict(dst, input []float64) error {
	return layer.Forward(dst, input, m.weights)
}

// Loss returns the mean squared error of the model's prediction for one
// sample.
func (m *SingleLayer) Loss(input, target []float64) (float64, error) {
	if err := layer.Forward(m.out, input, m.weights); err != nil {
		return 0, err
	}
	return layer.MSE(m.out, target)
}

// Outputs returns the output dimension.
func (m *SingleLayer) Outputs() int { return m.outputs }

// Inputs returns the input dimension.
func (m *SingleLayer) Inputs() int { return m.inputs }

// Weights exposes the weight matrix for inspection and evaluation.
func (m *SingleLayer) Weights() *mathops.Matrix { return m.weights }
