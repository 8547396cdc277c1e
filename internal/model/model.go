package model

// Batch represents a minibatch of input vectors and regression targets.
type Batch struct {
	Inputs  [][]float64
	Targets [][]float64
}

// Model defines the minimal training functionality required by the loop.
type Model interface {
	TrainStep(batch Batch) float64
}
