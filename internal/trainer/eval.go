package trainer

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"gradforge/internal/dataset"
	"gradforge/internal/layer"
	"gradforge/internal/model"
)

// Evaluate computes the mean squared error of mdl over samples, fanned
// out across workers. Weights are read-only here, so the only per-worker
// state is an output buffer; each worker accumulates into its own slot.
func Evaluate(ctx context.Context, mdl *model.SingleLayer, samples []dataset.Sample, workers int) (float64, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(samples) {
		workers = len(samples)
	}

	g, ctx := errgroup.WithContext(ctx)
	var index int32 = -1
	sums := make([]float64, workers)

	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			out := make([]float64, mdl.Outputs())
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				i := int(atomic.AddInt32(&index, 1))
				if i >= len(samples) {
					return nil
				}
				sample := &samples[i]
				if err := mdl.Predict(out, sample.Input); err != nil {
					return err
				}
				loss, err := layer.MSE(out, sample.Target)
				if err != nil {
					return err
				}
				sums[w] += loss
			}
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return floats.Sum(sums) / float64(len(samples)), nil
}
