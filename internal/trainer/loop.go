package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gradforge/internal/dataset"
	"gradforge/internal/metrics"
	"gradforge/internal/model"
)

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	TrainRoots map[string][]string
	ValShards  []string
	Steps      int
	BatchSize  int
	Inputs     int
	Outputs    int
	Eta        float64
	NumWorkers int
	LogEvery   int
	Seed       int64
}

// Run executes the training workload.
func Run(ctx context.Context, cfg RunConfig) error {
	if cfg.Steps <= 0 {
		return errors.New("trainer: steps must be > 0")
	}
	if cfg.BatchSize <= 0 {
		return errors.New("trainer: batch size must be > 0")
	}
	if cfg.Inputs <= 0 || cfg.Outputs <= 0 {
		return fmt.Errorf("trainer: dimensions must be > 0 (got %dx%d)", cfg.Outputs, cfg.Inputs)
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 50
	}

	samplerCh, samplerErr, err := dataset.StartSampler(ctx, dataset.SamplerOptions{
		Roots:      cfg.TrainRoots,
		Seed:       cfg.Seed,
		NumWorkers: cfg.NumWorkers,
	})
	if err != nil {
		return err
	}

	mdl := model.NewSingleLayer(cfg.Outputs, cfg.Inputs, cfg.Eta, cfg.Seed)
	var window metrics.Window

	for step := 1; step <= cfg.Steps; step++ {
		startData := time.Now()
		batch, err := nextBatch(ctx, samplerCh, samplerErr, cfg)
		if err != nil {
			return err
		}
		dataTime := time.Since(startData)

		startCompute := time.Now()
		loss := mdl.TrainStep(batch)
		computeTime := time.Since(startCompute)

		window.Record(cfg.BatchSize, dataTime, computeTime, loss)

		if step%cfg.LogEvery == 0 {
			snap := window.Snapshot()
			log.Printf("step=%d samples_per_sec=%.1f data_ms=%.2f compute_ms=%.2f avg_loss=%.6f loss=%.6f",
				step,
				snap.SamplesPerSec,
				snap.AvgDataMS,
				snap.AvgComputeMS,
				snap.AvgLoss,
				snap.LastLoss,
			)
		}
	}

	if len(cfg.ValShards) > 0 {
		valSamples, err := dataset.LoadSamples(ctx, cfg.ValShards, 0)
		if err != nil {
			return err
		}
		valLoss, err := Evaluate(ctx, mdl, valSamples, cfg.NumWorkers)
		if err != nil {
			return err
		}
		log.Printf("validation samples=%d mse=%.6f", len(valSamples), valLoss)
	}

	return nil
}

// nextBatch collects a full batch from the sampler. A sample whose
// dimensions do not match the configured layer is a data error and
// aborts the run rather than being silently dropped.
func nextBatch(ctx context.Context, samples <-chan dataset.Sample, errs <-chan error, cfg RunConfig) (model.Batch, error) {
	inputs := make([][]float64, 0, cfg.BatchSize)
	targets := make([][]float64, 0, cfg.BatchSize)
	for len(inputs) < cfg.BatchSize {
		select {
		case <-ctx.Done():
			return model.Batch{}, ctx.Err()
		case err, ok := <-errs:
			if ok && err != nil {
				return model.Batch{}, err
			}
		case sample, ok := <-samples:
			if !ok {
				return model.Batch{}, errors.New("sampler closed")
			}
			if len(sample.Input) != cfg.Inputs {
				return model.Batch{}, fmt.Errorf("sample %s: input length %d, want %d", sample.Key, len(sample.Input), cfg.Inputs)
			}
			if len(sample.Target) != cfg.Outputs {
				return model.Batch{}, fmt.Errorf("sample %s: target length %d, want %d", sample.Key, len(sample.Target), cfg.Outputs)
			}
			inputs = append(inputs, sample.Input)
			targets = append(targets, sample.Target)
		}
	}
	return model.Batch{Inputs: inputs, Targets: targets}, nil
}
