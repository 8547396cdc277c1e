package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gradforge/internal/config"
	"gradforge/internal/dataset"
	"gradforge/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "configs/demo.yaml", "Path to YAML config")
	trainRoot := flag.String("train-root", "", "Override training shard root")
	valRoot := flag.String("val-root", "", "Override validation shard root")
	steps := flag.Int("steps", 0, "Number of training steps")
	batchSize := flag.Int("batch-size", 0, "Batch size")
	inputs := flag.Int("inputs", 0, "Input vector length")
	outputs := flag.Int("outputs", 0, "Output vector length")
	eta := flag.Float64("eta", 0, "Learning rate")
	numWorkers := flag.Int("num-workers", 0, "Number of data loader workers")
	seed := flag.Int64("seed", 0, "PRNG seed")
	logEvery := flag.Int("log-every", 0, "Log every N steps")

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	cfg.ApplyOverrides(config.Overrides{
		TrainRoot:  *trainRoot,
		ValRoot:    *valRoot,
		Steps:      *steps,
		BatchSize:  *batchSize,
		Inputs:     *inputs,
		Outputs:    *outputs,
		Eta:        *eta,
		NumWorkers: *numWorkers,
		Seed:       *seed,
		LogEvery:   *logEvery,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	trainShards, err := dataset.DiscoverShards(cfg.TrainRoot)
	if err != nil {
		log.Fatalf("discover shards under %s: %v", cfg.TrainRoot, err)
	}
	if len(trainShards) == 0 {
		log.Fatalf("no shards discovered under %s", cfg.TrainRoot)
	}
	log.Printf("root=%s shards=%d", cfg.TrainRoot, len(trainShards))

	var valShards []string
	if cfg.ValRoot != "" {
		valShards, err = dataset.DiscoverShards(cfg.ValRoot)
		if err != nil {
			log.Fatalf("discover shards under %s: %v", cfg.ValRoot, err)
		}
		log.Printf("root=%s shards=%d", cfg.ValRoot, len(valShards))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCfg := trainer.RunConfig{
		TrainRoots: map[string][]string{cfg.TrainRoot: trainShards},
		ValShards:  valShards,
		Steps:      cfg.Steps,
		BatchSize:  cfg.BatchSize,
		Inputs:     cfg.Inputs,
		Outputs:    cfg.Outputs,
		Eta:        cfg.Eta,
		NumWorkers: cfg.NumWorkers,
		LogEvery:   cfg.LogEvery,
		Seed:       cfg.Seed,
	}

	if err := trainer.Run(ctx, runCfg); err != nil {
		log.Fatalf("training failed: %v", err)
	}
}
