// Package dataset streams training samples out of tar shards. A shard
// holds paired entries keyed by file stem: <key>.vec carries the input
// vector and <key>.tgt the target vector, both as whitespace-separated
// decimal floats.
package dataset

import (
	"archive/tar"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Sample is one paired record from a shard.
type Sample struct {
	Key    string
	Input  []float64
	Target []float64
}

// ErrPendingOverflow indicates the pairing map exceeded the configured bound.
var ErrPendingOverflow = errors.New("dataset: pending pair buffer exceeded")

const defaultPendingCap = 1024

// StreamShard streams paired samples from the shard at path. Entries may
// arrive in any order; a sample is emitted once both halves are seen.
func StreamShard(ctx context.Context, path string, pendingCap int) (<-chan Sample, <-chan error) {
	if pendingCap <= 0 {
		pendingCap = defaultPendingCap
	}
	out := make(chan Sample)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		f, err := os.Open(path)
		if err != nil {
			errCh <- fmt.Errorf("open shard: %w", err)
			return
		}
		defer f.Close()

		tr := tar.NewReader(bufio.NewReader(f))
		pending := make(map[string]*partial)

		for {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			hdr, err := tr.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				errCh <- fmt.Errorf("read tar: %w", err)
				return
			}
			if hdr.FileInfo().IsDir() {
				continue
			}
			name := filepath.Base(hdr.Name)
			ext := strings.ToLower(filepath.Ext(name))
			key := strings.TrimSuffix(name, ext)

			switch ext {
			case ".vec", ".tgt":
				payload, err := io.ReadAll(tr)
				if err != nil {
					errCh <- fmt.Errorf("read entry %s: %w", name, err)
					return
				}
				vec, err := parseVector(payload)
				if err != nil {
					errCh <- fmt.Errorf("parse entry %s: %w", name, err)
					return
				}
				part := pending[key]
				if part == nil {
					part = &partial{}
					pending[key] = part
				}
				if ext == ".vec" {
					part.input = vec
				} else {
					part.target = vec
				}
			default:
				// ignore unknown extension
				continue
			}

			if len(pending) > pendingCap {
				errCh <- ErrPendingOverflow
				return
			}

			if part := pending[key]; part != nil && part.ready() {
				sample := Sample{Key: key, Input: part.input, Target: part.target}
				delete(pending, key)

				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- sample:
				}
			}
		}

		if len(pending) > 0 {
			errCh <- fmt.Errorf("%d samples missing their .vec or .tgt half", len(pending))
		}
	}()

	return out, errCh
}

func parseVector(payload []byte) ([]float64, error) {
	fields := strings.Fields(string(payload))
	if len(fields) == 0 {
		return nil, errors.New("empty vector")
	}
	vec := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		vec[i] = v
	}
	return vec, nil
}

type partial struct {
	input  []float64
	target []float64
}

func (p *partial) ready() bool {
	return p.input != nil && p.target != nil
}

// LoadSamples reads every sample from the given shards into memory, in
// shard order. Intended for bounded validation sets.
func LoadSamples(ctx context.Context, shards []string, pendingCap int) ([]Sample, error) {
	var out []Sample
	for _, shard := range shards {
		samples, errCh := StreamShard(ctx, shard, pendingCap)
		for sample := range samples {
			out = append(out, sample)
		}
		if err := <-errCh; err != nil {
			return nil, fmt.Errorf("load %s: %w", shard, err)
		}
	}
	return out, nil
}
