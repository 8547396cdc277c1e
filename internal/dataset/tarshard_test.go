package dataset

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestStreamShardPairsEntries(t *testing.T) {
	dir := t.TempDir()
	shard := filepath.Join(dir, "shard-000000.tar")
	writeShard(t, shard, map[string]vecPair{
		"000001": {input: "0.1 0.2 0.3", target: "1"},
		"000002": {input: "0.4 0.5 0.6", target: "0"},
	})

	samples := drainShard(t, shard)
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	byKey := map[string]Sample{}
	for _, s := range samples {
		byKey[s.Key] = s
	}
	got := byKey["000001"]
	if !reflect.DeepEqual(got.Input, []float64{0.1, 0.2, 0.3}) {
		t.Fatalf("input for 000001 = %v", got.Input)
	}
	if !reflect.DeepEqual(got.Target, []float64{1}) {
		t.Fatalf("target for 000001 = %v", got.Target)
	}
}

func TestStreamShardIncompletePair(t *testing.T) {
	dir := t.TempDir()
	shard := filepath.Join(dir, "shard-000000.tar")
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	addTarPayload(t, tw, "lonely.vec", []byte("1 2 3"))
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := os.WriteFile(shard, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write shard: %v", err)
	}

	samplesCh, errCh := StreamShard(context.Background(), shard, 4)
	for range samplesCh {
	}
	if err := <-errCh; err == nil {
		t.Fatalf("expected error for unpaired entry")
	}
}

func TestStreamShardBadPayload(t *testing.T) {
	dir := t.TempDir()
	shard := filepath.Join(dir, "shard-000000.tar")
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	addTarPayload(t, tw, "x.vec", []byte("0.5 nope"))
	addTarPayload(t, tw, "x.tgt", []byte("1"))
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := os.WriteFile(shard, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write shard: %v", err)
	}

	samplesCh, errCh := StreamShard(context.Background(), shard, 4)
	for range samplesCh {
	}
	if err := <-errCh; err == nil {
		t.Fatalf("expected parse error for malformed float")
	}
}

func TestStreamShardPendingOverflow(t *testing.T) {
	dir := t.TempDir()
	shard := filepath.Join(dir, "shard-000000.tar")
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	addTarPayload(t, tw, "a.vec", []byte("1"))
	addTarPayload(t, tw, "b.vec", []byte("2"))
	addTarPayload(t, tw, "a.tgt", []byte("0"))
	addTarPayload(t, tw, "b.tgt", []byte("1"))
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := os.WriteFile(shard, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write shard: %v", err)
	}

	samplesCh, errCh := StreamShard(context.Background(), shard, 1)
	for range samplesCh {
	}
	if err := <-errCh; !errors.Is(err, ErrPendingOverflow) {
		t.Fatalf("expected ErrPendingOverflow, got %v", err)
	}
}

func TestLoadSamples(t *testing.T) {
	dir := t.TempDir()
	shardA := filepath.Join(dir, "shard-000000.tar")
	shardB := filepath.Join(dir, "shard-000001.tar")
	writeShard(t, shardA, map[string]vecPair{"a": {input: "1 0", target: "1"}})
	writeShard(t, shardB, map[string]vecPair{"b": {input: "0 1", target: "0"}})

	samples, err := LoadSamples(context.Background(), []string{shardA, shardB}, 0)
	if err != nil {
		t.Fatalf("LoadSamples: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Key != "a" || samples[1].Key != "b" {
		t.Fatalf("samples out of shard order: %v, %v", samples[0].Key, samples[1].Key)
	}
}

func drainShard(t *testing.T, shard string) []Sample {
	t.Helper()
	samplesCh, errCh := StreamShard(context.Background(), shard, 16)
	var samples []Sample
	for sample := range samplesCh {
		samples = append(samples, sample)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("StreamShard returned error: %v", err)
	}
	return samples
}

type vecPair struct {
	input  string
	target string
}

func writeShard(t *testing.T, path string, pairs map[string]vecPair) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	for key, pair := range pairs {
		addTarPayload(t, tw, key+".vec", []byte(pair.input))
		addTarPayload(t, tw, key+".tgt", []byte(pair.target))
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write shard: %v", err)
	}
}

func addTarPayload(t *testing.T, tw *tar.Writer, name string, data []byte) {
	t.Helper()
	hdr := &tar.Header{Name: name, Size: int64(len(data)), Mode: 0o644}
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := tw.Write(data); err != nil {
		t.Fatalf("write data: %v", err)
	}
}
