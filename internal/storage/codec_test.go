package storage

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeRunRejectsVersionMismatch(t *testing.T) {
	run := sampleRun("run-1", time.Unix(0, 0))
	run.CodecVersion = CurrentCodecVersion + 1
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestDecodeRunFixture(t *testing.T) {
	data := []byte(`{"schema_version":1,"codec_version":1,"id":"fixture","settings":{"population_size":4,"generations":0,"survivors":4,"top_results":2,"mutation_step":0.01,"use_crossover":true,"exact_population":false,"weight_policy":"shift","degenerate_policy":"fail","seed":7},"top":[{"rank":1,"candidate":0.1,"fitness":5.978595}],"selection_fallbacks":0,"created_at":"2026-01-01T00:00:00Z"}`)
	run, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.ID != "fixture" || run.Settings.Seed != 7 || run.Top[0].Candidate != 0.1 {
		t.Fatalf("unexpected run: %+v", run)
	}
}
