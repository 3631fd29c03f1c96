package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"rouletteopt/internal/model"
)

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "rouletteopt.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	input := sampleRun("run-1", time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC))
	input.SelectionFallbacks = 2
	if err := store.SaveRun(ctx, input); err != nil {
		t.Fatalf("save run: %v", err)
	}

	output, ok, err := store.GetRun(ctx, input.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatalf("expected run %s", input.ID)
	}
	if output.SelectionFallbacks != 2 || len(output.Top) != 2 || output.Top[1].Candidate != 0.3 {
		t.Fatalf("unexpected run loaded: %+v", output)
	}
	if !output.CreatedAt.Equal(input.CreatedAt) {
		t.Fatalf("created_at mismatch: got %v want %v", output.CreatedAt, input.CreatedAt)
	}

	input.Top = input.Top[:1]
	if err := store.SaveRun(ctx, input); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
	output, _, err = store.GetRun(ctx, input.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if len(output.Top) != 1 {
		t.Fatalf("expected overwritten run, got %+v", output)
	}
}

func TestSQLiteStoreListRunsAndDiagnostics(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		if err := store.SaveRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Millisecond))); err != nil {
			t.Fatalf("save run %s: %v", id, err)
		}
	}
	ids, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Fatalf("unexpected run order: %v", ids)
	}

	diagnostics := []model.GenerationDiagnostics{{Generation: 1, PopulationSize: 3, BestFitness: 5.5, MeanFitness: 4.2}}
	if err := store.SaveGenerationDiagnostics(ctx, "a", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	loaded, ok, err := store.GetGenerationDiagnostics(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("get diagnostics: ok=%v err=%v", ok, err)
	}
	if len(loaded) != 1 || loaded[0].MeanFitness != 4.2 {
		t.Fatalf("unexpected diagnostics: %+v", loaded)
	}
	if _, ok, err := store.GetGenerationDiagnostics(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing diagnostics, ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "unused.db"))
	if err := store.SaveRun(context.Background(), sampleRun("x", time.Now())); err == nil {
		t.Fatal("expected error on uninitialized store")
	}
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
