package state

import (
	"path/filepath"
	"testing"
)

func TestSetGetRoundtrip(t *testing.T) {
	t.Setenv("ALGOVANITY_STATE_FILE", filepath.Join(t.TempDir(), "tuned.json"))

	if err := Set("pipeline", Tuned{BatchSize: 16384, Throughput: 120000}); err != nil {
		t.Fatalf("set tuned: %v", err)
	}

	tuned, found, err := Get("pipeline")
	if err != nil {
		t.Fatalf("get tuned: %v", err)
	}
	if !found {
		t.Fatal("expected tuned entry for pipeline")
	}
	if tuned.BatchSize != 16384 || tuned.Throughput != 120000 {
		t.Fatalf("unexpected tuned entry: %+v", tuned)
	}
	if tuned.UpdatedAt == "" {
		t.Fatal("expected UpdatedAt to be filled in")
	}
}

func TestGetMissingBackend(t *testing.T) {
	t.Setenv("ALGOVANITY_STATE_FILE", filepath.Join(t.TempDir(), "tuned.json"))

	_, found, err := Get("cpu")
	if err != nil {
		t.Fatalf("get tuned: %v", err)
	}
	if found {
		t.Fatal("expected no tuned entry")
	}
}

func TestSetOverwritesExisting(t *testing.T) {
	t.Setenv("ALGOVANITY_STATE_FILE", filepath.Join(t.TempDir(), "tuned.json"))

	if err := Set("cpu", Tuned{BatchSize: 4096, Throughput: 50000}); err != nil {
		t.Fatalf("set tuned: %v", err)
	}
	if err := Set("cpu", Tuned{BatchSize: 8192, Throughput: 60000}); err != nil {
		t.Fatalf("set tuned: %v", err)
	}

	tuned, found, err := Get("cpu")
	if err != nil || !found {
		t.Fatalf("get tuned: %v found=%v", err, found)
	}
	if tuned.BatchSize != 8192 {
		t.Fatalf("expected overwritten batch size, got %d", tuned.BatchSize)
	}
}

func TestEmptyBackendName(t *testing.T) {
	if _, _, err := Get(""); err == nil {
		t.Fatal("expected error for empty backend name")
	}
	if err := Set("", Tuned{}); err == nil {
		t.Fatal("expected error for empty backend name")
	}
}
