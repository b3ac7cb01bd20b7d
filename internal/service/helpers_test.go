package service_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/predict"
)

var artifactsDir = filepath.Join("..", "..", "artifacts")

func artifactBytes(t *testing.T) ([]byte, []byte) {
	t.Helper()
	model, err := os.ReadFile(filepath.Join(artifactsDir, "water_usage_model.json"))
	if err != nil {
		t.Fatalf("read model: %v", err)
	}
	transformer, err := os.ReadFile(filepath.Join(artifactsDir, "scaler.json"))
	if err != nil {
		t.Fatalf("read transformer: %v", err)
	}
	return model, transformer
}

func loadedAdapter(t *testing.T) *predict.Adapter {
	t.Helper()
	adapter := predict.NewAdapter(time.Second, zerolog.Nop())
	model, transformer := artifactBytes(t)
	if err := adapter.Load(model, transformer, "test"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return adapter
}
