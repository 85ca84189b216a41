package learning

import (
	"log/slog"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	return store
}

func failureMetric(stepType, errorType string) ExecutionMetric {
	return ExecutionMetric{
		StepType:    stepType,
		Success:     false,
		ErrorType:   errorType,
		ContentHash: NoTemplateHash,
	}
}

func successMetric(stepType string) ExecutionMetric {
	return ExecutionMetric{
		StepType:    stepType,
		Success:     true,
		ContentHash: NoTemplateHash,
	}
}
