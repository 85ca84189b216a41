package learning

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReportEmptyState(t *testing.T) {
	store := testStore(t)
	reporter := NewReporter(store, nil, testLogger())

	report, err := reporter.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed on empty state: %v", err)
	}
	if report.TotalExecutions != 0 || report.SuccessRate != 0 || report.AvgDurationMs != 0 {
		t.Errorf("empty state should yield zero aggregates, got %+v", report)
	}
	if len(report.ErrorFrequency) != 0 || len(report.TopPatterns) != 0 {
		t.Error("empty state should yield empty sections")
	}
	if report.GeneratedAt.IsZero() {
		t.Error("report should carry a generation timestamp")
	}

	// Generate persists the artifact even when empty.
	if _, err := os.Stat(filepath.Join(store.Dir(), "report.json")); err != nil {
		t.Errorf("report.json not persisted: %v", err)
	}
}

func TestReportAggregates(t *testing.T) {
	store := testStore(t)

	metrics := []ExecutionMetric{
		{ID: "m1", StepType: "create_file", Success: true, DurationMs: 100},
		{ID: "m2", StepType: "create_file", Success: true, DurationMs: 200},
		{ID: "m3", StepType: "lint_check", Success: false, ErrorType: ErrorLint, DurationMs: 300},
		{ID: "m4", StepType: "lint_check", Success: false, ErrorType: ErrorLint, DurationMs: 100},
		{ID: "m5", StepType: "branch", Success: false, ErrorType: ErrorGitOperation, DurationMs: 300},
	}
	store.AppendMetrics(metrics, 1000)

	report := mustGenerate(t, NewReporter(store, nil, testLogger()))

	if report.TotalExecutions != 5 {
		t.Errorf("total = %d, want 5", report.TotalExecutions)
	}
	if report.SuccessRate != 0.4 {
		t.Errorf("success rate = %v, want 0.4", report.SuccessRate)
	}
	if report.AvgDurationMs != 200 {
		t.Errorf("avg duration = %v, want 200", report.AvgDurationMs)
	}

	// Frequencies sorted descending, ties broken by name.
	if len(report.ErrorFrequency) != 2 {
		t.Fatalf("expected 2 error rows, got %d", len(report.ErrorFrequency))
	}
	if report.ErrorFrequency[0].ErrorType != ErrorLint || report.ErrorFrequency[0].Count != 2 {
		t.Errorf("top error = %+v, want lint x2", report.ErrorFrequency[0])
	}
	if report.ErrorFrequency[1].ErrorType != ErrorGitOperation || report.ErrorFrequency[1].Count != 1 {
		t.Errorf("second error = %+v, want git_operation x1", report.ErrorFrequency[1])
	}
}

func TestReportTopPatternsCapped(t *testing.T) {
	store := testStore(t)

	for i := 0; i < 15; i++ {
		p := store.EnsurePattern(fmt.Sprintf("step%02d_lint", i))
		p.Occurrences = i + 1
	}

	report := mustGenerate(t, NewReporter(store, nil, testLogger()))
	if len(report.TopPatterns) != topPatternLimit {
		t.Fatalf("patterns section has %d entries, want %d", len(report.TopPatterns), topPatternLimit)
	}
	// Highest occurrence count first.
	if report.TopPatterns[0].Key != "step14_lint" || report.TopPatterns[0].Occurrences != 15 {
		t.Errorf("top pattern = %+v", report.TopPatterns[0])
	}
	for i := 1; i < len(report.TopPatterns); i++ {
		if report.TopPatterns[i].Occurrences > report.TopPatterns[i-1].Occurrences {
			t.Fatal("patterns not sorted by occurrences descending")
		}
	}
}

func TestReportPartitionsImprovements(t *testing.T) {
	store := testStore(t)
	now := time.Now().UTC()

	store.SetImprovements([]TemplateImprovement{
		{ID: "i1", PatternKey: "a_lint", Confidence: 0.6},
		{ID: "i2", PatternKey: "b_timeout", Confidence: 0.9, AppliedAt: &now},
		{ID: "i3", PatternKey: "c_unknown", Confidence: 0.7},
	})

	report := mustGenerate(t, NewReporter(store, nil, testLogger()))
	if len(report.Pending) != 2 {
		t.Errorf("pending = %d, want 2", len(report.Pending))
	}
	if len(report.Applied) != 1 || report.Applied[0].ID != "i2" {
		t.Errorf("applied = %+v, want only i2", report.Applied)
	}
}

type stubCounter struct {
	count int64
	err   error
}

func (s stubCounter) Count(context.Context) (int64, error) { return s.count, s.err }

func TestReportArchiveCount(t *testing.T) {
	store := testStore(t)

	report := mustGenerate(t, NewReporter(store, stubCounter{count: 42}, testLogger()))
	if report.ArchivedTotal != 42 {
		t.Errorf("archived total = %d, want 42", report.ArchivedTotal)
	}

	// Archive failure degrades the report instead of failing it.
	report = mustGenerate(t, NewReporter(store, stubCounter{err: errors.New("db locked")}, testLogger()))
	if report.ArchivedTotal != 0 {
		t.Errorf("failed archive should leave total at 0, got %d", report.ArchivedTotal)
	}
}

func mustGenerate(t *testing.T, r *Reporter) *Report {
	t.Helper()
	report, err := r.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return report
}
