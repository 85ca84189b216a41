package learning

import (
	"math"
	"testing"
)

func newAdvisor(store *Store) *Advisor {
	tracker := NewTracker(store, DefaultConfig(), testLogger())
	return NewAdvisor(store, tracker, DefaultConfig(), testLogger())
}

func failures(stepType, errorType string, n int) []ExecutionMetric {
	metrics := make([]ExecutionMetric, n)
	for i := range metrics {
		metrics[i] = failureMetric(stepType, errorType)
	}
	return metrics
}

func TestImprovementThresholdExact(t *testing.T) {
	// occurrences must exceed 5 with successRate below 0.3: five
	// failures do not qualify, six do.
	store := testStore(t)
	advisor := newAdvisor(store)

	improvements, applied, err := advisor.Generate(failures("create_file", ErrorLint, 5))
	if err != nil {
		t.Fatal(err)
	}
	if len(improvements) != 0 || applied != 0 {
		t.Fatalf("5 occurrences should not qualify, got %d improvements", len(improvements))
	}

	improvements, _, err = advisor.Generate(failures("create_file", ErrorLint, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(improvements) != 1 {
		t.Fatalf("6 occurrences should qualify, got %d improvements", len(improvements))
	}

	imp := improvements[0]
	if imp.PatternKey != "create_file_lint" {
		t.Errorf("pattern key = %s", imp.PatternKey)
	}
	if imp.TargetFile != "templates/create_file.regent" {
		t.Errorf("target = %s", imp.TargetFile)
	}
	if math.Abs(imp.Confidence-0.6) > 1e-12 {
		t.Errorf("confidence = %v, want 0.6", imp.Confidence)
	}
}

func TestImprovementSkipsHealthyPatterns(t *testing.T) {
	store := testStore(t)
	advisor := newAdvisor(store)

	// Plenty of occurrences but a perfect success rate.
	var metrics []ExecutionMetric
	for i := 0; i < 20; i++ {
		metrics = append(metrics, successMetric("commit"))
	}
	improvements, _, err := advisor.Generate(metrics)
	if err != nil {
		t.Fatal(err)
	}
	if len(improvements) != 0 {
		t.Errorf("healthy pattern produced %d improvements", len(improvements))
	}
}

func TestConfidenceCapsAtOne(t *testing.T) {
	store := testStore(t)
	advisor := newAdvisor(store)

	improvements, _, err := advisor.Generate(failures("branch", ErrorGitOperation, 30))
	if err != nil {
		t.Fatal(err)
	}
	if len(improvements) != 1 {
		t.Fatalf("expected 1 improvement, got %d", len(improvements))
	}
	if improvements[0].Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", improvements[0].Confidence)
	}
}

func TestSolutionPrefersStickyFix(t *testing.T) {
	store := testStore(t)
	advisor := newAdvisor(store)

	improvements, _, err := advisor.Generate(failures("lint_check", ErrorLint, 7))
	if err != nil {
		t.Fatal(err)
	}
	if len(improvements) != 1 {
		t.Fatal("expected 1 improvement")
	}
	// The tracker set the sticky fix at occurrence 4; the advisor
	// must reuse it.
	if improvements[0].Solution != "Add automatic fix step before validation" {
		t.Errorf("solution = %q", improvements[0].Solution)
	}
}

func TestSolutionFallback(t *testing.T) {
	store := testStore(t)
	advisor := newAdvisor(store)

	// "unknown" has no canned remediation, so the fallback applies.
	improvements, _, err := advisor.Generate(failures("mystery", ErrorUnknown, 6))
	if err != nil {
		t.Fatal(err)
	}
	if len(improvements) != 1 {
		t.Fatal("expected 1 improvement")
	}
	if improvements[0].Solution != "Needs investigation" {
		t.Errorf("solution = %q, want fallback", improvements[0].Solution)
	}
}

func TestAutoApplyOnceAcrossPasses(t *testing.T) {
	store := testStore(t)
	advisor := newAdvisor(store)

	// Nine failures: confidence 0.9 crosses the 0.8 threshold.
	improvements, applied, err := advisor.Generate(failures("pull_request", ErrorPROperation, 9))
	if err != nil {
		t.Fatal(err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 auto-apply, got %d", applied)
	}
	if !improvements[0].Applied() {
		t.Error("improvement should carry appliedAt")
	}

	p := store.Pattern("pull_request_pr_operation")
	if !p.AutoFixApplied {
		t.Error("pattern should be marked auto-fix-applied")
	}

	records, err := store.AppliedLog()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(records))
	}

	// A second pass over unchanged data must not re-apply or append
	// a duplicate audit record, and the regenerated improvement must
	// stay in the applied partition.
	store.SetImprovements(improvements)
	improvements2, applied2, err := advisor.Generate(nil)
	if err != nil {
		t.Fatal(err)
	}
	if applied2 != 0 {
		t.Errorf("second pass applied %d, want 0", applied2)
	}
	if len(improvements2) != 1 || !improvements2[0].Applied() {
		t.Error("regenerated improvement should remain applied")
	}
	if !improvements2[0].AppliedAt.Equal(*improvements[0].AppliedAt) {
		t.Error("applied timestamp should be preserved across passes")
	}

	records, err = store.AppliedLog()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("audit log grew to %d records on second pass", len(records))
	}
}

func TestAppliedRecoveredFromAuditLog(t *testing.T) {
	store := testStore(t)
	advisor := newAdvisor(store)

	if _, _, err := advisor.Generate(failures("pull_request", ErrorPROperation, 9)); err != nil {
		t.Fatal(err)
	}

	// Simulate a lost improvements snapshot: the audit log still
	// proves the apply happened.
	store.SetImprovements(nil)
	improvements, applied, err := advisor.Generate(nil)
	if err != nil {
		t.Fatal(err)
	}
	if applied != 0 {
		t.Error("must not re-apply after snapshot loss")
	}
	if len(improvements) != 1 || !improvements[0].Applied() {
		t.Error("appliedAt should be recovered from the audit log")
	}
}

func TestKeyDerivation(t *testing.T) {
	tests := []struct {
		key      string
		stepType string
		class    string
	}{
		{"lint_check_lint", "lint_check", ErrorLint},
		{"lint_check_success", "lint_check", ClassSuccess},
		{"create_file_typescript_error", "create_file", ErrorTypeScript},
		{"branch_missing_dependency", "branch", ErrorMissingDependency},
		{"refactor_unknown", "refactor", ErrorUnknown},
	}
	for _, tt := range tests {
		if got := stepTypeFromKey(tt.key); got != tt.stepType {
			t.Errorf("stepTypeFromKey(%s) = %s, want %s", tt.key, got, tt.stepType)
		}
		if got := classFromKey(tt.key); got != tt.class {
			t.Errorf("classFromKey(%s) = %s, want %s", tt.key, got, tt.class)
		}
	}
}
