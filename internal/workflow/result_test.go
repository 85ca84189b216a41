package workflow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const jsonResult = `{
  "run_id": "run-42",
  "steps": [
    {"id": "s1", "type": "create_file", "status": "success", "execution_log": "Step create_file completed successfully in 250ms"},
    {"id": "s2", "type": "lint_check", "status": "failed", "execution_log": "LINT FAILED: 3 problems"}
  ]
}`

const yamlResult = `run_id: run-42
steps:
  - id: s1
    type: create_file
    status: success
    execution_log: "Step create_file completed successfully in 250ms"
  - id: s2
    type: lint_check
    status: failed
    execution_log: "LINT FAILED: 3 problems"
`

func TestParseJSON(t *testing.T) {
	r, err := ParseJSON([]byte(jsonResult))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if r.RunID != "run-42" || len(r.Steps) != 2 {
		t.Errorf("unexpected result: %+v", r)
	}
	if r.Steps[0].Type != "create_file" || r.Steps[1].Status != StatusFailed {
		t.Errorf("unexpected steps: %+v", r.Steps)
	}
}

func TestParseYAML(t *testing.T) {
	r, err := ParseYAML([]byte(yamlResult))
	if err != nil {
		t.Fatalf("ParseYAML failed: %v", err)
	}
	if r.RunID != "run-42" || len(r.Steps) != 2 {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestLoadDispatchesByExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "result.json")
	if err := os.WriteFile(jsonPath, []byte(jsonResult), 0o644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "result.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlResult), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{jsonPath, yamlPath} {
		r, err := Load(path)
		if err != nil {
			t.Errorf("Load(%s) failed: %v", filepath.Base(path), err)
			continue
		}
		if r.RunID != "run-42" {
			t.Errorf("Load(%s): run id = %s", filepath.Base(path), r.RunID)
		}
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		result  Result
		wantErr string
	}{
		{
			name:    "no steps",
			result:  Result{RunID: "r"},
			wantErr: "no steps",
		},
		{
			name: "missing id",
			result: Result{Steps: []Step{
				{Type: "create_file", Status: StatusSuccess},
			}},
			wantErr: "missing id",
		},
		{
			name: "duplicate id",
			result: Result{Steps: []Step{
				{ID: "s1", Type: "create_file", Status: StatusSuccess},
				{ID: "s1", Type: "lint_check", Status: StatusSuccess},
			}},
			wantErr: "duplicate id",
		},
		{
			name: "missing type",
			result: Result{Steps: []Step{
				{ID: "s1", Status: StatusSuccess},
			}},
			wantErr: "missing type",
		},
		{
			name: "invalid status",
			result: Result{Steps: []Step{
				{ID: "s1", Type: "create_file", Status: "pending"},
			}},
			wantErr: "invalid status",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestStepDuration(t *testing.T) {
	tests := []struct {
		log  string
		want int64
	}{
		{"Step create_file completed successfully in 250ms", 250},
		{"completed in 1ms", 1},
		{"Quality check completed with warnings in 4021ms\nnext line", 4021},
		{"step running", 0},
		{"finished in 300ms", 0}, // no "completed" marker
		{"", 0},
	}
	for _, tt := range tests {
		s := Step{ExecutionLog: tt.log}
		if got := s.DurationMs(); got != tt.want {
			t.Errorf("DurationMs(%q) = %d, want %d", tt.log, got, tt.want)
		}
	}
}

func TestStepDiagnostic(t *testing.T) {
	ok := Step{Status: StatusSuccess, ExecutionLog: "all good"}
	if ok.Diagnostic() != "" {
		t.Error("successful step should have no diagnostic")
	}
	bad := Step{Status: StatusFailed, ExecutionLog: "LINT FAILED: 3 problems"}
	if bad.Diagnostic() != "LINT FAILED: 3 problems" {
		t.Errorf("diagnostic = %q", bad.Diagnostic())
	}
}
