// Package workflow parses the structured result document the
// generation pipeline emits after a run. The engine consumes these
// results; it never executes steps itself.
package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Step statuses the pipeline reports.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Result is one completed generation run.
type Result struct {
	RunID string `json:"run_id" yaml:"run_id"`
	Steps []Step `json:"steps" yaml:"steps"`
}

// Step is one executed unit of work within a run.
type Step struct {
	ID     string `json:"id" yaml:"id"`
	Type   string `json:"type" yaml:"type"` // "create_file", "branch", "pull_request", ...
	Status string `json:"status" yaml:"status"`
	// ExecutionLog is the free-text log for the step. Duration and,
	// on failure, diagnostic text are extracted from it.
	ExecutionLog string `json:"execution_log,omitempty" yaml:"execution_log,omitempty"`
	// TemplateContent is the template text involved, when any.
	TemplateContent string `json:"template_content,omitempty" yaml:"template_content,omitempty"`
}

// durationMarker matches the pipeline's "completed ... in <N>ms" log
// line.
var durationMarker = regexp.MustCompile(`completed[^\n]*?\bin (\d+)ms`)

// Load reads and validates a result file. YAML is recognized by
// extension; everything else parses as JSON.
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow result: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON parses and validates a JSON result document.
func ParseJSON(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse workflow result: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// ParseYAML parses and validates a YAML result document.
func ParseYAML(data []byte) (*Result, error) {
	var r Result
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse workflow result: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate rejects results missing required fields. Validation runs
// before any state mutation, so a malformed result can never leave a
// partial update behind.
func (r *Result) Validate() error {
	if len(r.Steps) == 0 {
		return fmt.Errorf("result has no steps")
	}
	seen := make(map[string]bool, len(r.Steps))
	for i, s := range r.Steps {
		if s.ID == "" {
			return fmt.Errorf("step %d: missing id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("step %d: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
		if s.Type == "" {
			return fmt.Errorf("step %q: missing type", s.ID)
		}
		if s.Status != StatusSuccess && s.Status != StatusFailed {
			return fmt.Errorf("step %q: invalid status %q", s.ID, s.Status)
		}
	}
	return nil
}

// Succeeded reports whether the step completed successfully.
func (s Step) Succeeded() bool {
	return s.Status == StatusSuccess
}

// DurationMs extracts the step duration from the execution log, or 0
// when the log carries no duration marker.
func (s Step) DurationMs() int64 {
	m := durationMarker.FindStringSubmatch(s.ExecutionLog)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Diagnostic returns the failure diagnostic text: the execution log
// for failed steps, empty otherwise.
func (s Step) Diagnostic() string {
	if s.Succeeded() {
		return ""
	}
	return s.ExecutionLog
}
