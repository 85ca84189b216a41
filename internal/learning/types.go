// Package learning implements the execution feedback engine for the
// generation pipeline. It ingests per-run step outcomes, classifies
// failures into an error taxonomy, accumulates running success
// statistics per (step type, outcome class), derives
// confidence-weighted template improvements, and computes a bounded
// reinforcement score per step outcome.
package learning

import (
	"time"
)

// Outcome class assigned to successful steps. Failed steps carry an
// error-type label from the classifier taxonomy instead.
const ClassSuccess = "success"

// Error-type labels produced by the classifier.
const (
	ErrorLint              = "lint"
	ErrorTypeScript        = "typescript_error"
	ErrorTestFailure       = "test_failure"
	ErrorMissingDependency = "missing_dependency"
	ErrorBranchOperation   = "branch_operation"
	ErrorPROperation       = "pr_operation"
	ErrorGitOperation      = "git_operation"
	ErrorTimeout           = "timeout"
	ErrorUnknown           = "unknown"
)

// NoTemplateHash is the content-hash sentinel for steps that carry no
// template content.
const NoTemplateHash = "no_template"

// StepOutcome is one executed step as reported by the generation
// pipeline. Transient: consumed immediately, never persisted as-is.
type StepOutcome struct {
	StepID          string `json:"step_id"`
	StepType        string `json:"step_type"` // e.g. "create_file", "branch", "pull_request"
	Success         bool   `json:"success"`
	DurationMs      int64  `json:"duration_ms"`
	Diagnostic      string `json:"diagnostic,omitempty"` // raw failure output
	TemplateContent string `json:"template_content,omitempty"`
}

// ExecutionMetric is the stored form of a StepOutcome with the
// derived classification fields. Immutable once recorded.
type ExecutionMetric struct {
	ID           string    `json:"id"`
	StepID       string    `json:"step_id"`
	StepType     string    `json:"step_type"`
	Success      bool      `json:"success"`
	DurationMs   int64     `json:"duration_ms"`
	ErrorType    string    `json:"error_type,omitempty"` // taxonomy label or "unknown"
	ErrorExcerpt string    `json:"error_excerpt,omitempty"`
	ContentHash  string    `json:"content_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// OutcomeClass returns the pattern outcome class for the metric:
// "success", or the error-type label on failure.
func (m ExecutionMetric) OutcomeClass() string {
	if m.Success {
		return ClassSuccess
	}
	if m.ErrorType == "" {
		return ErrorUnknown
	}
	return m.ErrorType
}

// PatternKey returns the learning-pattern key for the metric.
func (m ExecutionMetric) PatternKey() string {
	return m.StepType + "_" + m.OutcomeClass()
}

// LearningPattern holds running statistics for one
// (step type, outcome class) combination. Created on first occurrence
// of its key and mutated forever after; never deleted.
type LearningPattern struct {
	Key         string    `json:"key"`
	SuccessRate float64   `json:"success_rate"` // cumulative running average in [0,1]
	Occurrences int       `json:"occurrences"`
	LastSeen    time.Time `json:"last_seen"`
	// SuggestedFix is set once the pattern turns fix-worthy and is
	// sticky: it survives later rate recovery until an improvement
	// is applied.
	SuggestedFix   string `json:"suggested_fix,omitempty"`
	AutoFixApplied bool   `json:"auto_fix_applied"`
}

// TemplateImprovement is a derived suggestion for a chronically
// failing pattern. The full set is regenerated on every analysis
// pass; it is a snapshot, not a log.
type TemplateImprovement struct {
	ID         string     `json:"id"`
	PatternKey string     `json:"pattern_key"`
	TargetFile string     `json:"target_file"`
	Solution   string     `json:"solution"`
	Confidence float64    `json:"confidence"` // min(occurrences/10, 1)
	AppliedAt  *time.Time `json:"applied_at,omitempty"`
}

// Applied reports whether the improvement has been auto-applied.
func (ti TemplateImprovement) Applied() bool {
	return ti.AppliedAt != nil
}

// AppliedImprovement is one audit record in the append-only applied
// log. The actual template mutation is delegated to the templating
// collaborator; the engine records that the decision was taken and
// that a checkpoint preceded it.
type AppliedImprovement struct {
	Improvement TemplateImprovement `json:"improvement"`
	AppliedAt   time.Time           `json:"applied_at"`
	Note        string              `json:"note"`
}

// Config controls engine behavior. Zero values fall back to the
// defaults below at use sites.
type Config struct {
	// MaxMetrics bounds the active metrics store (FIFO eviction).
	MaxMetrics int

	// ExcerptLimit caps the stored diagnostic excerpt, in bytes.
	ExcerptLimit int

	// FingerprintChars is how much of the template content feeds the
	// content hash.
	FingerprintChars int

	// MinOccurrencesForFix gates suggested-fix population: a pattern
	// needs more than this many occurrences.
	MinOccurrencesForFix int

	// FixRateThreshold is the success rate below which a pattern is
	// fix-worthy.
	FixRateThreshold float64

	// ImprovementMinOccurrences gates improvement generation: a
	// pattern needs more than this many occurrences.
	ImprovementMinOccurrences int

	// ImprovementRateThreshold is the success rate below which an
	// improvement is generated.
	ImprovementRateThreshold float64

	// AutoApplyConfidence is the confidence above which an
	// improvement is auto-applied.
	AutoApplyConfidence float64
}

// DefaultConfig returns a Config with the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxMetrics:                1000,
		ExcerptLimit:              500,
		FingerprintChars:          100,
		MinOccurrencesForFix:      3,
		FixRateThreshold:          0.5,
		ImprovementMinOccurrences: 5,
		ImprovementRateThreshold:  0.3,
		AutoApplyConfidence:       0.8,
	}
}

// withDefaults fills zero-valued fields so partially constructed
// configs behave.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxMetrics <= 0 {
		c.MaxMetrics = d.MaxMetrics
	}
	if c.ExcerptLimit <= 0 {
		c.ExcerptLimit = d.ExcerptLimit
	}
	if c.FingerprintChars <= 0 {
		c.FingerprintChars = d.FingerprintChars
	}
	if c.MinOccurrencesForFix <= 0 {
		c.MinOccurrencesForFix = d.MinOccurrencesForFix
	}
	if c.FixRateThreshold <= 0 {
		c.FixRateThreshold = d.FixRateThreshold
	}
	if c.ImprovementMinOccurrences <= 0 {
		c.ImprovementMinOccurrences = d.ImprovementMinOccurrences
	}
	if c.ImprovementRateThreshold <= 0 {
		c.ImprovementRateThreshold = d.ImprovementRateThreshold
	}
	if c.AutoApplyConfidence <= 0 {
		c.AutoApplyConfidence = d.AutoApplyConfidence
	}
	return c
}
