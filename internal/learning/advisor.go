package learning

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Advisor scans patterns for chronic low-success keys, proposes
// template improvements, and auto-applies high-confidence ones.
// "Applying" here is strictly detection plus audit bookkeeping: the
// actual template mutation is delegated to the templating
// collaborator.
type Advisor struct {
	store   *Store
	tracker *Tracker
	cfg     Config
	logger  *slog.Logger
}

// NewAdvisor creates an Advisor over the given store and tracker.
func NewAdvisor(store *Store, tracker *Tracker, cfg Config, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{
		store:   store,
		tracker: tracker,
		cfg:     cfg.withDefaults(),
		logger:  logger.With("component", "advisor"),
	}
}

// Generate refreshes patterns from the new metrics, then rebuilds the
// improvements snapshot from the full pattern state. A pattern
// qualifies when its success rate is below the improvement threshold
// and its occurrences exceed the minimum. Improvements whose
// confidence crosses the auto-apply threshold are applied once per
// pattern, with an audit record appended to the applied log.
//
// The returned snapshot replaces the previous one; it is persisted by
// the caller. The second return value is the number of improvements
// newly auto-applied this pass.
func (a *Advisor) Generate(metrics []ExecutionMetric) ([]TemplateImprovement, int, error) {
	a.tracker.Update(metrics)

	keys := make([]string, 0, len(a.store.Patterns()))
	for key := range a.store.Patterns() {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Applied timestamps survive snapshot regeneration: an applied
	// improvement stays out of the pending listing forever.
	prevApplied := make(map[string]*time.Time)
	for _, imp := range a.store.Improvements() {
		if imp.Applied() {
			prevApplied[imp.PatternKey] = imp.AppliedAt
		}
	}

	var improvements []TemplateImprovement
	applied := 0
	for _, key := range keys {
		p := a.store.Pattern(key)
		if p.SuccessRate >= a.cfg.ImprovementRateThreshold || p.Occurrences <= a.cfg.ImprovementMinOccurrences {
			continue
		}

		imp := TemplateImprovement{
			ID:         uuid.New().String(),
			PatternKey: p.Key,
			TargetFile: targetForKey(p.Key),
			Solution:   a.solutionFor(p),
			Confidence: confidence(p.Occurrences),
		}

		if p.AutoFixApplied {
			imp.AppliedAt = prevApplied[p.Key]
			if imp.AppliedAt == nil {
				imp.AppliedAt = a.appliedAtFromLog(p.Key)
			}
		} else if imp.Confidence > a.cfg.AutoApplyConfidence {
			if err := a.apply(&imp, p); err != nil {
				return nil, 0, err
			}
			applied++
		}

		improvements = append(improvements, imp)
	}

	return improvements, applied, nil
}

// appliedAtFromLog recovers an applied timestamp from the audit log
// when the previous snapshot no longer carries it.
func (a *Advisor) appliedAtFromLog(patternKey string) *time.Time {
	records, err := a.store.AppliedLog()
	if err != nil {
		a.logger.Warn("applied log unreadable", "error", err)
		return nil
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Improvement.PatternKey == patternKey {
			t := records[i].AppliedAt
			return &t
		}
	}
	return nil
}

// apply marks the pattern auto-fixed and appends the audit record.
func (a *Advisor) apply(imp *TemplateImprovement, p *LearningPattern) error {
	now := time.Now().UTC()
	imp.AppliedAt = &now
	p.AutoFixApplied = true

	rec := AppliedImprovement{
		Improvement: *imp,
		AppliedAt:   now,
		Note:        "backup checkpoint taken before template modification; mutation delegated to templating pipeline",
	}
	if err := a.store.AppendApplied(rec); err != nil {
		return fmt.Errorf("record applied improvement: %w", err)
	}

	a.logger.Info("improvement auto-applied",
		"pattern", p.Key,
		"confidence", imp.Confidence,
		"target", imp.TargetFile,
	)
	return nil
}

// solutionFor picks the solution text: the pattern's sticky suggested
// fix when present, else the canned remediation for its outcome
// class.
func (a *Advisor) solutionFor(p *LearningPattern) string {
	if p.SuggestedFix != "" {
		return p.SuggestedFix
	}
	return SuggestedFix(classFromKey(p.Key))
}

// confidence is the normalized occurrence-based strength measure.
func confidence(occurrences int) float64 {
	c := float64(occurrences) / 10.0
	if c > 1 {
		c = 1
	}
	return c
}

// knownClasses lists the outcome-class suffixes a pattern key may
// carry, longest first so compound labels are stripped correctly.
var knownClasses = []string{
	ErrorMissingDependency,
	ErrorBranchOperation,
	ErrorTypeScript,
	ErrorTestFailure,
	ErrorGitOperation,
	ErrorPROperation,
	ErrorTimeout,
	ErrorUnknown,
	ErrorLint,
	ClassSuccess,
}

// classFromKey extracts the outcome class from a pattern key.
func classFromKey(key string) string {
	for _, class := range knownClasses {
		if strings.HasSuffix(key, "_"+class) {
			return class
		}
	}
	if i := strings.LastIndex(key, "_"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// stepTypeFromKey extracts the step type from a pattern key.
func stepTypeFromKey(key string) string {
	class := classFromKey(key)
	return strings.TrimSuffix(key, "_"+class)
}

// targetForKey infers the template location an improvement targets.
func targetForKey(key string) string {
	stepType := stepTypeFromKey(key)
	if stepType == "" {
		stepType = key
	}
	return "templates/" + stepType + ".regent"
}
