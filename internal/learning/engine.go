package learning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/workflow"
)

// MetricArchiver receives metrics evicted from the bounded active
// store. Implemented by the sqlite archive; nil disables archiving.
type MetricArchiver interface {
	Insert(ctx context.Context, metrics []ExecutionMetric) error
}

// Engine runs the full ingest pipeline for one workflow result:
// validate, classify, record metrics, update patterns, generate
// improvements. Phases are ordered for crash consistency: metrics are
// durable before patterns are updated from them, and patterns are
// saved before the improvements snapshot. A crash between phases
// leaves metrics consistent and patterns at worst stale; the next
// invocation folds in subsequent metrics incrementally, it never
// replays history.
type Engine struct {
	cfg        Config
	logger     *slog.Logger
	store      *Store
	classifier *Classifier
	tracker    *Tracker
	advisor    *Advisor
	scorer     *Scorer
	archiver   MetricArchiver
}

// NewEngine wires the engine components over one store. archiver may
// be nil.
func NewEngine(store *Store, classifier *Classifier, archiver MetricArchiver, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	tracker := NewTracker(store, cfg, logger)
	return &Engine{
		cfg:        cfg,
		logger:     logger.With("component", "engine"),
		store:      store,
		classifier: classifier,
		tracker:    tracker,
		advisor:    NewAdvisor(store, tracker, cfg, logger),
		scorer:     NewScorer(store),
		archiver:   archiver,
	}
}

// Store returns the engine's state store.
func (e *Engine) Store() *Store {
	return e.store
}

// Scorer returns the engine's score calculator.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Summary describes one completed analysis pass.
type Summary struct {
	RunID        string  `json:"run_id,omitempty"`
	Recorded     int     `json:"recorded"`
	Failures     int     `json:"failures"`
	Evicted      int     `json:"evicted"`
	Improvements int     `json:"improvements"`
	AutoApplied  int     `json:"auto_applied"`
	RunScore     float64 `json:"run_score"`
}

// Analyze ingests one workflow result end to end.
func (e *Engine) Analyze(ctx context.Context, result *workflow.Result) (*Summary, error) {
	start := time.Now()

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}

	outcomes := OutcomesFromResult(result)
	metrics := BuildMetrics(outcomes, e.classifier, e.cfg)

	evicted := e.store.AppendMetrics(metrics, e.cfg.MaxMetrics)
	if len(evicted) > 0 && e.archiver != nil {
		if err := e.archiver.Insert(ctx, evicted); err != nil {
			// The archive is best-effort history; losing it must not
			// abort the ingest.
			e.logger.Warn("archive insert failed", "evicted", len(evicted), "error", err)
		}
	}
	if err := e.store.SaveMetrics(); err != nil {
		return nil, err
	}

	improvements, applied, err := e.advisor.Generate(metrics)
	if err != nil {
		return nil, err
	}
	e.store.SetImprovements(improvements)

	if err := e.store.SavePatterns(); err != nil {
		return nil, err
	}
	if err := e.store.SaveImprovements(); err != nil {
		return nil, err
	}

	summary := e.summarize(result, metrics, evicted, improvements)
	summary.AutoApplied = applied
	e.logger.Info("analysis pass complete",
		"run", result.RunID,
		"recorded", summary.Recorded,
		"failures", summary.Failures,
		"improvements", summary.Improvements,
		"auto_applied", summary.AutoApplied,
		"elapsed", time.Since(start),
	)
	return summary, nil
}

func (e *Engine) summarize(result *workflow.Result, metrics, evicted []ExecutionMetric, improvements []TemplateImprovement) *Summary {
	summary := &Summary{
		RunID:        result.RunID,
		Recorded:     len(metrics),
		Evicted:      len(evicted),
		Improvements: len(improvements),
	}
	var total float64
	for _, m := range metrics {
		if !m.Success {
			summary.Failures++
		}
		total += e.scorer.Score(m.StepType, m.Success)
	}
	if len(metrics) > 0 {
		summary.RunScore = total / float64(len(metrics))
	}
	return summary
}

// OutcomesFromResult converts a parsed workflow result into the
// engine's transient step outcomes, extracting duration and failure
// diagnostics from each step's execution log.
func OutcomesFromResult(result *workflow.Result) []StepOutcome {
	outcomes := make([]StepOutcome, 0, len(result.Steps))
	for _, step := range result.Steps {
		outcomes = append(outcomes, StepOutcome{
			StepID:          step.ID,
			StepType:        step.Type,
			Success:         step.Succeeded(),
			DurationMs:      step.DurationMs(),
			Diagnostic:      step.Diagnostic(),
			TemplateContent: step.TemplateContent,
		})
	}
	return outcomes
}
