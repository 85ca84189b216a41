package learning

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// ArchiveCounter reports how many evicted metrics an archive holds.
// Implemented by the sqlite archive; nil means no archive.
type ArchiveCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Report is the aggregated summary artifact.
type Report struct {
	GeneratedAt     time.Time             `json:"generated_at"`
	TotalExecutions int                   `json:"total_executions"`
	SuccessRate     float64               `json:"success_rate"`
	AvgDurationMs   float64               `json:"avg_duration_ms"`
	ErrorFrequency  []ErrorCount          `json:"error_frequency"`
	TopPatterns     []LearningPattern     `json:"top_patterns"`
	Pending         []TemplateImprovement `json:"pending_improvements"`
	Applied         []TemplateImprovement `json:"applied_improvements"`
	ArchivedTotal   int64                 `json:"archived_total,omitempty"`
}

// ErrorCount is one row of the error-type frequency table.
type ErrorCount struct {
	ErrorType string `json:"error_type"`
	Count     int    `json:"count"`
}

// topPatternLimit caps the patterns section of the report.
const topPatternLimit = 10

// Reporter aggregates current metrics, patterns, and improvements
// into a summary. Read-only over engine state; writes exactly one
// summary artifact. Absent stores yield zero/empty aggregates rather
// than errors.
type Reporter struct {
	store   *Store
	archive ArchiveCounter
	logger  *slog.Logger
}

// NewReporter creates a Reporter. archive may be nil.
func NewReporter(store *Store, archive ArchiveCounter, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		store:   store,
		archive: archive,
		logger:  logger.With("component", "reporter"),
	}
}

// Generate builds the report and persists it as the summary artifact.
func (r *Reporter) Generate(ctx context.Context) (*Report, error) {
	report := r.build(ctx)
	if err := r.store.SaveReport(report); err != nil {
		return nil, err
	}
	r.logger.Info("report generated",
		"executions", report.TotalExecutions,
		"success_rate", report.SuccessRate,
		"pending", len(report.Pending),
		"applied", len(report.Applied),
	)
	return report, nil
}

func (r *Reporter) build(ctx context.Context) *Report {
	report := &Report{GeneratedAt: time.Now().UTC()}

	metrics := r.store.Metrics()
	report.TotalExecutions = len(metrics)

	successes := 0
	var totalDuration int64
	freq := make(map[string]int)
	for _, m := range metrics {
		if m.Success {
			successes++
		} else {
			freq[m.OutcomeClass()]++
		}
		totalDuration += m.DurationMs
	}
	if len(metrics) > 0 {
		report.SuccessRate = float64(successes) / float64(len(metrics))
		report.AvgDurationMs = float64(totalDuration) / float64(len(metrics))
	}

	for errorType, count := range freq {
		report.ErrorFrequency = append(report.ErrorFrequency, ErrorCount{ErrorType: errorType, Count: count})
	}
	sort.Slice(report.ErrorFrequency, func(i, j int) bool {
		if report.ErrorFrequency[i].Count != report.ErrorFrequency[j].Count {
			return report.ErrorFrequency[i].Count > report.ErrorFrequency[j].Count
		}
		return report.ErrorFrequency[i].ErrorType < report.ErrorFrequency[j].ErrorType
	})

	for _, p := range r.store.Patterns() {
		report.TopPatterns = append(report.TopPatterns, *p)
	}
	sort.Slice(report.TopPatterns, func(i, j int) bool {
		if report.TopPatterns[i].Occurrences != report.TopPatterns[j].Occurrences {
			return report.TopPatterns[i].Occurrences > report.TopPatterns[j].Occurrences
		}
		return report.TopPatterns[i].Key < report.TopPatterns[j].Key
	})
	if len(report.TopPatterns) > topPatternLimit {
		report.TopPatterns = report.TopPatterns[:topPatternLimit]
	}

	for _, imp := range r.store.Improvements() {
		if imp.Applied() {
			report.Applied = append(report.Applied, imp)
		} else {
			report.Pending = append(report.Pending, imp)
		}
	}

	if r.archive != nil {
		count, err := r.archive.Count(ctx)
		if err != nil {
			// Archive trouble degrades the report, it does not fail it.
			r.logger.Warn("archive count unavailable", "error", err)
		} else {
			report.ArchivedTotal = count
		}
	}

	return report
}
