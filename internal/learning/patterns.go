package learning

import (
	"log/slog"
	"time"
)

// Tracker maintains the keyed learning patterns. One pattern exists
// per {stepType}_{outcomeClass} key; updates fold new metrics into
// the running success average without ever replaying raw history, so
// metrics may be evicted from the bounded store without invalidating
// the statistics.
type Tracker struct {
	store  *Store
	cfg    Config
	logger *slog.Logger
}

// NewTracker creates a Tracker over the given store.
func NewTracker(store *Store, cfg Config, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  store,
		cfg:    cfg.withDefaults(),
		logger: logger.With("component", "tracker"),
	}
}

// Update folds each metric into its keyed pattern: advances the
// occurrence counter, updates the running success average, and
// refreshes the last-seen timestamp. Patterns that turn fix-worthy
// (occurrences above the minimum with a success rate below the
// threshold) get a suggested fix, set once and sticky thereafter.
// The caller persists via the store after the fold.
func (t *Tracker) Update(metrics []ExecutionMetric) {
	for _, m := range metrics {
		p := t.store.EnsurePattern(m.PatternKey())

		p.Occurrences++
		s := 0.0
		if m.Success {
			s = 1.0
		}
		p.SuccessRate = (p.SuccessRate*float64(p.Occurrences-1) + s) / float64(p.Occurrences)
		p.LastSeen = m.CreatedAt
		if p.LastSeen.IsZero() {
			p.LastSeen = time.Now().UTC()
		}

		if p.SuggestedFix == "" &&
			p.Occurrences > t.cfg.MinOccurrencesForFix &&
			p.SuccessRate < t.cfg.FixRateThreshold {
			p.SuggestedFix = SuggestedFix(m.OutcomeClass())
			t.logger.Info("pattern turned fix-worthy",
				"key", p.Key,
				"occurrences", p.Occurrences,
				"success_rate", p.SuccessRate,
			)
		}
	}
}
