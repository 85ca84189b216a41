package learning

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// BuildMetric converts a transient StepOutcome into its stored form,
// resolving the error-type label, bounding the diagnostic excerpt,
// and fingerprinting the associated template content.
func BuildMetric(outcome StepOutcome, classifier *Classifier, cfg Config, now time.Time) ExecutionMetric {
	cfg = cfg.withDefaults()

	m := ExecutionMetric{
		ID:          uuid.New().String(),
		StepID:      outcome.StepID,
		StepType:    outcome.StepType,
		Success:     outcome.Success,
		DurationMs:  outcome.DurationMs,
		ContentHash: fingerprint(outcome.TemplateContent, cfg.FingerprintChars),
		CreatedAt:   now,
	}

	if !outcome.Success {
		m.ErrorType, m.ErrorExcerpt = classifier.Classify(outcome.Diagnostic)
	}
	return m
}

// BuildMetrics converts a batch of outcomes, stamping all records
// with one creation time.
func BuildMetrics(outcomes []StepOutcome, classifier *Classifier, cfg Config) []ExecutionMetric {
	now := time.Now().UTC()
	metrics := make([]ExecutionMetric, 0, len(outcomes))
	for _, o := range outcomes {
		metrics = append(metrics, BuildMetric(o, classifier, cfg, now))
	}
	return metrics
}

// fingerprint hashes the leading chars of the template content so
// recurring template shapes can be correlated without storing the
// content itself.
func fingerprint(content string, chars int) string {
	if content == "" {
		return NoTemplateHash
	}
	if len(content) > chars {
		content = content[:chars]
	}
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}
