package learning

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Rule maps a diagnostic substring to an error-type label.
type Rule struct {
	Pattern string `toml:"pattern"`
	Label   string `toml:"label"`
}

// DefaultRules is the built-in error taxonomy. Order is significant:
// the first matching pattern wins, so a multi-symptom log receives
// the earliest declared label. Lint patterns come before TypeScript
// patterns, which come before dependency, test, and git patterns.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "lint failed", Label: ErrorLint},
		{Pattern: "lint error", Label: ErrorLint},
		{Pattern: "eslint", Label: ErrorLint},
		{Pattern: "typescript error", Label: ErrorTypeScript},
		{Pattern: "type error", Label: ErrorTypeScript},
		{Pattern: "tsc error", Label: ErrorTypeScript},
		{Pattern: "cannot find module", Label: ErrorMissingDependency},
		{Pattern: "module not found", Label: ErrorMissingDependency},
		{Pattern: "missing dependency", Label: ErrorMissingDependency},
		{Pattern: "test failed", Label: ErrorTestFailure},
		{Pattern: "tests failed", Label: ErrorTestFailure},
		{Pattern: "assertion", Label: ErrorTestFailure},
		{Pattern: "branch already exists", Label: ErrorBranchOperation},
		{Pattern: "branch creation failed", Label: ErrorBranchOperation},
		{Pattern: "pull request", Label: ErrorPROperation},
		{Pattern: "pr creation failed", Label: ErrorPROperation},
		{Pattern: "not a git repository", Label: ErrorGitOperation},
		{Pattern: "git ", Label: ErrorGitOperation},
		{Pattern: "timed out", Label: ErrorTimeout},
		{Pattern: "timeout", Label: ErrorTimeout},
	}
}

// Classifier maps raw diagnostic text to one taxonomy label using
// ordered first-match pattern rules. Pure; no side effects.
type Classifier struct {
	rules        []Rule
	excerptLimit int
}

// NewClassifier creates a Classifier. A nil or empty rule set falls
// back to DefaultRules.
func NewClassifier(rules []Rule, cfg Config) *Classifier {
	cfg = cfg.withDefaults()
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules, excerptLimit: cfg.ExcerptLimit}
}

// Classify returns the error-type label and a bounded excerpt for the
// given diagnostic text. Unmatched text degrades to "unknown"; that
// is a classification miss, not an error.
func (c *Classifier) Classify(diagnostic string) (label, excerpt string) {
	excerpt = truncate(diagnostic, c.excerptLimit)
	lower := strings.ToLower(diagnostic)
	for _, r := range c.rules {
		if strings.Contains(lower, r.Pattern) {
			return r.Label, excerpt
		}
	}
	return ErrorUnknown, excerpt
}

// Rules returns the active rule set in declared order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// LoadRules reads an operator-declared taxonomy from a TOML file.
// Rules are [[rules]] tables; file order is preserved. Patterns are
// matched case-insensitively, so they are lowered on load.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var doc struct {
		Rules []Rule `toml:"rules"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	for i, r := range doc.Rules {
		if r.Pattern == "" || r.Label == "" {
			return nil, fmt.Errorf("rule %d: pattern and label are required", i)
		}
		doc.Rules[i].Pattern = strings.ToLower(r.Pattern)
	}
	return doc.Rules, nil
}

// suggestedFixes is the fixed error-type to remediation mapping used
// both for sticky pattern fixes and for improvement solution text.
var suggestedFixes = map[string]string{
	ErrorLint:              "Add automatic fix step before validation",
	ErrorTypeScript:        "Regenerate template with stricter type annotations",
	ErrorTestFailure:       "Review test scaffolding before the commit step",
	ErrorMissingDependency: "Add dependency installation step",
	ErrorBranchOperation:   "Check for existing branches before creation",
	ErrorPROperation:       "Verify remote configuration before opening pull request",
	ErrorGitOperation:      "Verify repository state before git operations",
	ErrorTimeout:           "Increase step timeout or split the step",
}

// fixFallback is used when no canned remediation exists for a label.
const fixFallback = "Needs investigation"

// SuggestedFix returns the canned remediation for an error-type
// label, or the fallback.
func SuggestedFix(errorType string) string {
	if fix, ok := suggestedFixes[errorType]; ok {
		return fix
	}
	return fixFallback
}

func truncate(s string, limit int) string {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
