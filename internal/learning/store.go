package learning

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Persisted resource names under the state directory.
const (
	metricsFile      = "metrics.json"
	patternsFile     = "patterns.json"
	improvementsFile = "improvements.json"
	appliedFile      = "applied.jsonl"
	reportFile       = "report.json"
)

// Store owns the persisted engine state: the metrics collection, the
// patterns mapping, the improvements snapshot, and the applied audit
// log, each a separate named resource under one state directory.
//
// A Store is opened (load-or-initialize) at invocation start and each
// resource is written back wholesale. Callers must serialize
// invocations against the same directory; concurrent writers are a
// precondition violation, not a handled case.
type Store struct {
	dir    string
	logger *slog.Logger

	metrics      []ExecutionMetric
	patterns     map[string]*LearningPattern
	improvements []TemplateImprovement
}

// OpenStore loads engine state from dir, initializing empty state for
// absent resources. Unreadable resources surface a *StorageError.
func OpenStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "write", Path: dir, Err: err}
	}

	s := &Store{
		dir:      dir,
		logger:   logger.With("component", "store"),
		patterns: make(map[string]*LearningPattern),
	}

	if err := s.loadJSON(metricsFile, &s.metrics); err != nil {
		return nil, err
	}
	if err := s.loadJSON(patternsFile, &s.patterns); err != nil {
		return nil, err
	}
	if err := s.loadJSON(improvementsFile, &s.improvements); err != nil {
		return nil, err
	}
	if s.patterns == nil {
		s.patterns = make(map[string]*LearningPattern)
	}

	s.logger.Debug("state loaded",
		"dir", dir,
		"metrics", len(s.metrics),
		"patterns", len(s.patterns),
		"improvements", len(s.improvements),
	)
	return s, nil
}

// Dir returns the state directory.
func (s *Store) Dir() string {
	return s.dir
}

// Metrics returns the current metric list, oldest first.
func (s *Store) Metrics() []ExecutionMetric {
	out := make([]ExecutionMetric, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// AppendMetrics appends metrics and truncates to the most recent max
// entries. Returns the evicted records, oldest first, so the caller
// can hand them to an archive before they are gone.
func (s *Store) AppendMetrics(metrics []ExecutionMetric, max int) []ExecutionMetric {
	s.metrics = append(s.metrics, metrics...)
	if max > 0 && len(s.metrics) > max {
		excess := len(s.metrics) - max
		evicted := make([]ExecutionMetric, excess)
		copy(evicted, s.metrics[:excess])
		s.metrics = append(s.metrics[:0:0], s.metrics[excess:]...)
		return evicted
	}
	return nil
}

// SaveMetrics persists the metrics collection.
func (s *Store) SaveMetrics() error {
	return s.saveJSON(metricsFile, s.metrics)
}

// Pattern returns the pattern for key, or nil.
func (s *Store) Pattern(key string) *LearningPattern {
	return s.patterns[key]
}

// EnsurePattern returns the pattern for key, creating it on first
// occurrence.
func (s *Store) EnsurePattern(key string) *LearningPattern {
	if p, ok := s.patterns[key]; ok {
		return p
	}
	p := &LearningPattern{Key: key}
	s.patterns[key] = p
	return p
}

// Patterns returns the full pattern mapping. The returned map shares
// the store's pattern records; mutations are persisted by
// SavePatterns.
func (s *Store) Patterns() map[string]*LearningPattern {
	return s.patterns
}

// SavePatterns persists the pattern mapping wholesale.
func (s *Store) SavePatterns() error {
	return s.saveJSON(patternsFile, s.patterns)
}

// Improvements returns the current improvements snapshot.
func (s *Store) Improvements() []TemplateImprovement {
	out := make([]TemplateImprovement, len(s.improvements))
	copy(out, s.improvements)
	return out
}

// SetImprovements replaces the improvements snapshot. Unlike metrics,
// improvements are not append-only: each analysis pass overwrites the
// previous snapshot.
func (s *Store) SetImprovements(improvements []TemplateImprovement) {
	s.improvements = improvements
}

// SaveImprovements persists the improvements snapshot.
func (s *Store) SaveImprovements() error {
	return s.saveJSON(improvementsFile, s.improvements)
}

// AppendApplied writes one applied-improvement audit record to the
// append-only applied log.
func (s *Store) AppendApplied(rec AppliedImprovement) error {
	path := filepath.Join(s.dir, appliedFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &StorageError{Op: "append", Path: path, Err: err}
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal applied record: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return &StorageError{Op: "append", Path: path, Err: err}
	}
	return nil
}

// AppliedLog reads the applied audit log. An absent log is an empty
// log.
func (s *Store) AppliedLog() ([]AppliedImprovement, error) {
	path := filepath.Join(s.dir, appliedFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageError{Op: "read", Path: path, Err: err}
	}
	defer f.Close()

	var records []AppliedImprovement
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec AppliedImprovement
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, &StorageError{Op: "read", Path: path, Err: err}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, &StorageError{Op: "read", Path: path, Err: err}
	}
	return records, nil
}

// SaveReport persists the generated summary artifact.
func (s *Store) SaveReport(report any) error {
	return s.saveJSON(reportFile, report)
}

// loadJSON reads one named resource into v. Absence leaves v as-is.
func (s *Store) loadJSON(name string, v any) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &StorageError{Op: "read", Path: path, Err: err}
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &StorageError{Op: "read", Path: path, Err: err}
	}
	return nil
}

// saveJSON writes one named resource as a whole-file replace: marshal
// to a temp file, then rename over the old content.
func (s *Store) saveJSON(name string, v any) error {
	path := filepath.Join(s.dir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &StorageError{Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	return nil
}
