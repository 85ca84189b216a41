// Package watch runs the engine as a daemon: workflow results dropped
// into a directory are analyzed as they appear, and the summary
// report is refreshed on a cron schedule. The daemon is the sole
// writer for its state directory while running, which preserves the
// engine's single-writer requirement.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/config"
	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/learning"
	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/workflow"
)

// Daemon watches a results drop directory and feeds the engine.
type Daemon struct {
	cfg      *config.Config
	engine   *learning.Engine
	reporter *learning.Reporter
	logger   *slog.Logger

	mu        sync.Mutex // serializes engine invocations
	processed map[string]bool
}

// New creates a Daemon.
func New(cfg *config.Config, engine *learning.Engine, reporter *learning.Reporter, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		cfg:       cfg,
		engine:    engine,
		reporter:  reporter,
		logger:    logger.With("component", "watch"),
		processed: make(map[string]bool),
	}
}

// Run blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	dir := d.cfg.Watch.ResultsDir
	if dir == "" {
		return fmt.Errorf("watch: results directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("watch: create results dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", dir, err)
	}

	// Results already in the directory at startup are analyzed once.
	d.sweep(ctx, dir)

	d.logger.Info("watch daemon started", "dir", dir, "schedule", d.cfg.Watch.ReportSchedule)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.watchLoop(ctx, watcher)
	})

	if d.cfg.Watch.ReportSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(d.cfg.Watch.ReportSchedule, func() {
			d.refreshReport(ctx)
		}); err != nil {
			return fmt.Errorf("watch: schedule report refresh: %w", err)
		}
		c.Start()
		g.Go(func() error {
			<-ctx.Done()
			<-c.Stop().Done()
			return ctx.Err()
		})
	}

	return g.Wait()
}

func (d *Daemon) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isResultFile(event.Name) {
				continue
			}
			d.handleFile(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("watcher error", "error", err)
		}
	}
}

// sweep analyzes result files that predate the watcher.
func (d *Daemon) sweep(ctx context.Context, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		d.logger.Warn("sweep failed", "dir", dir, "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isResultFile(entry.Name()) {
			continue
		}
		d.handleFile(ctx, filepath.Join(dir, entry.Name()))
	}
}

func (d *Daemon) handleFile(ctx context.Context, path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.processed[path] {
		return
	}

	result, err := workflow.Load(path)
	if err != nil {
		// A Write event may fire before the producer finishes the
		// file; the next event retries.
		d.logger.Warn("result not ingested", "file", path, "error", err)
		return
	}

	summary, err := d.engine.Analyze(ctx, result)
	if err != nil {
		d.logger.Error("analysis failed", "file", path, "error", err)
		return
	}
	d.processed[path] = true

	d.logger.Info("result analyzed",
		"file", filepath.Base(path),
		"run", summary.RunID,
		"recorded", summary.Recorded,
		"failures", summary.Failures,
		"score", summary.RunScore,
	)
}

func (d *Daemon) refreshReport(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.reporter.Generate(ctx); err != nil {
		d.logger.Error("scheduled report refresh failed", "error", err)
	}
}

func isResultFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return !strings.HasSuffix(name, ".tmp")
	default:
		return false
	}
}
