// Package cli implements the operator command surface: analyze,
// report, score, and watch.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/archive"
	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/config"
	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/learning"
)

// loadConfig loads configuration from file or creates the default.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("no config found, creating default", "path", path)
			cfg = config.DefaultConfig()
			if err := cfg.Save(path); err != nil {
				return nil, fmt.Errorf("save default config: %w", err)
			}
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds the process logger for the given level name.
func NewLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLogLevel(level),
	}))
}

// ParseLogLevel converts a level name to a slog.Level.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// runtime bundles the components a command needs.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *learning.Store
	archive *archive.Archive // nil when archiving is disabled
	engine  *learning.Engine
}

// setup loads config and wires the engine over the state directory.
func setup(configPath string) (*runtime, error) {
	bootLogger := NewLogger("info")
	cfg, err := loadConfig(configPath, bootLogger)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg.LogLevel)

	var rules []learning.Rule
	if cfg.RulesPath != "" {
		rules, err = learning.LoadRules(cfg.RulesPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("taxonomy rules loaded", "path", cfg.RulesPath, "rules", len(rules))
	}

	store, err := learning.OpenStore(cfg.StateDir, logger)
	if err != nil {
		return nil, err
	}

	var arch *archive.Archive
	var archiver learning.MetricArchiver
	if cfg.ArchiveEvicted {
		arch, err = archive.Open(cfg.ArchivePath(), logger)
		if err != nil {
			return nil, err
		}
		archiver = arch
	}

	lcfg := learning.DefaultConfig()
	if cfg.MaxMetrics > 0 {
		lcfg.MaxMetrics = cfg.MaxMetrics
	}
	if cfg.ExcerptLimit > 0 {
		lcfg.ExcerptLimit = cfg.ExcerptLimit
	}

	classifier := learning.NewClassifier(rules, lcfg)
	engine := learning.NewEngine(store, classifier, archiver, lcfg, logger)

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		archive: arch,
		engine:  engine,
	}, nil
}

// close releases runtime resources.
func (r *runtime) close() {
	if r.archive != nil {
		if err := r.archive.Close(); err != nil {
			r.logger.Warn("archive close failed", "error", err)
		}
	}
}

// counter adapts the optional archive to the reporter interface
// without handing it a typed nil.
func (r *runtime) counter() learning.ArchiveCounter {
	if r.archive == nil {
		return nil
	}
	return r.archive
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}
