package config

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Source provides the current search configuration. The hybrid search
// service reads tunables through this interface so a file reload takes
// effect without a restart.
type Source interface {
	SearchConfig() Search
	GraphConfig() Graph
}

// Static wraps a fixed Config as a Source, for tests and for deployments
// without a config file.
type Static struct {
	Config *Config
}

func (s Static) SearchConfig() Search { return s.Config.Search }
func (s Static) GraphConfig() Graph   { return s.Config.Graph }

// Watcher re-reads the config file on filesystem change events and serves
// the latest validated snapshot. Invalid reloads are logged and discarded;
// the previous snapshot stays active.
type Watcher struct {
	mu      sync.RWMutex
	current *Config
	path    string
	logger  *zap.Logger
	fsw     *fsnotify.Watcher
}

// NewWatcher creates a watcher seeded with the already-loaded config.
func NewWatcher(initial *Config, logger *zap.Logger) *Watcher {
	return &Watcher{
		current: initial,
		path:    initial.ConfigFile,
		logger:  logger,
	}
}

// Start begins watching the config file until ctx is cancelled. It is a
// no-op when no config file was loaded.
func (w *Watcher) Start(ctx context.Context) error {
	if w.path == "" {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.path); err != nil {
		fsw.Close()
		return err
	}
	w.fsw = fsw

	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg := Default()
	if err := loadFile(w.path, cfg); err != nil {
		w.logger.Warn("config reload failed, keeping previous", zap.Error(err))
		return
	}
	cfg.ConfigFile = w.path
	loadEnvironment(cfg)
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("reloaded config invalid, keeping previous", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()
	w.logger.Info("configuration reloaded", zap.String("path", w.path))
}

// Config returns the current snapshot.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) SearchConfig() Search {
	return w.Config().Search
}

func (w *Watcher) GraphConfig() Graph {
	return w.Config().Graph
}

var _ Source = (*Watcher)(nil)
var _ Source = Static{}
