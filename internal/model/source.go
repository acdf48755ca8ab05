package model

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/couchcryptid/anaemia-predictor/internal/domain"
	"github.com/couchcryptid/anaemia-predictor/internal/observability"
	"github.com/fsnotify/fsnotify"
)

// FileSource serves the classifier stored at a path. The artifact is read on
// first use and read again whenever its modification time or size changes, so
// a retrained model can be dropped in place without a restart.
type FileSource struct {
	path    string
	logger  *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	model   domain.Model
	modTime time.Time
	size    int64
	loaded  bool
}

// NewFileSource creates a source for the artifact at path. Nothing is read
// until Model is called.
func NewFileSource(path string, logger *slog.Logger, metrics *observability.Metrics) *FileSource {
	return &FileSource{path: path, logger: logger, metrics: metrics}
}

// Model returns the current classifier, reloading it if the file changed.
// Any failure is wrapped in domain.ErrModelUnavailable.
func (s *FileSource) Model(_ context.Context) (domain.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		s.metrics.ModelLoads.WithLabelValues("error").Inc()
		return domain.Model{}, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	if s.loaded && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.model, nil
	}

	m, err := LoadFile(s.path)
	if err != nil {
		s.metrics.ModelLoads.WithLabelValues("error").Inc()
		return domain.Model{}, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	s.metrics.ModelLoads.WithLabelValues("success").Inc()

	if s.loaded {
		s.logger.Info("model artifact reloaded", "path", s.path, "model", m.Name, "capability", m.Capability)
	} else {
		s.logger.Info("model artifact loaded", "path", s.path, "model", m.Name, "capability", m.Capability)
	}
	s.model = m
	s.modTime = info.ModTime()
	s.size = info.Size()
	s.loaded = true
	return m, nil
}

// CheckReadiness reports whether the artifact currently loads.
func (s *FileSource) CheckReadiness(ctx context.Context) error {
	_, err := s.Model(ctx)
	return err
}

// Watch reloads the artifact as soon as it changes on disk instead of on the
// next prediction. The parent directory is watched so that atomic replaces
// (write to a temp file, then rename) are seen. The watcher stops when ctx is
// done.
func (s *FileSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create model watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				s.handleEvent(ctx, event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("model watcher error", "path", s.path, "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *FileSource) handleEvent(ctx context.Context, event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(s.path) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Chmod) {
		return
	}
	// A write can land mid-file; the next event retries.
	if _, err := s.Model(ctx); err != nil {
		s.logger.Debug("model reload after change failed", "path", s.path, "op", event.Op.String(), "error", err)
	}
}
