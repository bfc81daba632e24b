package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// Service turns plugin-directory changes and cron ticks into rescan triggers.
type Service struct {
	roots    []string
	debounce time.Duration
	schedule string
	trigger  func(reason string)
	logger   *slog.Logger
}

// New builds a watch service. trigger is invoked from the service goroutine;
// schedule may be empty to disable periodic rescans.
func New(roots []string, debounce time.Duration, schedule string, trigger func(string), logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Service{
		roots:    roots,
		debounce: debounce,
		schedule: schedule,
		trigger:  trigger,
		logger:   logger.With("component", "watch"),
	}
}

// Start blocks until ctx is canceled, dispatching triggers as directories
// change or the schedule fires.
func (s *Service) Start(ctx context.Context) error {
	if s.schedule != "" {
		runner := cron.New()
		if _, err := runner.AddFunc(s.schedule, func() { s.trigger("schedule") }); err != nil {
			return fmt.Errorf("parse watch schedule %q: %w", s.schedule, err)
		}
		runner.Start()
		defer runner.Stop()
		s.logger.Info("scheduled rescans enabled", "schedule", s.schedule)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("fsnotify unavailable, schedule-only mode", "error", err)
		<-ctx.Done()
		return nil
	}
	defer watcher.Close()

	watched := 0
	for _, root := range s.roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		if err := watcher.Add(root); err != nil {
			s.logger.Warn("watch directory", "path", root, "error", err)
			continue
		}
		watched++
	}
	s.logger.Info("watching plugin directories", "count", watched)

	// Debounce timer starts stopped; each event resets it so a burst of
	// installer writes collapses into one rescan.
	debounceTimer := time.NewTimer(s.debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("watch stopping")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			s.logger.Debug("plugin directory changed", "path", ev.Name, "op", ev.Op.String())
			if pending && !debounceTimer.Stop() {
				<-debounceTimer.C
			}
			debounceTimer.Reset(s.debounce)
			pending = true
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch error", "error", err)
		case <-debounceTimer.C:
			pending = false
			s.trigger("change")
		}
	}
}
