package authsync

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Syncer keeps the auth store in sync with the external credential
// file for the lifetime of the process.
type Syncer struct {
	cfg Config
}

// NewSyncer creates the daemon with defaults applied.
func NewSyncer(cfg Config) *Syncer {
	cfg.applyDefaults()
	return &Syncer{cfg: cfg}
}

// Run syncs once immediately, then re-runs on every poll tick and on
// every debounced change event, until ctx is cancelled. It always
// returns nil: a broken or absent source is retried, never fatal.
func (s *Syncer) Run(ctx context.Context) error {
	s.cycle()

	// The watcher targets the parent directory because the source is
	// typically replaced by rename, which would orphan a watch on the
	// file itself.
	events := make(chan struct{}, 1)
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(s.cfg.SourcePath)); err == nil {
			go s.forwardEvents(ctx, watcher, events)
		} else {
			slog.Debug("credential watch unavailable, polling only", "error", err)
		}
	} else {
		slog.Debug("credential watch unavailable, polling only", "error", err)
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.cycle()
		case <-events:
			s.cycle()
		}
	}
}

// forwardEvents turns raw fsnotify events for the source file into
// debounced triggers, collapsing rapid successive writes.
func (s *Syncer) forwardEvents(ctx context.Context, w *fsnotify.Watcher, out chan<- struct{}) {
	var mu sync.Mutex
	var debounce *time.Timer
	defer func() {
		mu.Lock()
		if debounce != nil {
			debounce.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Name != s.cfg.SourcePath {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}

			mu.Lock()
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(s.cfg.Debounce, func() {
				select {
				case out <- struct{}{}:
				default:
				}
			})
			mu.Unlock()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Debug("credential watcher error", "error", err)
		}
	}
}

func (s *Syncer) cycle() {
	changed, err := SyncOnce(s.cfg, time.Now())
	switch {
	case errors.Is(err, ErrSourceUnreadable) || errors.Is(err, ErrSourceInvalid):
		// Normal while the host file is not yet mounted or populated.
		slog.Debug("credential sync skipped", "error", err)
	case err != nil:
		slog.Warn("credential sync failed", "error", err)
	case changed:
		slog.Info("profile synced", "profile", s.cfg.ProfileID, "store", s.cfg.StorePath)
	}
}
