package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/juju/clock"

	"github.com/thoreinstein/gfsave/internal/logging"
	"github.com/thoreinstein/gfsave/internal/save"
	"github.com/thoreinstein/gfsave/pkg/fileutil"
)

// DefaultDebounce is the quiet period after the last marker write.
const DefaultDebounce = 5 * time.Second

// Func is called once per burst of saves. An error is logged and the
// watcher keeps running.
type Func func(ctx context.Context) error

// Watcher watches a save directory for marker file writes.
type Watcher struct {
	dir      string
	onSave   Func
	debounce time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	// watched is the directory fsnotify currently watches: dir itself, or
	// its nearest existing ancestor while dir does not exist.
	watched string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithClock sets the clock used for the quiet period.
func WithClock(c clock.Clock) Option {
	return func(w *Watcher) {
		if c != nil {
			w.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a Watcher for the save directory dir.
func New(dir string, onSave Func, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      filepath.Clean(dir),
		onSave:   onSave,
		debounce: DefaultDebounce,
		clock:    clock.WallClock,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. It returns nil on cancellation and an
// error only if the watch cannot be set up.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating file watcher")
	}
	defer fsw.Close()

	if err := w.rearm(fsw); err != nil {
		return err
	}
	w.logger.Info("watching for saves", "dir", w.dir, "debounce", w.debounce)
	if w.watched != w.dir {
		w.logger.Info("save directory does not exist yet", "waiting_in", w.watched)
	}

	return w.loop(ctx, fsw.Events, fsw.Errors, fsw)
}

// adder is the part of fsnotify.Watcher that rearm needs.
type adder interface {
	Add(name string) error
	Remove(name string) error
}

// loop handles events until ctx is done. fsw may be nil, in which case the
// watched directory never changes.
func (w *Watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, fsw adder) error {
	var (
		timer  clock.Timer
		timerC <-chan time.Time
	)
	schedule := func() {
		if timer == nil {
			timer = w.clock.NewTimer(w.debounce)
		} else {
			if !timer.Stop() {
				select {
				case <-timer.Chan():
				default:
				}
			}
			timer.Reset(w.debounce)
		}
		timerC = timer.Chan()
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.logger.Log(ctx, logging.LevelTrace, "file event", "name", ev.Name, "op", ev.Op.String())

			if w.watched != w.dir || filepath.Clean(ev.Name) == w.dir {
				if fsw == nil || !ev.Has(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
					continue
				}
				before := w.watched
				if err := w.rearm(fsw); err != nil {
					w.logger.Warn("re-arming watch failed", "error", err)
					continue
				}
				if before != w.dir && w.watched == w.dir {
					w.logger.Info("save directory appeared", "dir", w.dir)
					if _, ok, _ := save.ProfileTime(w.dir); ok {
						schedule()
					}
				}
				continue
			}

			if isMarker(ev) {
				schedule()
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-timerC:
			timerC = nil
			if err := w.onSave(ctx); err != nil {
				w.logger.Error("save callback failed", "error", err)
			}
		}
	}
}

func isMarker(ev fsnotify.Event) bool {
	return filepath.Base(ev.Name) == save.MarkerFile &&
		ev.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Chmod)
}

// rearm points the watch at dir, or at its nearest existing ancestor when
// dir is missing.
func (w *Watcher) rearm(fsw adder) error {
	target := w.dir
	for !fileutil.IsDir(target) {
		parent := filepath.Dir(target)
		if parent == target {
			return errors.Wrapf(os.ErrNotExist, "no existing ancestor of %s", w.dir)
		}
		target = parent
	}
	if target == w.watched {
		return nil
	}

	if err := fsw.Add(target); err != nil {
		return errors.Wrapf(err, "watching %s", target)
	}
	if w.watched != "" {
		// The old directory may be gone already.
		_ = fsw.Remove(w.watched)
	}
	w.logger.Debug("watching directory", "dir", target)
	w.watched = target
	return nil
}
