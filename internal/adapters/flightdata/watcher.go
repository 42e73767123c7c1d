package flightdata

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/gatedirector/internal/adapters/textfile"
	"github.com/okian/gatedirector/internal/domain/model"
	"github.com/okian/gatedirector/pkg/logger"
)

// Sink receives flight data each time it changes.
type Sink interface {
	ObserveFlight(ctx context.Context, fd model.FlightData)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, fd model.FlightData)

// ObserveFlight implements Sink.
func (f SinkFunc) ObserveFlight(ctx context.Context, fd model.FlightData) { f(ctx, fd) }

// Watcher re-reads the flight file on file-system events and on a ticker,
// since some writers replace the file in ways that do not raise events.
// Events report only changed content; every tick reports the current content
// again, so a sink that could not act on a document gets another chance.
type Watcher struct {
	path     string
	interval time.Duration
	sink     Sink
	logger   logger.Logger

	last    model.FlightData
	emitted bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher follows path and reports changes to sink.
func NewWatcher(path string, sink Sink, opts ...Option) *Watcher {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		sink:     sink,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done. It never touches the menu.
func (w *Watcher) Run(ctx context.Context) error {
	var events <-chan fsnotify.Event
	var errs <-chan error
	if fw, err := fsnotify.NewWatcher(); err != nil {
		w.logger.Warn(ctx, "file events unavailable, polling only", logger.Error(err))
	} else {
		defer func() { _ = fw.Close() }()
		// The directory is watched so that replaced files keep being seen.
		if err := fw.Add(filepath.Dir(w.path)); err != nil {
			w.logger.Warn(ctx, "cannot watch flight data directory, polling only",
				logger.String("path", w.path), logger.Error(err))
		} else {
			events, errs = fw.Events, fw.Errors
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info(ctx, "watching flight data", logger.String("path", w.path), logger.Duration("interval", w.interval))
	w.poll(ctx, true)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == filepath.Clean(w.path) && ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				w.poll(ctx, false)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Warn(ctx, "file watcher error", logger.Error(err))
		case <-ticker.C:
			w.poll(ctx, true)
		}
	}
}

func (w *Watcher) poll(ctx context.Context, resend bool) {
	content, err := textfile.Read(w.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.logger.Debug(ctx, "reading flight data", logger.Error(err))
		}
		return
	}
	fd, err := Parse([]byte(content))
	if err != nil {
		// Usually a partial write; the next event or tick reads it again.
		w.logger.Debug(ctx, "parsing flight data", logger.Error(err))
		return
	}
	changed := !w.emitted || fd != w.last
	if !changed && !resend {
		return
	}
	w.last, w.emitted = fd, true
	if changed {
		w.logger.Debug(ctx, "flight data changed",
			logger.String("gate", fd.AssignedGate),
			logger.String("airport", fd.Airport),
			logger.String("current_airport", fd.CurrentAirport))
	}
	w.sink.ObserveFlight(ctx, fd)
}
