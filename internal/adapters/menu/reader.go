package menu

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/okian/gatedirector/internal/adapters/textfile"
	"github.com/okian/gatedirector/internal/domain/fault"
	"github.com/okian/gatedirector/pkg/logger"
)

// Reader returns the current menu snapshot.
type Reader interface {
	Read(ctx context.Context) (Snapshot, error)
}

const (
	defaultReadRetries  = 100
	defaultReadInterval = 10 * time.Millisecond
)

// FileReader reads the menu from the first existing file of a path list. The
// add-on rewrites the file in place, so empty or locked reads are retried.
type FileReader struct {
	paths    []string
	retries  int
	interval time.Duration
	logger   logger.Logger
}

var _ Reader = (*FileReader)(nil)

// ReaderOption configures a FileReader.
type ReaderOption func(*FileReader)

// WithReadRetries bounds how often an empty or unreadable file is re-read.
func WithReadRetries(n int, interval time.Duration) ReaderOption {
	return func(r *FileReader) {
		if n > 0 {
			r.retries = n
		}
		if interval >= 0 {
			r.interval = interval
		}
	}
}

// WithReaderLogger sets the logger.
func WithReaderLogger(l logger.Logger) ReaderOption {
	return func(r *FileReader) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewFileReader returns a reader over paths, tried in order on every read.
func NewFileReader(paths []string, opts ...ReaderOption) *FileReader {
	r := &FileReader{
		paths:    paths,
		retries:  defaultReadRetries,
		interval: defaultReadInterval,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read implements Reader. It fails with fault.ErrMenuNotFound when no
// configured file exists or the file stays empty.
func (r *FileReader) Read(ctx context.Context) (Snapshot, error) {
	path, ok := textfile.FirstExisting(r.paths)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: none of %v exists", fault.ErrMenuNotFound, r.paths)
	}

	var lastErr error
	for attempt := 0; attempt < r.retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, r.interval); err != nil {
				return Snapshot{}, err
			}
		}
		content, err := textfile.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Snapshot{}, fmt.Errorf("%w: %s disappeared", fault.ErrMenuNotFound, path)
			}
			lastErr = err
			continue
		}
		snap := ParseSnapshot(content)
		if snap.Empty() {
			lastErr = errors.New("menu file is empty")
			continue
		}
		if mt, ok := textfile.LatestModTime([]string{path}); ok {
			snap.ModTime = mt
		}
		if attempt > 0 {
			r.logger.Debug(ctx, "menu read after retries", logger.Int("retries", attempt))
		}
		return snap, nil
	}
	return Snapshot{}, fmt.Errorf("%w: %s: %v", fault.ErrMenuNotFound, path, lastErr)
}

// sleep waits for d or until ctx is done. A non-positive d only checks ctx.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
