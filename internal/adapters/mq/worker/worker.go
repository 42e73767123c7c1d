// Package worker drains the request queue into the orchestrator, one request
// at a time.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/okian/gatedirector/internal/adapters/mq/queue"
	"github.com/okian/gatedirector/internal/domain/fault"
	"github.com/okian/gatedirector/internal/domain/model"
	"github.com/okian/gatedirector/pkg/logger"
	"github.com/okian/gatedirector/pkg/metrics"
)

// ErrPanic wraps a panic recovered while handling a request.
var ErrPanic = errors.New("request handler panicked")

// Source is where the worker reads requests.
type Source interface {
	Pop(ctx context.Context) (model.Request, error)
}

// Handler executes one request.
type Handler interface {
	Handle(ctx context.Context, r model.Request) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, r model.Request) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, r model.Request) error { return f(ctx, r) }

// Worker is the single consumer. The external menu is one stateful resource,
// so requests are never handled concurrently.
type Worker struct {
	source  Source
	handler Handler
	name    string
	logger  logger.Logger

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}
}

// New creates a worker with configuration options.
func New(source Source, handler Handler, opts ...Option) *Worker {
	w := &Worker{
		source:   source,
		handler:  handler,
		name:     "worker",
		logger:   logger.Nop(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run pops and handles requests until ctx is cancelled, Shutdown is called,
// or the source is closed and drained. A failing or panicking request is
// logged and the loop moves on.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		r, err := w.source.Pop(ctx)
		switch {
		case errors.Is(err, queue.ErrClosed):
			w.logger.Info(ctx, "queue closed, worker exiting")
			return nil
		case ctx.Err() != nil:
			return nil
		case err != nil:
			return fmt.Errorf("%s: pop: %w", w.name, err)
		}

		if err := w.process(ctx, r); err != nil {
			kind := fault.Classify(err)
			metrics.RecordErrorByComponent(w.name, string(kind))
			w.logger.Error(ctx, "request failed",
				logger.String("request_id", r.ID.String()),
				logger.String("kind", string(r.Kind)),
				logger.String("fault", string(kind)),
				logger.Error(err),
			)
		}
	}
}

// Shutdown stops the loop after the request in flight and waits for it.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker) process(ctx context.Context, r model.Request) (err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			w.logger.Error(ctx, "recovered from panic",
				logger.String("request_id", r.ID.String()),
				logger.Any("panic", p),
				logger.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: %v", ErrPanic, p)
		}
		w.logger.Debug(ctx, "request handled",
			logger.String("request_id", r.ID.String()),
			logger.Duration("took", time.Since(start)),
			logger.Duration("queued", start.Sub(r.EnqueuedAt)),
		)
	}()

	return w.handler.Handle(ctx, r)
}
