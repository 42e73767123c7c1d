// Package service wires the request queue, the single worker, the flight-data
// watcher and the orchestrator, and implements the dependencies required by
// the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/gatedirector/internal/adapters/flightdata"
	"github.com/okian/gatedirector/internal/adapters/mq/queue"
	"github.com/okian/gatedirector/internal/adapters/mq/worker"
	"github.com/okian/gatedirector/internal/domain/assignment"
	"github.com/okian/gatedirector/internal/domain/catalog"
	"github.com/okian/gatedirector/internal/domain/dedupe"
	"github.com/okian/gatedirector/internal/domain/gate"
	"github.com/okian/gatedirector/internal/domain/model"
	"github.com/okian/gatedirector/pkg/logger"
	"github.com/okian/gatedirector/pkg/metrics"
)

// Sentinel errors returned to request producers.
var (
	ErrDuplicate      = errors.New("request already pending")
	ErrInvalidRequest = errors.New("invalid request")
	ErrAlreadyStarted = errors.New("service already started")
)

// Orchestrator executes one request.
type Orchestrator interface {
	Handle(ctx context.Context, r model.Request) assignment.Result
}

// CatalogReader returns stored catalogs.
type CatalogReader interface {
	Load(ctx context.Context, airport string) (*catalog.Catalog, error)
}

// Service owns the request pipeline. Producers (the flight watcher and the
// HTTP API) enqueue; one worker hands requests to the orchestrator.
type Service struct {
	orch    Orchestrator
	store   CatalogReader
	ground  assignment.GroundSensor
	parser  *gate.Parser
	queue   *queue.InMemoryQueue
	deduper dedupe.Deduper
	worker  *worker.Worker
	logger  logger.Logger

	queueSize          int
	dedupeSize         int
	flightPath         string
	flightPollInterval time.Duration
	autoPrepare        bool

	mu       sync.RWMutex
	started  bool
	ran      bool
	mapped   map[string]struct{}
	lastGate string
	last     *assignment.Result
	handled  int
	failed   int
}

var _ flightdata.Sink = (*Service)(nil)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the maximum number of pending requests.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the pending-key cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithFlightData enables the flight-data watcher on path.
func WithFlightData(path string, interval time.Duration) Option {
	return func(s *Service) {
		s.flightPath = path
		if interval > 0 {
			s.flightPollInterval = interval
		}
	}
}

// WithAutoPrepare toggles catalog walks for newly reported airports.
func WithAutoPrepare(on bool) Option {
	return func(s *Service) { s.autoPrepare = on }
}

// WithParser sets the identifier parser used for incoming gate strings.
func WithParser(p *gate.Parser) Option {
	return func(s *Service) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. ground may be nil, in which case new airports
// are prepared without checking the ground state.
func New(orch Orchestrator, store CatalogReader, ground assignment.GroundSensor, opts ...Option) *Service {
	s := &Service{
		orch:               orch,
		store:              store,
		ground:             ground,
		parser:             gate.NewParser(),
		logger:             logger.Nop(),
		queueSize:          64,
		dedupeSize:         1024,
		flightPollInterval: 5 * time.Second,
		autoPrepare:        true,
		mapped:             make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.queue = queue.New(queue.WithCapacity(s.queueSize))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.worker = worker.New(s.queue, worker.HandlerFunc(s.handle),
		worker.WithName("orchestrator"),
		worker.WithLogger(s.logger.Named("worker")),
	)
	return s
}

// Run starts the worker and, when configured, the flight-data watcher. It
// blocks until ctx is done or a component fails, then closes the queue. A
// Service runs once.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started, s.ran = true, true
	s.mu.Unlock()

	defer func() {
		_ = s.queue.Close()
		// Background notifications end within their own timeout.
		if w, ok := s.orch.(interface{ Wait() }); ok {
			w.Wait()
		}
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		s.logger.Info(context.Background(), "director service stopped")
	}()

	s.logger.Info(ctx, "director service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("flightData", s.flightPath),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.worker.Run(gctx)
	})
	if s.flightPath != "" {
		w := flightdata.NewWatcher(s.flightPath, s,
			flightdata.WithInterval(s.flightPollInterval),
			flightdata.WithLogger(s.logger.Named("flightdata")),
		)
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Enqueue submits r unless an equivalent request is still pending.
func (s *Service) Enqueue(ctx context.Context, r model.Request) error {
	key := r.Key()
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordQueueDuplicate()
		s.logger.Debug(ctx, "duplicate request dropped", logger.String("key", key))
		return ErrDuplicate
	}
	if err := s.queue.Enqueue(ctx, r); err != nil {
		s.deduper.Unrecord(ctx, key)
		return err
	}
	s.logger.Info(ctx, "request queued",
		logger.String("request_id", r.ID.String()),
		logger.String("kind", string(r.Kind)),
		logger.String("airport", r.Airport),
		logger.String("gate", r.Identifier.RawText),
	)
	return nil
}

// IsDuplicate reports whether err came from dropping a duplicate request.
func (s *Service) IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicate) }

// RequestAssignment parses text and queues an assignment at airport.
func (s *Service) RequestAssignment(ctx context.Context, text, airport, airline string) (model.Request, error) {
	if strings.TrimSpace(airport) == "" {
		return model.Request{}, fmt.Errorf("%w: airport is required", ErrInvalidRequest)
	}
	id := s.parser.Parse(text)
	if id.IsEmpty() {
		return model.Request{}, fmt.Errorf("%w: no position in %q", ErrInvalidRequest, text)
	}
	r := model.NewRequest(model.KindAssign, id, airport, airline)
	return r, s.Enqueue(ctx, r)
}

// RequestRebuild queues a fresh walk of airport.
func (s *Service) RequestRebuild(ctx context.Context, airport string) (model.Request, error) {
	if strings.TrimSpace(airport) == "" {
		return model.Request{}, fmt.Errorf("%w: airport is required", ErrInvalidRequest)
	}
	r := model.NewRequest(model.KindRebuild, gate.Identifier{}, airport, "")
	return r, s.Enqueue(ctx, r)
}

// ObserveFlight implements flightdata.Sink. A newly reported current airport
// is prepared once per process while on the ground; a changed, non-empty
// assigned gate is queued for assignment. The gate only counts as seen once it
// is queued (or already pending), so a gate that arrives before its airport or
// meets a full queue is retried on the next delivery.
func (s *Service) ObserveFlight(ctx context.Context, fd model.FlightData) {
	if s.autoPrepare && fd.CurrentAirport != "" {
		s.prepare(ctx, fd.CurrentAirport)
	}

	s.mu.RLock()
	changed := fd.AssignedGate != s.lastGate
	s.mu.RUnlock()
	if !changed {
		return
	}
	if fd.Empty() {
		s.setLastGate("")
		return
	}

	airport := fd.Airport
	if airport == "" {
		airport = fd.CurrentAirport
	}
	if airport == "" {
		s.logger.Debug(ctx, "assigned gate waits for an airport", logger.String("gate", fd.AssignedGate))
		return
	}

	_, err := s.RequestAssignment(ctx, fd.AssignedGate, airport, fd.Airline)
	switch {
	case err == nil, errors.Is(err, ErrDuplicate):
		s.setLastGate(fd.AssignedGate)
	case errors.Is(err, ErrInvalidRequest):
		// Unparseable text does not get better by retrying.
		s.setLastGate(fd.AssignedGate)
		s.logger.Warn(ctx, "assigned gate not understood",
			logger.String("gate", fd.AssignedGate),
			logger.String("airport", airport),
			logger.Error(err),
		)
	default:
		s.logger.Warn(ctx, "assigned gate not queued, retrying on next update",
			logger.String("gate", fd.AssignedGate),
			logger.String("airport", airport),
			logger.Error(err),
		)
	}
}

func (s *Service) setLastGate(g string) {
	s.mu.Lock()
	s.lastGate = g
	s.mu.Unlock()
}

func (s *Service) prepare(ctx context.Context, airport string) {
	s.mu.RLock()
	_, done := s.mapped[airport]
	s.mu.RUnlock()
	if done {
		return
	}

	if s.ground != nil {
		on, err := s.ground.OnGround(ctx)
		if err != nil {
			s.logger.Warn(ctx, "ground state unavailable", logger.Error(err))
			return
		}
		if !on {
			return
		}
	}

	s.mu.Lock()
	s.mapped[airport] = struct{}{}
	s.mu.Unlock()

	r := model.NewRequest(model.KindPrepare, gate.Identifier{}, airport, "")
	if err := s.Enqueue(ctx, r); err != nil && !errors.Is(err, ErrDuplicate) {
		s.mu.Lock()
		delete(s.mapped, airport)
		s.mu.Unlock()
		s.logger.Warn(ctx, "catalog preparation not queued",
			logger.String("airport", airport),
			logger.Error(err),
		)
	}
}

func (s *Service) handle(ctx context.Context, r model.Request) error {
	defer s.deduper.Unrecord(ctx, r.Key())

	res := s.orch.Handle(ctx, r)

	s.mu.Lock()
	s.last = &res
	s.handled++
	if res.Err != nil {
		s.failed++
	}
	s.mu.Unlock()

	return res.Err
}

// Catalog returns the stored catalog for airport.
func (s *Service) Catalog(ctx context.Context, airport string) (*catalog.Catalog, error) {
	return s.store.Load(ctx, strings.ToUpper(strings.TrimSpace(airport)))
}

// LastResult returns the most recent orchestrator result, if any.
func (s *Service) LastResult() (assignment.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return assignment.Result{}, false
	}
	return *s.last, true
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queueLen := s.queue.Len()
	goroutines := runtime.NumGoroutine()
	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateSystemGoroutineCount(goroutines)

	mapped := make([]string, 0, len(s.mapped))
	for a := range s.mapped {
		mapped = append(mapped, a)
	}
	slices.Sort(mapped)

	stats := map[string]interface{}{
		"started":        s.started,
		"queueSize":      s.queueSize,
		"queueLength":    queueLen,
		"pending":        s.deduper.Size(),
		"handled":        s.handled,
		"failed":         s.failed,
		"mappedAirports": mapped,
		"assignedGate":   s.lastGate,
		"goroutines":     goroutines,
	}
	if s.last != nil {
		stats["lastStatus"] = string(s.last.Status)
		stats["lastSummary"] = s.last.Summary()
	}
	return stats
}
