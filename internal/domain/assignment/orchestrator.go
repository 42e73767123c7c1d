// Package assignment turns a requested position into a menu selection:
// catalog, match, navigate, confirm.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/gatedirector/internal/adapters/menu"
	"github.com/okian/gatedirector/internal/adapters/repository"
	"github.com/okian/gatedirector/internal/adapters/tooltip"
	"github.com/okian/gatedirector/internal/domain/catalog"
	"github.com/okian/gatedirector/internal/domain/fault"
	"github.com/okian/gatedirector/internal/domain/matcher"
	"github.com/okian/gatedirector/internal/domain/model"
	"github.com/okian/gatedirector/pkg/logger"
	"github.com/okian/gatedirector/pkg/metrics"
)

// ErrMissingDependency is returned by New when a required collaborator is nil.
var ErrMissingDependency = errors.New("missing orchestrator dependency")

// Deps are the orchestrator's collaborators. Notifier is optional.
type Deps struct {
	Store     repository.Store
	Walker    Walker
	Navigator Navigator
	Confirmer Confirmer
	Ground    GroundSensor
	Matcher   *matcher.Matcher
	Notifier  Notifier
}

// Orchestrator runs requests one at a time. It owns the menu while a request
// is handled and must not be shared between goroutines.
type Orchestrator struct {
	store     repository.Store
	walker    Walker
	nav       Navigator
	confirmer Confirmer
	ground    GroundSensor
	matcher   *matcher.Matcher
	notifier  Notifier

	cfg    Config
	logger logger.Logger

	notes sync.WaitGroup // notifications still in flight
}

// New validates deps and applies options.
func New(d Deps, opts ...Option) (*Orchestrator, error) {
	switch {
	case d.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case d.Walker == nil:
		return nil, fmt.Errorf("%w: walker", ErrMissingDependency)
	case d.Navigator == nil:
		return nil, fmt.Errorf("%w: navigator", ErrMissingDependency)
	case d.Confirmer == nil:
		return nil, fmt.Errorf("%w: confirmer", ErrMissingDependency)
	case d.Ground == nil:
		return nil, fmt.Errorf("%w: ground sensor", ErrMissingDependency)
	}
	if d.Matcher == nil {
		d.Matcher = matcher.New()
	}
	o := &Orchestrator{
		store:     d.Store,
		walker:    d.Walker,
		nav:       d.Navigator,
		confirmer: d.Confirmer,
		ground:    d.Ground,
		matcher:   d.Matcher,
		notifier:  d.Notifier,
		cfg:       DefaultConfig(),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Handle runs req to completion. Failures are reported in the result, never
// panicked or returned.
func (o *Orchestrator) Handle(ctx context.Context, req model.Request) Result {
	began := time.Now()
	res := Result{Request: req}

	switch req.Kind {
	case model.KindPrepare, model.KindRebuild:
		var (
			c   *catalog.Catalog
			err error
		)
		if req.Kind == model.KindRebuild {
			c, err = o.Rebuild(ctx, req.Airport)
		} else {
			c, err = o.EnsureCatalog(ctx, req.Airport)
		}
		if err != nil {
			res.Status, res.Err = StatusFailed, err
		} else {
			res.Status, res.Positions = StatusPrepared, c.Len()
		}
	default:
		o.assign(ctx, req, &res)
		metrics.RecordAssignment(string(res.Status), time.Since(began), res.Attempts)
	}

	res.Duration = time.Since(began)
	res.Kind = fault.Classify(res.Err)
	fields := []logger.Field{
		logger.String("request", req.ID.String()),
		logger.String("kind", string(req.Kind)),
		logger.String("airport", req.Airport),
		logger.String("status", string(res.Status)),
		logger.Duration("took", res.Duration),
	}
	switch res.Status {
	case StatusFailed:
		o.logger.Error(ctx, res.Summary(), append(fields, logger.String("error_kind", string(res.Kind)), logger.Error(res.Err))...)
	case StatusUncertain:
		o.logger.Warn(ctx, res.Summary(), fields...)
	default:
		o.logger.Info(ctx, res.Summary(), fields...)
	}
	return res
}

func (o *Orchestrator) assign(ctx context.Context, req model.Request, res *Result) {
	fail := func(err error) {
		res.Status, res.Err = StatusFailed, err
		o.nav.SetState(menu.StateFailed)
	}

	if req.Airport == "" {
		fail(fmt.Errorf("%w: request has no airport", fault.ErrCatalogUnavailable))
		return
	}
	if err := o.WaitForGround(ctx); err != nil {
		fail(err)
		return
	}
	c, err := o.EnsureCatalog(ctx, req.Airport)
	if err != nil {
		fail(err)
		return
	}

	m := o.matcher.Match(req.Identifier, c)
	if !m.Found() {
		fail(fmt.Errorf("%w: %q", fault.ErrNoMatch, req.Identifier.RawText))
		return
	}
	res.Position, res.Exact, res.Score = m.Entry, m.IsExact, m.Score
	res.Confident = o.matcher.Confident(m)
	metrics.RecordMatch(m.Score, m.IsExact)
	if !m.IsExact && m.Score < o.cfg.MinScore {
		fail(fmt.Errorf("%w: best candidate %s scored %.1f", fault.ErrNoMatch, DisplayName(m.Entry), m.Score))
		return
	}
	o.logger.Info(ctx, "matched position",
		logger.String("requested", req.Identifier.RawText),
		logger.String("terminal", m.Entry.TerminalKey),
		logger.String("position", m.Entry.PositionKey),
		logger.Float64("score", m.Score),
		logger.Bool("exact", m.IsExact))

	if !res.Confident {
		o.notify(ctx, m.Entry, req.Airport)
	}

	var lastErr error
	for attempt := 1; attempt <= o.cfg.AssignAttempts; attempt++ {
		res.Attempts = attempt
		status, err := o.attempt(ctx, req, *m.Entry)
		if err == nil {
			res.Status = status
			return
		}
		lastErr = err
		if !fault.Retryable(err) || attempt == o.cfg.AssignAttempts {
			break
		}
		o.logger.Warn(ctx, "navigation failed, retrying without re-matching",
			logger.Int("attempt", attempt), logger.Int("of", o.cfg.AssignAttempts), logger.Error(err))
		if cerr := o.nav.Close(ctx); cerr != nil {
			o.logger.Debug(ctx, "closing menu before retry", logger.Error(cerr))
		}
		if err := sleep(ctx, o.cfg.RetryDelay); err != nil {
			lastErr = err
			break
		}
	}
	fail(fmt.Errorf("after %d attempts: %w", res.Attempts, lastErr))
}

// attempt drives one navigation to e. A nil error means the request ended
// confirmed or uncertain.
func (o *Orchestrator) attempt(ctx context.Context, req model.Request, e catalog.Entry) (Status, error) {
	if err := o.nav.Refresh(ctx); err != nil {
		return "", err
	}
	switch code := o.nav.Current().AirportCode(); {
	case code == "":
		o.logger.Warn(ctx, "no airport code in menu title", logger.String("title", o.nav.Current().Title))
	case code != req.Airport:
		return "", fmt.Errorf("%w: expected %s, menu shows %s", fault.ErrAirportMismatch, req.Airport, code)
	}

	baseline := o.confirmer.Baseline()
	out, err := o.nav.ClickPlanned(ctx, e)
	if err != nil {
		return "", err
	}
	if out == menu.Unchanged {
		return o.unchanged(ctx, baseline)
	}

	out, err = o.nav.FindAndClick(ctx, o.cfg.ActivateKeywords, menu.MatchKeyword)
	switch {
	case soft(err):
		o.logger.Debug(ctx, "no activate option", logger.Error(err))
	case err != nil:
		return "", err
	case out == menu.Unchanged:
		return o.unchanged(ctx, baseline)
	}

	v, err := o.confirmer.Confirm(ctx, baseline, o.cfg.ConfirmTimeout, o.cfg.ConfirmInterval)
	if err != nil {
		return "", err
	}
	if v == tooltip.Success {
		return o.confirmed(ctx), nil
	}

	if err := o.chooseAirline(ctx, req.Airline); err != nil {
		return "", err
	}
	v, err = o.confirmer.Confirm(ctx, baseline, o.cfg.AirlineConfirmTimeout, o.cfg.ConfirmInterval)
	if err != nil {
		return "", err
	}
	if v == tooltip.Success {
		return o.confirmed(ctx), nil
	}
	return o.uncertain(), nil
}

// chooseAirline picks the handling operator, falling back to the default
// airline. A menu without operators is not an error.
func (o *Orchestrator) chooseAirline(ctx context.Context, airline string) error {
	names := []string{airline, o.cfg.DefaultAirline}
	for i, name := range names {
		if name == "" || (i > 0 && name == names[0]) {
			continue
		}
		_, err := o.nav.FindAndClick(ctx, []string{name}, menu.MatchSubstring)
		if err == nil {
			return nil
		}
		if !soft(err) {
			return err
		}
		o.logger.Debug(ctx, "operator not offered", logger.String("airline", name))
	}
	return nil
}

// unchanged handles a click the menu did not visibly react to: the
// selection may still have applied, so only the status surface decides.
func (o *Orchestrator) unchanged(ctx context.Context, baseline time.Time) (Status, error) {
	v, err := o.confirmer.Confirm(ctx, baseline, o.cfg.UnchangedConfirmTimeout, o.cfg.ConfirmInterval)
	if err != nil {
		return "", err
	}
	if v == tooltip.Success {
		return o.confirmed(ctx), nil
	}
	return o.uncertain(), nil
}

func (o *Orchestrator) confirmed(ctx context.Context) Status {
	if err := o.nav.Close(ctx); err != nil {
		o.logger.Warn(ctx, "closing menu after confirmation", logger.Error(err))
	}
	o.nav.SetState(menu.StateConfirmed)
	return StatusConfirmed
}

// uncertain leaves the menu open so the pilot can check it.
func (o *Orchestrator) uncertain() Status {
	o.nav.SetState(menu.StateUncertain)
	return StatusUncertain
}

// notify reports e in the background. The call outlives the request's
// context but not NotifyTimeout, and its outcome never affects the result.
func (o *Orchestrator) notify(ctx context.Context, e *catalog.Entry, airport string) {
	if o.notifier == nil || !o.notifier.Enabled() {
		return
	}
	position := DisplayName(e)
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.NotifyTimeout)
	o.notes.Add(1)
	go func() {
		defer o.notes.Done()
		defer cancel()
		if err := o.notifier.Notify(nctx, position, airport); err != nil {
			o.logger.Warn(nctx, "assignment notification failed",
				logger.String("position", position),
				logger.String("airport", airport),
				logger.Error(err))
		}
	}()
}

// Wait blocks until every notification sent so far has finished.
func (o *Orchestrator) Wait() {
	o.notes.Wait()
}

// WaitForGround blocks until the aircraft is on the ground. There is no
// timeout: landing ends the wait. Only ctx or a sensor error stops it early.
func (o *Orchestrator) WaitForGround(ctx context.Context) error {
	began := time.Now()
	for polls := 1; ; polls++ {
		on, err := o.ground.OnGround(ctx)
		if err != nil {
			return fmt.Errorf("ground check: %w", err)
		}
		if on {
			if polls > 1 {
				o.logger.Info(ctx, "aircraft on ground, proceeding", logger.Int("polls", polls))
			}
			metrics.RecordGroundWait(time.Since(began))
			return nil
		}
		if polls == 1 {
			o.logger.Info(ctx, "waiting for aircraft on ground")
		}
		if err := sleep(ctx, o.cfg.GroundInterval); err != nil {
			return err
		}
	}
}

// EnsureCatalog returns airport's catalog, rebuilding it from a stored walk
// log or walking the menu when none is stored.
func (o *Orchestrator) EnsureCatalog(ctx context.Context, airport string) (*catalog.Catalog, error) {
	c, err := o.store.Load(ctx, airport)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", fault.ErrCatalogUnavailable, err)
	}
	return o.build(ctx, airport, false)
}

// Prepare builds airport's catalog ahead of any assignment.
func (o *Orchestrator) Prepare(ctx context.Context, airport string) error {
	_, err := o.EnsureCatalog(ctx, airport)
	return err
}

// Rebuild walks airport again and replaces both stored artifacts.
func (o *Orchestrator) Rebuild(ctx context.Context, airport string) (*catalog.Catalog, error) {
	return o.build(ctx, airport, true)
}

func (o *Orchestrator) build(ctx context.Context, airport string, force bool) (*catalog.Catalog, error) {
	unlock, err := o.store.Lock(ctx, airport)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrCatalogUnavailable, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			o.logger.Warn(ctx, "releasing catalog lock", logger.String("airport", airport), logger.Error(err))
		}
	}()

	if !force {
		// A previous holder of the lock may have saved one since the first load.
		if c, err := o.store.Load(ctx, airport); err == nil {
			return c, nil
		}
		if wl, err := o.store.LoadWalkLog(ctx, airport); err == nil {
			c := catalog.Build(wl)
			if c.Len() > 0 {
				o.logger.Info(ctx, "catalog rebuilt from walk log", logger.String("airport", airport), logger.Int("positions", c.Len()))
				if err := o.store.Save(ctx, c); err != nil {
					return nil, fmt.Errorf("%w: %w", fault.ErrCatalogUnavailable, err)
				}
				return c, nil
			}
		}
	}

	c, wl, err := o.walker.Walk(ctx, airport)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrCatalogUnavailable, err)
	}
	if err := o.store.SaveWalkLog(ctx, wl); err != nil {
		o.logger.Warn(ctx, "saving walk log", logger.String("airport", airport), logger.Error(err))
	}
	if err := o.store.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrCatalogUnavailable, err)
	}
	return c, nil
}

func soft(err error) bool {
	return errors.Is(err, menu.ErrOptionNotFound) || errors.Is(err, fault.ErrMenuNotFound)
}

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
