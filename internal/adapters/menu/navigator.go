// Package menu reads the ground-services menu the add-on exposes as a text
// file and drives it through simulator variables.
package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/gatedirector/internal/adapters/simvar"
	"github.com/okian/gatedirector/internal/domain/catalog"
	"github.com/okian/gatedirector/internal/domain/fault"
	"github.com/okian/gatedirector/pkg/logger"
	"github.com/okian/gatedirector/pkg/metrics"
)

// State of the navigator.
type State string

const (
	StateIdle           State = "idle"
	StateMenuOpen       State = "menu_open"
	StateOptionSelected State = "option_selected"
	StateConfirmed      State = "confirmed"
	StateUncertain      State = "uncertain"
	StateFailed         State = "failed"
)

// Outcome of a click.
type Outcome string

const (
	// Changed means the menu content changed after the click.
	Changed Outcome = "changed"
	// Unchanged means the menu looked the same after every check. The click
	// may still have been accepted.
	Unchanged Outcome = "unchanged"
)

// MatchMode selects how FindAndClick compares keywords with options.
type MatchMode int

const (
	// MatchKeyword matches when a whole word of the option equals a keyword.
	MatchKeyword MatchMode = iota
	// MatchSubstring matches when the option contains the first keyword.
	MatchSubstring
)

// ErrOptionNotFound is returned by FindAndClick when no page has a match.
var ErrOptionNotFound = fmt.Errorf("menu option not found: %w", fault.ErrLayoutChanged)

// Navigator is the menu state machine. It is not safe for concurrent use by
// more than one workflow; the mutex only guards State reads from other
// goroutines.
type Navigator struct {
	reader   Reader
	vars     simvar.Client
	controls Controls
	cfg      navConfig
	logger   logger.Logger

	mu      sync.Mutex
	state   State
	current Snapshot
}

type navConfig struct {
	settle        time.Duration
	pollInterval  time.Duration
	checkAttempts int
	openPolls     int
	nextAttempts  int
	maxFindPages  int
}

// NewNavigator wires a navigator to a menu reader and the simulator.
func NewNavigator(reader Reader, vars simvar.Client, opts ...Option) *Navigator {
	n := &Navigator{
		reader:   reader,
		vars:     vars,
		controls: NewControls(DefaultControlKeywords),
		cfg: navConfig{
			settle:        100 * time.Millisecond,
			pollInterval:  100 * time.Millisecond,
			checkAttempts: 4,
			openPolls:     20,
			nextAttempts:  3,
			maxFindPages:  20,
		},
		logger: logger.Nop(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Controls returns the control classifier in use.
func (n *Navigator) Controls() Controls { return n.controls }

// State returns the current state.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// SetState records a verdict reached outside the navigator, such as a
// confirmation.
func (n *Navigator) SetState(s State) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()
}

// Current returns the last snapshot read.
func (n *Navigator) Current() Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// AirportCode returns the ICAO code shown in the current menu title.
func (n *Navigator) AirportCode() string { return n.Current().AirportCode() }

// Open shows the menu and waits until it has content.
func (n *Navigator) Open(ctx context.Context) error {
	if err := n.vars.Set(ctx, simvar.VarMenuOpen, 1); err != nil {
		return fmt.Errorf("open menu: %w", err)
	}
	var lastErr error
	for poll := 0; poll < n.cfg.openPolls; poll++ {
		if err := sleep(ctx, n.cfg.pollInterval); err != nil {
			return err
		}
		snap, err := n.reader.Read(ctx)
		if err != nil {
			if fault.Classify(err) == fault.KindConnectionLost || ctx.Err() != nil {
				return err
			}
			lastErr = err
			continue
		}
		if snap.Title != "" {
			n.set(StateMenuOpen, snap)
			return nil
		}
	}
	n.SetState(StateFailed)
	if lastErr != nil && errors.Is(lastErr, fault.ErrMenuNotFound) {
		return lastErr
	}
	return fmt.Errorf("%w: no content after %d polls", fault.ErrMenuNotFound, n.cfg.openPolls)
}

// Refresh re-renders the menu at its top level.
func (n *Navigator) Refresh(ctx context.Context) error {
	if err := n.vars.Set(ctx, simvar.VarMenuOpen, 1); err != nil {
		return fmt.Errorf("refresh menu: %w", err)
	}
	if err := sleep(ctx, n.cfg.settle); err != nil {
		return err
	}
	if err := n.vars.Set(ctx, simvar.VarMenuChoice, simvar.ChoiceRefresh); err != nil {
		return fmt.Errorf("refresh menu: %w", err)
	}
	if err := sleep(ctx, n.cfg.settle); err != nil {
		return err
	}
	metrics.RecordMenuRefresh()

	snap, err := n.reader.Read(ctx)
	if err != nil {
		return err
	}
	n.set(StateMenuOpen, snap)
	return nil
}

// Close hides the menu.
func (n *Navigator) Close(ctx context.Context) error {
	if err := n.vars.Set(ctx, simvar.VarMenuOpen, 0); err != nil {
		return fmt.Errorf("close menu: %w", err)
	}
	n.mu.Lock()
	n.state = StateIdle
	n.mu.Unlock()
	return sleep(ctx, n.cfg.settle)
}

// Snapshot reads the menu now and remembers the result.
func (n *Navigator) Snapshot(ctx context.Context) (Snapshot, error) {
	snap, err := n.reader.Read(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	n.mu.Lock()
	n.current = snap
	n.mu.Unlock()
	return snap, nil
}

// ClickByIndex selects option i of the current snapshot and reports whether
// the menu changed within the check budget.
func (n *Navigator) ClickByIndex(ctx context.Context, i int) (Outcome, error) {
	before := n.Current()
	if i < 0 || i >= before.OptionCount() {
		return "", fmt.Errorf("%w: option %d of %d in %q", fault.ErrLayoutChanged, i, before.OptionCount(), before.Title)
	}

	if err := sleep(ctx, n.cfg.settle); err != nil {
		return "", err
	}
	if err := n.vars.Set(ctx, simvar.VarMenuChoice, float64(i)); err != nil {
		return "", fmt.Errorf("click %d: %w", i, err)
	}
	if err := sleep(ctx, n.cfg.settle); err != nil {
		return "", err
	}

	out, err := n.waitForChange(ctx, before)
	if err != nil {
		return "", err
	}
	metrics.RecordMenuClick(string(out))
	n.SetState(StateOptionSelected)
	n.logger.Debug(ctx, "clicked", logger.Int("index", i), logger.String("option", before.Options[i]),
		logger.String("outcome", string(out)))
	return out, nil
}

func (n *Navigator) waitForChange(ctx context.Context, before Snapshot) (Outcome, error) {
	for attempt := 0; attempt < n.cfg.checkAttempts; attempt++ {
		if err := sleep(ctx, n.cfg.pollInterval); err != nil {
			return "", err
		}
		snap, err := n.Snapshot(ctx)
		if err != nil {
			if errors.Is(err, fault.ErrMenuNotFound) {
				// Closed menus count as a change: the add-on hides the menu after a final choice.
				return Changed, nil
			}
			return "", err
		}
		if !n.controls.Same(before, snap) {
			return Changed, nil
		}
	}
	return Unchanged, nil
}

// FindAndClick clicks the first option matching keywords. With
// MatchKeyword later pages are searched via Next; MatchSubstring only looks
// at the current page.
func (n *Navigator) FindAndClick(ctx context.Context, keywords []string, mode MatchMode) (Outcome, error) {
	if len(keywords) == 0 {
		return "", fmt.Errorf("%w: no keywords", ErrOptionNotFound)
	}
	for page := 0; page < n.cfg.maxFindPages; page++ {
		snap, err := n.Snapshot(ctx)
		if err != nil {
			return "", err
		}
		if i := search(snap, keywords, mode); i >= 0 {
			n.logger.Debug(ctx, "found option", logger.Any("keywords", keywords), logger.String("option", snap.Options[i]))
			return n.ClickByIndex(ctx, i)
		}
		if mode == MatchSubstring {
			break
		}
		more, err := n.ClickNext(ctx)
		if err != nil {
			return "", err
		}
		if !more {
			break
		}
	}
	return "", fmt.Errorf("%w: %v", ErrOptionNotFound, keywords)
}

func search(s Snapshot, keywords []string, mode MatchMode) int {
	for i, o := range s.Options {
		switch mode {
		case MatchSubstring:
			if strings.Contains(strings.ToLower(o), strings.ToLower(keywords[0])) {
				return i
			}
		default:
			for _, w := range strings.Fields(o) {
				for _, k := range keywords {
					if strings.EqualFold(w, k) {
						return i
					}
				}
			}
		}
	}
	return -1
}

// ClickNext advances to the next page. It returns false when the current
// page has no Next option, and fault.ErrNavigationTimeout when Next never
// changes the menu.
func (n *Navigator) ClickNext(ctx context.Context) (bool, error) {
	i := nextIndex(n.Current())
	if i < 0 {
		return false, nil
	}
	for attempt := 0; attempt < n.cfg.nextAttempts; attempt++ {
		out, err := n.ClickByIndex(ctx, i)
		if err != nil {
			return false, err
		}
		if out == Changed {
			return true, nil
		}
		n.logger.Debug(ctx, "next did not change the menu", logger.Int("attempt", attempt+1))
	}
	cur := n.Current()
	return false, fmt.Errorf("%w: next unchanged after %d attempts on %q", fault.ErrNavigationTimeout, n.cfg.nextAttempts, cur.Title)
}

// GotoPage refreshes to the top level and pages forward to the zero-based
// page.
func (n *Navigator) GotoPage(ctx context.Context, page int) error {
	if err := n.Refresh(ctx); err != nil {
		return err
	}
	for i := 0; i < page; i++ {
		more, err := n.ClickNext(ctx)
		if err != nil {
			return err
		}
		if !more {
			return fmt.Errorf("%w: expected page %d, menu ends at %d", fault.ErrLayoutChanged, page, i)
		}
	}
	return nil
}

// ClickPlanned replays the recorded path to e and clicks it. The option at
// the final index must still name the same position, otherwise the layout
// has changed since the catalog was built. The returned outcome is that of
// the final click.
func (n *Navigator) ClickPlanned(ctx context.Context, e catalog.Entry) (Outcome, error) {
	p := e.Path
	if err := n.GotoPage(ctx, p.TopLevelPage); err != nil {
		return "", err
	}

	out, err := n.ClickByIndex(ctx, p.TopLevelIndex)
	if err != nil {
		return "", err
	}
	if out == Unchanged {
		// One refresh to clear a stale menu before giving up.
		n.logger.Warn(ctx, "top-level click had no effect, refreshing", logger.Int("index", p.TopLevelIndex))
		if err := n.GotoPage(ctx, p.TopLevelPage); err != nil {
			return "", err
		}
		if out, err = n.ClickByIndex(ctx, p.TopLevelIndex); err != nil {
			return "", err
		}
		if out == Unchanged {
			n.SetState(StateFailed)
			return "", fmt.Errorf("%w: top-level option %d did not open", fault.ErrNavigationTimeout, p.TopLevelIndex)
		}
	}

	for i := 0; i < p.PageCount; i++ {
		more, err := n.ClickNext(ctx)
		if err != nil {
			return "", err
		}
		if !more {
			return "", fmt.Errorf("%w: expected %d sub-pages, found %d", fault.ErrLayoutChanged, p.PageCount, i)
		}
	}

	cur := n.Current()
	if p.OptionIndex < 0 || p.OptionIndex >= cur.OptionCount() {
		return "", fmt.Errorf("%w: option %d missing from %q", fault.ErrLayoutChanged, p.OptionIndex, cur.Title)
	}
	if got := cur.Options[p.OptionIndex]; e.FullText != "" && optionName(got) != optionName(e.FullText) {
		return "", fmt.Errorf("%w: expected %q at %d, found %q", fault.ErrLayoutChanged, e.FullText, p.OptionIndex, got)
	}
	return n.ClickByIndex(ctx, p.OptionIndex)
}

// optionName is the part of an option before its first " - ", which holds
// the position name; the rest depends on the current aircraft.
func optionName(option string) string {
	if i := strings.Index(option, " - "); i >= 0 {
		option = option[:i]
	}
	return strings.ToLower(strings.TrimSpace(option))
}

func (n *Navigator) set(s State, snap Snapshot) {
	n.mu.Lock()
	n.state = s
	n.current = snap
	n.mu.Unlock()
}
