// Package menutest provides a scripted ground-services add-on for tests. GSX
// implements both menu.Reader and simvar.Client so a Navigator can drive it
// without a simulator.
package menutest

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/gatedirector/internal/adapters/menu"
	"github.com/okian/gatedirector/internal/adapters/simvar"
	"github.com/okian/gatedirector/internal/domain/fault"
)

type screenKind int

const (
	screenTop screenKind = iota
	screenGroup
	screenPosition
	screenOperator
)

type screen struct {
	kind  screenKind
	group string
	page  int
	name  string
}

// GSX is a menu tree: top-level areas, each holding a paginated list of
// positions. Selecting a position shows an Activate screen; activating
// shows the operator list, or closes the menu when there is none.
type GSX struct {
	mu sync.Mutex

	airport   string
	pageSize  int
	top       []string
	groups    map[string][]string
	operators []string

	// Frozen ignores every click.
	frozen bool
	// stickyPositions ignores clicks on positions only.
	stickyPositions bool

	ground      []bool
	groundPolls int

	setErr  error
	readErr error

	onActivate func(position string)
	onOperator func(operator string)

	open      bool
	cur       screen
	selected  string
	clicks    []string
	refreshes int
	vars      map[string]float64
}

var (
	_ menu.Reader   = (*GSX)(nil)
	_ simvar.Client = (*GSX)(nil)
)

// New returns a closed menu for airport with five positions per page.
func New(airport string) *GSX {
	return &GSX{
		airport:  airport,
		pageSize: 5,
		groups:   make(map[string][]string),
		vars:     make(map[string]float64),
	}
}

// PageSize sets how many options fit on a page before Next appears.
func (g *GSX) PageSize(n int) *GSX {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pageSize = n
	return g
}

// AddGroup adds a top-level area listing positions.
func (g *GSX) AddGroup(name string, positions ...string) *GSX {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.top = append(g.top, name)
	g.groups[name] = positions
	return g
}

// AddTopOption adds a top-level option that does nothing when clicked.
func (g *GSX) AddTopOption(name string) *GSX {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.top = append(g.top, name)
	return g
}

// Operators sets the list shown after Activate.
func (g *GSX) Operators(names ...string) *GSX {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.operators = names
	return g
}

// SetAirport changes the airport shown in titles.
func (g *GSX) SetAirport(icao string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.airport = icao
}

// Freeze makes every click a no-op.
func (g *GSX) Freeze(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frozen = on
}

// StickyPositions makes clicks on positions a no-op while navigation still
// works.
func (g *GSX) StickyPositions(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stickyPositions = on
}

// Ground scripts successive OnGround answers. The last one repeats; with no
// script the aircraft is on the ground.
func (g *GSX) Ground(seq ...bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ground = seq
	g.groundPolls = 0
}

// FailSets makes every Set return err.
func (g *GSX) FailSets(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setErr = err
}

// FailReads makes every Read return err.
func (g *GSX) FailReads(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.readErr = err
}

// OnActivate registers a hook run when a position is activated.
func (g *GSX) OnActivate(fn func(position string)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onActivate = fn
}

// OnOperator registers a hook run when an operator is chosen.
func (g *GSX) OnOperator(fn func(operator string)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onOperator = fn
}

// Clicks returns the text of every option clicked so far.
func (g *GSX) Clicks() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.clicks...)
}

// Refreshes returns the number of refresh signals received.
func (g *GSX) Refreshes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refreshes
}

// GroundPolls returns the number of OnGround calls.
func (g *GSX) GroundPolls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.groundPolls
}

// IsOpen reports whether the menu is shown.
func (g *GSX) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Selected returns the last position selected.
func (g *GSX) Selected() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selected
}

// Read implements menu.Reader.
func (g *GSX) Read(ctx context.Context) (menu.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return menu.Snapshot{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.readErr != nil {
		return menu.Snapshot{}, g.readErr
	}
	if !g.open {
		return menu.Snapshot{}, fmt.Errorf("%w: menu closed", fault.ErrMenuNotFound)
	}
	title, options := g.render()
	return menu.Snapshot{Title: title, Options: options}, nil
}

// Get implements simvar.Client.
func (g *GSX) Get(ctx context.Context, name string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if name == simvar.VarOnGround {
		on, err := g.OnGround(ctx)
		if on {
			return 1, err
		}
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if name == simvar.VarMenuOpen {
		if g.open {
			return 1, nil
		}
		return 0, nil
	}
	v, ok := g.vars[name]
	if !ok {
		return 0, simvar.ErrUnknownVariable
	}
	return v, nil
}

// OnGround implements simvar.Client.
func (g *GSX) OnGround(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.groundPolls++
	if len(g.ground) == 0 {
		return true, nil
	}
	i := g.groundPolls - 1
	if i >= len(g.ground) {
		i = len(g.ground) - 1
	}
	return g.ground[i], nil
}

// Set implements simvar.Client.
func (g *GSX) Set(ctx context.Context, name string, value float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	if g.setErr != nil {
		err := g.setErr
		g.mu.Unlock()
		return err
	}
	g.vars[name] = value

	var hook func()
	switch name {
	case simvar.VarMenuOpen:
		if value == 0 {
			g.open = false
		} else if !g.open {
			g.open = true
			g.cur = screen{kind: screenTop}
		}
	case simvar.VarMenuChoice:
		switch {
		case value == simvar.ChoiceRefresh:
			g.refreshes++
			if g.open {
				g.cur = screen{kind: screenTop}
			}
		case g.open && value >= 0:
			hook = g.click(int(value))
		}
	}
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// click applies option i of the current screen. The returned hook runs
// without the lock held.
func (g *GSX) click(i int) func() {
	_, options := g.render()
	if i >= len(options) {
		return nil
	}
	option := options[i]
	g.clicks = append(g.clicks, option)
	if g.frozen {
		return nil
	}

	if option == "Next" {
		g.cur.page++
		return nil
	}

	switch g.cur.kind {
	case screenTop:
		if _, ok := g.groups[option]; ok {
			g.cur = screen{kind: screenGroup, group: option}
		}
	case screenGroup:
		if g.stickyPositions {
			return nil
		}
		g.selected = option
		g.cur = screen{kind: screenPosition, name: option}
	case screenPosition:
		if option != "Activate" {
			return nil
		}
		name := g.cur.name
		if len(g.operators) > 0 {
			g.cur = screen{kind: screenOperator, name: name}
		} else {
			g.open = false
		}
		if fn := g.onActivate; fn != nil {
			return func() { fn(name) }
		}
	case screenOperator:
		g.open = false
		if fn := g.onOperator; fn != nil {
			return func() { fn(option) }
		}
	}
	return nil
}

func (g *GSX) render() (string, []string) {
	switch g.cur.kind {
	case screenGroup:
		return fmt.Sprintf("%s - %s", g.cur.group, g.airport), g.paginate(g.groups[g.cur.group], g.cur.page)
	case screenPosition:
		return fmt.Sprintf("%s - %s", g.cur.name, g.airport), []string{"Activate", "Warp here"}
	case screenOperator:
		return fmt.Sprintf("Select handling operator - %s", g.airport), g.paginate(g.operators, g.cur.page)
	default:
		return fmt.Sprintf("%s - Select area", g.airport), g.paginate(g.top, g.cur.page)
	}
}

func (g *GSX) paginate(all []string, page int) []string {
	size := g.pageSize
	if size <= 0 {
		size = len(all)
	}
	start := page * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	out := append([]string(nil), all[start:end]...)
	if end < len(all) {
		out = append(out, "Next")
	}
	return out
}
