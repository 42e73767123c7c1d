// Package walker builds an airport's position catalog by visiting every page
// of the ground-services menu.
package walker

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/okian/gatedirector/internal/adapters/menu"
	"github.com/okian/gatedirector/internal/domain/catalog"
	"github.com/okian/gatedirector/internal/domain/fault"
	"github.com/okian/gatedirector/pkg/logger"
	"github.com/okian/gatedirector/pkg/metrics"
)

// Navigator is the part of menu.Navigator a walk needs.
type Navigator interface {
	Open(ctx context.Context) error
	Refresh(ctx context.Context) error
	Close(ctx context.Context) error
	GotoPage(ctx context.Context, page int) error
	ClickByIndex(ctx context.Context, i int) (menu.Outcome, error)
	ClickNext(ctx context.Context) (bool, error)
	Current() menu.Snapshot
}

var _ Navigator = (*menu.Navigator)(nil)

// airportSelectTitle is shown before the add-on knows the airport.
const airportSelectTitle = "Select airport"

var (
	gateTitleWords    = []string{"Gate", "Dock"}                       //nolint:gochecknoglobals // title vocabulary
	parkingTitleWords = []string{"Parking", "Stand", "Remote", "Ramp"} //nolint:gochecknoglobals // title vocabulary

	gatePatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // compiled once
		regexp.MustCompile(`(?i)Gate\s+([A-Z]?\s*\d+\s*[A-Z]?\b)`),
		regexp.MustCompile(`(?i)Dock\s+([A-Z]?\s*\d+\s*[A-Z]?\b)`),
		regexp.MustCompile(`(?i)^([A-Z]?\s*\d+\s*[A-Z]?)$`),
		regexp.MustCompile(`(?i)^([A-Z]\s*\d+)$`),
	}
	parkingPatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // compiled once
		regexp.MustCompile(`(?i)(Stand\s+\w+)`),
		regexp.MustCompile(`(?i)(\w*\s*Parking\s+\w+)`),
		regexp.MustCompile(`(?i)(Remote\s+\w+)`),
		regexp.MustCompile(`(?i)(Ramp\s+\w+)`),
	}
)

// Walker enumerates the menu. A walk owns the menu for its whole duration.
type Walker struct {
	nav      Navigator
	controls menu.Controls
	skip     menu.Controls
	maxPages int
	now      func() time.Time
	logger   logger.Logger
}

// New returns a walker driving nav.
func New(nav Navigator, opts ...Option) *Walker {
	w := &Walker{
		nav:      nav,
		controls: menu.NewControls(menu.DefaultControlKeywords),
		skip:     menu.NewControls(DefaultSkipKeywords),
		maxPages: 50,
		now:      time.Now,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk visits every top-level area of airport's menu and returns the
// interpreted catalog together with the raw log of the pages seen. The menu
// is closed afterwards, also on failure.
func (w *Walker) Walk(ctx context.Context, airport string) (*catalog.Catalog, *catalog.WalkLog, error) {
	airport = strings.ToUpper(strings.TrimSpace(airport))
	began := time.Now()
	wl := &catalog.WalkLog{
		Version:   catalog.FormatVersion,
		Airport:   airport,
		StartedAt: w.now(),
	}
	w.logger.Info(ctx, "walking menu", logger.String("airport", airport))

	err := w.walk(ctx, wl)
	if cerr := w.nav.Close(ctx); cerr != nil {
		w.logger.Warn(ctx, "closing menu after walk", logger.Error(cerr))
	}
	if err == nil && len(wl.Positions) == 0 {
		err = fmt.Errorf("%w: walk of %s found no positions", fault.ErrCatalogUnavailable, airport)
	}
	if err != nil {
		metrics.RecordCatalogWalk("failed", time.Since(began))
		return nil, nil, fmt.Errorf("walk %s: %w", airport, err)
	}

	wl.FinishedAt = w.now()
	c := catalog.Build(wl)
	metrics.RecordCatalogWalk("ok", time.Since(began))
	w.logger.Info(ctx, "walk finished",
		logger.String("airport", airport),
		logger.Int("pages", len(wl.Pages)),
		logger.Int("positions", c.Len()),
		logger.Duration("took", time.Since(began)))
	return c, wl, nil
}

func (w *Walker) walk(ctx context.Context, wl *catalog.WalkLog) error {
	if err := w.nav.Open(ctx); err != nil {
		return err
	}
	if err := w.nav.Refresh(ctx); err != nil {
		return err
	}
	if code := w.nav.Current().AirportCode(); code != wl.Airport {
		return fmt.Errorf("%w: menu shows %q", fault.ErrAirportMismatch, code)
	}

	seen := make(map[string]struct{})
	atTop := true
	for topPage := 0; topPage < w.maxPages; {
		top := w.nav.Current()
		w.record(wl, seen, top, 0, catalog.NavPath{TopLevelPage: topPage})

		for idx, option := range top.Options {
			if strings.TrimSpace(option) == "" || w.controls.IsControl(option) || w.skip.IsControl(option) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if !atTop {
				if err := w.nav.GotoPage(ctx, topPage); err != nil {
					return err
				}
				if !w.controls.Same(top, w.nav.Current()) {
					return fmt.Errorf("%w: top-level page %d differs on return", fault.ErrLayoutChanged, topPage)
				}
				atTop = true
			}

			out, err := w.nav.ClickByIndex(ctx, idx)
			if err != nil {
				return err
			}
			if out == menu.Unchanged {
				w.logger.Warn(ctx, "area did not open", logger.String("option", option))
				continue
			}
			atTop = false
			if err := w.area(ctx, wl, seen, topPage, idx); err != nil {
				return err
			}
		}

		if !top.HasNext() {
			return nil
		}
		topPage++
		if err := w.nav.GotoPage(ctx, topPage); err != nil {
			return err
		}
		atTop = true
	}
	return fmt.Errorf("%w: more than %d top-level pages", fault.ErrNavigationTimeout, w.maxPages)
}

// area records every page of the area opened from top-level option idx.
func (w *Walker) area(ctx context.Context, wl *catalog.WalkLog, seen map[string]struct{}, topPage, idx int) error {
	for page := 0; page < w.maxPages; page++ {
		path := catalog.NavPath{TopLevelPage: topPage, TopLevelIndex: idx, PageCount: page}
		w.record(wl, seen, w.nav.Current(), 1, path)

		more, err := w.nav.ClickNext(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return fmt.Errorf("%w: area %d has more than %d pages", fault.ErrNavigationTimeout, idx, w.maxPages)
}

func (w *Walker) record(wl *catalog.WalkLog, seen map[string]struct{}, s menu.Snapshot, depth int, path catalog.NavPath) {
	if s.Title == airportSelectTitle {
		return
	}
	sig := s.Title + "\x00" + strings.Join(s.Options, "\x00")
	if _, ok := seen[sig]; ok {
		return
	}
	seen[sig] = struct{}{}
	wl.Pages = append(wl.Pages, catalog.PageRecord{
		Title:   s.Title,
		Options: append([]string(nil), s.Options...),
		Depth:   depth,
		Path:    path,
	})
	if depth > 0 {
		w.extract(wl, s, path)
	}
}

// extract scans a page for position ids. The title decides whether gate or
// parking patterns apply; the first sighting of an id wins.
func (w *Walker) extract(wl *catalog.WalkLog, s menu.Snapshot, path catalog.NavPath) {
	kind, patterns := classify(s.Title)
	if patterns == nil {
		return
	}
	for i, option := range s.Options {
		if option == "" || w.controls.IsControl(option) {
			continue
		}
		for _, re := range patterns {
			m := re.FindStringSubmatch(option)
			if m == nil {
				continue
			}
			id := strings.TrimSpace(m[1])
			if !wl.HasPosition(id) {
				p := path
				p.OptionIndex = i
				wl.Positions = append(wl.Positions, catalog.RawPosition{
					ID:          id,
					FullText:    option,
					Type:        kind,
					FoundInMenu: s.Title,
					Path:        p,
				})
			}
			break
		}
	}
}

func classify(title string) (catalog.PositionType, []*regexp.Regexp) {
	for _, k := range gateTitleWords {
		if strings.Contains(title, k) {
			return catalog.TypeGate, gatePatterns
		}
	}
	for _, k := range parkingTitleWords {
		if strings.Contains(title, k) {
			return catalog.TypeParking, parkingPatterns
		}
	}
	return "", nil
}
