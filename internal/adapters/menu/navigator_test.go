package menu_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/gatedirector/internal/adapters/menu"
	"github.com/okian/gatedirector/internal/adapters/menu/menutest"
	"github.com/okian/gatedirector/internal/domain/catalog"
	"github.com/okian/gatedirector/internal/domain/fault"
	. "github.com/smartystreets/goconvey/convey"
)

func newHeathrow() *menutest.GSX {
	return menutest.New("EGLL").
		AddGroup("Terminal 1 Gates", "Gate 1", "Gate 2", "Gate 3", "Gate 4", "Gate 5", "Gate 6", "Gate 7").
		AddGroup("Remote Parking", "Stand 501", "Stand 502").
		AddTopOption("Runway 27L")
}

func newNavigator(g *menutest.GSX) *menu.Navigator {
	return menu.NewNavigator(g, g, menu.WithTiming(0, 0))
}

func TestNavigatorBasics(t *testing.T) {
	Convey("Given a navigator over a closed menu", t, func() {
		ctx := context.Background()
		gsx := newHeathrow()
		nav := newNavigator(gsx)
		So(nav.State(), ShouldEqual, menu.StateIdle)

		Convey("When the menu is opened", func() {
			So(nav.Open(ctx), ShouldBeNil)

			Convey("Then the top level is shown", func() {
				So(nav.State(), ShouldEqual, menu.StateMenuOpen)
				So(nav.AirportCode(), ShouldEqual, "EGLL")
				So(nav.Current().Options, ShouldResemble, []string{"Terminal 1 Gates", "Remote Parking", "Runway 27L"})
			})

			Convey("And an area is clicked", func() {
				out, err := nav.ClickByIndex(ctx, 0)

				Convey("Then the menu changes", func() {
					So(err, ShouldBeNil)
					So(out, ShouldEqual, menu.Changed)
					So(nav.State(), ShouldEqual, menu.StateOptionSelected)
					So(nav.Current().Title, ShouldEqual, "Terminal 1 Gates - EGLL")
				})

				Convey("And pages are advanced until the end", func() {
					more, err := nav.ClickNext(ctx)
					So(err, ShouldBeNil)
					So(more, ShouldBeTrue)
					So(nav.Current().Options, ShouldResemble, []string{"Gate 6", "Gate 7"})

					more, err = nav.ClickNext(ctx)
					So(err, ShouldBeNil)
					So(more, ShouldBeFalse)
				})
			})

			Convey("And a top-level option without a submenu is clicked", func() {
				out, err := nav.ClickByIndex(ctx, 2)

				Convey("Then the click is reported unchanged, not failed", func() {
					So(err, ShouldBeNil)
					So(out, ShouldEqual, menu.Unchanged)
				})
			})

			Convey("And an index beyond the options is clicked", func() {
				_, err := nav.ClickByIndex(ctx, 9)

				Convey("Then the layout is reported as changed", func() {
					So(errors.Is(err, fault.ErrLayoutChanged), ShouldBeTrue)
					So(gsx.Clicks(), ShouldBeEmpty)
				})
			})

			Convey("And the menu is refreshed after navigating", func() {
				_, err := nav.ClickByIndex(ctx, 1)
				So(err, ShouldBeNil)
				So(nav.Refresh(ctx), ShouldBeNil)

				Convey("Then the top level is shown again", func() {
					So(gsx.Refreshes(), ShouldEqual, 1)
					So(nav.Current().Title, ShouldEqual, "EGLL - Select area")
				})
			})

			Convey("And the menu is closed", func() {
				So(nav.Close(ctx), ShouldBeNil)

				Convey("Then it is hidden", func() {
					So(gsx.IsOpen(), ShouldBeFalse)
					So(nav.State(), ShouldEqual, menu.StateIdle)
				})
			})
		})

		Convey("When the simulator connection is lost", func() {
			gsx.FailSets(fmt.Errorf("bridge down: %w", fault.ErrConnectionLost))
			err := nav.Open(ctx)

			Convey("Then the error keeps its kind", func() {
				So(fault.Classify(err), ShouldEqual, fault.KindConnectionLost)
			})
		})
	})
}

func TestNavigatorFrozenMenu(t *testing.T) {
	Convey("Given a menu that ignores clicks", t, func() {
		ctx := context.Background()
		gsx := menutest.New("EGLL").PageSize(2).
			AddGroup("Terminal 1 Gates", "Gate 1").
			AddGroup("Terminal 2 Gates", "Gate 2").
			AddGroup("Terminal 3 Gates", "Gate 3")
		nav := newNavigator(gsx)
		So(nav.Open(ctx), ShouldBeNil)
		gsx.Freeze(true)

		Convey("When Next is clicked", func() {
			more, err := nav.ClickNext(ctx)

			Convey("Then it is retried three times before timing out", func() {
				So(more, ShouldBeFalse)
				So(errors.Is(err, fault.ErrNavigationTimeout), ShouldBeTrue)
				So(gsx.Clicks(), ShouldResemble, []string{"Next", "Next", "Next"})
			})
		})
	})
}

func TestNavigatorFindAndClick(t *testing.T) {
	Convey("Given a paginated top level", t, func() {
		ctx := context.Background()
		gsx := menutest.New("EGLL").PageSize(2).
			AddGroup("Terminal 1 Gates", "Gate 1").
			AddGroup("Terminal 2 Gates", "Gate 2").
			AddGroup("Remote Parking", "Stand 501").
			Operators("Swissport", "GSX - Default operator")
		nav := newNavigator(gsx)
		So(nav.Open(ctx), ShouldBeNil)

		Convey("When a keyword only appears on the second page", func() {
			out, err := nav.FindAndClick(ctx, []string{"parking"}, menu.MatchKeyword)

			Convey("Then the search pages forward and clicks it", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, menu.Changed)
				So(gsx.Clicks(), ShouldResemble, []string{"Next", "Remote Parking"})
			})
		})

		Convey("When no option matches", func() {
			_, err := nav.FindAndClick(ctx, []string{"de-icing"}, menu.MatchKeyword)

			Convey("Then the option is not found", func() {
				So(errors.Is(err, menu.ErrOptionNotFound), ShouldBeTrue)
				So(fault.Classify(err), ShouldEqual, fault.KindLayoutChanged)
			})
		})

		Convey("When a position is activated and an operator chosen by substring", func() {
			_, err := nav.ClickByIndex(ctx, 0)
			So(err, ShouldBeNil)
			_, err = nav.ClickByIndex(ctx, 0)
			So(err, ShouldBeNil)
			_, err = nav.FindAndClick(ctx, []string{"activate"}, menu.MatchKeyword)
			So(err, ShouldBeNil)
			out, err := nav.FindAndClick(ctx, []string{"gsx"}, menu.MatchSubstring)

			Convey("Then the matching operator closes the menu", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, menu.Changed)
				So(gsx.Clicks(), ShouldResemble, []string{"Terminal 1 Gates", "Gate 1", "Activate", "GSX - Default operator"})
				So(gsx.IsOpen(), ShouldBeFalse)
			})
		})
	})
}

func TestNavigatorClickPlanned(t *testing.T) {
	Convey("Given a catalog entry on the second page of an area", t, func() {
		ctx := context.Background()
		gsx := newHeathrow()
		nav := newNavigator(gsx)
		So(nav.Open(ctx), ShouldBeNil)

		entry := catalog.Entry{
			TerminalKey: "Terminal",
			PositionKey: "6",
			FullText:    "Gate 6",
			Path:        catalog.NavPath{TopLevelPage: 0, TopLevelIndex: 0, PageCount: 1, OptionIndex: 0},
		}

		Convey("When the path is replayed", func() {
			out, err := nav.ClickPlanned(ctx, entry)

			Convey("Then the position is selected", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, menu.Changed)
				So(gsx.Selected(), ShouldEqual, "Gate 6")
				So(gsx.Refreshes(), ShouldEqual, 1)
			})
		})

		Convey("When the option at the recorded index has moved", func() {
			entry.FullText = "Gate 9"
			_, err := nav.ClickPlanned(ctx, entry)

			Convey("Then nothing is selected", func() {
				So(errors.Is(err, fault.ErrLayoutChanged), ShouldBeTrue)
				So(gsx.Selected(), ShouldBeEmpty)
			})
		})

		Convey("When the recorded area has fewer pages now", func() {
			entry.Path.PageCount = 3
			_, err := nav.ClickPlanned(ctx, entry)

			Convey("Then the layout is reported as changed", func() {
				So(errors.Is(err, fault.ErrLayoutChanged), ShouldBeTrue)
			})
		})

		Convey("When the position click has no visible effect", func() {
			gsx.StickyPositions(true)
			out, err := nav.ClickPlanned(ctx, entry)

			Convey("Then the outcome is unchanged rather than an error", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, menu.Unchanged)
			})
		})
	})
}
