package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	dedupe "github.com/okian/gatedirector/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When it is created", func() {
			Convey("Then it is empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When a key is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "assign|EGLL|GATE 5A")
			second := d.SeenAndRecord(ctx, "assign|EGLL|GATE 5A")

			Convey("Then only the second sighting is a duplicate", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is released", func() {
			d.SeenAndRecord(ctx, "prepare|EGLL")
			d.Unrecord(ctx, "prepare|EGLL")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "prepare|EGLL"), ShouldBeFalse)
			})
		})

		Convey("When releasing an unknown key", func() {
			d.Unrecord(ctx, "missing")

			Convey("Then nothing happens", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))

		Convey("When more keys than the bound are recorded", func() {
			d.SeenAndRecord(ctx, "a")
			d.SeenAndRecord(ctx, "b")
			d.SeenAndRecord(ctx, "c")

			Convey("Then the oldest key is forgotten", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})
	})

	Convey("Given concurrent callers", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		var fresh atomic.Int64
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, fmt.Sprintf("key-%d", i%5)) {
					fresh.Add(1)
				}
			}(i)
		}
		wg.Wait()

		Convey("Then each key is fresh exactly once", func() {
			So(fresh.Load(), ShouldEqual, 5)
			So(d.Size(), ShouldEqual, 5)
		})
	})
}
