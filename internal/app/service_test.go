package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/gatedirector/internal/app"
	"github.com/okian/gatedirector/internal/domain/assignment"
	"github.com/okian/gatedirector/internal/domain/catalog"
	"github.com/okian/gatedirector/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// recordingOrchestrator records handled requests and answers with status.
type recordingOrchestrator struct {
	mu       sync.Mutex
	requests []model.Request
	status   assignment.Status
	err      error
}

func (o *recordingOrchestrator) Handle(_ context.Context, r model.Request) assignment.Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, r)
	return assignment.Result{Request: r, Status: o.status, Err: o.err}
}

func (o *recordingOrchestrator) handled() []model.Request {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]model.Request(nil), o.requests...)
}

type groundStub struct {
	mu  sync.Mutex
	on  bool
	err error
}

func (g *groundStub) OnGround(context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.on, g.err
}

func (g *groundStub) set(on bool) {
	g.mu.Lock()
	g.on = on
	g.mu.Unlock()
}

type catalogStub struct{ c *catalog.Catalog }

func (s catalogStub) Load(_ context.Context, airport string) (*catalog.Catalog, error) {
	if s.c == nil || s.c.Airport != airport {
		return nil, errors.New("not found")
	}
	return s.c, nil
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestService_Requests(t *testing.T) {
	Convey("Given a service that is not running yet", t, func() {
		ctx := context.Background()
		orch := &recordingOrchestrator{status: assignment.StatusConfirmed}
		svc := service.New(orch, catalogStub{}, &groundStub{on: true}, service.WithQueueSize(2))

		Convey("When an assignment names no airport", func() {
			_, err := svc.RequestAssignment(ctx, "Gate 5", " ", "")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})

		Convey("When the gate text holds no position", func() {
			_, err := svc.RequestAssignment(ctx, "see you later", "EGLL", "")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})

		Convey("When the same assignment is requested twice", func() {
			r, err := svc.RequestAssignment(ctx, "Terminal 1 Gate 5A", "egll", "BAW")
			So(err, ShouldBeNil)
			_, dup := svc.RequestAssignment(ctx, "terminal 1 gate 5a", "EGLL", "BAW")

			Convey("Then the second is dropped while the first is pending", func() {
				So(r.Airport, ShouldEqual, "EGLL")
				So(r.Kind, ShouldEqual, model.KindAssign)
				So(errors.Is(dup, service.ErrDuplicate), ShouldBeTrue)
				stats := svc.GetStats()
				So(stats["queueLength"], ShouldEqual, 1)
				So(stats["pending"], ShouldEqual, int64(1))
			})
		})

		Convey("When the queue is full", func() {
			_, err1 := svc.RequestRebuild(ctx, "EGLL")
			_, err2 := svc.RequestRebuild(ctx, "LFPG")
			_, err3 := svc.RequestRebuild(ctx, "EDDF")

			Convey("Then the overflow fails and its key is released", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldNotBeNil)
				So(svc.GetStats()["pending"], ShouldEqual, int64(2))
			})
		})

		Convey("When a catalog is asked for", func() {
			c := catalog.New("EGLL", time.Now())
			svc = service.New(orch, catalogStub{c: c}, nil)
			got, err := svc.Catalog(ctx, " egll")

			Convey("Then the store is read with the normalised code", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, c)
			})
		})
	})
}

func TestService_ObserveFlight(t *testing.T) {
	Convey("Given a service observing flight data", t, func() {
		ctx := context.Background()
		orch := &recordingOrchestrator{status: assignment.StatusConfirmed}
		ground := &groundStub{on: false}
		svc := service.New(orch, catalogStub{}, ground)

		Convey("When a new airport is reported in the air", func() {
			svc.ObserveFlight(ctx, model.FlightData{CurrentAirport: "EGLL"})

			Convey("Then nothing is prepared until the aircraft is on the ground", func() {
				So(svc.GetStats()["queueLength"], ShouldEqual, 0)

				ground.set(true)
				svc.ObserveFlight(ctx, model.FlightData{CurrentAirport: "EGLL"})
				svc.ObserveFlight(ctx, model.FlightData{CurrentAirport: "EGLL"})
				stats := svc.GetStats()
				So(stats["queueLength"], ShouldEqual, 1)
				So(stats["mappedAirports"], ShouldResemble, []string{"EGLL"})
			})
		})

		Convey("When a gate is assigned", func() {
			fd := model.FlightData{AssignedGate: "Gate 12", Airport: "LFPG", Airline: "AFR"}
			svc.ObserveFlight(ctx, fd)
			svc.ObserveFlight(ctx, fd)

			Convey("Then it is queued once", func() {
				stats := svc.GetStats()
				So(stats["queueLength"], ShouldEqual, 1)
				So(stats["assignedGate"], ShouldEqual, "Gate 12")
			})

			Convey("And a cleared gate queues nothing", func() {
				svc.ObserveFlight(ctx, model.FlightData{Airport: "LFPG"})
				So(svc.GetStats()["queueLength"], ShouldEqual, 1)
			})
		})

		Convey("When a gate arrives before its airport", func() {
			svc.ObserveFlight(ctx, model.FlightData{AssignedGate: "Gate 5A"})
			So(svc.GetStats()["queueLength"], ShouldEqual, 0)
			So(svc.GetStats()["assignedGate"], ShouldEqual, "")

			Convey("Then it is queued once the airport is known", func() {
				svc.ObserveFlight(ctx, model.FlightData{AssignedGate: "Gate 5A", Airport: "EGLL"})
				stats := svc.GetStats()
				So(stats["queueLength"], ShouldEqual, 1)
				So(stats["assignedGate"], ShouldEqual, "Gate 5A")
			})
		})

		Convey("When the gate text holds no position", func() {
			svc.ObserveFlight(ctx, model.FlightData{AssignedGate: "TBA", Airport: "EGLL"})

			Convey("Then it is not retried", func() {
				So(svc.GetStats()["queueLength"], ShouldEqual, 0)
				So(svc.GetStats()["assignedGate"], ShouldEqual, "TBA")
			})
		})

		Convey("When auto-prepare is off", func() {
			ground.set(true)
			svc = service.New(orch, catalogStub{}, ground, service.WithAutoPrepare(false))
			svc.ObserveFlight(ctx, model.FlightData{CurrentAirport: "EGLL"})

			Convey("Then no walk is queued", func() {
				So(svc.GetStats()["queueLength"], ShouldEqual, 0)
			})
		})
	})
}

func TestService_Run(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		orch := &recordingOrchestrator{status: assignment.StatusConfirmed}
		svc := service.New(orch, catalogStub{}, nil)

		done := make(chan error, 1)
		go func() { done <- svc.Run(ctx) }()
		So(eventually(func() bool { return svc.GetStats()["started"] == true }), ShouldBeTrue)

		Convey("When requests are queued", func() {
			_, err := svc.RequestAssignment(ctx, "Stand 501", "EGLL", "")
			So(err, ShouldBeNil)
			So(eventually(func() bool { return len(orch.handled()) == 1 }), ShouldBeTrue)

			Convey("Then the result is kept and the key released", func() {
				So(eventually(func() bool { _, ok := svc.LastResult(); return ok }), ShouldBeTrue)
				res, _ := svc.LastResult()
				So(res.Status, ShouldEqual, assignment.StatusConfirmed)
				So(eventually(func() bool { return svc.GetStats()["pending"] == int64(0) }), ShouldBeTrue)

				_, err := svc.RequestAssignment(ctx, "Stand 501", "EGLL", "")
				So(err, ShouldBeNil)
				So(eventually(func() bool { return svc.GetStats()["handled"] == 2 }), ShouldBeTrue)
				So(orch.handled(), ShouldHaveLength, 2)
			})
		})

		Convey("When the context is cancelled", func() {
			cancel()

			Convey("Then Run returns cleanly and cannot be restarted", func() {
				So(<-done, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(errors.Is(svc.Run(context.Background()), service.ErrAlreadyStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_ObserveFlightRetriesFullQueue(t *testing.T) {
	Convey("Given a service whose queue is full", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		orch := &recordingOrchestrator{status: assignment.StatusConfirmed}
		svc := service.New(orch, catalogStub{}, nil, service.WithQueueSize(1), service.WithAutoPrepare(false))
		_, err := svc.RequestRebuild(ctx, "EGLL")
		So(err, ShouldBeNil)

		fd := model.FlightData{AssignedGate: "Gate 5A", Airport: "EGLL"}
		svc.ObserveFlight(ctx, fd)
		So(svc.GetStats()["assignedGate"], ShouldEqual, "")

		Convey("When the queue drains and the same flight data is delivered again", func() {
			done := make(chan error, 1)
			go func() { done <- svc.Run(ctx) }()
			So(eventually(func() bool { return svc.GetStats()["handled"] == 1 }), ShouldBeTrue)

			svc.ObserveFlight(ctx, fd)

			Convey("Then the gate is assigned", func() {
				So(eventually(func() bool { return len(orch.handled()) == 2 }), ShouldBeTrue)
				got := orch.handled()[1]
				So(got.Kind, ShouldEqual, model.KindAssign)
				So(got.Identifier.RawText, ShouldEqual, "Gate 5A")
				So(svc.GetStats()["assignedGate"], ShouldEqual, "Gate 5A")
				cancel()
				So(<-done, ShouldBeNil)
			})
		})
	})
}
