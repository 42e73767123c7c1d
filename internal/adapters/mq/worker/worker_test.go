package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/gatedirector/internal/adapters/mq/queue"
	worker "github.com/okian/gatedirector/internal/adapters/mq/worker"
	"github.com/okian/gatedirector/internal/domain/gate"
	model "github.com/okian/gatedirector/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	mu       sync.Mutex
	handled  []string
	inFlight int
	maxPar   int
}

func (r *recorder) Handle(_ context.Context, req model.Request) error {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > r.maxPar {
		r.maxPar = r.inFlight
	}
	r.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	r.handled = append(r.handled, req.Identifier.RawText)
	switch req.Identifier.RawText {
	case "boom":
		panic("menu surface exploded")
	case "fail":
		return errors.New("navigation failed")
	}
	return nil
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.handled...)
}

func req(raw string) model.Request {
	return model.NewRequest(model.KindAssign, gate.Identifier{RawText: raw}, "EGLL", "")
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker draining a queue", t, func() {
		q := queue.New(queue.WithCapacity(16))
		rec := &recorder{}
		w := worker.New(q, rec, worker.WithName("orchestrator"))
		ctx := context.Background()

		convey.Convey("When requests are enqueued and the queue is closed", func() {
			for _, raw := range []string{"Gate 1", "Gate 2", "Gate 3"} {
				convey.So(q.Enqueue(ctx, req(raw)), convey.ShouldBeNil)
			}
			convey.So(q.Close(), convey.ShouldBeNil)
			err := w.Run(ctx)

			convey.Convey("Then every request is handled in order, one at a time", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.snapshot(), convey.ShouldResemble, []string{"Gate 1", "Gate 2", "Gate 3"})
				convey.So(rec.maxPar, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a request fails or panics", func() {
			for _, raw := range []string{"fail", "boom", "Gate 4"} {
				convey.So(q.Enqueue(ctx, req(raw)), convey.ShouldBeNil)
			}
			convey.So(q.Close(), convey.ShouldBeNil)
			err := w.Run(ctx)

			convey.Convey("Then the loop keeps going", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.snapshot(), convey.ShouldResemble, []string{"fail", "boom", "Gate 4"})
			})
		})

		convey.Convey("When shut down while idle", func() {
			errc := make(chan error, 1)
			go func() { errc <- w.Run(ctx) }()
			time.Sleep(10 * time.Millisecond)

			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			convey.Convey("Then Run returns promptly", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(<-errc, convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			errc := make(chan error, 1)
			go func() { errc <- w.Run(cctx) }()
			cancel()

			convey.Convey("Then Run returns without error", func() {
				select {
				case err := <-errc:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(time.Second):
					convey.So("worker did not stop", convey.ShouldBeEmpty)
				}
			})
		})
	})

	convey.Convey("Given a handler func", t, func() {
		var got string
		h := worker.HandlerFunc(func(_ context.Context, r model.Request) error {
			got = r.Airport
			return nil
		})

		convey.So(h.Handle(context.Background(), req("Gate 1")), convey.ShouldBeNil)
		convey.So(got, convey.ShouldEqual, "EGLL")
	})
}
