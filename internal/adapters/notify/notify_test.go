package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNotify(t *testing.T) {
	Convey("Given an assignment endpoint", t, func() {
		var (
			mu    sync.Mutex
			got   url.Values
			code  = http.StatusOK
			calls int
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			got = r.URL.Query()
			w.WriteHeader(code)
		}))
		defer srv.Close()
		ctx := context.Background()

		Convey("When a position is reported", func() {
			err := New(srv.URL+"/sapi/assignGate", "secret").Notify(ctx, "Terminal 1 5A", "EGLL")

			Convey("Then the query carries key, gate and airport", func() {
				So(err, ShouldBeNil)
				mu.Lock()
				defer mu.Unlock()
				So(got.Get("api_key"), ShouldEqual, "secret")
				So(got.Get("gate"), ShouldEqual, "Terminal 1 5A")
				So(got.Get("airport"), ShouldEqual, "EGLL")
			})
		})

		Convey("When the service rejects the call", func() {
			mu.Lock()
			code = http.StatusUnauthorized
			mu.Unlock()
			err := New(srv.URL, "wrong").Notify(ctx, "5A", "EGLL")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When no key is configured", func() {
			n := New(srv.URL, "")
			err := n.Notify(ctx, "5A", "EGLL")

			Convey("Then nothing is sent", func() {
				So(n.Enabled(), ShouldBeFalse)
				So(errors.Is(err, ErrDisabled), ShouldBeTrue)
				mu.Lock()
				defer mu.Unlock()
				So(calls, ShouldEqual, 0)
			})
		})
	})
}
