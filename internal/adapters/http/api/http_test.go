package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/gatedirector/internal/adapters/http/api"
	"github.com/okian/gatedirector/internal/adapters/mq/queue"
	"github.com/okian/gatedirector/internal/adapters/repository"
	"github.com/okian/gatedirector/internal/domain/catalog"
	"github.com/okian/gatedirector/internal/domain/gate"
	"github.com/okian/gatedirector/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var errDuplicate = errors.New("duplicate")

type mockDependencies struct {
	mu       sync.Mutex
	requests []model.Request
	err      error
	catalogs map[string]*catalog.Catalog
}

func (m *mockDependencies) RequestAssignment(_ context.Context, text, airport, airline string) (model.Request, error) {
	r := model.NewRequest(model.KindAssign, gate.NewParser().Parse(text), airport, airline)
	return r, m.record(r)
}

func (m *mockDependencies) RequestRebuild(_ context.Context, airport string) (model.Request, error) {
	r := model.NewRequest(model.KindRebuild, gate.Identifier{}, airport, "")
	return r, m.record(r)
}

func (m *mockDependencies) record(r model.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.requests = append(m.requests, r)
	return nil
}

func (m *mockDependencies) IsDuplicate(err error) bool { return errors.Is(err, errDuplicate) }

func (m *mockDependencies) Catalog(_ context.Context, airport string) (*catalog.Catalog, error) {
	if c, ok := m.catalogs[airport]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{
		"started":     true,
		"lastSummary": "Assigned Gate 5A at EGLL",
	}})
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then the health endpoint serves metrics", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the stats endpoint returns the provider's stats", func() {
			w := serve(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["lastSummary"], ShouldEqual, "Assigned Gate 5A at EGLL")
		})

		Convey("Then unknown paths are not found", func() {
			w := serve(mux, http.MethodGet, "/leaderboard", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAssignments(t *testing.T) {
	Convey("Given the assignments endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a valid assignment is posted", func() {
			w := serve(mux, http.MethodPost, "/assignments", `{"gate": "Terminal 1 Gate 5A", "airport": "egll", "airline": "BAW"}`)

			Convey("Then it is accepted and queued", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				body := decode(w)
				So(body["status"], ShouldEqual, "accepted")
				So(body["airport"], ShouldEqual, "EGLL")
				So(body["request_id"], ShouldNotBeBlank)
				So(deps.requests, ShouldHaveLength, 1)
				So(deps.requests[0].Identifier.NumericCore, ShouldEqual, "5")
				So(deps.requests[0].Airline, ShouldEqual, "BAW")
			})
		})

		Convey("When the body is malformed or incomplete", func() {
			cases := []string{`{`, `{"airport": "EGLL"}`, `{"gate": "Gate 1", "airport": "EG"}`}
			for _, body := range cases {
				w := serve(mux, http.MethodPost, "/assignments", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			}
			So(deps.requests, ShouldBeEmpty)
		})

		Convey("When the request is already pending", func() {
			deps.err = errDuplicate
			w := serve(mux, http.MethodPost, "/assignments", `{"gate": "Gate 1", "airport": "EGLL"}`)

			Convey("Then it is acknowledged as a duplicate", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["duplicate"], ShouldEqual, true)
			})
		})

		Convey("When the queue is full", func() {
			deps.err = queue.ErrFull
			w := serve(mux, http.MethodPost, "/assignments", `{"gate": "Gate 1", "airport": "EGLL"}`)

			Convey("Then backpressure is reported", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(w)["code"], ShouldEqual, "backpressure")
			})
		})

		Convey("When the service is shutting down", func() {
			deps.err = queue.ErrClosed
			w := serve(mux, http.MethodPost, "/assignments", `{"gate": "Gate 1", "airport": "EGLL"}`)

			Convey("Then it is unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When the method is not POST", func() {
			w := serve(mux, http.MethodGet, "/assignments", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestCatalogs(t *testing.T) {
	Convey("Given the catalogs endpoint", t, func() {
		c := catalog.New("EGLL", time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
		So(c.Put(catalog.Entry{TerminalKey: "1", PositionKey: "5A", FullText: "Gate 5A - Medium - 1x /J"}), ShouldBeNil)
		deps := &mockDependencies{catalogs: map[string]*catalog.Catalog{"EGLL": c}}
		mux := newMux(deps)

		Convey("When a stored catalog is requested", func() {
			w := serve(mux, http.MethodGet, "/catalogs/egll", "")

			Convey("Then it is returned as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "Gate 5A - Medium - 1x /J")
			})
		})

		Convey("When the airport has no catalog", func() {
			w := serve(mux, http.MethodGet, "/catalogs/LFPG", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the code is not an ICAO code", func() {
			w := serve(mux, http.MethodGet, "/catalogs/HEATHROW", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a rebuild is posted", func() {
			w := serve(mux, http.MethodPost, "/catalogs/lfpg/rebuild", "")

			Convey("Then a rebuild request is queued", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(deps.requests, ShouldHaveLength, 1)
				So(deps.requests[0].Kind, ShouldEqual, model.KindRebuild)
				So(deps.requests[0].Airport, ShouldEqual, "LFPG")
			})
		})

		Convey("When a rebuild is requested with GET", func() {
			w := serve(mux, http.MethodGet, "/catalogs/EGLL/rebuild", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
