// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/gatedirector/internal/adapters/mq/queue"
	"github.com/okian/gatedirector/internal/adapters/repository"
	"github.com/okian/gatedirector/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AssignmentDependencies
	CatalogDependencies
}

// Server wires HTTP routes for the operator API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	assignmentsHandler *AssignmentsHandler
	catalogsHandler    *CatalogsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		assignmentsHandler: NewAssignmentsHandler(deps),
		catalogsHandler:    NewCatalogsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/assignments", MetricsMiddleware(s.assignmentsHandler.HandlePostAssignment, "assignments"))
	mux.HandleFunc("/catalogs/", MetricsMiddleware(s.catalogsHandler.HandleCatalog, "catalogs"))
}

type ackResponse struct {
	Status    string     `json:"status"`
	Duplicate bool       `json:"duplicate"`
	RequestID string     `json:"request_id,omitempty"`
	Kind      model.Kind `json:"kind,omitempty"`
	Airport   string     `json:"airport,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeEnqueueResult answers a queued request. Duplicates are acknowledged,
// a full queue is backpressure and a closed one means shutdown.
func writeEnqueueResult(w http.ResponseWriter, r model.Request, err error, duplicate func(error) bool) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, ackResponse{
			Status: "accepted", RequestID: r.ID.String(), Kind: r.Kind, Airport: r.Airport,
		})
	case duplicate(err):
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, Kind: r.Kind, Airport: r.Airport})
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
	case errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "shutting_down", err)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", err)
	}
}

// airportFromPath returns the ICAO code and remaining path of
// /catalogs/{icao}[/rest].
func airportFromPath(path string) (string, string) {
	rest := strings.Trim(strings.TrimPrefix(path, "/catalogs/"), "/")
	icao, tail, _ := strings.Cut(rest, "/")
	return strings.ToUpper(icao), tail
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
