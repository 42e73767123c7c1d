package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/gatedirector/internal/domain/model"
)

// AssignmentDependencies queue manual requests.
type AssignmentDependencies interface {
	RequestAssignment(ctx context.Context, text, airport, airline string) (model.Request, error)
	RequestRebuild(ctx context.Context, airport string) (model.Request, error)
	IsDuplicate(err error) bool
}

// assignmentRequest is the body of POST /assignments.
type assignmentRequest struct {
	Gate    string `json:"gate"`
	Airport string `json:"airport"`
	Airline string `json:"airline"`
}

func (a assignmentRequest) validate() error {
	switch {
	case strings.TrimSpace(a.Gate) == "":
		return errors.New("missing gate")
	case len(strings.TrimSpace(a.Airport)) != 4:
		return errors.New("airport must be a four-letter ICAO code")
	}
	return nil
}

// AssignmentsHandler handles manual assignment requests.
type AssignmentsHandler struct {
	deps AssignmentDependencies
}

// NewAssignmentsHandler creates a new assignments handler.
func NewAssignmentsHandler(deps AssignmentDependencies) *AssignmentsHandler {
	return &AssignmentsHandler{deps: deps}
}

// HandlePostAssignment handles POST /assignments.
func (h *AssignmentsHandler) HandlePostAssignment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	queued, err := h.deps.RequestAssignment(r.Context(), req.Gate, req.Airport, req.Airline)
	writeEnqueueResult(w, queued, err, h.deps.IsDuplicate)
}
