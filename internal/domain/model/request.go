// Package model contains records passed between layers.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gatedirector/internal/domain/gate"
)

// Kind selects what the orchestrator does with a request.
type Kind string

const (
	// KindAssign navigates to the position named by Identifier.
	KindAssign Kind = "assign"
	// KindPrepare builds the airport catalog if it is missing.
	KindPrepare Kind = "prepare"
	// KindRebuild walks the airport again and replaces its catalog.
	KindRebuild Kind = "rebuild"
)

// Request is one unit of work for the orchestrator. It is consumed exactly
// once.
type Request struct {
	ID         uuid.UUID
	Kind       Kind
	Identifier gate.Identifier
	Airport    string
	Airline    string
	EnqueuedAt time.Time
}

// NewRequest stamps a request with a fresh id and the current time. The
// airport code is upper-cased.
func NewRequest(kind Kind, id gate.Identifier, airport, airline string) Request {
	return Request{
		ID:         uuid.New(),
		Kind:       kind,
		Identifier: id,
		Airport:    strings.ToUpper(strings.TrimSpace(airport)),
		Airline:    strings.TrimSpace(airline),
		EnqueuedAt: time.Now(),
	}
}

// Key identifies requests that do the same work. Two pending requests with
// the same key are duplicates.
func (r Request) Key() string {
	switch r.Kind {
	case KindAssign:
		return string(r.Kind) + "|" + r.Airport + "|" + strings.ToUpper(r.Identifier.RawText)
	default:
		return string(r.Kind) + "|" + r.Airport
	}
}
