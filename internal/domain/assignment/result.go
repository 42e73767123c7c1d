package assignment

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/okian/gatedirector/internal/domain/catalog"
	"github.com/okian/gatedirector/internal/domain/fault"
	"github.com/okian/gatedirector/internal/domain/model"
)

// Status is the final state of a request.
type Status string

const (
	// StatusConfirmed means the status surface confirmed the selection.
	StatusConfirmed Status = "confirmed"
	// StatusUncertain means the selection may have applied; the menu is left
	// open for the pilot to verify.
	StatusUncertain Status = "uncertain"
	// StatusFailed means no selection was made.
	StatusFailed Status = "failed"
	// StatusPrepared means a catalog request finished.
	StatusPrepared Status = "prepared"
)

// Result describes how a request ended.
type Result struct {
	Request   model.Request
	Status    Status
	Position  *catalog.Entry
	Exact     bool
	Confident bool
	Score     float64
	Attempts  int
	Positions int // catalog size, for prepare and rebuild requests
	Duration  time.Duration
	Kind      fault.Kind
	Err       error
}

var titleCaser = cases.Title(language.English, cases.NoLower) //nolint:gochecknoglobals // stateless caser

// DisplayName returns the name the menu shows for e: its option text up to
// the first " - ", or the position key.
func DisplayName(e *catalog.Entry) string {
	if e == nil {
		return ""
	}
	name := e.FullText
	if i := strings.Index(name, " - "); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = e.PositionKey
	}
	return titleCaser.String(name)
}

// Summary is a one-line, user-facing description. Error details go to the
// log, not here.
func (r Result) Summary() string {
	airport := r.Request.Airport
	switch r.Status {
	case StatusConfirmed:
		return fmt.Sprintf("Assigned %s at %s", DisplayName(r.Position), airport)
	case StatusUncertain:
		return fmt.Sprintf("Assigned %s at %s (uncertain - verify in GSX)", DisplayName(r.Position), airport)
	case StatusPrepared:
		return fmt.Sprintf("Catalog for %s ready with %d positions", airport, r.Positions)
	}
	what := "assignment of " + strings.TrimSpace(r.Request.Identifier.RawText)
	if r.Request.Kind != model.KindAssign {
		what = string(r.Request.Kind)
	}
	reason := strings.ReplaceAll(string(r.Kind), "_", " ")
	if reason == "" || r.Kind == fault.KindUnknown {
		reason = "unexpected error"
	}
	return fmt.Sprintf("%s at %s failed: %s", strings.TrimSpace(what), airport, reason)
}
