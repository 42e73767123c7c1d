package assignment

import (
	"context"
	"time"

	"github.com/okian/gatedirector/internal/adapters/menu"
	"github.com/okian/gatedirector/internal/adapters/tooltip"
	"github.com/okian/gatedirector/internal/domain/catalog"
)

// Navigator drives the menu.
type Navigator interface {
	Refresh(ctx context.Context) error
	Close(ctx context.Context) error
	ClickPlanned(ctx context.Context, e catalog.Entry) (menu.Outcome, error)
	FindAndClick(ctx context.Context, keywords []string, mode menu.MatchMode) (menu.Outcome, error)
	Current() menu.Snapshot
	SetState(s menu.State)
}

// Walker builds a catalog from the live menu.
type Walker interface {
	Walk(ctx context.Context, airport string) (*catalog.Catalog, *catalog.WalkLog, error)
}

// Confirmer watches the status surface.
type Confirmer interface {
	Baseline() time.Time
	Confirm(ctx context.Context, baseline time.Time, timeout, interval time.Duration) (tooltip.Verdict, error)
}

// GroundSensor reports whether the aircraft is on the ground.
type GroundSensor interface {
	OnGround(ctx context.Context) (bool, error)
}

// Notifier reports low-confidence choices to the ATC service.
type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, position, airport string) error
}

var (
	_ Navigator = (*menu.Navigator)(nil)
	_ Confirmer = (*tooltip.Confirmer)(nil)
)
