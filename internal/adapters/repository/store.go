// Package repository persists airport catalogs and their raw walk logs.
package repository

import (
	"context"

	"github.com/okian/gatedirector/internal/domain/catalog"
)

// Store provides read/write access to persisted catalogs. Airport codes are
// case-insensitive.
type Store interface {
	// Load returns the interpreted catalog for airport, or ErrNotFound.
	Load(ctx context.Context, airport string) (*catalog.Catalog, error)
	// Save replaces the interpreted catalog.
	Save(ctx context.Context, c *catalog.Catalog) error

	// SaveWalkLog replaces the raw walk log kept for diagnostics and rebuilds.
	SaveWalkLog(ctx context.Context, log *catalog.WalkLog) error
	// LoadWalkLog returns the raw walk log, or ErrNotFound.
	LoadWalkLog(ctx context.Context, airport string) (*catalog.WalkLog, error)

	// Delete removes both artifacts. Missing files are not an error.
	Delete(ctx context.Context, airport string) error
	// Exists reports whether an interpreted catalog is stored.
	Exists(ctx context.Context, airport string) bool

	// Lock takes the exclusive writer lock for airport. The returned func
	// releases it. ErrLocked is returned while another holder is active.
	Lock(ctx context.Context, airport string) (func() error, error)
}
