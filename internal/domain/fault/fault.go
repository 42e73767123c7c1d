// Package fault classifies errors raised while driving the external menu.
//
// Components return wrapped sentinels from this package; callers switch on
// Classify(err) instead of matching error strings. An uncertain outcome is not
// represented here: it is a result state, not an error.
package fault

import (
	"context"
	"errors"
	"net"
	"os"
)

// Sentinels shared across adapters and the orchestrator.
var (
	ErrMenuNotFound       = errors.New("menu not found")
	ErrNavigationTimeout  = errors.New("navigation timeout")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrConnectionLost     = errors.New("connection lost")
	ErrLayoutChanged      = errors.New("menu layout changed")
	ErrAirportMismatch    = errors.New("menu airport does not match request")
	ErrNoMatch            = errors.New("no matching position")
)

// Kind is the coarse error category used for logs, metrics and retry decisions.
type Kind string

const (
	KindNone               Kind = "none"
	KindMenuNotFound       Kind = "menu_not_found"
	KindNavigationTimeout  Kind = "navigation_timeout"
	KindCatalogUnavailable Kind = "catalog_unavailable"
	KindConnectionLost     Kind = "connection_lost"
	KindLayoutChanged      Kind = "layout_changed"
	KindNoMatch            Kind = "no_match"
	KindCancelled          Kind = "cancelled"
	KindIO                 Kind = "io"
	KindUnknown            Kind = "unknown"
)

// Classify maps err onto a Kind. Only sentinels and standard library error
// types are inspected.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, ErrConnectionLost):
		return KindConnectionLost
	case errors.Is(err, ErrMenuNotFound):
		return KindMenuNotFound
	case errors.Is(err, ErrNavigationTimeout):
		return KindNavigationTimeout
	case errors.Is(err, ErrLayoutChanged), errors.Is(err, ErrAirportMismatch):
		return KindLayoutChanged
	case errors.Is(err, ErrCatalogUnavailable):
		return KindCatalogUnavailable
	case errors.Is(err, ErrNoMatch):
		return KindNoMatch
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return KindConnectionLost
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return KindIO
	}
	return KindUnknown
}

// Retryable reports whether a navigation attempt failing with err may be
// retried after closing the menu. Lost transport and cancellation end the
// assignment immediately.
func Retryable(err error) bool {
	switch Classify(err) {
	case KindMenuNotFound, KindNavigationTimeout, KindLayoutChanged, KindUnknown:
		return true
	default:
		return false
	}
}
