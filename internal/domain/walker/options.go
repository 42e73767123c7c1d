package walker

import (
	"time"

	"github.com/okian/gatedirector/internal/adapters/menu"
	"github.com/okian/gatedirector/pkg/logger"
)

// DefaultSkipKeywords name top-level options that never lead to positions.
var DefaultSkipKeywords = []string{"Runway"} //nolint:gochecknoglobals // default vocabulary

// Option configures a Walker.
type Option func(*Walker)

// WithControlKeywords replaces the navigation vocabulary.
func WithControlKeywords(words []string) Option {
	return func(w *Walker) {
		if len(words) > 0 {
			w.controls = menu.NewControls(words)
		}
	}
}

// WithSkipKeywords replaces the list of top-level options not to enter.
func WithSkipKeywords(words []string) Option {
	return func(w *Walker) {
		if len(words) > 0 {
			w.skip = menu.NewControls(words)
		}
	}
}

// WithMaxPages bounds pagination at each level.
func WithMaxPages(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.maxPages = n
		}
	}
}

// WithClock sets the time source for walk log timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Walker) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Walker) {
		if l != nil {
			w.logger = l
		}
	}
}
