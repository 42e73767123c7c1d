package menu

import (
	"time"

	"github.com/okian/gatedirector/pkg/logger"
)

// Option configures a Navigator.
type Option func(*Navigator)

// WithTiming sets the pause around clicks and the interval between menu
// reads while waiting for a change.
func WithTiming(settle, pollInterval time.Duration) Option {
	return func(n *Navigator) {
		if settle >= 0 {
			n.cfg.settle = settle
		}
		if pollInterval >= 0 {
			n.cfg.pollInterval = pollInterval
		}
	}
}

// WithBudgets sets how many reads confirm a click, how many polls wait for
// the menu to open, how often Next is retried and how many pages a search
// may visit.
func WithBudgets(checkAttempts, openPolls, nextAttempts, maxFindPages int) Option {
	return func(n *Navigator) {
		if checkAttempts > 0 {
			n.cfg.checkAttempts = checkAttempts
		}
		if openPolls > 0 {
			n.cfg.openPolls = openPolls
		}
		if nextAttempts > 0 {
			n.cfg.nextAttempts = nextAttempts
		}
		if maxFindPages > 0 {
			n.cfg.maxFindPages = maxFindPages
		}
	}
}

// WithControlKeywords replaces the control vocabulary.
func WithControlKeywords(words []string) Option {
	return func(n *Navigator) {
		if len(words) > 0 {
			n.controls = NewControls(words)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Navigator) {
		if l != nil {
			n.logger = l
		}
	}
}
