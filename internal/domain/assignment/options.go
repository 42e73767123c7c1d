package assignment

import (
	"time"

	"github.com/okian/gatedirector/pkg/logger"
)

// Config holds the orchestrator's budgets and vocabulary.
type Config struct {
	// AssignAttempts bounds navigation attempts per request.
	AssignAttempts int `koanf:"assign_attempts"`
	// RetryDelay is the pause after closing the menu before a retry.
	RetryDelay time.Duration `koanf:"retry_delay"`
	// GroundInterval is the pause between ground checks.
	GroundInterval time.Duration `koanf:"ground_check_interval"`

	ConfirmTimeout          time.Duration `koanf:"confirm_timeout"`
	ConfirmInterval         time.Duration `koanf:"confirm_interval"`
	AirlineConfirmTimeout   time.Duration `koanf:"airline_confirm_timeout"`
	UnchangedConfirmTimeout time.Duration `koanf:"unchanged_confirm_timeout"`
	// NotifyTimeout bounds a background notification call.
	NotifyTimeout time.Duration `koanf:"notify_timeout"`

	ActivateKeywords []string `koanf:"activate_keywords"`
	DefaultAirline   string   `koanf:"default_airline"`
	// MinScore rejects fuzzy matches scoring below it. Exact matches always pass.
	MinScore float64 `koanf:"min_match_score"`
}

// DefaultConfig returns production budgets.
func DefaultConfig() Config {
	return Config{
		AssignAttempts:          2,
		RetryDelay:              500 * time.Millisecond,
		GroundInterval:          time.Second,
		ConfirmTimeout:          2 * time.Second,
		ConfirmInterval:         200 * time.Millisecond,
		AirlineConfirmTimeout:   2 * time.Second,
		UnchangedConfirmTimeout: 500 * time.Millisecond,
		NotifyTimeout:           5 * time.Second,
		ActivateKeywords:        []string{"activate"},
		DefaultAirline:          "GSX",
	}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConfig replaces the configuration. Zero fields keep their defaults.
func WithConfig(c Config) Option {
	return func(o *Orchestrator) {
		d := &o.cfg
		if c.AssignAttempts > 0 {
			d.AssignAttempts = c.AssignAttempts
		}
		if c.RetryDelay > 0 {
			d.RetryDelay = c.RetryDelay
		}
		if c.GroundInterval > 0 {
			d.GroundInterval = c.GroundInterval
		}
		if c.ConfirmTimeout > 0 {
			d.ConfirmTimeout = c.ConfirmTimeout
		}
		if c.ConfirmInterval > 0 {
			d.ConfirmInterval = c.ConfirmInterval
		}
		if c.AirlineConfirmTimeout > 0 {
			d.AirlineConfirmTimeout = c.AirlineConfirmTimeout
		}
		if c.UnchangedConfirmTimeout > 0 {
			d.UnchangedConfirmTimeout = c.UnchangedConfirmTimeout
		}
		if c.NotifyTimeout > 0 {
			d.NotifyTimeout = c.NotifyTimeout
		}
		if len(c.ActivateKeywords) > 0 {
			d.ActivateKeywords = c.ActivateKeywords
		}
		if c.DefaultAirline != "" {
			d.DefaultAirline = c.DefaultAirline
		}
		if c.MinScore > 0 {
			d.MinScore = c.MinScore
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}
