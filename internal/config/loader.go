package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvFile names the optional YAML file.
	EnvFile   = "GAD_CONFIG"
	envPrefix = "GAD_"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if GAD_CONFIG is set
//  3. env (prefix GAD_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// GAD_QUEUE_SIZE -> queue_size, GAD_MATCHING__NUMERIC -> matching.numeric.
	envProvider := env.Provider(envPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Lists are decoded into nil slices so a shorter override never keeps
	// trailing default elements.
	cfg := *base
	cfg.clearLists()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.fillLists(base)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, strings.ToLower(envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) lists() []*[]string {
	return []*[]string{
		&c.MenuFilePaths,
		&c.TooltipFilePaths,
		&c.TooltipSuccessKeyphrases,
		&c.TerminalKeywords,
		&c.NoiseKeywords,
		&c.ControlKeywords,
		&c.SkipKeywords,
		&c.ActivateKeywords,
	}
}

func (c *Config) clearLists() {
	for _, l := range c.lists() {
		*l = nil
	}
}

func (c *Config) fillLists(base *Config) {
	defaults := base.lists()
	for i, l := range c.lists() {
		if *l == nil {
			*l = *defaults[i]
		}
	}
}

// Validate checks ranges the director cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case len(c.MenuFilePaths) == 0:
		return fmt.Errorf("%w: menu_file_paths must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.AssignAttempts <= 0:
		return fmt.Errorf("%w: assign_attempts must be positive, got %d", ErrInvalidConfig, c.AssignAttempts)
	case c.MinMatchScore < 0 || c.MinMatchScore > 100:
		return fmt.Errorf("%w: min_match_score must be within 0..100, got %v", ErrInvalidConfig, c.MinMatchScore)
	case c.Matching.Numeric < 0 || c.Matching.Prefix < 0 || c.Matching.Terminal < 0:
		return fmt.Errorf("%w: matching weights must not be negative", ErrInvalidConfig)
	case c.Matching.Numeric+c.Matching.Prefix+c.Matching.Terminal == 0:
		return fmt.Errorf("%w: matching weights must not all be zero", ErrInvalidConfig)
	case c.ClickSettle < 0 || c.MenuPollInterval < 0 || c.ConfirmInterval < 0:
		return fmt.Errorf("%w: menu timings must not be negative", ErrInvalidConfig)
	case c.GroundCheckInterval <= 0:
		return fmt.Errorf("%w: ground_check_interval must be positive", ErrInvalidConfig)
	case c.UnchangedConfirmTimeout < 0 || c.NotifyTimeout < 0:
		return fmt.Errorf("%w: confirmation timeouts must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
