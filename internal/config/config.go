// Package config defines the director's configuration and its layered loader.
//
// Every timing, retry budget, keyword list and file location the director uses
// lives here so it can be changed without a rebuild. New(ctx) returns the
// defaults; Load(ctx) layers a YAML file and GAD_ environment variables on top.
package config

import (
	"context"
	"time"
)

// MatchWeights weighs the three similarity components of a fuzzy match.
type MatchWeights struct {
	Numeric  float64 `koanf:"numeric"`
	Prefix   float64 `koanf:"prefix"`
	Terminal float64 `koanf:"terminal"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile enables the rotating JSON diagnostic log when set.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir holds the per-airport catalogs, walk logs and lock files.
	DataDir string `koanf:"data_dir"`

	MenuFilePaths            []string `koanf:"menu_file_paths"`
	TooltipFilePaths         []string `koanf:"tooltip_file_paths"`
	TooltipSuccessKeyphrases []string `koanf:"tooltip_success_keyphrases"`

	// FlightJSONPath is watched for the assigned gate. Empty disables the watcher.
	FlightJSONPath     string        `koanf:"flight_json_path"`
	FlightPollInterval time.Duration `koanf:"flight_poll_interval"`

	SimBridgeURL     string        `koanf:"sim_bridge_url"`
	SimBridgeTimeout time.Duration `koanf:"sim_bridge_timeout"`

	// Menu driving.
	ClickSettle       time.Duration `koanf:"click_settle"`
	MenuPollInterval  time.Duration `koanf:"menu_poll_interval"`
	MenuCheckAttempts int           `koanf:"menu_check_attempts"`
	MenuReadRetries   int           `koanf:"menu_read_retries"`
	MenuOpenPolls     int           `koanf:"menu_open_polls"`
	NextAttempts      int           `koanf:"next_attempts"`
	MaxFindPages      int           `koanf:"max_find_pages"`
	MaxWalkPages      int           `koanf:"max_walk_pages"`

	// Assignment.
	GroundCheckInterval     time.Duration `koanf:"ground_check_interval"`
	ConfirmTimeout          time.Duration `koanf:"confirm_timeout"`
	ConfirmInterval         time.Duration `koanf:"confirm_interval"`
	AirlineConfirmTimeout   time.Duration `koanf:"airline_confirm_timeout"`
	UnchangedConfirmTimeout time.Duration `koanf:"unchanged_confirm_timeout"`
	NotifyTimeout           time.Duration `koanf:"notify_timeout"`
	AssignAttempts          int           `koanf:"assign_attempts"`
	RetryDelay              time.Duration `koanf:"retry_delay"`

	// Matching.
	Matching             MatchWeights `koanf:"matching"`
	MinMatchScore        float64      `koanf:"min_match_score"`
	ConfidentPrefixScore float64      `koanf:"confident_prefix_score"`
	ConfidentNumberScore float64      `koanf:"confident_number_score"`

	// Vocabulary. Empty lists fall back to the built-in defaults.
	TerminalKeywords []string `koanf:"terminal_keywords"`
	NoiseKeywords    []string `koanf:"noise_keywords"`
	ControlKeywords  []string `koanf:"control_keywords"`
	SkipKeywords     []string `koanf:"skip_keywords"`
	ActivateKeywords []string `koanf:"activate_keywords"`
	DefaultAirline   string   `koanf:"default_airline"`

	// NotifyAPIKey enables the notification call for non-confident matches.
	NotifyURL    string `koanf:"notify_url"`
	NotifyAPIKey string `koanf:"notify_api_key"`

	QueueSize        int           `koanf:"queue_size"`
	DedupeSize       int           `koanf:"dedupe_size"`
	CatalogCacheSize int           `koanf:"catalog_cache_size"`
	CatalogCacheTTL  time.Duration `koanf:"catalog_cache_ttl"`
	StaleLockAge     time.Duration `koanf:"stale_lock_age"`

	// AutoPrepare queues a catalog walk when the flight data reports a new
	// airport while the aircraft is on the ground.
	AutoPrepare bool `koanf:"auto_prepare"`
}

const (
	gsxPanelX86 = `C:\Program Files (x86)\Addon Manager\MSFS\fsdreamteam-gsx-pro\html_ui\InGamePanels\FSDT_GSX_Panel`
	gsxPanel    = `C:\Program Files\Addon Manager\MSFS\fsdreamteam-gsx-pro\html_ui\InGamePanels\FSDT_GSX_Panel`
)

// New returns the defaults. Context is accepted first to follow the
// project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel: "info",
		Addr:     ":9080",
		DataDir:  "data/catalogs",
		MenuFilePaths: []string{
			gsxPanelX86 + `\menu`,
			gsxPanel + `\menu`,
		},
		TooltipFilePaths: []string{
			gsxPanelX86 + `\tooltip`,
			gsxPanel + `\tooltip`,
		},
		TooltipSuccessKeyphrases: []string{
			"has been assigned",
			"parking position set",
			"gate set",
		},
		FlightJSONPath:          "flight.json",
		FlightPollInterval:      5 * time.Second,
		SimBridgeURL:            "http://127.0.0.1:9090",
		SimBridgeTimeout:        2 * time.Second,
		ClickSettle:             100 * time.Millisecond,
		MenuPollInterval:        100 * time.Millisecond,
		MenuCheckAttempts:       4,
		MenuReadRetries:         100,
		MenuOpenPolls:           20,
		NextAttempts:            3,
		MaxFindPages:            20,
		MaxWalkPages:            50,
		GroundCheckInterval:     time.Second,
		ConfirmTimeout:          2 * time.Second,
		ConfirmInterval:         200 * time.Millisecond,
		AirlineConfirmTimeout:   2 * time.Second,
		UnchangedConfirmTimeout: 500 * time.Millisecond,
		NotifyTimeout:           5 * time.Second,
		AssignAttempts:          2,
		RetryDelay:              500 * time.Millisecond,
		Matching: MatchWeights{
			Numeric:  0.6,
			Prefix:   0.3,
			Terminal: 0.1,
		},
		ConfidentPrefixScore: 50,
		ConfidentNumberScore: 80,
		ActivateKeywords:     []string{"activate"},
		DefaultAirline:       "GSX",
		NotifyURL:            "https://apipri.sayintentions.ai/sapi/assignGate",
		QueueSize:            64,
		DedupeSize:           1024,
		CatalogCacheSize:     16,
		CatalogCacheTTL:      10 * time.Minute,
		StaleLockAge:         10 * time.Minute,
		AutoPrepare:          true,
	}
}
