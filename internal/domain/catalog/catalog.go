// Package catalog holds the airport-scoped map of known parking positions
// built by walking the external menu.
package catalog

import (
	"errors"
	"strings"
	"time"
)

// FormatVersion is written into every persisted catalog and walk log.
const FormatVersion = 1

// Sentinel errors for catalog handling.
var (
	ErrUnsupportedVersion = errors.New("unsupported catalog format version")
	ErrInvalidEntry       = errors.New("invalid catalog entry")
)

// PositionType tells jet-bridge gates from remote parking.
type PositionType string

const (
	TypeGate    PositionType = "gate"
	TypeParking PositionType = "parking"
)

// SizeClass is the aircraft size a position accepts.
type SizeClass string

const (
	SizeSmall   SizeClass = "Small"
	SizeMedium  SizeClass = "Medium"
	SizeHeavy   SizeClass = "Heavy"
	SizeUnknown SizeClass = "Unknown"
)

// NavPath replays the clicks that reach a position from a freshly refreshed
// menu. Pages are zero-based: TopLevelPage 0 needs no Next click.
type NavPath struct {
	TopLevelPage  int `json:"top_level_page" msgpack:"top_level_page"`
	TopLevelIndex int `json:"top_level_index" msgpack:"top_level_index"`
	PageCount     int `json:"page_count" msgpack:"page_count"`
	OptionIndex   int `json:"option_index" msgpack:"option_index"`
}

// Entry is one selectable position.
type Entry struct {
	TerminalKey string       `json:"terminal"`
	PositionKey string       `json:"position"`
	FullText    string       `json:"full_text"`
	Type        PositionType `json:"type"`
	Size        SizeClass    `json:"size"`
	Jetway      string       `json:"jetway"`
	FoundInMenu string       `json:"found_in_menu"`
	Path        NavPath      `json:"path"`
}

// Terminal groups positions in insertion order.
type Terminal struct {
	Key       string
	Positions []Entry
}

// Catalog maps terminal -> position -> entry. Iteration order is insertion
// order, which makes fuzzy tie-breaking deterministic across restarts.
type Catalog struct {
	Version   int
	Airport   string
	BuiltAt   time.Time
	Terminals []Terminal
}

// New returns an empty catalog for airport.
func New(airport string, builtAt time.Time) *Catalog {
	return &Catalog{
		Version: FormatVersion,
		Airport: strings.ToUpper(strings.TrimSpace(airport)),
		BuiltAt: builtAt,
	}
}

// Put inserts e, or replaces the entry with the same terminal and position
// key in place so that ordering is kept.
func (c *Catalog) Put(e Entry) error {
	if e.TerminalKey == "" || e.PositionKey == "" {
		return ErrInvalidEntry
	}
	for i := range c.Terminals {
		t := &c.Terminals[i]
		if t.Key != e.TerminalKey {
			continue
		}
		for j := range t.Positions {
			if t.Positions[j].PositionKey == e.PositionKey {
				t.Positions[j] = e
				return nil
			}
		}
		t.Positions = append(t.Positions, e)
		return nil
	}
	c.Terminals = append(c.Terminals, Terminal{Key: e.TerminalKey, Positions: []Entry{e}})
	return nil
}

// Lookup returns the entry stored under exactly (terminal, position).
func (c *Catalog) Lookup(terminal, position string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	for _, t := range c.Terminals {
		if t.Key != terminal {
			continue
		}
		for _, e := range t.Positions {
			if e.PositionKey == position {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// Each visits entries in insertion order until fn returns false.
func (c *Catalog) Each(fn func(Entry) bool) {
	if c == nil {
		return
	}
	for _, t := range c.Terminals {
		for _, e := range t.Positions {
			if !fn(e) {
				return
			}
		}
	}
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, t := range c.Terminals {
		n += len(t.Positions)
	}
	return n
}

// TerminalKeys lists terminals in insertion order.
func (c *Catalog) TerminalKeys() []string {
	keys := make([]string, 0, len(c.Terminals))
	for _, t := range c.Terminals {
		keys = append(keys, t.Key)
	}
	return keys
}
