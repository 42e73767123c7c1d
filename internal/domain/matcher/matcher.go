// Package matcher reconciles a parsed gate identifier with the positions of
// an airport catalog.
package matcher

import (
	"strings"

	"github.com/okian/gatedirector/internal/domain/catalog"
	"github.com/okian/gatedirector/internal/domain/gate"
)

// Weights combine component scores. They need not sum to one.
type Weights struct {
	Numeric  float64 `koanf:"numeric"`
	Prefix   float64 `koanf:"prefix"`
	Terminal float64 `koanf:"terminal"`
}

// DefaultWeights favours the numeric core.
func DefaultWeights() Weights {
	return Weights{Numeric: 0.6, Prefix: 0.3, Terminal: 0.1}
}

// Components are the per-component similarities behind a score.
type Components struct {
	Numeric  float64
	Prefix   float64
	Terminal float64
}

// Result of one Match call. Entry is nil only for an empty catalog.
type Result struct {
	Entry      *catalog.Entry
	IsExact    bool
	Score      float64
	Components Components
}

// Found reports whether any entry was selected.
func (r Result) Found() bool { return r.Entry != nil }

// Matcher scores targets against catalogs. It holds no mutable state.
type Matcher struct {
	weights         Weights
	confidentPrefix float64
	confidentNumber float64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithWeights overrides the component weights.
func WithWeights(w Weights) Option {
	return func(m *Matcher) {
		if w.Numeric > 0 || w.Prefix > 0 || w.Terminal > 0 {
			m.weights = w
		}
	}
}

// WithConfidence sets the prefix and numeric similarities a fuzzy match must
// exceed to be trusted without notifying the flight-data service.
func WithConfidence(prefix, number float64) Option {
	return func(m *Matcher) {
		m.confidentPrefix = prefix
		m.confidentNumber = number
	}
}

// New builds a Matcher with default weights.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		weights:         DefaultWeights(),
		confidentPrefix: 50,
		confidentNumber: 80,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Confident reports whether r can be used without asking the flight-data
// service to re-assign the gate.
func (m *Matcher) Confident(r Result) bool {
	if !r.Found() {
		return false
	}
	if r.IsExact {
		return true
	}
	return r.Components.Prefix > m.confidentPrefix && r.Components.Numeric > m.confidentNumber
}

// Match looks target up exactly, then falls back to weighted similarity.
// Entries are scanned in catalog order and only a strictly higher score
// replaces the current best, so the first of equal candidates wins.
func (m *Matcher) Match(target gate.Identifier, c *catalog.Catalog) Result {
	if c.Len() == 0 {
		return Result{}
	}
	if e, ok := exact(target, c); ok {
		return Result{
			Entry:      &e,
			IsExact:    true,
			Score:      100,
			Components: Components{Numeric: 100, Prefix: 100, Terminal: 100},
		}
	}

	want := Key{Prefix: target.LetterPrefix, Number: target.NumericCore, Suffix: target.LetterSuffix}
	wantTerminal := strings.ToLower(target.TerminalText())
	if wantTerminal == "" {
		wantTerminal = strings.ToLower(target.LetterPrefix)
	}

	var best Result
	bestScore := -1.0
	c.Each(func(e catalog.Entry) bool {
		comp := m.components(want, wantTerminal, SplitPositionKey(e.PositionKey), strings.ToLower(e.TerminalKey))
		score := comp.Numeric*m.weights.Numeric + comp.Prefix*m.weights.Prefix + comp.Terminal*m.weights.Terminal
		if score > bestScore {
			bestScore = score
			e := e
			best = Result{Entry: &e, Score: score, Components: comp}
		}
		return true
	})
	return best
}

// exact looks the target up under a terminal it names verbatim: its terminal
// id, its full terminal text ("Stand", "Concourse A") or, for "V19", its letter
// prefix. A target naming no terminal at all matches only a position key that
// is unique across the catalog. The bare "Terminal" implied by "Gate 5" names
// no terminal.
func exact(target gate.Identifier, c *catalog.Catalog) (catalog.Entry, bool) {
	key := target.PositionKey()
	if key == "" {
		return catalog.Entry{}, false
	}
	if target.TerminalID != "" {
		if e, ok := c.Lookup(target.TerminalID, key); ok {
			return e, true
		}
	}
	text := target.TerminalText()
	if text != "" && text != impliedTerminal {
		if e, ok := c.Lookup(text, key); ok {
			return e, true
		}
	}
	if target.TerminalID == "" && target.LetterPrefix != "" {
		if e, ok := c.Lookup(target.LetterPrefix, target.NumericCore+target.LetterSuffix); ok {
			return e, true
		}
	}
	if text != "" || target.LetterPrefix != "" {
		return catalog.Entry{}, false
	}

	var found catalog.Entry
	n := 0
	c.Each(func(e catalog.Entry) bool {
		if e.PositionKey == key {
			if n == 0 {
				found = e
			}
			n++
		}
		return n < 2
	})
	return found, n == 1
}

func (m *Matcher) components(want Key, wantTerminal string, have Key, haveTerminal string) Components {
	var comp Components

	a, b := trimZeros(want.Number), trimZeros(have.Number)
	switch {
	case a == "" || b == "":
	case a == b:
		comp.Numeric = 100
	default:
		comp.Numeric = Ratio(a, b)
	}

	if want.Prefix != "" || have.Prefix != "" {
		comp.Prefix = Ratio(want.Prefix, have.Prefix)
	}
	if want.Suffix != "" || have.Suffix != "" {
		suffix := 0.0
		if want.Suffix == have.Suffix {
			suffix = 100
		}
		comp.Prefix = (comp.Prefix + suffix) / 2
	}

	comp.Terminal = TokenSetRatio(wantTerminal, haveTerminal)
	return comp
}

// impliedTerminal is the hint the parser gives a bare "Gate N".
const impliedTerminal = "Terminal"

func trimZeros(n string) string {
	if n == "" {
		return ""
	}
	if t := strings.TrimLeft(n, "0"); t != "" {
		return t
	}
	return "0"
}
