// Package gate parses free-text parking position strings into structured
// identifiers.
package gate

import "strings"

// Identifier is the structured form of a position string such as
// "Terminal 1 Gate 5A" or "Stand V19". Every field except RawText is optional.
type Identifier struct {
	TerminalHint string // free-text terminal type, e.g. "International"
	TerminalID   string // single letter or number naming the terminal
	NumericCore  string // digits exactly as written, leading zeros kept
	LetterPrefix string // letter written directly against the digits ("V" in V19)
	LetterSuffix string // letter following the digits ("A" in 5A)
	RawText      string
}

// IsEmpty reports whether nothing beyond the raw text was recognised.
func (id Identifier) IsEmpty() bool {
	return id.TerminalHint == "" && id.TerminalID == "" && id.NumericCore == "" &&
		id.LetterPrefix == "" && id.LetterSuffix == ""
}

// GateLetter returns the letter that qualifies the gate number. A suffix wins
// over a prefix: in "V5A" the A is the gate letter and the V only signals the
// terminal or position type.
func (id Identifier) GateLetter() string {
	if id.LetterSuffix != "" {
		return id.LetterSuffix
	}
	return id.LetterPrefix
}

// EffectiveTerminal returns the terminal id, or the letter prefix when no
// terminal id was written ("V19" files under terminal V).
func (id Identifier) EffectiveTerminal() string {
	if id.TerminalID != "" {
		return id.TerminalID
	}
	return id.LetterPrefix
}

// PositionKey rebuilds the compact position key, e.g. "V19" or "5A".
func (id Identifier) PositionKey() string {
	if id.NumericCore == "" {
		return ""
	}
	return id.LetterPrefix + id.NumericCore + id.LetterSuffix
}

// TerminalText joins hint and id the way menu terminals are named ("Terminal 1").
func (id Identifier) TerminalText() string {
	return strings.TrimSpace(id.TerminalHint + " " + id.TerminalID)
}

func (id Identifier) String() string {
	if id.IsEmpty() {
		return "raw: " + id.RawText
	}
	var parts []string
	if t := id.TerminalText(); t != "" {
		parts = append(parts, "terminal: "+t)
	}
	if k := id.PositionKey(); k != "" {
		parts = append(parts, "gate: "+k)
	}
	return strings.Join(parts, " | ")
}
