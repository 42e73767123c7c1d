package catalog

import (
	"strings"
	"unicode"
)

// gateLetters are letters GSX writes in front of plain gate numbers; they do
// not name a terminal.
const gateLetters = "ABLRC"

// Interpret files a scraped position id under a terminal and position key.
//
//	"11B"      -> 1 / 11B
//	"A12"      -> 1 / 12A     gate letter moved behind the number
//	"A5"       -> Terminal / 5
//	"Z52"      -> Z / 52      other letters name the terminal
//	"Stand 501"-> Stand / 501
//	"501"      -> Parking / 501
//	"7"        -> 1 / 7
func Interpret(id string) (terminal, position string) {
	s := strings.ReplaceAll(strings.TrimSpace(id), " ", "")
	r := []rune(s)
	i := 0

	for _, word := range []string{"Gate", "Parking"} {
		if len(r) >= len(word) && strings.EqualFold(string(r[:len(word)]), word) {
			i = len(word)
			break
		}
	}

	start := i
	for i < len(r) && unicode.IsLetter(r[i]) {
		i++
	}
	prefix := string(r[start:i])

	start = i
	for i < len(r) && r[i] >= '0' && r[i] <= '9' {
		i++
	}
	number := string(r[start:i])

	suffix := ""
	if i < len(r) && unicode.IsLetter(r[i]) && (i+1 == len(r) || !isWordRune(r[i+1])) {
		suffix = strings.ToUpper(string(r[i]))
	}

	if number == "" {
		if prefix == "" {
			return "Other", s
		}
		return prefix, s
	}

	position = number + suffix
	terminal = number[:1]
	switch {
	case prefix != "" && !isGateLetter(prefix):
		terminal = prefix
	case prefix != "":
		if len(number) == 1 {
			terminal = "Terminal"
		} else if suffix == "" {
			position = number + strings.ToUpper(prefix)
		}
	case len(number) == 3:
		terminal = "Parking"
	case len(number) == 1:
		terminal = "1"
	}
	return terminal, position
}

func isGateLetter(prefix string) bool {
	return len(prefix) == 1 && strings.Contains(gateLetters, strings.ToUpper(prefix))
}

func isWordRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

// ParseSize finds the aircraft size class in an option's display text.
// "Ramp GA" positions are general aviation ramps and count as Small.
func ParseSize(fullText string) SizeClass {
	best, at := SizeUnknown, -1
	for _, c := range []struct {
		word string
		size SizeClass
	}{
		{"Small", SizeSmall},
		{"Medium", SizeMedium},
		{"Heavy", SizeHeavy},
		{"Ramp GA", SizeSmall},
	} {
		if i := strings.Index(fullText, c.word); i >= 0 && (at < 0 || i < at) {
			best, at = c.size, i
		}
	}
	return best
}

// ParseJetway extracts the jet-bridge description ("1x /J", "2x/J", "None")
// or "-" when none is given.
func ParseJetway(fullText string) string {
	s := fullText
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			if strings.HasPrefix(s[i:], "None") {
				return "None"
			}
			continue
		}
		j := i
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j < len(s) && s[j] == 'x' {
			k := j + 1
			for k < len(s) && (s[k] == ' ' || s[k] == '\t') {
				k++
			}
			if strings.HasPrefix(s[k:], "/J") {
				return s[i : k+2]
			}
		}
		i = j - 1
	}
	return "-"
}

// Build interprets a walk log into a catalog. Gates are filed before parking
// positions, each in walk order; a later duplicate replaces the earlier entry.
func Build(log *WalkLog) *Catalog {
	c := New(log.Airport, log.FinishedAt)
	for _, kind := range []PositionType{TypeGate, TypeParking} {
		for _, p := range log.Positions {
			if p.Type != kind {
				continue
			}
			terminal, position := Interpret(p.ID)
			_ = c.Put(Entry{
				TerminalKey: terminal,
				PositionKey: position,
				FullText:    p.FullText,
				Type:        p.Type,
				Size:        ParseSize(p.FullText),
				Jetway:      ParseJetway(p.FullText),
				FoundInMenu: p.FoundInMenu,
				Path:        p.Path,
			})
		}
	}
	return c
}
