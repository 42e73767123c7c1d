package gate

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTerminalKeywords is the vocabulary of terminal-type words.
var DefaultTerminalKeywords = []string{ //nolint:gochecknoglobals // default vocabulary
	"Terminal", "International", "Parking", "Domestic", "Main", "Central",
	"Pier", "Concourse", "Level", "Apron", "Stand",
}

// DefaultNoiseKeywords are dropped from the words following a terminal keyword.
var DefaultNoiseKeywords = []string{ //nolint:gochecknoglobals // default vocabulary
	"overflow", "gate", "remote", "stand", "parking", "terminal",
}

// Parser turns free text into an Identifier. It is safe for concurrent use.
type Parser struct {
	keywords map[string]struct{}
	noise    map[string]struct{}
}

// Option configures a Parser.
type Option func(*Parser)

// WithTerminalKeywords replaces the terminal-type vocabulary.
func WithTerminalKeywords(words []string) Option {
	return func(p *Parser) {
		if len(words) > 0 {
			p.keywords = wordSet(words)
		}
	}
}

// WithNoiseKeywords replaces the noise vocabulary.
func WithNoiseKeywords(words []string) Option {
	return func(p *Parser) {
		if len(words) > 0 {
			p.noise = wordSet(words)
		}
	}
}

// NewParser builds a parser with the default vocabularies.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		keywords: wordSet(DefaultTerminalKeywords),
		noise:    wordSet(DefaultNoiseKeywords),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse never fails. Input with no recognisable parts yields an Identifier
// carrying only RawText.
//
// Precedence, applied from the end of the string backwards:
//  1. letter suffix: a single letter ending the string, after the digits and
//     optional spaces ("12b", "14 R")
//  2. numeric core: the digit run before the suffix (or ending the string)
//  3. letter prefix: a standalone letter written directly against the digits
//     ("V19"; "Gate12" has no prefix)
//
// and then from the start of what remains:
//  4. terminal keyword: first vocabulary word
//  5. terminal id: a single letter or a run of digits right after the
//     keyword, once noise words are removed; other words extend the
//     terminal hint
//  6. a bare "gate" with no keyword implies the hint "Terminal"
func (p *Parser) Parse(text string) Identifier {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Identifier{RawText: text}
	}
	id := Identifier{RawText: trimmed}

	rest := trimmed
	if g, ok := scanGate(trimmed); ok {
		id.LetterPrefix = g.prefix
		id.NumericCore = g.digits
		id.LetterSuffix = g.suffix
		rest = strings.TrimSpace(trimmed[:g.start])
	}

	p.scanTerminal(rest, &id)
	return id
}

type gateSpan struct {
	start  int // byte offset where the gate part begins
	prefix string
	digits string
	suffix string
}

func scanGate(s string) (gateSpan, bool) {
	r := []rune(s)
	end := len(r)
	for end > 0 && unicode.IsSpace(r[end-1]) {
		end--
	}

	var g gateSpan
	if end > 0 && isASCIILetter(r[end-1]) {
		k := end - 1
		for k > 0 && unicode.IsSpace(r[k-1]) {
			k--
		}
		if k == 0 || !isDigit(r[k-1]) {
			return gateSpan{}, false
		}
		g.suffix = strings.ToUpper(string(r[end-1]))
		end = k
	}

	start := end
	for start > 0 && isDigit(r[start-1]) {
		start--
	}
	if start == end {
		return gateSpan{}, false
	}
	g.digits = string(r[start:end])

	if start > 0 && isASCIILetter(r[start-1]) && (start == 1 || !unicode.IsLetter(r[start-2])) {
		start--
		g.prefix = strings.ToUpper(string(r[start]))
	}
	g.start = len(string(r[:start]))
	return g, true
}

func (p *Parser) scanTerminal(rest string, id *Identifier) {
	words := strings.FieldsFunc(rest, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})

	kw := -1
	for i, w := range words {
		if _, ok := p.keywords[strings.ToLower(w)]; ok {
			kw = i
			break
		}
	}
	if kw < 0 {
		if strings.Contains(strings.ToLower(id.RawText), "gate") {
			id.TerminalHint = "Terminal"
		}
		return
	}

	// Casers carry state, so one is built per call.
	hint := cases.Title(language.Und).String(words[kw])
	var middle []string
	for _, w := range words[kw+1:] {
		if _, noisy := p.noise[strings.ToLower(w)]; !noisy {
			middle = append(middle, w)
		}
	}

	if len(middle) > 0 {
		if isTerminalID(middle[0]) {
			id.TerminalID = strings.ToUpper(middle[0])
			middle = middle[1:]
		}
	}
	if len(middle) > 0 {
		hint += " " + strings.Join(middle, " ")
	}
	id.TerminalHint = hint
}

// isTerminalID reports whether w names a terminal: "B", "3" or "12".
func isTerminalID(w string) bool {
	r := []rune(w)
	if len(r) == 1 && unicode.IsLetter(r[0]) {
		return true
	}
	for _, c := range r {
		if !unicode.IsDigit(c) {
			return false
		}
	}
	return len(r) > 0
}

func wordSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return m
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isASCIILetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
