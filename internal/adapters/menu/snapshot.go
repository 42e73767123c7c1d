package menu

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

// DefaultControlKeywords name options that navigate rather than select.
var DefaultControlKeywords = []string{"Next", "Previous", "Back", "Exit", "Cancel", "Confirm"} //nolint:gochecknoglobals // default vocabulary

// Snapshot is the menu as last written by the add-on: a title and its
// options in display order. Option i is selected by writing i.
type Snapshot struct {
	Title   string
	Options []string
	ModTime time.Time
}

// OptionCount returns len(Options).
func (s Snapshot) OptionCount() int { return len(s.Options) }

// Empty reports whether nothing was read.
func (s Snapshot) Empty() bool { return s.Title == "" && len(s.Options) == 0 }

// Controls classifies options as navigation controls.
type Controls struct {
	words map[string]struct{}
}

// NewControls builds a classifier over keywords, case-insensitive.
func NewControls(keywords []string) Controls {
	c := Controls{words: make(map[string]struct{}, len(keywords))}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			c.words[k] = struct{}{}
		}
	}
	return c
}

// IsControl reports whether any word of option is a control keyword.
func (c Controls) IsControl(option string) bool {
	for _, w := range strings.Fields(option) {
		if _, ok := c.words[strings.ToLower(w)]; ok {
			return true
		}
	}
	return false
}

// Content returns the options that are not controls.
func (c Controls) Content(s Snapshot) []string {
	out := make([]string, 0, len(s.Options))
	for _, o := range s.Options {
		if !c.IsControl(o) {
			out = append(out, o)
		}
	}
	return out
}

// Same compares two snapshots ignoring control options.
func (c Controls) Same(a, b Snapshot) bool {
	return a.Title == b.Title && slices.Equal(c.Content(a), c.Content(b))
}

// nextIndex returns the index of the "Next" option, or -1.
func nextIndex(s Snapshot) int {
	for i, o := range s.Options {
		for _, w := range strings.Fields(o) {
			if strings.EqualFold(w, "Next") {
				return i
			}
		}
	}
	return -1
}

// HasNext reports whether the menu offers a further page.
func (s Snapshot) HasNext() bool { return nextIndex(s) >= 0 }

var icaoPattern = regexp.MustCompile(`\b([A-Z]{4})\b`)

// AirportCode returns the first four-letter upper-case word of the title,
// which the add-on uses for the ICAO code.
func (s Snapshot) AirportCode() string {
	if m := icaoPattern.FindStringSubmatch(s.Title); m != nil {
		return m[1]
	}
	return ""
}

// ParseSnapshot splits menu file content: line one is the title, every
// further line an option. Lines are trimmed and trailing blank lines dropped;
// inner blank lines are kept so indexes stay aligned with the menu.
func ParseSnapshot(content string) Snapshot {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return Snapshot{}
	}
	return Snapshot{Title: lines[0], Options: lines[1:]}
}
