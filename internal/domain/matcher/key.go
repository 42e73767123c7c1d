package matcher

import "strings"

// Key is a catalog position key split into components.
type Key struct {
	Prefix string
	Number string
	Suffix string
}

// SplitPositionKey decomposes a position key: trailing digits with an
// optional letter are the number and suffix, everything before them is the
// prefix, upper-cased and trimmed ("Stand 501" -> STAND/501, "5A" -> /5/A).
func SplitPositionKey(key string) Key {
	s := strings.TrimSpace(key)
	end := len(s)

	var k Key
	if end > 0 && isLetter(s[end-1]) && end > 1 && isDigit(s[end-2]) {
		k.Suffix = strings.ToUpper(s[end-1:])
		end--
	}
	start := end
	for start > 0 && isDigit(s[start-1]) {
		start--
	}
	if start == end {
		return Key{Prefix: strings.ToUpper(s)}
	}
	k.Number = s[start:end]
	k.Prefix = strings.ToUpper(strings.TrimSpace(s[:start]))
	return k
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
