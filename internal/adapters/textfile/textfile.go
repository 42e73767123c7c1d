// Package textfile reads the small text files other programs expose as their
// UI surface.
package textfile

import (
	"bytes"
	"os"
	"sort"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode returns b as UTF-8. A byte order mark selects UTF-8 or UTF-16 and is
// stripped; text without one is taken as UTF-8 when valid and Windows-1252
// otherwise.
func Decode(b []byte) (string, error) {
	if bytes.HasPrefix(b, bomUTF8) || bytes.HasPrefix(b, bomUTF16LE) || bytes.HasPrefix(b, bomUTF16BE) {
		out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), b)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	if utf8.Valid(b) {
		return string(b), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// FirstExisting returns the first of paths that exists.
func FirstExisting(paths []string) (string, bool) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// LatestModTime returns the newest modification time among the existing
// paths.
func LatestModTime(paths []string) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !found || info.ModTime().After(latest) {
			latest, found = info.ModTime(), true
		}
	}
	return latest, found
}

// ChangedSince returns the existing paths modified after t, newest first.
func ChangedSince(paths []string, t time.Time) []string {
	type changed struct {
		path string
		mod  time.Time
	}
	var out []changed
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || !info.ModTime().After(t) {
			continue
		}
		out = append(out, changed{p, info.ModTime()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].mod.After(out[j].mod) })

	res := make([]string, len(out))
	for i, c := range out {
		res[i] = c.path
	}
	return res
}

// Read returns the decoded content of path.
func Read(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Decode(b)
}
