package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iancoleman/orderedmap"
)

type catalogHeader struct {
	Version   int             `json:"version"`
	Airport   string          `json:"airport"`
	BuiltAt   time.Time       `json:"built_at"`
	Terminals json.RawMessage `json:"terminals"`
}

// MarshalJSON writes {"terminals": {terminal: {position: entry}}} keeping
// insertion order of both levels.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	terminals := orderedmap.New()
	terminals.SetEscapeHTML(false)
	for _, t := range c.Terminals {
		positions := orderedmap.New()
		positions.SetEscapeHTML(false)
		for _, e := range t.Positions {
			positions.Set(e.PositionKey, e)
		}
		terminals.Set(t.Key, positions)
	}

	doc := orderedmap.New()
	doc.SetEscapeHTML(false)
	doc.Set("version", c.Version)
	doc.Set("airport", c.Airport)
	doc.Set("built_at", c.BuiltAt)
	doc.Set("terminals", terminals)
	return json.Marshal(doc)
}

// UnmarshalJSON restores a catalog written by MarshalJSON.
func (c *Catalog) UnmarshalJSON(b []byte) error {
	var hdr catalogHeader
	if err := json.Unmarshal(b, &hdr); err != nil {
		return err
	}
	if hdr.Version == 0 {
		hdr.Version = FormatVersion
	}
	if hdr.Version > FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr.Version)
	}

	out := Catalog{Version: hdr.Version, Airport: hdr.Airport, BuiltAt: hdr.BuiltAt}
	if len(hdr.Terminals) == 0 || string(hdr.Terminals) == "null" {
		*c = out
		return nil
	}

	var values map[string]map[string]Entry
	if err := json.Unmarshal(hdr.Terminals, &values); err != nil {
		return err
	}
	order := orderedmap.New()
	if err := order.UnmarshalJSON(hdr.Terminals); err != nil {
		return err
	}

	for _, tk := range order.Keys() {
		raw, _ := order.Get(tk)
		inner, ok := raw.(orderedmap.OrderedMap)
		if !ok {
			return fmt.Errorf("%w: terminal %q is not an object", ErrInvalidEntry, tk)
		}
		for _, pk := range inner.Keys() {
			e := values[tk][pk]
			e.TerminalKey = tk
			e.PositionKey = pk
			if err := out.Put(e); err != nil {
				return fmt.Errorf("terminal %q position %q: %w", tk, pk, err)
			}
		}
	}
	*c = out
	return nil
}
