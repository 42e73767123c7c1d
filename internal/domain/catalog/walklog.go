package catalog

import "time"

// PageRecord is one menu page seen during a walk.
type PageRecord struct {
	Title   string   `msgpack:"title"`
	Options []string `msgpack:"options"`
	Depth   int      `msgpack:"depth"`
	Path    NavPath  `msgpack:"path"`
}

// RawPosition is a position identifier scraped from a menu option before
// interpretation into terminal and position keys.
type RawPosition struct {
	ID          string       `msgpack:"id"`
	FullText    string       `msgpack:"full_text"`
	Type        PositionType `msgpack:"type"`
	FoundInMenu string       `msgpack:"found_in_menu"`
	Path        NavPath      `msgpack:"path"`
}

// WalkLog is the raw artifact of a full menu walk, kept for diagnostics and
// for rebuilding the catalog without walking again.
type WalkLog struct {
	Version    int           `msgpack:"version"`
	Airport    string        `msgpack:"airport"`
	StartedAt  time.Time     `msgpack:"started_at"`
	FinishedAt time.Time     `msgpack:"finished_at"`
	Pages      []PageRecord  `msgpack:"pages"`
	Positions  []RawPosition `msgpack:"positions"`
}

// HasPosition reports whether id was already recorded.
func (w *WalkLog) HasPosition(id string) bool {
	for _, p := range w.Positions {
		if p.ID == id {
			return true
		}
	}
	return false
}
