package paging

import (
	"fmt"
	"strings"
)

// Kind names a pagination strategy.
type Kind string

const (
	KindCursor Kind = "cursor"
	KindOffset Kind = "offset"
)

// DefaultPageSize matches the page threshold used by the fragment service.
const DefaultPageSize = 10

// ParseKind maps a configuration value onto a Kind. Empty selects cursor.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KindCursor:
		return KindCursor, nil
	case KindOffset:
		return KindOffset, nil
	default:
		return "", fmt.Errorf("paging: unknown strategy %q", raw)
	}
}

// Position is what a fetch needs to request one page.
type Position struct {
	// Cursor is the opaque server token; empty requests the first page.
	Cursor string
	// Offset is the record offset, only meaningful when ByOffset is set.
	Offset int
	// ByOffset reports whether Offset is sent instead of Cursor.
	ByOffset bool
	Limit    int
}

// Direction identifies which navigation produced a fetch.
type Direction int

const (
	DirectionFirst Direction = iota
	DirectionNext
	DirectionPrevious
)

func (d Direction) String() string {
	switch d {
	case DirectionNext:
		return "next"
	case DirectionPrevious:
		return "previous"
	default:
		return "first"
	}
}

// Controls reports which navigation controls are visible.
type Controls struct {
	Previous bool `json:"previous"`
	Next     bool `json:"next"`
}
