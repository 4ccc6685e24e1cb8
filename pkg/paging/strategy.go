// Package paging holds the pagination strategies a block can be configured
// with. Both strategies are plain state holders: callers ask for the position
// to fetch, perform the fetch, and commit the result. A fetch that fails or
// is abandoned is never committed, so state and controls stay as they were.
package paging

import (
	"fmt"

	"github.com/goliatone/go-fragments/pkg/fragment"
)

// Strategy tracks pagination state for a single block. Implementations are
// not safe for concurrent use; the owning block serialises access.
type Strategy interface {
	Kind() Kind
	// Position returns the request for a navigation without changing state.
	Position(dir Direction) Position
	// Commit records that the fetch of pos for dir completed with page.
	Commit(dir Direction, pos Position, page fragment.Page)
	Controls() Controls
	Reset()
}

// New constructs the strategy named by kind.
func New(kind Kind, pageSize int) (Strategy, error) {
	switch kind {
	case KindCursor, "":
		return NewCursor(pageSize), nil
	case KindOffset:
		return NewOffset(pageSize), nil
	default:
		return nil, fmt.Errorf("paging: unknown strategy %q", kind)
	}
}
