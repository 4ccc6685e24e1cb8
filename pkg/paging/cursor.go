package paging

import (
	"github.com/goliatone/go-fragments/pkg/fragment"
)

// Cursor pages through results with server issued cursors. The stack holds
// the cursor of every page visited after the first one; previous pops it and
// fetches with the new top, or with no cursor once the stack is empty.
type Cursor struct {
	threshold int
	stack     []string
	next      string
	controls  Controls
}

// NewCursor returns a cursor strategy that treats a page as full when it
// holds exactly threshold records.
func NewCursor(threshold int) *Cursor {
	if threshold <= 0 {
		threshold = DefaultPageSize
	}
	return &Cursor{threshold: threshold}
}

func (c *Cursor) Kind() Kind { return KindCursor }

func (c *Cursor) Position(dir Direction) Position {
	pos := Position{Limit: c.threshold}
	switch dir {
	case DirectionNext:
		pos.Cursor = c.next
	case DirectionPrevious:
		if len(c.stack) > 1 {
			pos.Cursor = c.stack[len(c.stack)-2]
		}
	}
	return pos
}

func (c *Cursor) Commit(dir Direction, pos Position, page fragment.Page) {
	switch dir {
	case DirectionFirst:
		c.stack = c.stack[:0]
	case DirectionNext:
		if pos.Cursor != "" {
			c.stack = append(c.stack, pos.Cursor)
		}
	case DirectionPrevious:
		if len(c.stack) > 0 {
			c.stack = c.stack[:len(c.stack)-1]
		}
	}

	c.controls.Previous = len(c.stack) > 0
	if len(page.Items) == c.threshold {
		c.next = nextCursor(page)
		c.controls.Next = c.next != ""
	} else {
		c.next = ""
		c.controls.Next = false
	}
}

func (c *Cursor) Controls() Controls { return c.controls }

func (c *Cursor) Reset() {
	c.stack = nil
	c.next = ""
	c.controls = Controls{}
}

// Depth reports how many pages past the first one have been visited.
func (c *Cursor) Depth() int { return len(c.stack) }

func nextCursor(page fragment.Page) string {
	if page.Cursor != "" {
		return page.Cursor
	}
	last, _ := page.Last()
	return last.ID
}
