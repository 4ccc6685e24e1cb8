package paging

import (
	"github.com/goliatone/go-fragments/pkg/fragment"
)

// State describes where an offset strategy sits in the result set.
type State string

const (
	StateAtStart State = "at-start"
	StateMiddle  State = "mid-sequence"
	StateAtEnd   State = "at-end"
)

// Offset pages through results with a numeric offset moved by a fixed page
// size. The offset never drops below zero.
type Offset struct {
	limit    int
	offset   int
	total    int
	hasTotal bool
	controls Controls
}

// NewOffset returns an offset strategy that moves by limit records.
func NewOffset(limit int) *Offset {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return &Offset{limit: limit}
}

func (o *Offset) Kind() Kind { return KindOffset }

func (o *Offset) Position(dir Direction) Position {
	pos := Position{ByOffset: true, Limit: o.limit}
	switch dir {
	case DirectionNext:
		pos.Offset = o.offset + o.limit
	case DirectionPrevious:
		pos.Offset = max(o.offset-o.limit, 0)
	}
	return pos
}

// Commit adopts the requested offset. Server reported counters win when
// present so the controls follow what was actually served.
func (o *Offset) Commit(_ Direction, pos Position, page fragment.Page) {
	o.offset = max(pos.Offset, 0)
	if page.Limit > 0 {
		o.limit = page.Limit
	}
	if page.Offset > 0 {
		o.offset = page.Offset
	}
	o.total = page.Total
	o.hasTotal = page.HasTotal

	o.controls.Previous = o.offset > 0
	if o.hasTotal {
		o.controls.Next = o.offset+o.limit < o.total
	} else {
		o.controls.Next = len(page.Items) == o.limit
	}
}

func (o *Offset) Controls() Controls { return o.controls }

func (o *Offset) Reset() {
	o.offset = 0
	o.total = 0
	o.hasTotal = false
	o.controls = Controls{}
}

// Offset returns the offset of the page on display.
func (o *Offset) Offset() int { return o.offset }

// State classifies the current position.
func (o *Offset) State() State {
	switch {
	case !o.controls.Next:
		return StateAtEnd
	case o.offset == 0:
		return StateAtStart
	default:
		return StateMiddle
	}
}
