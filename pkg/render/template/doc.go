// Package template defines the engine seam the block renderer draws its
// chrome through, so callers can swap the bundled pongo2 engine for their own.
package template
