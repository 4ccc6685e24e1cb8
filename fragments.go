// Package fragments renders paginated content fragments fetched from a remote
// content service into an HTML region with navigation controls.
//
// The root package re-exports the most common types and offers one-shot
// helpers. Long lived callers (servers, interactive sessions) build a
// block.Block directly and keep it between requests.
package fragments

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-fragments/pkg/block"
	"github.com/goliatone/go-fragments/pkg/client"
)

// Definition is the authored block: options row plus card template.
type Definition = block.Definition

// RenderOptions describes per request actions and theme overrides.
type RenderOptions = block.RenderOptions

// Credentials carry the tenant, preview mode, and edge authorization headers.
type Credentials = client.Credentials

// ParseMarkup reads a block definition from its authored markup.
func ParseMarkup(name, markup string) (Definition, error) {
	return block.ParseMarkup(name, markup)
}

// NewBlock builds a block backed by a client for cfg.
func NewBlock(def Definition, cfg client.Config, options ...block.Option) (*block.Block, error) {
	c, err := client.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("fragments: %w", err)
	}
	return block.New(def, c, options...)
}

// RenderHTML fetches the first page of def and renders the region. It is the
// simplest entry point for callers that just want HTML output.
func RenderHTML(ctx context.Context, def Definition, cfg client.Config, render RenderOptions, options ...block.Option) ([]byte, error) {
	b, err := NewBlock(def, cfg, options...)
	if err != nil {
		return nil, err
	}
	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	return b.Render(ctx, render)
}

// TemplatesFS exposes the bundled region templates so applications can copy
// or override them.
//
// Typical use:
//
//	engine, _ := gotemplate.New(gotemplate.WithFS(fragments.TemplatesFS()))
//	b, _ := block.New(def, fetcher, block.WithTemplateRenderer(engine))
func TemplatesFS() fs.FS {
	return block.TemplatesFS()
}
