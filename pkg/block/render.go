package block

import (
	"context"
	"fmt"

	theme "github.com/goliatone/go-theme"
)

const blockTemplate = "templates/block.tmpl"

// Theme tokens read for extra classes on the region, the card container, and
// each card.
const (
	TokenBlockClass = "fragments.block"
	TokenCardsClass = "fragments.cards"
	TokenCardClass  = "fragments.card"
)

// Actions are the URLs the navigation and query editor controls post to.
// Empty actions render inert controls for client side wiring.
type Actions struct {
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
	Query    string `json:"query,omitempty"`
}

// RenderOptions carry per request presentation settings.
type RenderOptions struct {
	Actions Actions
	Theme   *theme.RendererConfig
}

// Render produces the region markup: navigation row, optional query editor,
// and the card container holding the cards on display.
func (b *Block) Render(_ context.Context, opts RenderOptions) ([]byte, error) {
	b.mu.Lock()
	snap := b.snapshotLocked()
	cards := make([]map[string]any, 0, len(b.cards))
	for _, card := range b.cards {
		cards = append(cards, map[string]any{
			"id":    card.ID,
			"class": card.Class,
			"html":  card.HTML,
		})
	}
	b.mu.Unlock()

	data := map[string]any{
		"name":       snap.Name,
		"pagination": string(snap.Pagination),
		"controls": map[string]any{
			"previous": snap.Controls.Previous,
			"next":     snap.Controls.Next,
		},
		"cards":   cards,
		"editor":  b.settings.Editor,
		"query":   snap.Query,
		"actions": opts.Actions,
		"classes": themeClasses(opts.Theme),
	}
	if opts.Theme != nil && len(opts.Theme.CSSVars) > 0 {
		data["cssvars"] = opts.Theme.CSSVars
	}

	out, err := b.templates.RenderTemplate(blockTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("block %s: render: %w", b.name, err)
	}
	return []byte(out), nil
}

func themeClasses(cfg *theme.RendererConfig) map[string]string {
	classes := map[string]string{}
	if cfg == nil {
		return classes
	}
	for key, token := range map[string]string{
		"block": TokenBlockClass,
		"cards": TokenCardsClass,
		"card":  TokenCardClass,
	} {
		if value := cfg.Tokens[token]; value != "" {
			classes[key] = value
		}
	}
	return classes
}
