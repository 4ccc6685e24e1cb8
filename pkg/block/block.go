// Package block renders a region of fragment cards with pagination controls.
//
// A Block owns one pagination strategy, one fetcher, and one card template.
// Navigation calls fetch a page and swap the visible cards once the fetch
// completes. Each call supersedes the one before it: the earlier fetch is
// cancelled and its result discarded, so the cards always match the latest
// navigation request.
package block

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-fragments/pkg/client"
	"github.com/goliatone/go-fragments/pkg/fragment"
	"github.com/goliatone/go-fragments/pkg/paging"
	"github.com/goliatone/go-fragments/pkg/placeholder"
	"github.com/goliatone/go-fragments/pkg/query"
	rendertemplate "github.com/goliatone/go-fragments/pkg/render/template"
)

var (
	// ErrInvalidQuery wraps malformed queries passed to ApplyQuery.
	ErrInvalidQuery = errors.New("block: invalid query")
	// ErrSuperseded is returned when a newer navigation replaced a fetch.
	ErrSuperseded = errors.New("block: fetch superseded by a newer request")
	// ErrNoPage is returned when navigating past either end of the results.
	ErrNoPage = errors.New("block: no page in that direction")
)

// Fetcher loads one page of fragments. *client.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, req client.Request) (fragment.Page, error)
}

// Card is one rendered record.
type Card struct {
	ID    string `json:"id"`
	Class string `json:"class"`
	HTML  string `json:"html"`
}

// Snapshot is a read-only view of the block state.
type Snapshot struct {
	Name       string          `json:"name"`
	Pagination paging.Kind     `json:"pagination"`
	Controls   paging.Controls `json:"controls"`
	Cards      int             `json:"cards"`
	Loaded     bool            `json:"loaded"`
	Query      string          `json:"query,omitempty"`
	Offset     int             `json:"offset,omitempty"`
	Total      int             `json:"total,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Option configures a Block.
type Option func(*Block)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Block) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetadata supplies the page metadata accessor.
func WithMetadata(meta Metadata) Option {
	return func(b *Block) {
		b.metadata = meta
	}
}

// WithContentHost sets the host prefixed to content-reference paths.
func WithContentHost(host string) Option {
	return func(b *Block) {
		b.mapOptions.ContentHost = strings.TrimSpace(host)
	}
}

// WithQuery sets the query used when the options row names none.
func WithQuery(q query.Query) Option {
	return func(b *Block) {
		b.query = q
	}
}

// WithEscaping toggles HTML escaping of field values. Only disable it for
// content sources whose values are trusted markup.
func WithEscaping(enabled bool) Option {
	return func(b *Block) {
		b.escape = enabled
	}
}

// WithTemplateRenderer replaces the engine used for the block chrome.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(b *Block) {
		if renderer != nil {
			b.templates = renderer
		}
	}
}

// Block is one rendered region. It is safe for concurrent use.
type Block struct {
	name       string
	template   string
	settings   Settings
	fetcher    Fetcher
	logger     *zap.Logger
	metadata   Metadata
	mapOptions fragment.MapOptions
	escape     bool
	templates  rendertemplate.TemplateRenderer

	mu         sync.Mutex
	strategy   paging.Strategy
	query      query.Query
	cards      []Card
	page       fragment.Page
	loaded     bool
	lastErr    error
	generation uint64
	cancel     context.CancelFunc
}

// New builds a block from its definition.
func New(def Definition, fetcher Fetcher, opts ...Option) (*Block, error) {
	if fetcher == nil {
		return nil, errors.New("block: fetcher is required")
	}
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, errors.New("block: name is required")
	}
	settings, err := def.Settings()
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", name, err)
	}
	strategy, err := paging.New(settings.Pagination, settings.Limit)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", name, err)
	}

	b := &Block{
		name:     name,
		template: def.Template,
		settings: settings,
		fetcher:  fetcher,
		logger:   zap.NewNop(),
		escape:   true,
		strategy: strategy,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(b)
	}

	if settings.Query.Filter != nil {
		b.query = settings.Query
	}
	if b.metadata != nil {
		if path := strings.TrimSpace(b.metadata.Metadata(MetadataFragments)); path != "" {
			b.query = b.query.WithPath(path)
		}
	}
	if b.templates == nil {
		engine, err := defaultEngine()
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", name, err)
		}
		b.templates = engine
	}

	b.logger = b.logger.With(zap.String("block", name))
	return b, nil
}

// Name returns the block name.
func (b *Block) Name() string { return b.name }

// Settings returns the settings derived from the options row.
func (b *Block) Settings() Settings { return b.settings }

// Load fetches the first page.
func (b *Block) Load(ctx context.Context) error {
	return b.navigate(ctx, paging.DirectionFirst, nil)
}

// Next fetches the page after the one on display.
func (b *Block) Next(ctx context.Context) error {
	return b.navigate(ctx, paging.DirectionNext, nil)
}

// Previous fetches the page before the one on display.
func (b *Block) Previous(ctx context.Context) error {
	return b.navigate(ctx, paging.DirectionPrevious, nil)
}

// ApplyQuery replaces the query with user supplied JSON and reloads from the
// first page. Malformed input leaves the block untouched.
func (b *Block) ApplyQuery(ctx context.Context, raw string) error {
	q, err := query.Parse(raw)
	if err != nil {
		b.logger.Warn("rejected query", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return b.navigate(ctx, paging.DirectionFirst, &q)
}

// Cards returns a copy of the cards on display.
func (b *Block) Cards() []Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Card, len(b.cards))
	copy(out, b.cards)
	return out
}

// Snapshot reports the current state.
func (b *Block) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Block) snapshotLocked() Snapshot {
	snap := Snapshot{
		Name:       b.name,
		Pagination: b.strategy.Kind(),
		Controls:   b.strategy.Controls(),
		Cards:      len(b.cards),
		Loaded:     b.loaded,
		Total:      b.page.Total,
	}
	if b.query.Filter != nil {
		snap.Query = b.query.String()
	}
	if off, ok := b.strategy.(*paging.Offset); ok {
		snap.Offset = off.Offset()
	}
	if b.lastErr != nil {
		snap.Error = b.lastErr.Error()
	}
	return snap
}

func (b *Block) navigate(ctx context.Context, dir paging.Direction, override *query.Query) error {
	b.mu.Lock()
	if err := b.allowedLocked(dir); err != nil {
		b.mu.Unlock()
		return err
	}

	b.generation++
	gen := b.generation
	if b.cancel != nil {
		b.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	active := b.query
	if override != nil {
		active = *override
	}
	pos := b.strategy.Position(dir)
	req := client.Request{
		Endpoint: b.settings.Endpoint,
		Query:    active,
		Model:    b.settings.Model,
		Position: pos,
	}
	b.mu.Unlock()

	page, err := b.fetcher.Fetch(fetchCtx, req)

	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.generation {
		b.logger.Debug("discarding superseded fetch", zap.Stringer("direction", dir), zap.Uint64("generation", gen))
		return ErrSuperseded
	}
	cancel()
	b.cancel = nil

	if err != nil {
		b.lastErr = err
		b.logger.Error("fetch fragments failed", zap.Stringer("direction", dir), zap.Error(err))
		return fmt.Errorf("block %s: fetch %s page: %w", b.name, dir, err)
	}

	b.strategy.Commit(dir, pos, page)
	if override != nil {
		b.query = *override
	}
	b.page = page
	b.cards = b.buildCards(page)
	b.loaded = true
	b.lastErr = nil

	b.logger.Debug("rendered fragments",
		zap.Stringer("direction", dir),
		zap.Int("cards", len(b.cards)),
		zap.Bool("previous", b.strategy.Controls().Previous),
		zap.Bool("next", b.strategy.Controls().Next),
	)
	return nil
}

func (b *Block) allowedLocked(dir paging.Direction) error {
	if dir == paging.DirectionFirst {
		return nil
	}
	if !b.loaded {
		return fmt.Errorf("block %s: %w: not loaded", b.name, ErrNoPage)
	}
	controls := b.strategy.Controls()
	if dir == paging.DirectionNext && !controls.Next {
		return fmt.Errorf("block %s: %w: %s", b.name, ErrNoPage, dir)
	}
	if dir == paging.DirectionPrevious && !controls.Previous {
		return fmt.Errorf("block %s: %w: %s", b.name, ErrNoPage, dir)
	}
	return nil
}

func (b *Block) buildCards(page fragment.Page) []Card {
	defs := page.Lookup()
	opts := []placeholder.Option{
		placeholder.WithMissing(b.settings.Missing),
		placeholder.WithEscaping(b.escape),
	}

	cards := make([]Card, 0, len(page.Items))
	for i, rec := range page.Items {
		class := "card"
		if i%4 == 0 {
			class += " break"
		}
		mapping := fragment.Map(rec, defs, b.mapOptions)
		cards = append(cards, Card{
			ID:    rec.ID,
			Class: class,
			HTML:  placeholder.Substitute(b.template, mapping, opts...),
		})
	}
	return cards
}
