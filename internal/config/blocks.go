package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-fragments/pkg/block"
	rendertemplate "github.com/goliatone/go-fragments/pkg/render/template"
)

// NewBlock builds the named block against fetcher.
func (c *Config) NewBlock(name string, fetcher block.Fetcher, logger *zap.Logger) (*block.Block, error) {
	b, ok := c.Find(name)
	if !ok {
		return nil, fmt.Errorf("config: block %q not found", name)
	}
	engine, err := block.NewEngine(c.Engine)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c.build(b, fetcher, logger, engine)
}

// NewBlocks builds every configured block in declaration order.
func (c *Config) NewBlocks(fetcher block.Fetcher, logger *zap.Logger) ([]*block.Block, error) {
	engine, err := block.NewEngine(c.Engine)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	out := make([]*block.Block, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		built, err := c.build(b, fetcher, logger, engine)
		if err != nil {
			return nil, err
		}
		out = append(out, built)
	}
	return out, nil
}

func (c *Config) build(b Block, fetcher block.Fetcher, logger *zap.Logger, engine rendertemplate.TemplateRenderer) (*block.Block, error) {
	def, err := b.Definition()
	if err != nil {
		return nil, err
	}

	opts := []block.Option{
		block.WithLogger(logger),
		block.WithContentHost(c.Service.ContentHost),
		block.WithEscaping(b.EscapeValues()),
		block.WithTemplateRenderer(engine),
	}
	if len(c.Metadata) > 0 {
		opts = append(opts, block.WithMetadata(block.StaticMetadata(c.Metadata)))
	}
	if b.Query != nil {
		opts = append(opts, block.WithQuery(*b.Query))
	}

	built, err := block.New(def, fetcher, opts...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return built, nil
}
