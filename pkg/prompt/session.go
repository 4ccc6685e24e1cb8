package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-fragments/pkg/block"
	"github.com/goliatone/go-fragments/pkg/query"
)

// Menu entries offered between pages.
const (
	ActionNext     = "Next page"
	ActionPrevious = "Previous page"
	ActionQuery    = "Edit query"
	ActionQuit     = "Quit"
)

// Navigator is the block surface a session drives. *block.Block satisfies it.
type Navigator interface {
	Load(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	ApplyQuery(ctx context.Context, raw string) error
	Cards() []block.Card
	Snapshot() block.Snapshot
}

// Session is an interactive loop over one block.
type Session struct {
	nav    Navigator
	driver Driver
	logger *zap.Logger
}

// NewSession binds a navigator to a prompt driver.
func NewSession(nav Navigator, driver Driver, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{nav: nav, driver: driver, logger: logger}
}

// Run loads the block when needed and loops until the user quits or aborts.
// Fetch failures and rejected queries are reported and the loop continues
// with the previous cards on display.
func (s *Session) Run(ctx context.Context) error {
	if !s.nav.Snapshot().Loaded {
		if err := s.nav.Load(ctx); err != nil {
			return err
		}
	}

	for {
		if err := s.driver.Info(ctx, Summary(s.nav.Snapshot(), s.nav.Cards())); err != nil {
			return err
		}

		options := s.options()
		choice, err := s.driver.Select(ctx, SelectConfig{
			Message: "Action",
			Options: options,
		})
		if errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		if choice < 0 || choice >= len(options) {
			return fmt.Errorf("prompt: unknown choice %d", choice)
		}

		var stepErr error
		switch options[choice] {
		case ActionNext:
			stepErr = s.nav.Next(ctx)
		case ActionPrevious:
			stepErr = s.nav.Previous(ctx)
		case ActionQuery:
			stepErr = s.editQuery(ctx)
		case ActionQuit:
			return nil
		}
		if errors.Is(stepErr, ErrAborted) {
			return nil
		}
		if stepErr != nil {
			s.logger.Debug("step failed", zap.String("action", options[choice]), zap.Error(stepErr))
			if err := s.driver.Info(ctx, "error: "+stepErr.Error()); err != nil {
				return err
			}
		}
	}
}

func (s *Session) options() []string {
	controls := s.nav.Snapshot().Controls
	var out []string
	if controls.Next {
		out = append(out, ActionNext)
	}
	if controls.Previous {
		out = append(out, ActionPrevious)
	}
	return append(out, ActionQuery, ActionQuit)
}

func (s *Session) editQuery(ctx context.Context) error {
	raw, err := s.driver.TextArea(ctx, TextAreaConfig{
		Message: "Query",
		Default: s.nav.Snapshot().Query,
		Help:    `JSON object with a "filter" key, e.g. {"filter": {"path": "/content/dam"}}`,
		Validator: func(v string) error {
			_, err := query.Parse(v)
			return err
		},
	})
	if err != nil {
		return err
	}
	return s.nav.ApplyQuery(ctx, raw)
}

// Summary renders the cards on display as plain text, one line per card.
func Summary(snap block.Snapshot, cards []block.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d cards", snap.Name, len(cards))
	if snap.Total > 0 {
		fmt.Fprintf(&b, " (offset %d of %d)", snap.Offset, snap.Total)
	}
	for _, card := range cards {
		fmt.Fprintf(&b, "\n  [%s] %s", card.ID, strings.Join(strings.Fields(card.HTML), " "))
	}
	return b.String()
}
