// Package server exposes configured blocks over HTTP. Each block renders as
// an HTML region whose navigation and query controls post back to the
// routes below, which re-render the region.
//
// Every block is a single shared region: all clients page the same state.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-fragments/pkg/block"
)

const (
	DefaultAddr    = ":8080"
	defaultTimeout = 15 * time.Second
	healthPath     = "/healthz"
)

type contextKey int

const contextKeyBlock contextKey = iota

// APIError is the JSON body written for failed requests.
type APIError struct {
	Block string `json:"block,omitempty"`
	Error string `json:"error"`
}

// Option configures a Server.
type Option func(*Server)

// WithLogger attaches a logger used for request and failure logging.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTheme supplies the theme tokens and CSS variables applied to every
// rendered region.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(s *Server) {
		s.theme = cfg
	}
}

// WithTimeout bounds each request, including the upstream fetch.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// Server routes requests to blocks by name.
type Server struct {
	blocks  map[string]*block.Block
	logger  *zap.Logger
	theme   *theme.RendererConfig
	timeout time.Duration
}

// New registers blocks under their names. Names must be unique.
func New(blocks []*block.Block, opts ...Option) (*Server, error) {
	s := &Server{
		blocks:  make(map[string]*block.Block, len(blocks)),
		logger:  zap.NewNop(),
		timeout: defaultTimeout,
	}
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if _, dup := s.blocks[b.Name()]; dup {
			return nil, fmt.Errorf("server: duplicate block %q", b.Name())
		}
		s.blocks[b.Name()] = b
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat(healthPath))
	router.Use(middleware.Timeout(s.timeout))

	router.Get("/blocks", s.listBlocks)
	router.Route("/blocks/{name}", func(r chi.Router) {
		r.Use(s.resolveBlock)
		r.Get("/", s.showBlock)
		r.Get("/state", s.showState)
		r.Post("/next", s.navigate(func(ctx context.Context, b *block.Block) error { return b.Next(ctx) }))
		r.Post("/previous", s.navigate(func(ctx context.Context, b *block.Block) error { return b.Previous(ctx) }))
		r.Post("/query", s.applyQuery)
	})
	return router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr), zap.Int("blocks", len(s.blocks)))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) resolveBlock(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		b, ok := s.blocks[name]
		if !ok {
			s.writeError(w, r, name, http.StatusNotFound, fmt.Errorf("server: unknown block %q", name))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyBlock, b)))
	})
}

func blockFrom(r *http.Request) *block.Block {
	b, ok := r.Context().Value(contextKeyBlock).(*block.Block)
	if !ok {
		panic("missing required block")
	}
	return b
}

func (s *Server) listBlocks(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.blocks))
	for name := range s.blocks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]block.Snapshot, 0, len(names))
	for _, name := range names {
		out = append(out, s.blocks[name].Snapshot())
	}
	render.JSON(w, r, out)
}

func (s *Server) showBlock(w http.ResponseWriter, r *http.Request) {
	b := blockFrom(r)
	if !b.Snapshot().Loaded {
		if err := b.Load(r.Context()); err != nil {
			s.writeError(w, r, b.Name(), statusFor(err), err)
			return
		}
	}
	s.renderRegion(w, r, b)
}

func (s *Server) showState(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, blockFrom(r).Snapshot())
}

func (s *Server) navigate(step func(context.Context, *block.Block) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := blockFrom(r)
		if err := step(r.Context(), b); err != nil {
			s.writeError(w, r, b.Name(), statusFor(err), err)
			return
		}
		s.renderRegion(w, r, b)
	}
}

func (s *Server) applyQuery(w http.ResponseWriter, r *http.Request) {
	b := blockFrom(r)
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, b.Name(), http.StatusBadRequest, fmt.Errorf("server: parse form: %w", err))
		return
	}
	if err := b.ApplyQuery(r.Context(), r.PostForm.Get("query")); err != nil {
		s.writeError(w, r, b.Name(), statusFor(err), err)
		return
	}
	s.renderRegion(w, r, b)
}

func (s *Server) renderRegion(w http.ResponseWriter, r *http.Request, b *block.Block) {
	out, err := b.Render(r.Context(), block.RenderOptions{
		Actions: Actions(b.Name()),
		Theme:   s.theme,
	})
	if err != nil {
		s.writeError(w, r, b.Name(), http.StatusInternalServerError, err)
		return
	}
	render.HTML(w, r, string(out))
}

// Actions returns the control URLs for the named block.
func Actions(name string) block.Actions {
	base := "/blocks/" + url.PathEscape(name)
	return block.Actions{
		Previous: base + "/previous",
		Next:     base + "/next",
		Query:    base + "/query",
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, block.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, block.ErrNoPage), errors.Is(err, block.ErrSuperseded):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, name string, status int, err error) {
	logger := s.logger.With(zap.String("block", name), zap.Int("status", status))
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.Error(err))
	}
	render.Status(r, status)
	render.JSON(w, r, APIError{Block: name, Error: err.Error()})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
