// Package client fetches pages of fragments from the remote content service.
// Each Fetch issues exactly one authenticated GET; nothing is retried.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/goliatone/go-fragments/pkg/fragment"
	"github.com/goliatone/go-fragments/pkg/paging"
	"github.com/goliatone/go-fragments/pkg/query"
)

const (
	HeaderTenant = "Franklin-Tenant"
	HeaderMode   = "Franklin-Mode"
	HeaderAuth   = "x-edge-authorization"

	DefaultCatalogPath = "/fragments/catalog"
	searchPath         = "/fragments/search"
	modelPath          = "/fragments/models/"
)

// ErrNoQuery is returned for search requests without a query filter. No
// request is sent in that case.
var ErrNoQuery = errors.New("client: search requires a query filter")

// StatusError reports a non-2xx response from the service.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return "client: unexpected status " + e.Status
	}
	return fmt.Sprintf("client: unexpected status %s: %s", e.Status, e.Body)
}

// Endpoint selects one of the service path shapes.
type Endpoint string

const (
	EndpointSearch  Endpoint = "search"
	EndpointCatalog Endpoint = "catalog"
	EndpointModel   Endpoint = "model"
)

// ParseEndpoint maps a configuration value onto an Endpoint. Empty selects
// search.
func ParseEndpoint(raw string) (Endpoint, error) {
	switch Endpoint(strings.ToLower(strings.TrimSpace(raw))) {
	case "", EndpointSearch:
		return EndpointSearch, nil
	case EndpointCatalog:
		return EndpointCatalog, nil
	case EndpointModel:
		return EndpointModel, nil
	default:
		return "", fmt.Errorf("client: unknown endpoint %q", raw)
	}
}

// Credentials carry the tenant, preview mode, and edge authorization values
// attached to every request. Empty values are not sent.
type Credentials struct {
	Tenant string `yaml:"tenant" json:"tenant"`
	Mode   string `yaml:"mode" json:"mode"`
	Auth   string `yaml:"auth" json:"-"`
}

// Config describes the remote service.
type Config struct {
	BaseURL     string
	CatalogPath string
	Credentials Credentials
	// Timeout bounds each request. Zero leaves requests bounded only by the
	// caller's context.
	Timeout time.Duration
}

// Request is one page fetch.
type Request struct {
	Endpoint Endpoint
	Query    query.Query
	// Model names the content model for EndpointModel.
	Model string
	paging.Position
}

// Option configures the client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Client fetches fragment pages.
type Client struct {
	cfg    Config
	rest   *resty.Client
	logger *zap.Logger
}

// New validates cfg and builds a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("client: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("client: invalid base url: %w", err)
	}
	cfg.BaseURL = base
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = DefaultCatalogPath
	}

	var rest *resty.Client
	if o.httpClient != nil {
		rest = resty.NewWithClient(o.httpClient)
	} else {
		rest = resty.New()
	}
	rest.SetBaseURL(base).
		SetHeader("Accept", "application/json").
		SetLogger(o.logger.Sugar())
	if cfg.Timeout > 0 {
		rest.SetTimeout(cfg.Timeout)
	}

	return &Client{cfg: cfg, rest: rest, logger: o.logger}, nil
}

// Fetch requests one page and decodes the payload.
func (c *Client) Fetch(ctx context.Context, req Request) (fragment.Page, error) {
	path, params, err := c.resolve(req)
	if err != nil {
		return fragment.Page{}, err
	}

	r := c.rest.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params)
	creds := c.cfg.Credentials
	if creds.Tenant != "" {
		r.SetHeader(HeaderTenant, creds.Tenant)
	}
	if creds.Mode != "" {
		r.SetHeader(HeaderMode, creds.Mode)
	}
	if creds.Auth != "" {
		r.SetHeader(HeaderAuth, creds.Auth)
	}

	c.logger.Debug("fetch fragments",
		zap.String("path", path),
		zap.String("endpoint", string(req.Endpoint)),
		zap.String("cursor", req.Cursor),
		zap.Int("offset", req.Offset),
	)

	resp, err := r.Get(path)
	if err != nil {
		return fragment.Page{}, fmt.Errorf("client: get %s: %w", path, err)
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		statusErr := &StatusError{
			Code:   resp.StatusCode(),
			Status: resp.Status(),
			Body:   truncate(strings.TrimSpace(resp.String()), 256),
		}
		c.logger.Warn("fragment service returned an error", zap.Int("status", statusErr.Code), zap.String("path", path))
		return fragment.Page{}, statusErr
	}

	var page fragment.Page
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		return fragment.Page{}, fmt.Errorf("client: decode response: %w", err)
	}
	return page, nil
}

func (c *Client) resolve(req Request) (string, url.Values, error) {
	params := url.Values{}

	var path string
	switch req.Endpoint {
	case EndpointSearch, "":
		if err := req.Query.Validate(); err != nil {
			return "", nil, ErrNoQuery
		}
		encoded, err := req.Query.Encode()
		if err != nil {
			return "", nil, err
		}
		params.Set("query", encoded)
		path = searchPath
	case EndpointCatalog:
		path = c.cfg.CatalogPath
	case EndpointModel:
		model := strings.TrimSpace(req.Model)
		if model == "" {
			return "", nil, errors.New("client: model endpoint requires a model")
		}
		path = modelPath + url.PathEscape(model)
	default:
		return "", nil, fmt.Errorf("client: unknown endpoint %q", req.Endpoint)
	}

	if req.ByOffset {
		params.Set("offset", strconv.Itoa(req.Offset))
	} else if req.Cursor != "" {
		params.Set("cursor", req.Cursor)
	}
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}
	return path, params, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
