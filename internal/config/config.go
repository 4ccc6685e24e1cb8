// Package config loads the service, credential, and block settings used by
// the CLI and HTTP server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fragments/pkg/block"
	"github.com/goliatone/go-fragments/pkg/client"
	"github.com/goliatone/go-fragments/pkg/query"
)

// Environment variables holding the request credentials.
const (
	EnvTenant  = "FRANKLIN_TENANT"
	EnvPreview = "FRANKLIN_PREVIEW"
	EnvAuth    = "FRANKLIN_AUTH"
)

// Config is the root configuration document. Engine picks the chrome template
// engine: pongo2 (default) or go-template.
type Config struct {
	Service     Service            `yaml:"service" json:"service"`
	Credentials client.Credentials `yaml:"credentials" json:"credentials"`
	Metadata    map[string]string  `yaml:"metadata" json:"metadata"`
	Server      Server             `yaml:"server" json:"server"`
	Theme       *Theme             `yaml:"theme" json:"theme"`
	Engine      string             `yaml:"engine" json:"engine"`
	Blocks      []Block            `yaml:"blocks" json:"blocks"`
}

// Service describes the remote fragment service.
type Service struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	CatalogPath string        `yaml:"catalog_path" json:"catalog_path"`
	ContentHost string        `yaml:"content_host" json:"content_host"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Theme selects the class tokens and CSS variables applied to rendered
// regions.
type Theme struct {
	Name    string            `yaml:"name" json:"name"`
	Variant string            `yaml:"variant" json:"variant"`
	Tokens  map[string]string `yaml:"tokens" json:"tokens"`
	CSSVars map[string]string `yaml:"css_vars" json:"css_vars"`
}

// RendererConfig converts the theme for block rendering.
func (t *Theme) RendererConfig() *theme.RendererConfig {
	if t == nil {
		return nil
	}
	return &theme.RendererConfig{
		Theme:   t.Name,
		Variant: t.Variant,
		Tokens:  t.Tokens,
		CSSVars: t.CSSVars,
	}
}

// Block declares one rendered region. Markup, when set, is parsed like the
// authored block (options row followed by the card template); otherwise
// Options and Template (or TemplateFile) are used directly.
type Block struct {
	Name         string       `yaml:"name" json:"name"`
	Options      string       `yaml:"options" json:"options"`
	Template     string       `yaml:"template" json:"template"`
	TemplateFile string       `yaml:"template_file" json:"template_file"`
	Markup       string       `yaml:"markup" json:"markup"`
	Query        *query.Query `yaml:"query" json:"query"`
	// Escape defaults to true; set false only for trusted content.
	Escape *bool `yaml:"escape" json:"escape"`
}

// Load reads path (YAML or JSON), applies .env files and environment
// credentials, and validates the result. Relative template files resolve
// against the directory of path.
func Load(path string, envFiles ...string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)

	base := filepath.Dir(path)
	for i := range cfg.Blocks {
		b := &cfg.Blocks[i]
		if b.TemplateFile == "" || b.Template != "" {
			continue
		}
		file := b.TemplateFile
		if !filepath.IsAbs(file) {
			file = filepath.Join(base, file)
		}
		tmpl, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("config: block %s: read template: %w", b.Name, err)
		}
		b.Template = string(tmpl)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a configuration document. JSON is tried first, then YAML.
func Parse(data []byte, source string) (*Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("config: %s is empty", source)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err == nil {
		return &cfg, nil
	}
	cfg = Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", source, err)
	}
	return &cfg, nil
}

// ApplyEnv overrides credentials with any values present in the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvTenant); ok {
		c.Credentials.Tenant = v
	}
	if v, ok := lookup(EnvPreview); ok {
		c.Credentials.Mode = v
	}
	if v, ok := lookup(EnvAuth); ok {
		c.Credentials.Auth = v
	}
}

// Validate checks required settings and block names. Every problem found is
// reported.
func (c *Config) Validate() error {
	result := &multierror.Error{}
	if strings.TrimSpace(c.Service.BaseURL) == "" {
		result = multierror.Append(result, errors.New("config: service.base_url is required"))
	}
	switch strings.ToLower(strings.TrimSpace(c.Engine)) {
	case "", block.EnginePongo2, block.EngineGoTemplate:
	default:
		result = multierror.Append(result, fmt.Errorf("config: unknown engine %q", c.Engine))
	}
	seen := make(map[string]struct{}, len(c.Blocks))
	for i, b := range c.Blocks {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			result = multierror.Append(result, fmt.Errorf("config: blocks[%d] has no name", i))
			continue
		}
		if _, dup := seen[name]; dup {
			result = multierror.Append(result, fmt.Errorf("config: duplicate block %q", name))
		}
		seen[name] = struct{}{}
		if b.Markup == "" && b.Template == "" {
			result = multierror.Append(result, fmt.Errorf("config: block %q needs a template or markup", name))
		}
	}
	return result.ErrorOrNil()
}

// ClientConfig builds the fetcher configuration.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		BaseURL:     c.Service.BaseURL,
		CatalogPath: c.Service.CatalogPath,
		Credentials: c.Credentials,
		Timeout:     c.Service.Timeout,
	}
}

// Find returns the named block.
func (c *Config) Find(name string) (Block, bool) {
	for _, b := range c.Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return Block{}, false
}

// Definition converts the block into a block.Definition.
func (b Block) Definition() (block.Definition, error) {
	if strings.TrimSpace(b.Markup) != "" {
		return block.ParseMarkup(b.Name, b.Markup)
	}
	options, err := block.ParseOptions(b.Options)
	if err != nil {
		return block.Definition{}, fmt.Errorf("config: block %s: %w", b.Name, err)
	}
	return block.Definition{Name: b.Name, Options: options, Template: b.Template}, nil
}

// EscapeValues reports whether field values should be HTML escaped.
func (b Block) EscapeValues() bool {
	return b.Escape == nil || *b.Escape
}

func loadEnvFiles(files []string) error {
	var existing []string
	for _, file := range files {
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: stat %s: %w", file, err)
		}
		existing = append(existing, file)
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("config: load env files: %w", err)
	}
	return nil
}
