package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/goliatone/go-fragments/internal/config"
	"github.com/goliatone/go-fragments/pkg/block"
	"github.com/goliatone/go-fragments/pkg/client"
	"github.com/goliatone/go-fragments/pkg/fragment"
	"github.com/goliatone/go-fragments/pkg/paging"
	"github.com/goliatone/go-fragments/pkg/testsupport"
)

func TestLoad_YAMLWithTemplateFileAndEnv(t *testing.T) {
	t.Setenv(config.EnvAuth, "secret-token")
	t.Cleanup(func() { os.Unsetenv(config.EnvTenant) })

	cfg, err := config.Load(filepath.Join("testdata", "fragments.yaml"), filepath.Join("testdata", "test.env"), filepath.Join("testdata", "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Service.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", cfg.Service.Timeout)
	}
	want := client.Credentials{Tenant: "from-env", Mode: "live", Auth: "secret-token"}
	if diff := cmp.Diff(want, cfg.Credentials); diff != "" {
		t.Fatalf("credentials mismatch (-want +got):\n%s", diff)
	}

	adventures, ok := cfg.Find("adventures")
	if !ok {
		t.Fatalf("expected adventures block")
	}
	if !strings.Contains(adventures.Template, "&lt;primaryImage&gt;") {
		t.Fatalf("expected template file contents, got %q", adventures.Template)
	}

	clientCfg := cfg.ClientConfig()
	if clientCfg.BaseURL != cfg.Service.BaseURL || clientCfg.Credentials.Auth != "secret-token" {
		t.Fatalf("unexpected client config: %+v", clientCfg)
	}
}

func TestConfig_NewBlocks(t *testing.T) {
	cfg, err := config.Load(filepath.Join("testdata", "fragments.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	c, err := client.New(cfg.ClientConfig())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	blocks, err := cfg.NewBlocks(c, zap.NewNop())
	if err != nil {
		t.Fatalf("new blocks: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}

	settings := blocks[1].Settings()
	if settings.Endpoint != client.EndpointCatalog || settings.Pagination != paging.KindOffset || settings.Limit != 4 {
		t.Fatalf("unexpected catalog settings: %+v", settings)
	}

	snap := blocks[0].Snapshot()
	if !strings.Contains(snap.Query, "/content/dam/wknd-shared") {
		t.Fatalf("expected metadata path in query, got %q", snap.Query)
	}

	if _, err := cfg.NewBlock("nope", c, nil); err == nil {
		t.Fatalf("expected error for unknown block")
	}
}

func TestValidate(t *testing.T) {
	cfg, err := config.Parse([]byte(`{"engine": "mustache", "blocks": [{"name": "a"}, {"name": "a", "template": "x"}, {}]}`), "inline")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, fragment := range []string{"base_url is required", "needs a template", "duplicate block", "blocks[2] has no name", `unknown engine "mustache"`} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %v", fragment, err)
		}
	}

	if _, err := config.Parse([]byte("  "), "blank"); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

func TestConfig_GoTemplateEngine(t *testing.T) {
	cfg, err := config.Parse([]byte(`
engine: go-template
service:
  base_url: http://fragments.test
blocks:
  - name: teasers
    options: path=/content, limit=2
    template: "<h3>&lt;title&gt;</h3>"
`), "inline")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	fetcher := testsupport.NewFetcher(fragment.Page{Items: []fragment.Record{
		{ID: "a", Fields: []fragment.Field{{Name: "title", Values: []any{"Alps"}}}},
	}})
	b, err := cfg.NewBlock("teasers", fetcher, zap.NewNop())
	if err != nil {
		t.Fatalf("new block: %v", err)
	}
	ctx := testsupport.Context()
	if err := b.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	out, err := b.Render(ctx, block.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{`<div class="nav">`, `<div class="card break" data-id="a"><h3>Alps</h3></div>`} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
