package fragments_test

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	fragments "github.com/goliatone/go-fragments"
	"github.com/goliatone/go-fragments/pkg/client"
)

func TestRenderHTML(t *testing.T) {
	var gotTenant, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fragments/search" {
			http.NotFound(w, r)
			return
		}
		gotTenant = r.Header.Get(client.HeaderTenant)
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [{"id": "a", "title": "Surf\nCamp", "price": 3.5}]}`))
	}))
	t.Cleanup(srv.Close)

	def, err := fragments.ParseMarkup("adventures", `
<div><div>path=/content/dam, limit=4</div></div>
<div><div><h3>&lt;title&gt;</h3><p>&lt;price&gt;</p></div></div>`)
	if err != nil {
		t.Fatalf("parse markup: %v", err)
	}

	out, err := fragments.RenderHTML(context.Background(), def, client.Config{
		BaseURL:     srv.URL,
		Credentials: fragments.Credentials{Tenant: "wknd"},
	}, fragments.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	html := string(out)
	if !strings.Contains(html, `<h3>Surf<br>Camp</h3><p>3.50</p>`) {
		t.Fatalf("unexpected region:\n%s", html)
	}
	if gotTenant != "wknd" {
		t.Fatalf("expected tenant header, got %q", gotTenant)
	}
	if !strings.Contains(gotQuery, `"path":"/content/dam"`) {
		t.Fatalf("expected query parameter to carry the path, got %q", gotQuery)
	}
}

func TestNewBlock_InvalidConfig(t *testing.T) {
	if _, err := fragments.NewBlock(fragments.Definition{Name: "x"}, client.Config{}); err == nil {
		t.Fatalf("expected error for missing base url")
	}
}

func TestTemplatesFS(t *testing.T) {
	for _, name := range []string{"templates/block.tmpl", "templates/nav.tmpl", "templates/editor.tmpl"} {
		if _, err := fs.Stat(fragments.TemplatesFS(), name); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}
