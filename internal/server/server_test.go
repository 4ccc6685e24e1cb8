package server_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fragments/internal/server"
	"github.com/goliatone/go-fragments/pkg/block"
	"github.com/goliatone/go-fragments/pkg/client"
	"github.com/goliatone/go-fragments/pkg/fragment"
	"github.com/goliatone/go-fragments/pkg/paging"
	"github.com/goliatone/go-fragments/pkg/testsupport"
)

func page(prefix string, n int) fragment.Page {
	items := make([]fragment.Record, n)
	for i := range items {
		items[i] = fragment.Record{
			ID:     fmt.Sprintf("%s-%d", prefix, i),
			Fields: []fragment.Field{{Name: "title", Values: []any{fmt.Sprintf("%s %d", prefix, i)}}},
		}
	}
	return fragment.Page{Items: items}
}

func newServer(t *testing.T, fetcher *testsupport.Fetcher) *httptest.Server {
	t.Helper()

	b, err := block.New(block.Definition{
		Name:     "adventures",
		Options:  map[string]string{"path": "/content/dam", "limit": "4", "editor": "true"},
		Template: "<h3>&lt;title&gt;</h3>",
	}, fetcher)
	if err != nil {
		t.Fatalf("new block: %v", err)
	}
	srv, err := server.New([]*block.Block{b})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, target string, form url.Values) (*http.Response, string) {
	t.Helper()

	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(data)
}

func TestServer_Healthz(t *testing.T) {
	ts := newServer(t, testsupport.NewFetcher())
	resp, _ := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestServer_ShowBlockLoadsOnce(t *testing.T) {
	fetcher := testsupport.NewFetcher(page("p1", 4))
	ts := newServer(t, fetcher)

	for i := 0; i < 2; i++ {
		resp, body := do(t, http.MethodGet, ts.URL+"/blocks/adventures", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
		}
		if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
			t.Fatalf("expected html, got %q", resp.Header.Get("Content-Type"))
		}
		if strings.Count(body, "data-id=") != 4 {
			t.Fatalf("expected 4 cards:\n%s", body)
		}
		for _, want := range []string{
			`<div class="nav">`,
			`action="/blocks/adventures/next"`,
			`<form class="query-editor" method="post" action="/blocks/adventures/query">`,
			`<div class="cards">`,
		} {
			if !strings.Contains(body, want) {
				t.Fatalf("expected body to contain %q:\n%s", want, body)
			}
		}
	}
	if got := len(fetcher.Requests()); got != 1 {
		t.Fatalf("expected a single fetch, got %d", got)
	}
}

func TestServer_Navigation(t *testing.T) {
	fetcher := testsupport.NewFetcher(page("p1", 4), page("p2", 2))
	ts := newServer(t, fetcher)

	if resp, body := do(t, http.MethodGet, ts.URL+"/blocks/adventures", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("load: %d %s", resp.StatusCode, body)
	}
	resp, body := do(t, http.MethodPost, ts.URL+"/blocks/adventures/previous", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on first page, got %d", resp.StatusCode)
	}
	var apiErr server.APIError
	if err := json.Unmarshal([]byte(body), &apiErr); err != nil || apiErr.Block != "adventures" {
		t.Fatalf("expected json error body, got %q (%v)", body, err)
	}

	resp, body = do(t, http.MethodPost, ts.URL+"/blocks/adventures/next", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("next: %d %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, `data-id="p2-1"`) {
		t.Fatalf("expected second page cards:\n%s", body)
	}
	if got := fetcher.Requests()[1].Cursor; got != "p1-3" {
		t.Fatalf("expected cursor p1-3, got %q", got)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/blocks/adventures/state", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("state: %d", resp.StatusCode)
	}
	var snap block.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if diff := cmp.Diff(paging.Controls{Previous: true, Next: false}, snap.Controls); diff != "" {
		t.Fatalf("controls mismatch (-want +got):\n%s", diff)
	}
	if snap.Cards != 2 || !snap.Loaded {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestServer_Query(t *testing.T) {
	fetcher := testsupport.NewFetcher(page("p1", 1), page("q", 1))
	ts := newServer(t, fetcher)

	if resp, _ := do(t, http.MethodGet, ts.URL+"/blocks/adventures", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("load failed")
	}

	resp, _ := do(t, http.MethodPost, ts.URL+"/blocks/adventures/query", url.Values{"query": {`{"filter": `}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed query, got %d", resp.StatusCode)
	}

	resp, body := do(t, http.MethodPost, ts.URL+"/blocks/adventures/query", url.Values{"query": {`{"filter": {"path": "/content/other"}}`}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply query: %d %s", resp.StatusCode, body)
	}
	reqs := fetcher.Requests()
	if len(reqs) != 2 || reqs[1].Query.Filter.Path != "/content/other" {
		t.Fatalf("unexpected requests: %+v", reqs)
	}
	if !strings.Contains(body, "/content/other") {
		t.Fatalf("expected editor to show the applied query:\n%s", body)
	}
}

func TestServer_UpstreamFailure(t *testing.T) {
	fetcher := testsupport.NewFetcher()
	fetcher.Err = &client.StatusError{Code: http.StatusServiceUnavailable, Status: "503 Service Unavailable"}
	ts := newServer(t, fetcher)

	resp, _ := do(t, http.MethodGet, ts.URL+"/blocks/adventures", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestServer_UnknownBlock(t *testing.T) {
	ts := newServer(t, testsupport.NewFetcher())

	resp, _ := do(t, http.MethodGet, ts.URL+"/blocks/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestServer_ListBlocks(t *testing.T) {
	ts := newServer(t, testsupport.NewFetcher())

	resp, body := do(t, http.MethodGet, ts.URL+"/blocks", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var snaps []block.Snapshot
	if err := json.Unmarshal([]byte(body), &snaps); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Name != "adventures" || snaps[0].Loaded {
		t.Fatalf("unexpected blocks: %+v", snaps)
	}
}

func TestNew_DuplicateBlocks(t *testing.T) {
	fetcher := testsupport.NewFetcher()
	def := block.Definition{Name: "dup", Template: "x"}
	a, err := block.New(def, fetcher)
	if err != nil {
		t.Fatalf("new block: %v", err)
	}
	b, err := block.New(def, fetcher)
	if err != nil {
		t.Fatalf("new block: %v", err)
	}
	if _, err := server.New([]*block.Block{a, b}); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestActions(t *testing.T) {
	got := server.Actions("my block")
	want := block.Actions{
		Previous: "/blocks/my%20block/previous",
		Next:     "/blocks/my%20block/next",
		Query:    "/blocks/my%20block/query",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
}
