package query_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fragments/pkg/query"
)

func TestQuery_EncodeRoundTrip(t *testing.T) {
	q := query.New("/content/dam/wknd-shared", "L2NvbmYvd2tuZA")
	q.Filter.Extra = map[string]any{"tags": []any{"surf"}}

	encoded, err := q.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"filter":{"modelIds":["L2NvbmYvd2tuZA"],"path":"/content/dam/wknd-shared","tags":["surf"]}}`
	if encoded != want {
		t.Fatalf("unexpected encoding:\n got %s\nwant %s", encoded, want)
	}

	parsed, err := query.Parse(encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(q, parsed); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := query.Parse(`{"filter": `); err == nil {
		t.Fatalf("expected syntax error")
	}
	if _, err := query.Parse(`{}`); !errors.Is(err, query.ErrMissingFilter) {
		t.Fatalf("expected ErrMissingFilter, got %v", err)
	}
	if _, err := query.Parse(`{"filter": {"path": 3}}`); err == nil {
		t.Fatalf("expected type error for path")
	}
}

func TestQuery_WithPathDoesNotMutate(t *testing.T) {
	original := query.New("/a")
	updated := original.WithPath("/b")
	if original.Filter.Path != "/a" || updated.Filter.Path != "/b" {
		t.Fatalf("unexpected paths: %q %q", original.Filter.Path, updated.Filter.Path)
	}
}

func TestParse_KeepsTopLevelKeys(t *testing.T) {
	parsed, err := query.Parse(`{"filter": {"path": "/content"}, "sort": [{"on": "title"}], "limit": 4}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]any{"sort": []any{map[string]any{"on": "title"}}, "limit": float64(4)}
	if diff := cmp.Diff(want, parsed.Extra); diff != "" {
		t.Fatalf("extra mismatch (-want +got):\n%s", diff)
	}

	encoded, err := parsed.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if encoded != `{"filter":{"path":"/content"},"limit":4,"sort":[{"on":"title"}]}` {
		t.Fatalf("unexpected encoding: %s", encoded)
	}
}
