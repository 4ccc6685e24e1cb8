package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fragments/pkg/client"
	"github.com/goliatone/go-fragments/pkg/fragment"
)

// LoadPage reads a service response fixture into a fragment.Page. Testing
// helpers fail the test on error to keep table setup short.
func LoadPage(t *testing.T, path string) fragment.Page {
	t.Helper()

	page, err := LoadPageFromPath(path)
	if err != nil {
		t.Fatalf("load page: %v", err)
	}
	return page
}

// LoadPageFromPath decodes a page fixture without requiring testing.T.
func LoadPageFromPath(path string) (fragment.Page, error) {
	if path == "" {
		return fragment.Page{}, errors.New("testsupport: page path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fragment.Page{}, fmt.Errorf("testsupport: read page: %w", err)
	}
	var page fragment.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return fragment.Page{}, fmt.Errorf("testsupport: unmarshal page: %w", err)
	}
	return page, nil
}

// Fetcher serves queued pages in order and records every request. Once the
// queue drains it returns empty pages. Err, when set, fails every fetch.
type Fetcher struct {
	mu       sync.Mutex
	pages    []fragment.Page
	requests []client.Request
	Err      error
}

// NewFetcher queues pages for successive fetches.
func NewFetcher(pages ...fragment.Page) *Fetcher {
	return &Fetcher{pages: pages}
}

// Fetch implements the block fetcher contract.
func (f *Fetcher) Fetch(_ context.Context, req client.Request) (fragment.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.Err != nil {
		return fragment.Page{}, f.Err
	}
	if len(f.pages) == 0 {
		return fragment.Page{}, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

// Enqueue appends pages to the queue.
func (f *Fetcher) Enqueue(pages ...fragment.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, pages...)
}

// Requests returns a copy of the recorded requests.
func (f *Fetcher) Requests() []client.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]client.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// MustLoadGolden decodes a JSON golden file into out.
func MustLoadGolden(t *testing.T, path string, out any) {
	t.Helper()

	if err := json.Unmarshal(MustReadGolden(t, path), out); err != nil {
		t.Fatalf("unmarshal golden %s: %v", path, err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
