// Package query models the filter sent to the fragment search endpoint.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingFilter is returned when a query carries no filter.
var ErrMissingFilter = errors.New("query: filter is required")

// Filter narrows the fragment search by repository path and content model.
type Filter struct {
	Path     string         `json:"path,omitempty" yaml:"path,omitempty"`
	ModelIDs []string       `json:"modelIds,omitempty" yaml:"modelIds,omitempty"`
	Extra    map[string]any `json:"-" yaml:"extra,omitempty"`
}

// Query is the search payload. It is opaque to the renderer beyond Validate.
// Top level keys other than filter are kept in Extra.
type Query struct {
	Filter *Filter        `json:"filter,omitempty" yaml:"filter,omitempty"`
	Extra  map[string]any `json:"-" yaml:"extra,omitempty"`
}

// MarshalJSON inlines Extra keys next to filter.
func (q Query) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(q.Extra)+1)
	for key, value := range q.Extra {
		out[key] = value
	}
	if q.Filter != nil {
		out["filter"] = q.Filter
	}
	return json.Marshal(out)
}

// UnmarshalJSON keeps unknown top level keys in Extra.
func (q *Query) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = Query{}
	for key, value := range raw {
		if key == "filter" {
			if err := json.Unmarshal(value, &q.Filter); err != nil {
				return err
			}
			continue
		}
		var decoded any
		if err := json.Unmarshal(value, &decoded); err != nil {
			return err
		}
		if q.Extra == nil {
			q.Extra = make(map[string]any)
		}
		q.Extra[key] = decoded
	}
	return nil
}

// MarshalJSON inlines Extra keys next to path and modelIds.
func (f Filter) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Extra)+2)
	for key, value := range f.Extra {
		out[key] = value
	}
	if f.Path != "" {
		out["path"] = f.Path
	}
	if len(f.ModelIDs) > 0 {
		out["modelIds"] = f.ModelIDs
	}
	return json.Marshal(out)
}

// UnmarshalJSON keeps unknown filter keys in Extra.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Filter{}
	for key, value := range raw {
		switch key {
		case "path":
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("query: filter path must be a string")
			}
			f.Path = s
		case "modelIds":
			list, ok := value.([]any)
			if !ok {
				return fmt.Errorf("query: filter modelIds must be a list")
			}
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("query: filter modelIds must contain strings")
				}
				f.ModelIDs = append(f.ModelIDs, s)
			}
		default:
			if f.Extra == nil {
				f.Extra = make(map[string]any)
			}
			f.Extra[key] = value
		}
	}
	return nil
}

// New builds a query for a repository path and optional model ids.
func New(path string, modelIDs ...string) Query {
	return Query{Filter: &Filter{Path: path, ModelIDs: modelIDs}}
}

// Parse decodes a user supplied JSON query.
func Parse(raw string) (Query, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Query{}, ErrMissingFilter
	}
	var q Query
	if err := json.Unmarshal([]byte(trimmed), &q); err != nil {
		return Query{}, fmt.Errorf("query: parse: %w", err)
	}
	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Validate reports whether the query can be sent.
func (q Query) Validate() error {
	if q.Filter == nil {
		return ErrMissingFilter
	}
	return nil
}

// WithPath returns a copy of q whose filter path is replaced.
func (q Query) WithPath(path string) Query {
	var filter Filter
	if q.Filter != nil {
		filter = *q.Filter
	}
	filter.Path = path
	q.Filter = &filter
	return q
}

// Encode serialises the query as compact JSON. Callers place it in the
// query parameter, which takes care of URL escaping.
func (q Query) Encode() (string, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("query: encode: %w", err)
	}
	return string(data), nil
}

// String renders the query as indented JSON, used to seed the query editor.
func (q Query) String() string {
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
