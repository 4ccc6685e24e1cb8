package fragment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// TypeContentReference marks fields whose value is a path to an image asset.
const TypeContentReference = "content-reference"

// Field is a single named value list on a fragment record.
type Field struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Values []any  `json:"values,omitempty"`
}

// Record is one remotely stored fragment, rendered as one card.
type Record struct {
	ID     string  `json:"id"`
	Fields []Field `json:"fields"`
}

// Definition declares the type of a field name for a page of records.
type Definition struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Definitions is the lookup built from a definition list.
type Definitions map[string]string

// NewDefinitions converts the side definitions list into a lookup table.
func NewDefinitions(defs []Definition) Definitions {
	if len(defs) == 0 {
		return nil
	}
	out := make(Definitions, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			continue
		}
		out[def.Name] = def.Type
	}
	return out
}

// Page is one fetched page of records.
type Page struct {
	Items       []Record     `json:"items"`
	Limit       int          `json:"limit,omitempty"`
	Offset      int          `json:"offset,omitempty"`
	Total       int          `json:"total,omitempty"`
	Cursor      string       `json:"cursor,omitempty"`
	Definitions []Definition `json:"definitions,omitempty"`
	// HasTotal reports whether the server sent a total counter.
	HasTotal bool `json:"-"`
}

// Lookup returns the definitions table for the page.
func (p Page) Lookup() Definitions {
	return NewDefinitions(p.Definitions)
}

// Last returns the final record on the page.
func (p Page) Last() (Record, bool) {
	if len(p.Items) == 0 {
		return Record{}, false
	}
	return p.Items[len(p.Items)-1], true
}

// UnmarshalJSON accepts both the structured record shape
// ({"id": ..., "fields": [{"name", "type", "values"}]}) and the flat shape
// served by the catalog and model endpoints ({"id": ..., "title": ...}).
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("fragment: decode record: %w", err)
	}

	*r = Record{}
	if id, ok := raw["id"]; ok {
		r.ID = decodeID(id)
	}

	if fields, ok := raw["fields"]; ok && isJSONArray(fields) {
		if err := json.Unmarshal(fields, &r.Fields); err != nil {
			return fmt.Errorf("fragment: decode record fields: %w", err)
		}
		return nil
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		if name == "id" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, err := decodeValue(raw[name])
		if err != nil {
			return fmt.Errorf("fragment: decode field %q: %w", name, err)
		}
		field := Field{Name: name}
		if list, ok := value.([]any); ok {
			field.Values = list
		} else {
			field.Values = []any{value}
		}
		r.Fields = append(r.Fields, field)
	}
	return nil
}

// UnmarshalJSON accepts an object carrying items plus optional counters, or a
// bare array of records.
func (p *Page) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*p = Page{}
	if isJSONArray(trimmed) {
		if err := json.Unmarshal(trimmed, &p.Items); err != nil {
			return fmt.Errorf("fragment: decode page items: %w", err)
		}
		return nil
	}

	type pageAlias struct {
		Items       []Record     `json:"items"`
		Limit       int          `json:"limit"`
		Offset      int          `json:"offset"`
		Total       *int         `json:"total"`
		Cursor      string       `json:"cursor"`
		Definitions []Definition `json:"definitions"`
	}
	var alias pageAlias
	if err := json.Unmarshal(trimmed, &alias); err != nil {
		return fmt.Errorf("fragment: decode page: %w", err)
	}
	p.Items = alias.Items
	p.Limit = alias.Limit
	p.Offset = alias.Offset
	p.Cursor = alias.Cursor
	p.Definitions = alias.Definitions
	if alias.Total != nil {
		p.Total = *alias.Total
		p.HasTotal = true
	}
	return nil
}

func decodeID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(bytes.TrimSpace(raw))
}

func decodeValue(raw json.RawMessage) (any, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func isJSONArray(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}
