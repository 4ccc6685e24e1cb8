package fragment

import (
	"strings"

	"github.com/goliatone/go-fragments/pkg/placeholder"
)

// MapOptions configures how record fields become placeholder values.
type MapOptions struct {
	// ContentHost is prefixed to content-reference paths when building image
	// URLs.
	ContentHost string
}

// Map flattens a record into a placeholder mapping. Field types come from
// defs first and fall back to the type carried on the field itself.
func Map(rec Record, defs Definitions, opts MapOptions) placeholder.Mapping {
	mapping := make(placeholder.Mapping, len(rec.Fields)+1)
	if rec.ID != "" {
		mapping["id"] = rec.ID
	}

	for _, field := range rec.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}

		kind := field.Type
		if declared, ok := defs[name]; ok && declared != "" {
			kind = declared
		}

		if kind == TypeContentReference {
			mapping[name] = contentReference(opts.ContentHost, field.Values)
			continue
		}
		mapping[name] = unwrap(field.Values)
	}
	return mapping
}

func contentReference(host string, values []any) any {
	if len(values) == 0 {
		return nil
	}
	path, ok := values[0].(string)
	if !ok || path == "" {
		return nil
	}
	if strings.Contains(path, "://") || host == "" {
		return placeholder.Reference{URL: path}
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return placeholder.Reference{URL: strings.TrimSuffix(host, "/") + path}
}

func unwrap(values []any) any {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	default:
		out := make([]any, len(values))
		copy(out, values)
		return out
	}
}
