package placeholder

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Mapping resolves placeholder names to display values.
type Mapping map[string]any

// Markup is trusted HTML inserted without escaping.
type Markup string

// Reference points at an image asset. It always renders as an <img> tag.
type Reference struct {
	URL string
}

// MissingPolicy decides what happens to escaped tokens without a mapping entry.
type MissingPolicy int

const (
	// MissingEmpty drops the token from the output.
	MissingEmpty MissingPolicy = iota
	// MissingLiteral leaves the token text in place.
	MissingLiteral
)

// ParseMissingPolicy maps the textual block option onto a policy.
func ParseMissingPolicy(raw string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "empty", "drop":
		return MissingEmpty, nil
	case "literal", "keep":
		return MissingLiteral, nil
	default:
		return MissingEmpty, fmt.Errorf("placeholder: unknown missing policy %q", raw)
	}
}

func (p MissingPolicy) String() string {
	if p == MissingLiteral {
		return "literal"
	}
	return "empty"
}

const (
	FormatImage = "img"
	FormatRaw   = "raw"
)

// Option configures a substitution run.
type Option func(*options)

type options struct {
	missing  MissingPolicy
	escape   bool
	sanitize *bluemonday.Policy
}

// WithMissing selects the policy applied to unresolved escaped tokens.
func WithMissing(policy MissingPolicy) Option {
	return func(o *options) {
		o.missing = policy
	}
}

// WithEscaping toggles HTML escaping of string values. Disable only for
// sources whose field values are already trusted markup.
func WithEscaping(enabled bool) Option {
	return func(o *options) {
		o.escape = enabled
	}
}

// WithSanitizer overrides the policy applied to raw: tokens.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(o *options) {
		if policy != nil {
			o.sanitize = policy
		}
	}
}

// Substitute replaces every token in template with the formatted mapping value.
func Substitute(template string, mapping Mapping, opts ...Option) string {
	cfg := options{missing: MissingEmpty, escape: true}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.sanitize == nil {
		cfg.sanitize = rawSanitizer()
	}

	tokens := Parse(template)
	if len(tokens) == 0 {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))
	last := 0
	for _, tok := range tokens {
		b.WriteString(template[last:tok.Start])
		last = tok.End

		value, ok := mapping[tok.Name]
		if !ok {
			if tok.Escaped && cfg.missing == MissingEmpty {
				continue
			}
			b.WriteString(tok.Literal)
			continue
		}
		b.WriteString(formatValue(tok.Format, value, cfg))
	}
	b.WriteString(template[last:])
	return b.String()
}

func formatValue(format string, value any, cfg options) string {
	switch strings.ToLower(format) {
	case FormatImage:
		if ref, ok := value.(Reference); ok {
			return imageTag(ref.URL)
		}
		return imageTag(plainText(value))
	case FormatRaw:
		return strings.TrimSpace(cfg.sanitize.Sanitize(plainText(value)))
	}

	switch v := value.(type) {
	case nil:
		return ""
	case Markup:
		return string(v)
	case Reference:
		return imageTag(v.URL)
	case string:
		return formatString(v, cfg.escape)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatValue("", item, cfg))
		}
		return strings.Join(parts, ", ")
	case []string:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatString(item, cfg.escape))
		}
		return strings.Join(parts, ", ")
	}

	if f, ok := asFloat(value); ok {
		return FormatNumber(f)
	}
	return formatString(fmt.Sprint(value), cfg.escape)
}

// FormatNumber renders non-integer values with exactly two decimals and
// integral values without a fractional part.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if math.Mod(f, 1) != 0 {
		return strconv.FormatFloat(f, 'f', 2, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatString(s string, escape bool) string {
	if escape {
		s = html.EscapeString(s)
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func imageTag(src string) string {
	return `<img src="` + html.EscapeString(src) + `">`
}

func plainText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case Markup:
		return string(v)
	case Reference:
		return v.URL
	}
	if f, ok := asFloat(value); ok {
		return FormatNumber(f)
	}
	return fmt.Sprint(value)
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

var (
	rawPolicyOnce sync.Once
	rawPolicy     *bluemonday.Policy
)

func rawSanitizer() *bluemonday.Policy {
	rawPolicyOnce.Do(func() {
		rawPolicy = bluemonday.UGCPolicy()
	})
	return rawPolicy
}
