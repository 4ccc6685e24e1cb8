package placeholder_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fragments/pkg/placeholder"
)

func TestSubstitute_Formatting(t *testing.T) {
	tests := []struct {
		name     string
		template string
		mapping  placeholder.Mapping
		opts     []placeholder.Option
		want     string
	}{
		{
			name:     "bare tokens with float",
			template: "<name> scored <score>",
			mapping:  placeholder.Mapping{"name": "Ada", "score": 3.5},
			want:     "Ada scored 3.50",
		},
		{
			name:     "escaped tokens",
			template: "<p>&lt;title&gt;</p>",
			mapping:  placeholder.Mapping{"title": "Surf Camp"},
			want:     "<p>Surf Camp</p>",
		},
		{
			name:     "integral float keeps no decimals",
			template: "&lt;days&gt; days",
			mapping:  placeholder.Mapping{"days": float64(3)},
			want:     "3 days",
		},
		{
			name:     "integers pass through",
			template: "&lt;count&gt;",
			mapping:  placeholder.Mapping{"count": 12},
			want:     "12",
		},
		{
			name:     "newlines become line breaks",
			template: "&lt;body&gt;",
			mapping:  placeholder.Mapping{"body": "one\ntwo\r\nthree"},
			want:     "one<br>two<br>three",
		},
		{
			name:     "strings are escaped",
			template: "&lt;body&gt;",
			mapping:  placeholder.Mapping{"body": `<script>alert("x")</script>`},
			want:     "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;",
		},
		{
			name:     "escaping can be disabled",
			template: "&lt;body&gt;",
			mapping:  placeholder.Mapping{"body": "<em>hi</em>\nthere"},
			opts:     []placeholder.Option{placeholder.WithEscaping(false)},
			want:     "<em>hi</em><br>there",
		},
		{
			name:     "img format wraps value",
			template: "&lt;img:photo&gt;",
			mapping:  placeholder.Mapping{"photo": "/content/dam/a.jpg"},
			want:     `<img src="/content/dam/a.jpg">`,
		},
		{
			name:     "img format does not double wrap references",
			template: "&lt;img:photo&gt;",
			mapping:  placeholder.Mapping{"photo": placeholder.Reference{URL: "https://host/a.jpg"}},
			want:     `<img src="https://host/a.jpg">`,
		},
		{
			name:     "reference renders image",
			template: "<photo>",
			mapping:  placeholder.Mapping{"photo": placeholder.Reference{URL: "https://host/a.jpg"}},
			want:     `<img src="https://host/a.jpg">`,
		},
		{
			name:     "markup is trusted",
			template: "&lt;html&gt;",
			mapping:  placeholder.Mapping{"html": placeholder.Markup("<b>bold</b>")},
			want:     "<b>bold</b>",
		},
		{
			name:     "raw format sanitises",
			template: "&lt;raw:body&gt;",
			mapping:  placeholder.Mapping{"body": `<b>ok</b><script>alert(1)</script>`},
			want:     "<b>ok</b>",
		},
		{
			name:     "nil renders empty",
			template: "[&lt;gone&gt;]",
			mapping:  placeholder.Mapping{"gone": nil},
			want:     "[]",
		},
		{
			name:     "lists are joined",
			template: "&lt;tags&gt;",
			mapping:  placeholder.Mapping{"tags": []any{"surf", 1.25}},
			want:     "surf, 1.25",
		},
		{
			name:     "missing escaped token dropped by default",
			template: "a&lt;missing&gt;b",
			mapping:  placeholder.Mapping{},
			want:     "ab",
		},
		{
			name:     "missing escaped token kept when literal",
			template: "a&lt;missing&gt;b",
			mapping:  placeholder.Mapping{},
			opts:     []placeholder.Option{placeholder.WithMissing(placeholder.MissingLiteral)},
			want:     "a&lt;missing&gt;b",
		},
		{
			name:     "bare markup untouched",
			template: "<p><name><br></p>",
			mapping:  placeholder.Mapping{"name": "Ada"},
			want:     "<p>Ada<br></p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := placeholder.Substitute(tt.template, tt.mapping, tt.opts...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("substitute mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatNumber_TwoDecimals(t *testing.T) {
	twoDecimals := regexp.MustCompile(`^-?\d+\.\d{2}$`)
	for _, value := range []float64{0.1, 1.005, 3.14159, -2.5, 1234.5678, 0.001} {
		got := placeholder.FormatNumber(value)
		if !twoDecimals.MatchString(got) {
			t.Fatalf("FormatNumber(%v) = %q, want two decimals", value, got)
		}
	}
}

func TestSubstitute_NoTokenLeftWhenMapped(t *testing.T) {
	template := "&lt;a&gt; <b> &lt;img:c&gt;"
	mapping := placeholder.Mapping{"a": "x", "b": "y", "c": "/z.png"}

	got := placeholder.Substitute(template, mapping)
	for _, literal := range []string{"&lt;a&gt;", "<b>", "&lt;img:c&gt;"} {
		if strings.Contains(got, literal) {
			t.Fatalf("output %q still contains %q", got, literal)
		}
	}
}

func TestParseAndNames(t *testing.T) {
	template := "&lt;title&gt; <div>&lt;img:photo&gt; &lt;title&gt;</div>"

	tokens := placeholder.Parse(template)
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d: %+v", len(tokens), tokens)
	}
	if tokens[2].Format != "img" || tokens[2].Name != "photo" || !tokens[2].Escaped {
		t.Fatalf("unexpected img token: %+v", tokens[2])
	}
	if tokens[1].Escaped || tokens[1].Name != "div" {
		t.Fatalf("unexpected bare token: %+v", tokens[1])
	}

	if diff := cmp.Diff([]string{"title", "photo"}, placeholder.Names(template)); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMissingPolicy(t *testing.T) {
	policy, err := placeholder.ParseMissingPolicy("Literal")
	if err != nil || policy != placeholder.MissingLiteral {
		t.Fatalf("expected literal policy, got %v (%v)", policy, err)
	}
	if _, err := placeholder.ParseMissingPolicy("bogus"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
