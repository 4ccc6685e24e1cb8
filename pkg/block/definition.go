package block

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-fragments/pkg/client"
	"github.com/goliatone/go-fragments/pkg/paging"
	"github.com/goliatone/go-fragments/pkg/placeholder"
	"github.com/goliatone/go-fragments/pkg/query"
)

// Option keys understood in the block options row.
const (
	OptionEndpoint   = "endpoint"
	OptionPath       = "path"
	OptionModels     = "models"
	OptionModel      = "model"
	OptionLimit      = "limit"
	OptionPagination = "pagination"
	OptionEditor     = "editor"
	OptionMissing    = "missing"
)

// Definition is the authored block: a name, its options row, and the card
// template.
type Definition struct {
	Name     string
	Options  map[string]string
	Template string
}

// Settings are the typed values derived from a definition's options.
type Settings struct {
	Endpoint   client.Endpoint
	Query      query.Query
	Model      string
	Limit      int
	Pagination paging.Kind
	Editor     bool
	Missing    placeholder.MissingPolicy
}

// ParseOptions splits a "key=value, key=value" row. Keys are case
// insensitive; a bare key is read as "true".
func ParseOptions(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		entry := strings.TrimSpace(part)
		if entry == "" {
			continue
		}
		key, value, found := strings.Cut(entry, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return nil, fmt.Errorf("block: option %q has no key", entry)
		}
		if !found {
			out[key] = "true"
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

// ParseMarkup reads a block from its authored markup. When the markup holds
// at least two child elements, the first supplies the options row and the
// second the card template. Otherwise the whole markup is the template.
//
// Bare placeholders such as <score> or <img:photo> are kept out of the HTML
// parse and restored verbatim in the template.
func ParseMarkup(name, markup string) (Definition, error) {
	def := Definition{Name: name, Template: strings.TrimSpace(markup)}

	protected, restore := protectTokens(markup)
	nodes, err := html.ParseFragment(strings.NewReader(protected), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return Definition{}, fmt.Errorf("block: parse markup: %w", err)
	}

	var elements []*html.Node
	for _, node := range nodes {
		if node.Type == html.ElementNode {
			elements = append(elements, node)
		}
	}
	if len(elements) < 2 {
		return def, nil
	}

	options, err := ParseOptions(restore.Replace(textContent(elements[0])))
	if err != nil {
		return Definition{}, err
	}
	tmpl, err := innerHTML(elements[1])
	if err != nil {
		return Definition{}, err
	}

	def.Options = options
	def.Template = strings.TrimSpace(restore.Replace(tmpl))
	return def, nil
}

// protectTokens swaps bare placeholders the HTML parser would read as elements
// for inert markers. The returned replacer turns markers back into the
// original token text.
func protectTokens(markup string) (string, *strings.Replacer) {
	lower := strings.ToLower(markup)

	var b strings.Builder
	var pairs []string
	last := 0
	for _, tok := range placeholder.Parse(markup) {
		if tok.Escaped || isElementTag(tok, lower) {
			continue
		}
		marker := fmt.Sprintf("fragments-token-%d-", len(pairs)/2)
		b.WriteString(markup[last:tok.Start])
		b.WriteString(marker)
		last = tok.End
		pairs = append(pairs, marker, tok.Literal)
	}
	if len(pairs) == 0 {
		return markup, strings.NewReplacer()
	}
	b.WriteString(markup[last:])
	return b.String(), strings.NewReplacer(pairs...)
}

// isElementTag reports whether a bare token is ordinary markup: a known
// element that is either void or closed later in the markup.
func isElementTag(tok placeholder.Token, lower string) bool {
	if tok.Format != "" {
		return false
	}
	name := strings.ToLower(tok.Name)
	a := atom.Lookup([]byte(name))
	if a == 0 {
		return false
	}
	if voidElements[a] {
		return true
	}
	return strings.Contains(lower[tok.End:], "</"+name+">")
}

var voidElements = map[atom.Atom]bool{
	atom.Area:   true,
	atom.Base:   true,
	atom.Br:     true,
	atom.Col:    true,
	atom.Embed:  true,
	atom.Hr:     true,
	atom.Img:    true,
	atom.Input:  true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Source: true,
	atom.Track:  true,
	atom.Wbr:    true,
}

// Settings resolves the typed settings, applying defaults for absent keys.
func (d Definition) Settings() (Settings, error) {
	s := Settings{Limit: paging.DefaultPageSize}
	opts := d.Options

	endpoint, err := client.ParseEndpoint(opts[OptionEndpoint])
	if err != nil {
		return Settings{}, err
	}
	s.Endpoint = endpoint

	if raw := opts[OptionLimit]; raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return Settings{}, fmt.Errorf("block: invalid limit %q", raw)
		}
		s.Limit = limit
	}

	kind, err := paging.ParseKind(opts[OptionPagination])
	if err != nil {
		return Settings{}, err
	}
	s.Pagination = kind

	if raw := opts[OptionEditor]; raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("block: invalid editor flag %q", raw)
		}
		s.Editor = enabled
	}

	missing, err := placeholder.ParseMissingPolicy(opts[OptionMissing])
	if err != nil {
		return Settings{}, err
	}
	s.Missing = missing

	s.Model = opts[OptionModel]
	if s.Endpoint == client.EndpointModel && s.Model == "" {
		return Settings{}, fmt.Errorf("block: endpoint %q requires the %q option", client.EndpointModel, OptionModel)
	}

	if path := opts[OptionPath]; path != "" || opts[OptionModels] != "" {
		s.Query = query.New(path, splitList(opts[OptionModels])...)
	}
	return s, nil
}

// splitList separates model ids. Commas already delimit options, so ids are
// separated by pipes or whitespace.
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '|' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func innerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return "", fmt.Errorf("block: render template markup: %w", err)
		}
	}
	return buf.String(), nil
}
