package placeholder

import (
	"regexp"
)

// Token describes a single placeholder occurrence inside a template.
type Token struct {
	// Literal is the exact text matched in the template.
	Literal string
	// Format is the optional discriminator preceding the name (img, raw).
	Format string
	// Name is the field the token resolves against.
	Name string
	// Escaped reports whether the token used &lt;/&gt; delimiters.
	Escaped bool
	// Start and End are byte offsets of Literal within the template.
	Start int
	End   int
}

var tokenPattern = regexp.MustCompile(
	`&lt;(?:([A-Za-z]+):)?([A-Za-z0-9_]+)&gt;|<(?:([A-Za-z]+):)?([A-Za-z0-9_]+)>`,
)

// Parse returns every token found in template in source order.
func Parse(template string) []Token {
	matches := tokenPattern.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return nil
	}

	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tok := Token{
			Literal: template[m[0]:m[1]],
			Start:   m[0],
			End:     m[1],
		}
		if m[4] >= 0 {
			tok.Escaped = true
			tok.Name = template[m[4]:m[5]]
			if m[2] >= 0 {
				tok.Format = template[m[2]:m[3]]
			}
		} else {
			tok.Name = template[m[8]:m[9]]
			if m[6] >= 0 {
				tok.Format = template[m[6]:m[7]]
			}
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Names lists the distinct field names referenced by escaped tokens, in the
// order they first appear. Bare tokens are skipped because they cannot be
// told apart from markup without a mapping.
func Names(template string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, tok := range Parse(template) {
		if !tok.Escaped {
			continue
		}
		if _, ok := seen[tok.Name]; ok {
			continue
		}
		seen[tok.Name] = struct{}{}
		names = append(names, tok.Name)
	}
	return names
}
