package block

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	rendertemplate "github.com/goliatone/go-fragments/pkg/render/template"
	gotemplate "github.com/goliatone/go-fragments/pkg/render/template/gotemplate"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// Engines that can render the bundled chrome templates.
const (
	EnginePongo2     = "pongo2"
	EngineGoTemplate = "go-template"
)

// TemplatesFS exposes the bundled chrome templates so callers can extend or
// override them.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}

// NewEngine builds the named engine over the bundled templates. An empty name
// selects pongo2.
func NewEngine(name string) (rendertemplate.TemplateRenderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EnginePongo2:
		engine, err := defaultEngine()
		if err != nil {
			return nil, err
		}
		return engine, nil
	case EngineGoTemplate:
		engine, err := gotemplate.NewHooked(embeddedTemplates)
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("block: unknown template engine %q", name)
	}
}

func defaultEngine() (*gotemplate.Engine, error) {
	return gotemplate.New(
		gotemplate.WithFS(embeddedTemplates),
		gotemplate.WithExtension(".tmpl"),
	)
}
