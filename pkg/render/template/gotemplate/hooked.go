package gotemplate

import (
	"errors"
	"fmt"
	"io/fs"

	gotemplatepkg "github.com/goliatone/go-template"

	"github.com/goliatone/go-fragments/pkg/render/template"
)

var _ template.TemplateRenderer = (*gotemplatepkg.Engine)(nil)

// NewHooked builds a github.com/goliatone/go-template engine over files. It
// shares the filters of New and adds go-template's pre and post render hooks,
// which callers attach through opts or RegisterPreHook/RegisterPostHook.
func NewHooked(files fs.FS, opts ...gotemplatepkg.Option) (*gotemplatepkg.Engine, error) {
	if files == nil {
		return nil, errors.New("gotemplate: hooked engine needs an fs.FS")
	}
	registerDefaultFilters()

	options := []gotemplatepkg.Option{
		gotemplatepkg.WithFS(files),
		gotemplatepkg.WithExtension(".tmpl"),
		gotemplatepkg.WithTemplateFunc(map[string]any{
			"cssvars": filterCSSVars,
		}),
	}
	options = append(options, opts...)

	engine, err := gotemplatepkg.NewRenderer(options...)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: create hooked engine: %w", err)
	}
	return engine, nil
}
