package page

import (
	"bytes"
	"fmt"
	"html/template"

	_ "embed"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

var (
	//go:embed templates/index.md
	indexContent []byte

	//go:embed templates/layout.html
	layoutContent []byte
)

type Frontmatter struct {
	Title   string `yaml:"title"`
	Tagline string `yaml:"tagline"`
}

type pageContext struct {
	URL         string
	ContentHTML template.HTML
	*Frontmatter
}

// Renderer produces the landing page from the embedded markdown source.
// The page is static, so it is rendered once at construction.
type Renderer struct {
	page []byte
}

func NewRenderer(siteURL string) (*Renderer, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	var buf bytes.Buffer
	ctx := parser.NewContext()
	if err := md.Convert(indexContent, &buf, parser.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("cannot render index markdown: %w", err)
	}

	fm := &Frontmatter{Title: "Smart Convert"}
	if data := frontmatter.Get(ctx); data != nil {
		if err := data.Decode(fm); err != nil {
			return nil, fmt.Errorf("cannot decode index frontmatter: %w", err)
		}
	}

	tmpl, err := template.New("layout").Parse(string(layoutContent))
	if err != nil {
		return nil, fmt.Errorf("cannot parse layout template: %w", err)
	}

	var page bytes.Buffer
	err = tmpl.Execute(&page, &pageContext{
		URL:         siteURL,
		ContentHTML: template.HTML(buf.String()),
		Frontmatter: fm,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot execute layout template: %w", err)
	}

	return &Renderer{page: page.Bytes()}, nil
}

// Index returns the rendered landing page.
func (r *Renderer) Index() []byte {
	return r.page
}
