package views

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"HelmetGuard/pkg/content"
	"HelmetGuard/pkg/render"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templates embed.FS

//go:embed static
var static embed.FS

const Layout = "layouts/main"

// NewEngine builds the page template engine from the embedded templates.
func NewEngine() *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("dataURL", func(b64 string) template.URL {
		return template.URL(render.DataURL(b64))
	})
	engine.AddFunc("percent", func(v float64) string {
		return formatFloat(v) + "%"
	})
	engine.AddFunc("signed", func(v float64) string {
		if v >= 0 {
			return "+" + formatFloat(v)
		}
		return formatFloat(v)
	})
	return engine
}

// Static serves the stylesheet and scripts.
func Static() http.FileSystem {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Page is the data every template shares through the layout.
type Page struct {
	Site      content.Site
	Nav       []content.Link
	Active    string
	Title     string
	RequestID string
}

func NewPage(c *content.Content, active, title, requestID string) Page {
	return Page{
		Site:      c.Site,
		Nav:       c.Nav,
		Active:    active,
		Title:     title,
		RequestID: requestID,
	}
}
