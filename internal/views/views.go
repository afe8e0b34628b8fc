// Package views holds the server-rendered HTML templates and the helpers
// they use.
package views

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"issue-tracker/internal/models"
)

// DateLayout renders dates like "Tue Mar 05 2024".
const DateLayout = "Mon Jan 02 2006"

//go:embed templates/*.html
var templateFS embed.FS

// Raw HTML in descriptions is dropped because the renderer is not built with
// html.WithUnsafe.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders source to HTML. Render errors fall back to escaped text.
func Markdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(source) + "</p>")
	}
	return template.HTML(buf.String())
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// BadgeColor maps a status to the badge palette.
func BadgeColor(status models.Status) string {
	switch status {
	case models.StatusOpen:
		return "red"
	case models.StatusInProgress:
		return "violet"
	case models.StatusClosed:
		return "green"
	default:
		return "gray"
	}
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"markdown":   Markdown,
		"date":       FormatDate,
		"badgeColor": BadgeColor,
		"statuses":   func() []models.Status { return models.Statuses },
		"add":        func(a, b int) int { return a + b },
	}
}

// Templates parses every embedded page. It panics on a malformed template
// since they are compiled into the binary.
func Templates() *template.Template {
	return template.Must(template.New("views").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html"))
}
