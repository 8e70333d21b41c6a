package site

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// newMarkdown builds the goldmark instance used for every post body. GFM
// covers tables, strikethrough and autolinks; raw HTML passes through since
// post authors are trusted.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(ghtml.WithUnsafe()),
	)
}

func renderMarkdown(md goldmark.Markdown, body []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

var templateFuncs = template.FuncMap{
	"formatDate": func(t time.Time) string { return t.Format("January 2, 2006") },
	"isoDate":    func(t time.Time) string { return t.Format("2006-01-02") },
}

// newPageTemplate associates a content template (which defines the
// "content" block) with the theme's base layout.
func newPageTemplate(theme *Theme, kind string) (*template.Template, error) {
	t := template.New("base").Funcs(templateFuncs)
	if _, err := t.Parse(theme.Template("base")); err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}
	if _, err := t.New(kind).Parse(theme.Template(kind)); err != nil {
		return nil, fmt.Errorf("parse %s template: %w", kind, err)
	}
	return t, nil
}

func executePage(t *template.Template, data *pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}
