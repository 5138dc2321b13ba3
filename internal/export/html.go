package export

import (
	"html/template"
	"io"
	"strings"

	"github.com/Aman-CERP/livedoc/internal/doc"
)

var htmlPage = template.Must(template.New("export").Funcs(template.FuncMap{
	"anchor":   anchor,
	"callable": func(f doc.FunctionDoc) string { return callable(&f) },
	"join":     strings.Join,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Arial, sans-serif; line-height: 1.5; margin: 0; }
.toc { position: fixed; left: 0; top: 0; bottom: 0; width: 240px; overflow-y: auto; background: #f9f9f9; border-right: 1px solid #ddd; padding: 10px; }
main { margin-left: 270px; padding: 10px 20px; max-width: 900px; }
pre { white-space: pre-wrap; background: #f6f8fa; padding: 8px; }
code { font-family: ui-monospace, Menlo, monospace; }
.decorator { color: #6a737d; }
</style>
</head>
<body>
<nav class="toc"><h3>Modules</h3><ul>
{{- range .Docs}}
<li><a href="#{{anchor .File}}">{{.File}}</a></li>
{{- end}}
</ul></nav>
<main>
<h1>{{.Title}}</h1>
{{- range .Docs}}
<section id="{{anchor .File}}">
<h2>{{.File}}</h2>
{{- if .Docstring}}
<pre>{{.Docstring}}</pre>
{{- end}}
{{- if .Constants}}
<h3>Constants</h3>
<ul>
{{- range .Constants}}
<li><code>{{.Name}} = {{.Value}}</code></li>
{{- end}}
</ul>
{{- end}}
{{- if .Classes}}
<h3>Classes</h3>
{{- range .Classes}}
<h4><code>{{.Name}}{{if .Bases}}({{join .Bases ", "}}){{end}}</code></h4>
{{- if .Docstring}}
<pre>{{.Docstring}}</pre>
{{- end}}
{{- if .Methods}}
<ul>
{{- range .Methods}}
<li>{{template "function" .}}</li>
{{- end}}
</ul>
{{- end}}
{{- end}}
{{- end}}
{{- if .Functions}}
<h3>Functions</h3>
<ul>
{{- range .Functions}}
<li>{{template "function" .}}</li>
{{- end}}
</ul>
{{- end}}
</section>
{{- end}}
</main>
</body>
</html>
{{define "function"}}{{range .Decorators}}<span class="decorator">@{{.}}</span> {{end}}<code>{{callable .}}</code>{{if .Docstring}}<pre>{{.Docstring}}</pre>{{end}}{{end}}`))

type htmlData struct {
	Title string
	Docs  []*doc.Document
}

// WriteHTML writes a standalone page with a module table of contents.
func WriteHTML(w io.Writer, docs []*doc.Document, title string) error {
	if title == "" {
		title = "Documentation"
	}
	return htmlPage.Execute(w, htmlData{Title: title, Docs: docs})
}

// anchor turns a module path into an element id.
func anchor(file string) string {
	var b strings.Builder
	b.WriteString("mod-")
	for _, r := range file {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
