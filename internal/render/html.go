package render

import (
	"bytes"
	"fmt"
	"html/template"
)

// renderHTML emits a standalone page with a table of contents whose anchors
// are the section ids, one to one.
func renderHTML(doc *Document, loc *Locale, opts Options) ([]byte, error) {
	data := struct {
		*Document
		Watermark     bool
		WatermarkText string
		TOCTitle      string
	}{
		Document:      doc,
		Watermark:     opts.Watermark,
		WatermarkText: loc.WatermarkText,
		TOCTitle:      loc.TOCTitle,
	}
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute html template: %w", err)
	}
	return buf.Bytes(), nil
}

var htmlTemplate = template.Must(template.New("policy").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="{{.Locale}}">
<head>
<meta charset="utf-8">
<title>{{.Title}} — {{.Heading}}</title>
<style>
body { font-family: Georgia, serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; color: #1c1c1c; line-height: 1.55; }
h1 { text-align: center; font-size: 1.6rem; }
h2 { font-size: 1.15rem; border-bottom: 1px solid #ddd; padding-bottom: .2rem; margin-top: 2rem; }
nav.toc { background: #f7f7f5; border: 1px solid #e4e4e0; padding: 1rem 1.5rem; margin: 1.5rem 0; }
nav.toc ol { margin: .5rem 0 0; }
dl.facts dt { font-weight: bold; float: left; clear: left; margin-right: .4rem; }
dl.facts dt::after { content: ":"; }
dl.facts dd { margin-left: 0; }
.watermark { position: fixed; top: 40%; left: 0; right: 0; text-align: center; font-size: 4rem; color: rgba(160,160,160,.25); transform: rotate(-30deg); pointer-events: none; z-index: 1; }
</style>
</head>
<body>
{{if .Watermark}}<div class="watermark">{{.WatermarkText}}</div>{{end}}
<header>
<h1>{{.Heading}}</h1>
<p style="text-align:center">{{.Title}}</p>
</header>
<nav class="toc">
<strong>{{.TOCTitle}}</strong>
<ol>
{{range .Sections}}<li><a href="#{{.ID}}">{{.Title}}</a></li>
{{end}}</ol>
</nav>
<main>
{{range $i, $sec := .Sections}}<section id="{{$sec.ID}}">
<h2>{{inc $i}}. {{$sec.Title}}</h2>
{{range $sec.Blocks}}{{if .IsParagraph}}<p>{{.Text}}</p>
{{else if .IsFact}}<dl class="facts"><dt>{{.Label}}</dt><dd>{{.Value}}</dd></dl>
{{else if .IsBullets}}<ul>
{{range .Items}}<li>{{.}}</li>
{{end}}</ul>
{{end}}{{end}}</section>
{{end}}</main>
</body>
</html>
`))
