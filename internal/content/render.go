package content

import (
	"bytes"
	"fmt"
	"html/template"

	"manualdesk/internal/models"

	"gitlab.com/golang-commonmark/markdown"
)

// сырой HTML внутри markdown не пропускаем
var md = markdown.New(markdown.HTML(false), markdown.Linkify(true), markdown.Typographer(true), markdown.MaxNesting(10))

var pageTmpl = template.Must(template.New("page").Parse(`<article class="manual">
<h1>{{.Title}}</h1>
{{range .Blocks}}<section class="block block-{{.Kind}}">
{{.Body}}
</section>
{{end}}</article>
`))

var blockTmpl = template.Must(template.New("blocks").Parse(`
{{define "TEXT"}}{{if .Title}}<h2>{{.Title}}</h2>
{{end}}{{.Body}}{{end}}
{{define "IMAGE"}}<figure><img src="{{.Src}}" alt="{{.Alt}}">{{if .Caption}}<figcaption>{{.Caption}}</figcaption>{{end}}</figure>{{end}}
{{define "TABLE"}}<table>{{if .Caption}}<caption>{{.Caption}}</caption>{{end}}{{if .Headers}}<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>{{end}}<tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody></table>{{end}}
{{define "CHECKLIST"}}{{if .Title}}<h3>{{.Title}}</h3>{{end}}<ul class="checklist">{{range .Items}}<li data-checked="{{.Checked}}">{{.Text}}</li>{{end}}</ul>{{end}}
{{define "DIAGRAM"}}<figure class="diagram diagram-{{.Format}}"><pre>{{.Source}}</pre>{{if .Caption}}<figcaption>{{.Caption}}</figcaption>{{end}}</figure>{{end}}
{{define "TABS"}}<div class="tabs">{{range .Tabs}}<div class="tab"><h3>{{.Title}}</h3>{{.Content}}</div>{{end}}</div>{{end}}
`))

type renderedBlock struct {
	Kind string
	Body template.HTML
}

type textView struct {
	Title string
	Body  template.HTML
}

// RenderHTML renders blocks, already sorted, into a standalone article.
func RenderHTML(title string, blocks []models.ContentBlock) (string, error) {
	out := make([]renderedBlock, 0, len(blocks))
	for _, b := range blocks {
		p, err := Decode(b.Type, b.Data)
		if err != nil {
			return "", fmt.Errorf("render block %d: %w", b.ID, err)
		}
		body, err := renderBlock(p)
		if err != nil {
			return "", fmt.Errorf("render block %d: %w", b.ID, err)
		}
		out = append(out, renderedBlock{Kind: string(b.Type), Body: body})
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, struct {
		Title  string
		Blocks []renderedBlock
	}{title, out}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderBlock(p Payload) (template.HTML, error) {
	var data any = p
	if t, ok := p.(*Text); ok {
		data = textView{Title: t.Title, Body: textBody(t)}
	}

	var buf bytes.Buffer
	if err := blockTmpl.ExecuteTemplate(&buf, string(p.BlockType()), data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func textBody(t *Text) template.HTML {
	switch t.Format {
	case "markdown":
		return template.HTML(md.RenderToString([]byte(t.Text)))
	case "html":
		// html-блоки пишут редакторы руководства, выводим как есть
		return template.HTML(t.Text)
	default:
		return template.HTML("<p>" + template.HTMLEscapeString(t.Text) + "</p>")
	}
}
