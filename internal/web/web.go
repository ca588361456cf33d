package web

import (
	"embed"
	"html/template"

	"github.com/russross/blackfriday"
)

//go:embed templates/*.html
var files embed.FS

const (
	markdownHTMLFlags = blackfriday.HTML_SKIP_HTML |
		blackfriday.HTML_SAFELINK |
		blackfriday.HTML_USE_XHTML

	markdownExtensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS |
		blackfriday.EXTENSION_TABLES |
		blackfriday.EXTENSION_FENCED_CODE |
		blackfriday.EXTENSION_AUTOLINK |
		blackfriday.EXTENSION_STRIKETHROUGH |
		blackfriday.EXTENSION_SPACE_HEADERS
)

// Templates parses the embedded pages. Names are the file names,
// e.g. "form.html".
func Templates() *template.Template {
	return template.Must(template.New("").
		Funcs(template.FuncMap{"markdown": RenderMarkdown}).
		ParseFS(files, "templates/*.html"))
}

// RenderMarkdown renders generated documents for preview. Raw HTML in the
// input is dropped.
func RenderMarkdown(src string) template.HTML {
	renderer := blackfriday.HtmlRenderer(markdownHTMLFlags, "", "")
	return template.HTML(blackfriday.Markdown([]byte(src), renderer, markdownExtensions))
}
