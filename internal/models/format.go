package models

import "strings"

const DownloadBaseName = "BRD"

// OutputFormat is the label picked on the form. It only names the
// downloaded file; the document bytes are never converted.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "Markdown"
	FormatJSON     OutputFormat = "JSON"
)

var OutputFormats = []OutputFormat{FormatMarkdown, FormatJSON}

// ParseOutputFormat matches the label exactly as the form submits it.
func ParseOutputFormat(s string) (OutputFormat, bool) {
	for _, f := range OutputFormats {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Filename is BRD.<label in lower case>, e.g. BRD.markdown or BRD.json.
func (f OutputFormat) Filename() string {
	return DownloadBaseName + "." + strings.ToLower(string(f))
}
