package formatter

import (
	"bytes"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format passes the text through as-is: exportable content is already
// markdown with its own headings.
func (mf *MarkdownFormatter) Format(text string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(text)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
