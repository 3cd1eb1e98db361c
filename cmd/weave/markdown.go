package main

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// newMarkdown builds the default weave.MarkdownFunc, rendering GitHub-
// flavored Markdown to HTML.
func newMarkdown() func(string) string {
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	return func(src string) string {
		var buf bytes.Buffer
		if err := gm.Convert([]byte(src), &buf); err != nil {
			return src
		}
		return buf.String()
	}
}
