package view

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	ugc      = bluemonday.UGCPolicy()
)

// RenderNote converts a markdown highlight note to sanitised HTML.
func RenderNote(note string) (string, error) {
	if note == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(note), &buf); err != nil {
		return "", err
	}
	return ugc.Sanitize(buf.String()), nil
}

// SafeHTML sanitises stored HTML for embedding in a page.
func SafeHTML(s string) template.HTML {
	return template.HTML(ugc.Sanitize(s))
}
