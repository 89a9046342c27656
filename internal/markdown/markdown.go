// Package markdown wraps goldmark for the Markdown side of the pipeline:
// rendering to HTML for table and image discovery, and partitioning a
// document into categorised block elements.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts Markdown to HTML with GFM tables enabled.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a renderer that keeps raw inline HTML so hand-written
// <img> and <table> tags survive rendering.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render converts src to HTML.
func (r *Renderer) Render(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
