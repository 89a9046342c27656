package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section is a slice of a Markdown source starting at a top-level heading.
type Section struct {
	Heading string
	Text    string
}

// Sections splits src at every heading of the shallowest level present.
// Content before the first such heading becomes a section with no heading.
// Each section keeps its raw Markdown, heading line included.
func (p *Partitioner) Sections(src []byte) []Section {
	doc := p.md.Parser().Parse(text.NewReader(src))

	type cut struct {
		offset  int
		heading string
	}
	var (
		cuts []cut
		top  = 7
	)
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		h, ok := c.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		if h.Level < top {
			top = h.Level
			cuts = cuts[:0]
		}
		if h.Level == top {
			cuts = append(cuts, cut{offset: lineStart(src, h.Lines().At(0).Start), heading: extractText(h, src)})
		}
	}

	var out []Section
	add := func(heading string, body []byte) {
		if t := strings.TrimSpace(string(body)); t != "" {
			out = append(out, Section{Heading: heading, Text: t})
		}
	}

	prev, heading := 0, ""
	for _, c := range cuts {
		add(heading, src[prev:c.offset])
		prev, heading = c.offset, c.heading
	}
	add(heading, src[prev:])
	return out
}

func lineStart(src []byte, pos int) int {
	if i := bytes.LastIndexByte(src[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}
