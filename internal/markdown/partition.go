package markdown

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Element categories produced by the partitioner.
const (
	CategoryTitle         = "Title"
	CategoryNarrativeText = "NarrativeText"
	CategoryListItem      = "ListItem"
	CategoryCodeSnippet   = "CodeSnippet"
	CategoryTable         = "Table"
	CategoryImage         = "Image"
	CategoryUncategorized = "UncategorizedText"
)

// Element is one block-level unit of a Markdown document.
type Element struct {
	Category string
	Text     string
	// Level is the heading level for Title elements.
	Level int
	// Src is the image destination for Image elements.
	Src string
}

// Partitioner splits Markdown documents into categorised elements.
type Partitioner struct {
	md goldmark.Markdown
}

func NewPartitioner() *Partitioner {
	return &Partitioner{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// PartitionFile reads and partitions the Markdown file at path.
func (p *Partitioner) PartitionFile(path string) ([]Element, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	return p.Partition(src), nil
}

// Partition walks the block structure of src in document order.
func (p *Partitioner) Partition(src []byte) []Element {
	doc := p.md.Parser().Parse(text.NewReader(src))

	var out []Element
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Heading:
				out = appendElement(out, Element{Category: CategoryTitle, Text: extractText(node, src), Level: node.Level})
			case *ast.Paragraph, *ast.TextBlock:
				if img := soleImage(node, src); img != nil {
					out = appendElement(out, Element{Category: CategoryImage, Text: extractText(img, src), Src: string(img.Destination)})
					continue
				}
				out = appendElement(out, Element{Category: CategoryNarrativeText, Text: extractText(node, src)})
			case *ast.ListItem:
				out = appendElement(out, Element{Category: CategoryListItem, Text: listItemText(node, src)})
				for cc := node.FirstChild(); cc != nil; cc = cc.NextSibling() {
					if nested, ok := cc.(*ast.List); ok {
						walk(nested)
					}
				}
			case *ast.FencedCodeBlock, *ast.CodeBlock:
				out = appendElement(out, Element{Category: CategoryCodeSnippet, Text: lineText(node, src)})
			case *extast.Table:
				out = appendElement(out, Element{Category: CategoryTable, Text: tableText(node, src)})
			case *ast.HTMLBlock:
				out = appendElement(out, Element{Category: CategoryUncategorized, Text: lineText(node, src)})
			case *ast.List, *ast.Blockquote:
				walk(node)
			}
		}
	}
	walk(doc)
	return out
}

func appendElement(out []Element, e Element) []Element {
	if strings.TrimSpace(e.Text) == "" && e.Category != CategoryImage {
		return out
	}
	return append(out, e)
}

// soleImage returns the image when it is the only inline content of n.
func soleImage(n ast.Node, src []byte) *ast.Image {
	var img *ast.Image
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Image:
			if img != nil {
				return nil
			}
			img = node
		case *ast.Text:
			if len(bytes.TrimSpace(node.Segment.Value(src))) > 0 {
				return nil
			}
		default:
			return nil
		}
	}
	return img
}

// listItemText flattens an item's own blocks, leaving nested lists to be
// emitted as their own items.
func listItemText(item *ast.ListItem, src []byte) string {
	var parts []string
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		if _, nested := c.(*ast.List); nested {
			continue
		}
		if t := extractText(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func lineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func tableText(t *extast.Table, src []byte) string {
	var rows []string
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, extractText(c, src))
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return strings.Join(rows, "\n")
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.HardLineBreak() || node.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(node.Value)
		default:
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
