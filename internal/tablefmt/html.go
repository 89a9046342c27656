package tablefmt

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// HTMLTable is a <table> element found in rendered HTML.
type HTMLTable struct {
	// Rows is the cell grid, header first.
	Rows [][]string
	// Text is the concatenation of every text node inside the table,
	// untrimmed. It is what page attribution matches against.
	Text string
}

// Markdown returns the canonical Markdown form of the table.
func (t HTMLTable) Markdown() string {
	return ToMarkdown(t.Rows)
}

// FromHTML finds every <table> element in src in document order.
func FromHTML(src string) ([]HTMLTable, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var tables []HTMLTable
	for _, n := range findAll(doc, "table") {
		tables = append(tables, HTMLTable{
			Rows: tableRows(n),
			Text: rawText(n),
		})
	}
	return tables, nil
}

// tableRows builds the grid: header from <thead> when present, else the first
// row; body rows from <tbody> when present, else every remaining row. Body
// rows only take <td> cells and rows without cells are dropped.
//
// The HTML5 parser inserts an implicit <tbody> around bare rows, so the row
// used as header is never repeated in the body.
func tableRows(table *html.Node) [][]string {
	var (
		rows   [][]string
		header *html.Node
	)

	if thead := findFirst(table, "thead"); thead != nil {
		rows = append(rows, cellTexts(thead, "th"))
	} else if header = findFirst(table, "tr"); header != nil {
		rows = append(rows, cellTexts(header, "td", "th"))
	}

	body := findAll(table, "tr")
	if tbody := findFirst(table, "tbody"); tbody != nil {
		body = findAll(tbody, "tr")
	}
	for _, tr := range body {
		if tr == header {
			continue
		}
		if cells := cellTexts(tr, "td"); len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

func cellTexts(n *html.Node, tags ...string) []string {
	var out []string
	for _, c := range findAll(n, tags...) {
		out = append(out, strings.TrimSpace(rawText(c)))
	}
	return out
}

// findAll returns descendants of n (not n itself) whose tag is one of tags,
// in document order.
func findAll(n *html.Node, tags ...string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && hasTag(c, tags) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func hasTag(n *html.Node, tags []string) bool {
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}
