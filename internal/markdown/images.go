package markdown

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Image is an <img> tag found in rendered HTML.
type Image struct {
	Src string
	Alt string
}

// IsRemote reports whether the image points at an http(s) URL.
func (i Image) IsRemote() bool {
	return strings.HasPrefix(i.Src, "http://") || strings.HasPrefix(i.Src, "https://")
}

// FindImages lists every <img> element of src in document order.
func FindImages(src string) ([]Image, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var out []Image
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			out = append(out, Image{Src: attr(n, "src"), Alt: attr(n, "alt")})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
