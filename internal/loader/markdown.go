package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/dgallion1/docseg/internal/pagemodel"
)

// loadMarkdownPlain treats every blank-line separated paragraph as a page.
// Page numbers count empty paragraphs too, so gaps are expected.
func loadMarkdownPlain(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	var pages []pagemodel.Page
	for i, para := range strings.Split(string(content), "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			pages = append(pages, pagemodel.Page{Number: i + 1, Text: para})
		}
	}
	return &Result{Text: string(content), Pages: pages, TotalPages: len(pages)}, nil
}

// loadMarkdownStructured makes one page per top-level heading section.
func (l *Loader) loadMarkdownStructured(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	sections := l.partitioner.Sections(content)
	pages := make([]pagemodel.Page, 0, len(sections))
	texts := make([]string, 0, len(sections))
	for i, s := range sections {
		pages = append(pages, pagemodel.Page{
			Number:   i + 1,
			Text:     s.Text,
			Metadata: map[string]any{"heading": s.Heading},
		})
		texts = append(texts, s.Text)
	}
	return &Result{Text: strings.Join(texts, "\n\n"), Pages: pages, TotalPages: len(pages)}, nil
}
