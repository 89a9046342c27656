package loader

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docseg/internal/pagemodel"
	"github.com/dgallion1/docseg/internal/pdfdoc"
)

// pageCollector builds a Result from per-page text, skipping blank pages
// and trimming the rest.
type pageCollector struct {
	pages []pagemodel.Page
	texts []string
}

func (c *pageCollector) add(number int, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.pages = append(c.pages, pagemodel.Page{Number: number, Text: text})
	c.texts = append(c.texts, text)
}

func (c *pageCollector) result(total int) *Result {
	return &Result{Text: strings.Join(c.texts, "\n"), Pages: c.pages, TotalPages: total}
}

// loadPDFNative reads plain page text with ledongthuc/pdf.
func loadPDFNative(path string) (*Result, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var c pageCollector
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		c.add(i, text)
	}
	return c.result(numPages), nil
}

// loadPdftotext shells out to poppler's pdftotext, which separates pages
// with form feeds.
func loadPdftotext(ctx context.Context, path string) (*Result, error) {
	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	pages := strings.Split(string(out), "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}

	var c pageCollector
	for i, text := range pages {
		c.add(i+1, text)
	}
	return c.result(len(pages)), nil
}

// loadPDFLayout reads layout-aware page text through tabula.
func loadPDFLayout(ctx context.Context, path string) (*Result, error) {
	doc, err := pdfdoc.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	n, err := doc.PageCount()
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	var c pageCollector
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.PageText(i)
		if err != nil {
			return nil, err
		}
		c.add(i, text)
	}
	return c.result(n), nil
}
