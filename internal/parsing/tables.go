package parsing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docseg/internal/pagemodel"
	"github.com/dgallion1/docseg/internal/pdfdoc"
	"github.com/dgallion1/docseg/internal/tablefmt"
)

var (
	errNoPDFBackend = errors.New("no pdf backend configured")
	errNoRenderer   = errors.New("no markdown renderer configured")
)

// extractionFailed wraps err so the reason recorded for a fallback names
// the step that failed.
func extractionFailed(step string, err error) Result {
	return Fallback(fmt.Errorf("%w: %s: %w", pagemodel.ErrExtraction, step, err))
}

// textAndTables emits canonical Markdown tables alongside page text.
type textAndTables struct {
	deps Deps
}

func (*textAndTables) Name() string { return TextAndTables }

func (s *textAndTables) Parse(ctx context.Context, in Input, fileType pagemodel.FileType) (Result, error) {
	if fileType == pagemodel.FileTypeMarkdown {
		return s.markdown(in), nil
	}
	return s.pdf(ctx, in)
}

// pdf emits each page's detected tables followed by the full page text.
func (s *textAndTables) pdf(ctx context.Context, in Input) (Result, error) {
	doc, res, ok := openPDF(s.deps.PDF, in.Path)
	if !ok {
		return res, nil
	}
	defer doc.Close()

	var out []pagemodel.Element
	for _, page := range in.Pages {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		tables, err := pdfTables(doc, page.Number)
		if err != nil {
			return extractionFailed(fmt.Sprintf("tables on page %d", page.Number), err), nil
		}
		out = append(out, tables...)
		out = append(out, pagemodel.Element{Type: pagemodel.ElementText, Content: page.Text, Page: page.Number})
	}
	return Ok(out), nil
}

// markdown emits every rendered table, then each page's text with the
// tables' text cut out. Without tables the pages are emitted verbatim.
func (s *textAndTables) markdown(in Input) Result {
	scan, err := scanMarkdown(s.deps.Renderer, in)
	if err != nil {
		return extractionFailed("markdown tables", err)
	}
	if len(scan.found) == 0 {
		return Ok(pageElements(in.Pages, pagemodel.ElementText))
	}

	out := scan.tables
	for _, page := range in.Pages {
		text := page.Text
		for _, t := range scan.found {
			if t.Text != "" {
				text = strings.ReplaceAll(text, t.Text, "")
			}
		}
		if text = strings.TrimSpace(text); text != "" {
			out = append(out, pagemodel.Element{Type: pagemodel.ElementText, Content: text, Page: page.Number})
		}
	}
	return Ok(out)
}

func openPDF(opener pdfdoc.Opener, path string) (pdfdoc.Document, Result, bool) {
	if opener == nil {
		return nil, extractionFailed("open pdf", errNoPDFBackend), false
	}
	doc, err := opener.Open(path)
	if err != nil {
		return nil, extractionFailed("open pdf", err), false
	}
	return doc, Result{}, true
}

// pdfTables canonicalizes the tables detected on page.
func pdfTables(doc pdfdoc.Document, page int) ([]pagemodel.Element, error) {
	grids, err := doc.Tables(page)
	if err != nil {
		return nil, err
	}
	out := make([]pagemodel.Element, 0, len(grids))
	for i, rows := range grids {
		out = append(out, pagemodel.Element{
			Type:       pagemodel.ElementTable,
			Content:    tablefmt.ToMarkdown(rows),
			Page:       page,
			TableIndex: i + 1,
		})
	}
	return out, nil
}

type markdownScan struct {
	html   string
	found  []tablefmt.HTMLTable
	tables []pagemodel.Element
}

// scanMarkdown renders the document text and builds a table element for each
// table found, attributed to the first page containing the table's text.
func scanMarkdown(r Renderer, in Input) (markdownScan, error) {
	if r == nil {
		return markdownScan{}, errNoRenderer
	}
	html, err := r.Render([]byte(in.Text))
	if err != nil {
		return markdownScan{}, err
	}
	found, err := tablefmt.FromHTML(html)
	if err != nil {
		return markdownScan{}, err
	}

	scan := markdownScan{html: html, found: found}
	for i, t := range found {
		scan.tables = append(scan.tables, pagemodel.Element{
			Type:       pagemodel.ElementTable,
			Content:    t.Markdown(),
			Page:       pageOf(in.Pages, t.Text),
			TableIndex: i + 1,
		})
	}
	return scan, nil
}
