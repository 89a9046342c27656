// Package parsing decomposes a Page Model into typed structural elements
// (text, sections, tables, OCR'd images) using named strategies.
package parsing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/docseg/internal/markdown"
	"github.com/dgallion1/docseg/internal/pagemodel"
	"github.com/dgallion1/docseg/internal/pdfdoc"
	"github.com/dgallion1/docseg/internal/titles"
)

// Strategy names accepted by Engine.Parse.
const (
	AllText       = "all_text"
	ByPages       = "by_pages"
	ByTitles      = "by_titles"
	TextAndTables = "text_and_tables"
	FullParse     = "full_parse"
)

// OCR recognizes text in images.
type OCR interface {
	FromBytes(ctx context.Context, data []byte) (string, error)
	FromFile(ctx context.Context, path string) (string, error)
}

// Renderer converts Markdown to HTML with table support.
type Renderer interface {
	Render(src []byte) (string, error)
}

// Partitioner splits a Markdown file into categorised elements.
type Partitioner interface {
	PartitionFile(path string) ([]markdown.Element, error)
}

// Input is the Page Model plus what structural strategies need to re-inspect
// the source.
type Input struct {
	Filename string
	// Path is the on-disk source used for PDF re-inspection, Markdown
	// partitioning and relative image resolution.
	Path  string
	Pages []pagemodel.Page
	// Text is the flattened document text. Markdown table and image
	// strategies render it.
	Text string
}

// Result is what a strategy produced: either elements, or the reason its
// structural extraction failed and verbatim page text must be used instead.
type Result struct {
	Elements []pagemodel.Element
	Reason   string
}

func Ok(elements []pagemodel.Element) Result { return Result{Elements: elements} }

func Fallback(reason error) Result { return Result{Reason: reason.Error()} }

func (r Result) IsFallback() bool { return r.Reason != "" }

// Strategy is one way of structuring a document. Errors are fatal; a
// recoverable extraction failure is reported as a Fallback result.
type Strategy interface {
	Name() string
	Parse(ctx context.Context, in Input, fileType pagemodel.FileType) (Result, error)
}

// Deps are the collaborators structural strategies call out to.
type Deps struct {
	PDF         pdfdoc.Opener
	OCR         OCR
	Renderer    Renderer
	Partitioner Partitioner
	Titles      titles.Options
}

// Engine dispatches to registered strategies. It keeps no per-document state.
type Engine struct {
	strategies map[string]Strategy
	log        *slog.Logger
	now        func() time.Time
}

// NewEngine registers the built-in strategies over deps.
func NewEngine(deps Deps, log *slog.Logger) *Engine {
	e := &Engine{
		strategies: make(map[string]Strategy),
		log:        log,
		now:        time.Now,
	}
	for _, s := range []Strategy{
		verbatim{name: AllText, elementType: pagemodel.ElementText},
		verbatim{name: ByPages, elementType: pagemodel.ElementPage},
		sections{opts: deps.Titles},
		&textAndTables{deps: deps},
		&fullParse{deps: deps, log: log},
	} {
		e.strategies[s.Name()] = s
	}
	return e
}

// Methods lists the registered strategy names in sorted order.
func (e *Engine) Methods() []string {
	names := make([]string, 0, len(e.strategies))
	for name := range e.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse structures in with the named strategy. When the strategy falls back,
// the content is one text element per page and doc.Fallback holds the reason.
func (e *Engine) Parse(ctx context.Context, in Input, method string) (*pagemodel.ParsedDocument, error) {
	if len(in.Pages) == 0 {
		e.log.Error("parse document", "filename", in.Filename, "error", "no pages")
		return nil, fmt.Errorf("parse %s: no pages: %w", in.Filename, pagemodel.ErrInvalidArgument)
	}
	strategy, ok := e.strategies[method]
	if !ok {
		e.log.Error("parse document", "filename", in.Filename, "method", method, "error", "unsupported strategy")
		return nil, fmt.Errorf("parse %s: %q: %w", in.Filename, method, pagemodel.ErrUnsupportedStrategy)
	}

	fileType := pagemodel.DetectFileType(in.Filename)
	res, err := strategy.Parse(ctx, in, fileType)
	if err != nil {
		e.log.Error("parse document", "filename", in.Filename, "method", method, "error", err)
		return nil, fmt.Errorf("parse %s with %s: %w", in.Filename, method, err)
	}

	doc := &pagemodel.ParsedDocument{
		Metadata: pagemodel.ParsedMeta{
			Filename:      in.Filename,
			TotalPages:    len(in.Pages),
			ParsingMethod: method,
			FileType:      fileType,
			Timestamp:     pagemodel.Timestamp(e.now()),
		},
		Content: res.Elements,
	}
	if res.IsFallback() {
		e.log.Warn("structural extraction failed, using page text", "filename", in.Filename, "method", method, "error", res.Reason)
		doc.Content = pageElements(in.Pages, pagemodel.ElementText)
		doc.Fallback = res.Reason
	}
	if doc.Content == nil {
		doc.Content = []pagemodel.Element{}
	}
	return doc, nil
}

// pageElements is one element of type t per page with the verbatim text.
func pageElements(pages []pagemodel.Page, t string) []pagemodel.Element {
	out := make([]pagemodel.Element, 0, len(pages))
	for _, p := range pages {
		out = append(out, pagemodel.Element{Type: t, Content: p.Text, Page: p.Number})
	}
	return out
}

// pageOf returns the first page whose text contains any non-empty needle,
// or the first page when none does. Containment is a best-effort heuristic
// and breaks when the extracted text was reformatted.
func pageOf(pages []pagemodel.Page, needles ...string) int {
	for _, p := range pages {
		for _, n := range needles {
			if n != "" && strings.Contains(p.Text, n) {
				return p.Number
			}
		}
	}
	return pages[0].Number
}
