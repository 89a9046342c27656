package parsing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docseg/internal/markdown"
	"github.com/dgallion1/docseg/internal/pagemodel"
	"github.com/dgallion1/docseg/internal/pdfdoc"
)

var errNoPartitioner = errors.New("no markdown partitioner configured")

// fullParse emits tables, OCR'd images and text. A single image that cannot
// be read or recognized is skipped; any other extraction failure degrades the
// whole document.
type fullParse struct {
	deps Deps
	log  *slog.Logger
}

func (*fullParse) Name() string { return FullParse }

func (s *fullParse) Parse(ctx context.Context, in Input, fileType pagemodel.FileType) (Result, error) {
	if fileType == pagemodel.FileTypeMarkdown {
		return s.markdown(ctx, in)
	}
	return s.pdf(ctx, in)
}

func (s *fullParse) pdf(ctx context.Context, in Input) (Result, error) {
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

		images, err := doc.Images(page.Number)
		if err != nil {
			return extractionFailed(fmt.Sprintf("images on page %d", page.Number), err), nil
		}
		out = append(out, s.pdfImages(ctx, in.Filename, page.Number, images)...)

		out = append(out, pagemodel.Element{Type: pagemodel.ElementText, Content: page.Text, Page: page.Number})
	}
	return Ok(out), nil
}

func (s *fullParse) pdfImages(ctx context.Context, filename string, page int, images []pdfdoc.Image) []pagemodel.Element {
	if s.deps.OCR == nil {
		return nil
	}
	var out []pagemodel.Element
	for _, img := range images {
		data, err := img.Bytes()
		if err != nil {
			s.log.Warn("skip image", "filename", filename, "page", page, "image_index", img.Index, "error", err)
			continue
		}
		text, err := s.deps.OCR.FromBytes(ctx, data)
		if err != nil {
			s.log.Warn("skip image", "filename", filename, "page", page, "image_index", img.Index, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, pagemodel.Element{
			Type:       pagemodel.ElementImage,
			Content:    text,
			Page:       page,
			ImageIndex: img.Index,
		})
	}
	return out
}

// markdown emits tables, then local images that OCR to some text, then every
// partitioned element other than tables and images, typed by its category.
func (s *fullParse) markdown(ctx context.Context, in Input) (Result, error) {
	scan, err := scanMarkdown(s.deps.Renderer, in)
	if err != nil {
		return extractionFailed("markdown tables", err), nil
	}
	out := scan.tables

	images, err := markdown.FindImages(scan.html)
	if err != nil {
		return extractionFailed("markdown images", err), nil
	}
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if el, ok := s.markdownImage(ctx, in, i+1, img); ok {
			out = append(out, el)
		}
	}

	if s.deps.Partitioner == nil {
		return extractionFailed("partition markdown", errNoPartitioner), nil
	}
	elements, err := s.deps.Partitioner.PartitionFile(in.Path)
	if err != nil {
		return extractionFailed("partition markdown", err), nil
	}
	for _, el := range elements {
		if el.Category == markdown.CategoryTable || el.Category == markdown.CategoryImage {
			continue
		}
		if strings.TrimSpace(el.Text) == "" {
			continue
		}
		out = append(out, pagemodel.Element{
			Type:    strings.ToLower(el.Category),
			Content: el.Text,
			Page:    pageOf(in.Pages, el.Text),
		})
	}
	return Ok(out), nil
}

func (s *fullParse) markdownImage(ctx context.Context, in Input, index int, img markdown.Image) (pagemodel.Element, bool) {
	if s.deps.OCR == nil || img.Src == "" || img.IsRemote() {
		return pagemodel.Element{}, false
	}
	path := resolveImage(in.Path, img.Src)
	if _, err := os.Stat(path); err != nil {
		return pagemodel.Element{}, false
	}

	text, err := s.deps.OCR.FromFile(ctx, path)
	if err != nil {
		s.log.Warn("skip image", "filename", in.Filename, "image_src", img.Src, "error", err)
		return pagemodel.Element{}, false
	}
	if strings.TrimSpace(text) == "" {
		return pagemodel.Element{}, false
	}
	return pagemodel.Element{
		Type:       pagemodel.ElementImage,
		Content:    text,
		Page:       pageOf(in.Pages, img.Alt, img.Src),
		ImageIndex: index,
		ImageAlt:   pagemodel.Str(img.Alt),
		ImageSrc:   pagemodel.Str(img.Src),
	}, true
}

// resolveImage maps an image reference onto the file system relative to the
// Markdown file. Rendered sources are URL-escaped.
func resolveImage(docPath, src string) string {
	if unescaped, err := url.PathUnescape(src); err == nil {
		src = unescaped
	}
	if filepath.IsAbs(src) {
		return src
	}
	return filepath.Join(filepath.Dir(docPath), filepath.FromSlash(src))
}
