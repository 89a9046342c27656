// Package pdfdoc gives structural access to a PDF through tabula: per-page
// layout text, detected table grids and embedded images.
package pdfdoc

import (
	"fmt"

	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
	tabletect "github.com/tsawler/tabula/tables"
)

// Image is an embedded page image. Bytes encodes it lazily so a broken
// image only fails when it is actually needed.
type Image struct {
	Index int // 1-based within the page
	Name  string
	Bytes func() ([]byte, error)
}

// Document is the structural view of an open PDF. Page numbers are 1-based.
type Document interface {
	PageCount() (int, error)
	Tables(page int) ([][][]string, error)
	Images(page int) ([]Image, error)
	Close() error
}

// Opener opens PDFs for structural inspection.
type Opener interface {
	Open(path string) (Document, error)
}

// Tabula is the Opener backed by github.com/tsawler/tabula.
type Tabula struct{}

func (Tabula) Open(path string) (Document, error) {
	return Open(path)
}

// Doc is an open tabula reader.
type Doc struct {
	r *reader.Reader
}

// Open opens the PDF at path. The caller must Close it.
func Open(path string) (*Doc, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &Doc{r: r}, nil
}

func (d *Doc) Close() error {
	return d.r.Close()
}

func (d *Doc) PageCount() (int, error) {
	return d.r.PageCount()
}

// PageText returns layout-aware text for page with paragraphs joined.
func (d *Doc) PageText(page int) (string, error) {
	text, _, err := tabula.FromReader(d.r).Pages(page).JoinParagraphs().Text()
	if err != nil {
		return "", fmt.Errorf("extract page %d text: %w", page, err)
	}
	return text, nil
}

// Tables runs geometric table detection over page and returns each table
// as a grid of cell text.
func (d *Doc) Tables(page int) ([][][]string, error) {
	p, err := d.page(page)
	if err != nil {
		return nil, err
	}
	frags, err := d.r.ExtractTextFragments(p)
	if err != nil {
		return nil, fmt.Errorf("extract page %d fragments: %w", page, err)
	}
	w, err := p.Width()
	if err != nil {
		return nil, fmt.Errorf("page %d width: %w", page, err)
	}
	h, err := p.Height()
	if err != nil {
		return nil, fmt.Errorf("page %d height: %w", page, err)
	}

	mp := model.NewPage(w, h)
	for _, f := range frags {
		mp.RawText = append(mp.RawText, model.TextFragment{
			Text:     f.Text,
			BBox:     model.BBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
			FontSize: f.FontSize,
			FontName: f.FontName,
		})
	}

	found, err := tabletect.NewGeometricDetector().Detect(mp)
	if err != nil {
		return nil, fmt.Errorf("detect page %d tables: %w", page, err)
	}

	grids := make([][][]string, 0, len(found))
	for _, t := range found {
		grid := make([][]string, 0, len(t.Rows))
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for i, c := range row {
				cells[i] = c.Text
			}
			grid = append(grid, cells)
		}
		grids = append(grids, grid)
	}
	return grids, nil
}

// Images lists the image XObjects drawn on page, encoded as PNG on demand.
func (d *Doc) Images(page int) ([]Image, error) {
	p, err := d.page(page)
	if err != nil {
		return nil, err
	}
	raw, err := d.r.ExtractPageImages(p)
	if err != nil {
		return nil, fmt.Errorf("extract page %d images: %w", page, err)
	}

	out := make([]Image, 0, len(raw))
	for i := range raw {
		img := raw[i]
		out = append(out, Image{
			Index: i + 1,
			Name:  img.Name,
			Bytes: img.ToPNG,
		})
	}
	return out, nil
}

func (d *Doc) page(n int) (*pages.Page, error) {
	p, err := d.r.GetPage(n - 1)
	if err != nil {
		return nil, fmt.Errorf("get page %d: %w", n, err)
	}
	return p, nil
}
