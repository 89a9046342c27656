// Package loader extracts a Page Model from source files. Every backend
// returns its page list and page count explicitly; nothing is kept between
// calls.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docseg/internal/markdown"
	"github.com/dgallion1/docseg/internal/pagemodel"
)

// Loading methods.
const (
	PDFNative    = "native"
	PDFPdftotext = "pdftotext"
	PDFLayout    = "layout"

	MarkdownPlain      = "plain"
	MarkdownStructured = "structured"
)

var (
	ErrUnsupportedFileType = errors.New("loader: unsupported file type")
	ErrUnsupportedMethod   = errors.New("loader: unsupported loading method")
)

// SupportedExtensions lists file extensions this service can load.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".md":       true,
	".markdown": true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Result is the extracted Page Model of one file.
type Result struct {
	// Text is the flattened document text.
	Text  string
	Pages []pagemodel.Page
	// TotalPages is the page count of the source, which can exceed
	// len(Pages) when blank pages were skipped.
	TotalPages int
}

// Options configures the backends.
type Options struct {
	// FallbackPdftotext retries a failed native PDF extraction with the
	// pdftotext binary.
	FallbackPdftotext bool
}

// Loader dispatches to a backend by file type and method name.
type Loader struct {
	opts        Options
	partitioner *markdown.Partitioner
}

func New(opts Options) *Loader {
	return &Loader{opts: opts, partitioner: markdown.NewPartitioner()}
}

// Methods lists the loading methods available for a file type.
func Methods(ft pagemodel.FileType) []string {
	if ft == pagemodel.FileTypeMarkdown {
		return []string{MarkdownPlain, MarkdownStructured}
	}
	return []string{PDFNative, PDFPdftotext, PDFLayout}
}

// DefaultMethod is the method used when a caller names none.
func DefaultMethod(ft pagemodel.FileType) string {
	return Methods(ft)[0]
}

// Load extracts the Page Model of the file at path.
func (l *Loader) Load(ctx context.Context, path, method string) (*Result, error) {
	if !IsSupportedExtension(path) {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), ErrUnsupportedFileType)
	}
	ft := pagemodel.DetectFileType(path)
	if method == "" {
		method = DefaultMethod(ft)
	}

	var (
		res *Result
		err error
	)
	switch {
	case ft == pagemodel.FileTypeMarkdown && method == MarkdownPlain:
		res, err = loadMarkdownPlain(path)
	case ft == pagemodel.FileTypeMarkdown && method == MarkdownStructured:
		res, err = l.loadMarkdownStructured(path)
	case ft == pagemodel.FileTypePDF && method == PDFNative:
		res, err = loadPDFNative(path)
		if err != nil && l.opts.FallbackPdftotext {
			res, err = loadPdftotext(ctx, path)
		}
	case ft == pagemodel.FileTypePDF && method == PDFPdftotext:
		res, err = loadPdftotext(ctx, path)
	case ft == pagemodel.FileTypePDF && method == PDFLayout:
		res, err = loadPDFLayout(ctx, path)
	default:
		return nil, fmt.Errorf("load %s with %q: %w", filepath.Base(path), method, ErrUnsupportedMethod)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s with %s: %w", filepath.Base(path), method, err)
	}
	return res, nil
}
