// Package chunker turns a Page Model into a flat list of page-tagged chunks
// using one of several named splitting strategies.
package chunker

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/docseg/internal/pagemodel"
)

// Input is the Page Model handed to the engine along with its provenance.
type Input struct {
	Filename      string
	LoadingMethod string
	Pages         []pagemodel.Page
}

// Options controls chunking behavior.
type Options struct {
	ChunkSize int // fixed_size window in characters; DefaultChunkSize when <= 0.
}

// Engine applies a registered Strategy to every page of a document.
// It holds no per-document state and is safe for concurrent use.
type Engine struct {
	strategies map[string]Strategy
	log        *slog.Logger
	now        func() time.Time
}

// NewEngine returns an engine with the built-in strategies registered.
func NewEngine(log *slog.Logger) *Engine {
	e := &Engine{
		strategies: make(map[string]Strategy),
		log:        log,
		now:        time.Now,
	}
	for _, s := range []Strategy{pageStrategy{}, fixedSizeStrategy{}, paragraphStrategy{}, sentenceStrategy{}} {
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

// Chunk splits in with the named strategy. Pages are never merged: each page
// is split on its own and chunks keep page order. Blank pages yield nothing.
func (e *Engine) Chunk(in Input, method string, opts Options) (*pagemodel.ChunkedDocument, error) {
	if len(in.Pages) == 0 {
		e.log.Error("chunk document", "filename", in.Filename, "error", "no pages")
		return nil, fmt.Errorf("chunk %s: no pages: %w", in.Filename, pagemodel.ErrInvalidArgument)
	}
	strategy, ok := e.strategies[method]
	if !ok {
		e.log.Error("chunk document", "filename", in.Filename, "method", method, "error", "unsupported strategy")
		return nil, fmt.Errorf("chunk %s: %q: %w", in.Filename, method, pagemodel.ErrUnsupportedStrategy)
	}

	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	fileType := pagemodel.DetectFileType(in.Filename)

	var chunks []pagemodel.Chunk
	for _, page := range in.Pages {
		if page.IsBlank() {
			continue
		}
		parts, err := strategy.Split(page.Text, fileType, size)
		if err != nil {
			e.log.Error("chunk page", "filename", in.Filename, "method", method, "page", page.Number, "error", err)
			return nil, fmt.Errorf("chunk %s page %d: %w", in.Filename, page.Number, err)
		}
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunks = append(chunks, pagemodel.NewChunk(len(chunks)+1, page.Number, part))
		}
	}

	doc := &pagemodel.ChunkedDocument{
		Filename:       in.Filename,
		TotalChunks:    len(chunks),
		TotalPages:     len(in.Pages),
		LoadingMethod:  in.LoadingMethod,
		ChunkingMethod: method,
		FileType:       fileType,
		Timestamp:      pagemodel.Timestamp(e.now()),
		Chunks:         chunks,
	}
	if method == FixedSize {
		doc.ChunkSize = &size
	}
	if doc.Chunks == nil {
		doc.Chunks = []pagemodel.Chunk{}
	}
	return doc, nil
}
