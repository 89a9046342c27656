package pagemodel

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FileType is the document family a Page Model was extracted from.
type FileType string

const (
	FileTypePDF      FileType = "pdf"
	FileTypeMarkdown FileType = "markdown"
)

// TimestampLayout is the layout used for the timestamp field of records.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// DetectFileType maps a filename onto the file type recorded in
// DocumentRecords. Anything that is not Markdown is treated as PDF.
func DetectFileType(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return FileTypeMarkdown
	default:
		return FileTypePDF
	}
}

// Page is one PageRecord of a Page Model.
type Page struct {
	Number   int            `json:"page"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IsBlank reports whether the page has no text after trimming.
func (p Page) IsBlank() bool {
	return strings.TrimSpace(p.Text) == ""
}

// ChunkMeta is the per-chunk annotation block.
type ChunkMeta struct {
	ChunkID    int    `json:"chunk_id"`
	PageNumber int    `json:"page_number"`
	PageRange  string `json:"page_range"`
	WordCount  int    `json:"word_count"`
}

// Chunk is a content fragment tagged with its id and source page.
type Chunk struct {
	Content  string    `json:"content"`
	Metadata ChunkMeta `json:"metadata"`
}

// NewChunk builds a chunk for page with a recomputed word count.
func NewChunk(id, page int, content string) Chunk {
	return Chunk{
		Content: content,
		Metadata: ChunkMeta{
			ChunkID:    id,
			PageNumber: page,
			PageRange:  strconv.Itoa(page),
			WordCount:  WordCount(content),
		},
	}
}

// WordCount is the whitespace-token count of s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// ChunkedDocument is the chunked form of a DocumentRecord.
type ChunkedDocument struct {
	Filename       string   `json:"filename"`
	TotalChunks    int      `json:"total_chunks"`
	TotalPages     int      `json:"total_pages"`
	LoadingMethod  string   `json:"loading_method"`
	ChunkingMethod string   `json:"chunking_method"`
	FileType       FileType `json:"file_type"`
	ChunkSize      *int     `json:"chunk_size"`
	Timestamp      string   `json:"timestamp"`
	Chunks         []Chunk  `json:"chunks"`
}

// Element types emitted by the parsing engine. Partition-derived elements
// use their own lower-cased category instead.
const (
	ElementText    = "text"
	ElementPage    = "page"
	ElementSection = "section"
	ElementTable   = "table"
	ElementImage   = "image"
)

// Element is one structural unit of a parsed document. Optional fields are
// pointers so an empty title or alt text is still written when it applies.
type Element struct {
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Page       int     `json:"page"`
	Title      *string `json:"title,omitempty"`
	TableIndex int     `json:"table_index,omitempty"`
	ImageIndex int     `json:"image_index,omitempty"`
	ImageAlt   *string `json:"image_alt,omitempty"`
	ImageSrc   *string `json:"image_src,omitempty"`
}

// Str returns a pointer to s for the optional Element fields.
func Str(s string) *string {
	return &s
}

// ParsedMeta is the document-level block of a parsed record.
type ParsedMeta struct {
	Filename      string   `json:"filename"`
	TotalPages    int      `json:"total_pages"`
	ParsingMethod string   `json:"parsing_method"`
	FileType      FileType `json:"file_type"`
	Timestamp     string   `json:"timestamp"`
}

// ParsedDocument is the parsed form of a DocumentRecord.
type ParsedDocument struct {
	Metadata ParsedMeta `json:"metadata"`
	Content  []Element  `json:"content"`

	// Fallback holds the reason a structural strategy degraded to verbatim
	// page text. It is not part of the exported record.
	Fallback string `json:"-"`
}

// Timestamp formats t the way records carry it.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// NewLoadedDocument wraps an extraction result as a record with one chunk per
// page, the shape persisted right after loading.
func NewLoadedDocument(filename, loadingMethod string, pages []Page, totalPages int, now time.Time) *ChunkedDocument {
	chunks := make([]Chunk, 0, len(pages))
	for _, p := range pages {
		chunks = append(chunks, NewChunk(len(chunks)+1, p.Number, p.Text))
	}
	return &ChunkedDocument{
		Filename:       filename,
		TotalChunks:    len(chunks),
		TotalPages:     totalPages,
		LoadingMethod:  loadingMethod,
		ChunkingMethod: "loaded",
		FileType:       DetectFileType(filename),
		Timestamp:      Timestamp(now),
		Chunks:         chunks,
	}
}
