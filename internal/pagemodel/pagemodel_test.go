package pagemodel

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFileType(t *testing.T) {
	assert.Equal(t, FileTypeMarkdown, DetectFileType("notes.md"))
	assert.Equal(t, FileTypeMarkdown, DetectFileType("NOTES.MARKDOWN"))
	assert.Equal(t, FileTypePDF, DetectFileType("report.pdf"))
	assert.Equal(t, FileTypePDF, DetectFileType("no-extension"))
}

func TestNewChunk(t *testing.T) {
	c := NewChunk(4, 2, "  three little  words ")
	assert.Equal(t, ChunkMeta{ChunkID: 4, PageNumber: 2, PageRange: "2", WordCount: 3}, c.Metadata)
	assert.Equal(t, 0, WordCount(" \n\t"))
}

func TestElementJSONKeepsEmptyOptionalStrings(t *testing.T) {
	raw, err := json.Marshal(Element{Type: ElementSection, Content: "body", Page: 1, Title: Str("")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"section","content":"body","page":1,"title":""}`, string(raw))

	raw, err = json.Marshal(Element{Type: ElementText, Content: "x", Page: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"text","content":"x","page":2}`, string(raw))
}

func TestNewLoadedDocument(t *testing.T) {
	pages := []Page{{Number: 1, Text: "one"}, {Number: 3, Text: "three words here"}}
	doc := NewLoadedDocument("guide.md", "plain", pages, 3, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC))

	assert.Equal(t, "loaded", doc.ChunkingMethod)
	assert.Equal(t, FileTypeMarkdown, doc.FileType)
	assert.Equal(t, 2, doc.TotalChunks)
	assert.Equal(t, 3, doc.TotalPages)
	assert.Nil(t, doc.ChunkSize)
	assert.Equal(t, "2024-05-06T07:08:09.000000", doc.Timestamp)
	require.Len(t, doc.Chunks, 2)
	assert.Equal(t, 3, doc.Chunks[1].Metadata.PageNumber)
	assert.Equal(t, 2, doc.Chunks[1].Metadata.ChunkID)
	assert.Equal(t, 3, doc.Chunks[1].Metadata.WordCount)
}
