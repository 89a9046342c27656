package chunker

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/dgallion1/docseg/internal/pagemodel"
)

// Strategy names accepted by Engine.Chunk.
const (
	ByPages      = "by_pages"
	FixedSize    = "fixed_size"
	ByParagraphs = "by_paragraphs"
	BySentences  = "by_sentences"
)

const (
	// DefaultChunkSize is the fixed_size window when no hint is given.
	DefaultChunkSize = 1000
	// MaxOverlap caps the fixed_size window overlap.
	MaxOverlap = 200

	blockSize         = 1000
	sentenceBlockSize = 2000
)

var (
	fixedSizeSeparators = []string{"\n\n", "\n", ". ", " ", ""}
	sentenceSeparators  = []string{".", "!", "?", "\n", " "}
	// markdownSeparators cut before headings, then code fences, then
	// blank lines, so block structure survives whole where it fits.
	markdownSeparators = []string{
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"\n```",
		"\n\n", "\n", " ", "",
	}
)

// Strategy splits the text of a single page into chunk contents.
type Strategy interface {
	Name() string
	Split(text string, fileType pagemodel.FileType, chunkSize int) ([]string, error)
}

// Overlap returns the fixed_size window overlap for chunkSize.
func Overlap(chunkSize int) int {
	return min(MaxOverlap, chunkSize/10)
}

type pageStrategy struct{}

func (pageStrategy) Name() string { return ByPages }

func (pageStrategy) Split(text string, _ pagemodel.FileType, _ int) ([]string, error) {
	return []string{text}, nil
}

type fixedSizeStrategy struct{}

func (fixedSizeStrategy) Name() string { return FixedSize }

func (fixedSizeStrategy) Split(text string, _ pagemodel.FileType, chunkSize int) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators(fixedSizeSeparators),
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(Overlap(chunkSize)),
	)
	return splitter.SplitText(text)
}

type paragraphStrategy struct{}

func (paragraphStrategy) Name() string { return ByParagraphs }

func (paragraphStrategy) Split(text string, fileType pagemodel.FileType, _ int) ([]string, error) {
	if fileType == pagemodel.FileTypeMarkdown {
		return markdownBlocks(text, blockSize)
	}

	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

type sentenceStrategy struct{}

func (sentenceStrategy) Name() string { return BySentences }

func (sentenceStrategy) Split(text string, fileType pagemodel.FileType, _ int) ([]string, error) {
	if fileType != pagemodel.FileTypeMarkdown {
		return sentences(text)
	}

	blocks, err := markdownBlocks(text, sentenceBlockSize)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, b := range blocks {
		parts, err := sentences(b)
		if err != nil {
			return nil, err
		}
		out = append(out, parts...)
	}
	return out, nil
}

// markdownBlocks splits Markdown at block boundaries into pieces of at most
// size characters. Separators stay with the text that follows them, so the
// blocks concatenate back to the source.
func markdownBlocks(text string, size int) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators(markdownSeparators),
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithKeepSeparator(true),
	)
	blocks, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split markdown blocks: %w", err)
	}
	return blocks, nil
}

// sentences cuts at sentence punctuation into chunks of at most blockSize
// characters. The punctuation opens the piece after the cut.
func sentences(text string) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators(sentenceSeparators),
		textsplitter.WithChunkSize(blockSize),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithKeepSeparator(true),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split sentences: %w", err)
	}
	return parts, nil
}
