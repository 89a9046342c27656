// Package titles splits page text into sections delimited by short
// upper-case heading lines.
package titles

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docseg/internal/pagemodel"
)

// MaxTitleLen is the exclusive upper bound on a heading's trimmed length.
const MaxTitleLen = 60

// Section is a titled run of body lines.
type Section struct {
	Title string
	Body  string
	// Page is the page the title line appeared on.
	Page int
}

// Options tunes segmentation.
type Options struct {
	// KeepUntitled emits lines seen before the first heading as a section
	// with an empty title instead of dropping them.
	KeepUntitled bool
}

// IsTitle reports whether line is treated as a section heading.
func IsTitle(line string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(line)) < MaxTitleLen && isUpper(line)
}

// isUpper is true when line has at least one cased letter and none of its
// cased letters are lower or title case.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// Split scans every page's lines in order and returns the sections found.
func Split(pages []pagemodel.Page, opts Options) []Section {
	var (
		sections []Section
		seg      segmenter
	)
	if len(pages) > 0 {
		seg.page = pages[0].Number
	}

	for _, p := range pages {
		for _, line := range strings.Split(p.Text, "\n") {
			if !IsTitle(line) {
				seg.body = append(seg.body, line)
				continue
			}
			if s, ok := seg.flush(opts); ok {
				sections = append(sections, s)
			}
			seg = segmenter{title: strings.TrimSpace(line), titled: true, page: p.Number}
		}
	}

	if s, ok := seg.flush(opts); ok {
		sections = append(sections, s)
	}
	return sections
}

type segmenter struct {
	title  string
	titled bool
	body   []string
	page   int
}

func (s segmenter) flush(opts Options) (Section, bool) {
	body := strings.Join(s.body, "\n")
	if !s.titled && (!opts.KeepUntitled || strings.TrimSpace(body) == "") {
		return Section{}, false
	}
	return Section{Title: s.title, Body: body, Page: s.page}, true
}
