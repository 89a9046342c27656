package parsing

import (
	"context"

	"github.com/dgallion1/docseg/internal/pagemodel"
	"github.com/dgallion1/docseg/internal/titles"
)

// verbatim emits each page unchanged under a fixed element type.
type verbatim struct {
	name        string
	elementType string
}

func (v verbatim) Name() string { return v.name }

func (v verbatim) Parse(_ context.Context, in Input, _ pagemodel.FileType) (Result, error) {
	return Ok(pageElements(in.Pages, v.elementType)), nil
}

// sections emits the titled sections found by the upper-case heading scan.
type sections struct {
	opts titles.Options
}

func (sections) Name() string { return ByTitles }

func (s sections) Parse(_ context.Context, in Input, _ pagemodel.FileType) (Result, error) {
	found := titles.Split(in.Pages, s.opts)
	out := make([]pagemodel.Element, 0, len(found))
	for _, sec := range found {
		out = append(out, pagemodel.Element{
			Type:    pagemodel.ElementSection,
			Title:   pagemodel.Str(sec.Title),
			Content: sec.Body,
			Page:    sec.Page,
		})
	}
	return Ok(out), nil
}
