package pagemodel

import "errors"

var (
	// ErrInvalidArgument is returned when the Page Model is missing or empty.
	ErrInvalidArgument = errors.New("docseg: invalid argument")

	// ErrUnsupportedStrategy is returned for unknown chunking or parsing strategy names.
	ErrUnsupportedStrategy = errors.New("docseg: unsupported strategy")

	// ErrExtraction marks a failure of a structural extraction collaborator.
	// Parsing strategies recover from it by falling back to verbatim text.
	ErrExtraction = errors.New("docseg: extraction failed")
)
