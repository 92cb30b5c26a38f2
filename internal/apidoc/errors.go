package apidoc

import "errors"

var (
	// ErrMalformedTemplate means the document does not follow the expected
	// template: no title or version, an endpoint without a heading, or an
	// endpoint without path or method.
	ErrMalformedTemplate = errors.New("malformed documentation template")

	// ErrDuplicateSubsection means a table that may appear once per endpoint
	// appeared twice.
	ErrDuplicateSubsection = errors.New("duplicate subsection")

	// ErrUnclosedObject means the indentation of an object table could not be
	// turned into a tree.
	ErrUnclosedObject = errors.New("object hierarchy read error")
)
