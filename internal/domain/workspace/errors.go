package workspace

import "errors"

var (
	// ErrInvalidPath indicates a path with no usable segments.
	ErrInvalidPath = errors.New("invalid file path")
	// ErrNotAFile indicates a folder was selected where a file was expected.
	ErrNotAFile = errors.New("not a file")
	// ErrNoFileSelected indicates the editor has no open file.
	ErrNoFileSelected = errors.New("no file selected")
)
