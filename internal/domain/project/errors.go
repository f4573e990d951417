package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrNoProject indicates the view has no project loaded.
	ErrNoProject = errors.New("no project loaded")
	// ErrStreamInProgress indicates a response is still streaming.
	ErrStreamInProgress = errors.New("a response is already streaming")
	// ErrEmptyMessage indicates the message has no content.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrResponseFailed indicates the stream ended with an error frame or a
	// dropped connection.
	ErrResponseFailed = errors.New("phase response failed")
)
