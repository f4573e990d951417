package admin

import "errors"

var (
	// ErrReasonRequired indicates a rejection without a reason.
	ErrReasonRequired = errors.New("rejection reason is required")
	// ErrInvalidInput indicates a missing identifier.
	ErrInvalidInput = errors.New("invalid admin input")
	// ErrSelfAction indicates an administrator tried to change their own status.
	ErrSelfAction = errors.New("cannot change the status of your own account")
)
