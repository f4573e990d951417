package auth

import "errors"

var (
	// ErrInvalidCredentials indicates the email/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrDuplicateEmail indicates an application already exists for the email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidInput indicates a registration or profile field failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionExpired indicates the session could not be renewed.
	ErrSessionExpired = errors.New("session expired")
	// ErrAccountSuspended indicates the account is suspended.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrAccountRejected indicates the application was rejected.
	ErrAccountRejected = errors.New("account application rejected")
	// ErrNotApproved indicates the account is still awaiting approval.
	ErrNotApproved = errors.New("account not approved")
	// ErrNotAuthenticated indicates no session is held.
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrNotAdmin indicates the current user is not an administrator.
	ErrNotAdmin = errors.New("administrator role required")
)
