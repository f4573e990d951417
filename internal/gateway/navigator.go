package gateway

import "context"

// Navigator sends the user back to the login entry point after the session
// has been invalidated.
type Navigator interface {
	RedirectToLogin(ctx context.Context, reason string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, reason string)

func (f NavigatorFunc) RedirectToLogin(ctx context.Context, reason string) {
	f(ctx, reason)
}

type noopNavigator struct{}

func (noopNavigator) RedirectToLogin(context.Context, string) {}
