package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// navigator is the terminal's login entry point: it tells the user to sign
// in again. It prints once per invocation.
type navigator struct {
	w    io.Writer
	once sync.Once
}

func (n *navigator) RedirectToLogin(_ context.Context, reason string) {
	n.once.Do(func() {
		fmt.Fprintln(n.w, warnStyle.Render(fmt.Sprintf("Signed out: %s. Run `motherai login` to sign in again.", reason)))
	})
}
