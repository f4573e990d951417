// Package backend binds the domain services to the platform's REST API.
package backend

import (
	"context"
	"net/url"
	"strings"

	"github.com/rpggio/motherai/internal/domain/admin"
	"github.com/rpggio/motherai/internal/domain/auth"
	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/rpggio/motherai/internal/domain/workspace"
)

// Doer sends one JSON request. *gateway.Gateway implements it.
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

func escapeID(id string) string {
	return url.PathEscape(id)
}

// escapeFilePath escapes each segment of a slash-delimited path so the
// separators survive.
func escapeFilePath(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

var (
	_ auth.Backend      = (*Auth)(nil)
	_ project.Backend   = (*Projects)(nil)
	_ workspace.Backend = (*Files)(nil)
	_ admin.Backend     = (*Admin)(nil)
)
