package workspace

import "context"

// Backend stores a project's generated files.
type Backend interface {
	ListFiles(ctx context.Context, projectID string) ([]File, error)
	ReadFile(ctx context.Context, projectID, path string) (*Content, error)
	WriteFile(ctx context.Context, projectID string, file Content) error
}
