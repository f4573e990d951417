package backend

import (
	"context"
	"net/http"

	"github.com/rpggio/motherai/internal/domain/workspace"
)

// Files implements workspace.Backend.
type Files struct {
	doer Doer
}

func NewFiles(doer Doer) *Files {
	return &Files{doer: doer}
}

func (f *Files) ListFiles(ctx context.Context, projectID string) ([]workspace.File, error) {
	var files []workspace.File
	if err := f.doer.Do(ctx, http.MethodGet, "/projects/"+escapeID(projectID)+"/files", nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (f *Files) ReadFile(ctx context.Context, projectID, path string) (*workspace.Content, error) {
	var content workspace.Content
	if err := f.doer.Do(ctx, http.MethodGet, filePath(projectID, path), nil, &content); err != nil {
		return nil, err
	}
	if content.Path == "" {
		content.Path = path
	}
	return &content, nil
}

func (f *Files) WriteFile(ctx context.Context, projectID string, file workspace.Content) error {
	body := writeFileRequest{Content: file.Content, Language: file.Language}
	return f.doer.Do(ctx, http.MethodPut, filePath(projectID, file.Path), body, nil)
}

func filePath(projectID, path string) string {
	return "/projects/" + escapeID(projectID) + "/files/" + escapeFilePath(path)
}
