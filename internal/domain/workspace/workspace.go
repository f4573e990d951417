package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rpggio/motherai/internal/gateway"
)

// Workspace is the file tree and editor state of one project.
type Workspace struct {
	backend   Backend
	projectID string
	logger    *slog.Logger

	mu       sync.Mutex
	files    []File
	tree     []*Node
	selected string
	language string
	buffer   string
	saved    string
}

// New creates an empty workspace for a project.
func New(backend Backend, projectID string, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Workspace{
		backend:   backend,
		projectID: projectID,
		logger:    logger.With("project_id", projectID),
	}
}

// Load fetches the file list and rebuilds the tree.
func (w *Workspace) Load(ctx context.Context) error {
	files, err := w.backend.ListFiles(ctx, w.projectID)
	if err != nil {
		return fmt.Errorf("listing files: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.files = files
	w.tree = BuildTree(files)
	return nil
}

// Tree returns a copy of the current tree.
func (w *Workspace) Tree() []*Node {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneNodes(w.tree)
}

// SelectFile opens a file node in the editor.
func (w *Workspace) SelectFile(ctx context.Context, node *Node) error {
	if node == nil || node.IsFolder() {
		return ErrNotAFile
	}
	path := NormalizePath(node.Path)
	if path == "" {
		return ErrInvalidPath
	}

	content, err := w.LoadContent(ctx, path)
	if err != nil {
		return err
	}
	language := node.Language
	if language == "" {
		language = DetectLanguage(path)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.selected = path
	w.language = language
	w.buffer = content
	w.saved = content
	return nil
}

// LoadContent returns the stored content of path. A missing or empty file
// yields a placeholder header instead of an error.
func (w *Workspace) LoadContent(ctx context.Context, path string) (string, error) {
	path = NormalizePath(path)
	if path == "" {
		return "", ErrInvalidPath
	}

	file, err := w.backend.ReadFile(ctx, w.projectID, path)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			w.logger.Debug("file has no stored content", "path", path)
			return Placeholder(path, w.languageOf(path)), nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if file == nil || file.Content == "" {
		lang := w.languageOf(path)
		if file != nil && file.Language != "" {
			lang = file.Language
		}
		return Placeholder(path, lang), nil
	}
	return file.Content, nil
}

func (w *Workspace) languageOf(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n := Find(w.tree, path); n != nil && n.Language != "" {
		return n.Language
	}
	return DetectLanguage(path)
}

// Edit replaces the editor buffer.
func (w *Workspace) Edit(content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == "" {
		return ErrNoFileSelected
	}
	w.buffer = content
	return nil
}

// Selected is the path open in the editor.
func (w *Workspace) Selected() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected
}

func (w *Workspace) Buffer() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffer
}

// Dirty reports unsaved edits.
func (w *Workspace) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected != "" && w.buffer != w.saved
}

// Save writes the editor buffer to the selected file.
func (w *Workspace) Save(ctx context.Context) error {
	w.mu.Lock()
	path, content, language := w.selected, w.buffer, w.language
	w.mu.Unlock()
	if path == "" {
		return ErrNoFileSelected
	}
	return w.SaveFile(ctx, path, content, language)
}

// SaveFile writes content to path. Local state changes only after the
// backend accepts the write.
func (w *Workspace) SaveFile(ctx context.Context, path, content, language string) error {
	path = NormalizePath(path)
	if path == "" {
		return ErrInvalidPath
	}
	if language == "" {
		language = DetectLanguage(path)
	}

	err := w.backend.WriteFile(ctx, w.projectID, Content{Path: path, Content: content, Language: language})
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if Find(w.tree, path) == nil {
		w.files = append(w.files, File{Path: path, Language: language})
		w.tree = BuildTree(w.files)
	}
	if w.selected == path {
		if w.buffer == w.saved {
			w.buffer = content
		}
		w.saved = content
	}
	w.logger.Info("file saved", "path", path, "bytes", len(content))
	return nil
}
