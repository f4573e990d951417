package mcp

import (
	"github.com/rpggio/motherai/internal/domain/phase"
	"github.com/rpggio/motherai/internal/domain/project"
)

type emptyParams struct{}

type CreateProjectParams struct {
	Name        string `json:"name" jsonschema:"project display name"`
	Description string `json:"description,omitempty" jsonschema:"what the project should build"`
}

type GetProjectParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id from list_projects"`
	Phase     int    `json:"phase,omitempty" jsonschema:"phase whose history to include (defaults to the current phase)"`
}

type SendMessageParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id from list_projects"`
	Phase     int    `json:"phase" jsonschema:"phase number 1-14 whose agent receives the message"`
	Content   string `json:"content" jsonschema:"message text"`
}

type ListFilesParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id from list_projects"`
}

type ReadFileParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id from list_projects"`
	Path      string `json:"path" jsonschema:"slash-separated file path"`
}

type WriteFileParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id from list_projects"`
	Path      string `json:"path" jsonschema:"slash-separated file path"`
	Content   string `json:"content" jsonschema:"full file content"`
	Language  string `json:"language,omitempty" jsonschema:"language name (inferred from the path when omitted)"`
}

type ProjectSummaryResponse struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Status       string       `json:"status,omitempty"`
	CurrentPhase phase.Number `json:"current_phase"`
	CreatedAt    string       `json:"created_at,omitempty"`
}

type ProjectDetailResponse struct {
	ProjectSummaryResponse
	Phase    phase.Number          `json:"phase"`
	Progress []phase.Progress      `json:"progress"`
	Messages []project.ChatMessage `json:"messages"`
}

type SendMessageResponse struct {
	Reply     string `json:"reply"`
	MessageID string `json:"message_id"`
	Phase     int    `json:"phase"`
}

type FileContentResponse struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
}

func summarize(p project.Project) ProjectSummaryResponse {
	return ProjectSummaryResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Status:       p.Status,
		CurrentPhase: p.CurrentPhase,
		CreatedAt:    p.CreatedAt,
	}
}
