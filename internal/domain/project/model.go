package project

import "github.com/rpggio/motherai/internal/domain/phase"

// Project is a unit of work moving through the phases.
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Status       string        `json:"status"`
	CurrentPhase phase.Number  `json:"current_phase"`
	CreatedAt    string        `json:"created_at"`
	Messages     []ChatMessage `json:"messages,omitempty"`
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one entry of a phase conversation.
type ChatMessage struct {
	ID        string       `json:"id"`
	Role      Role         `json:"role"`
	Content   string       `json:"content"`
	Phase     phase.Number `json:"phase"`
	CreatedAt string       `json:"created_at"`
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// StreamState is the lifecycle of the response being generated in a view.
type StreamState string

const (
	StreamIdle      StreamState = "idle"
	StreamStreaming StreamState = "streaming"
	StreamCompleted StreamState = "completed"
	StreamErrored   StreamState = "errored"
)
