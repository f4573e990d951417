package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/motherai/internal/domain/auth"
	"github.com/rpggio/motherai/internal/domain/phase"
	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/rpggio/motherai/internal/domain/workspace"
	"github.com/rpggio/motherai/internal/gateway"
)

// APIError is the payload of a failed tool call.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to tool error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated), errors.Is(err, auth.ErrSessionExpired), errors.Is(err, gateway.ErrUnauthorized):
		return &APIError{Code: "NOT_AUTHENTICATED", Message: err.Error(), RecoveryHint: "Ask the user to run `motherai login`"}
	case errors.Is(err, auth.ErrNotApproved):
		return &APIError{Code: "NOT_APPROVED", Message: "account is awaiting approval", RecoveryHint: "Wait for an administrator to approve the application"}
	case errors.Is(err, auth.ErrAccountSuspended), errors.Is(err, auth.ErrAccountRejected), errors.Is(err, gateway.ErrForbidden):
		return &APIError{Code: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, project.ErrProjectNotFound), errors.Is(err, gateway.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: err.Error(), RecoveryHint: "Call list_projects to find valid ids"}
	case errors.Is(err, phase.ErrInvalidPhase):
		return &APIError{Code: "INVALID_PHASE", Message: err.Error(), RecoveryHint: "Phases are numbered 1 to 14; see list_phases"}
	case errors.Is(err, project.ErrInvalidInput), errors.Is(err, project.ErrEmptyMessage),
		errors.Is(err, workspace.ErrInvalidPath), errors.Is(err, gateway.ErrBadRequest):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, project.ErrStreamInProgress):
		return &APIError{Code: "STREAM_IN_PROGRESS", Message: err.Error(), RecoveryHint: "Wait for the running reply to finish, then send again"}
	case errors.Is(err, project.ErrResponseFailed):
		return &APIError{Code: "RESPONSE_FAILED", Message: err.Error(), RecoveryHint: "Retry the message"}
	case errors.Is(err, gateway.ErrTransport), errors.Is(err, gateway.ErrServer):
		return &APIError{Code: "BACKEND_UNAVAILABLE", Message: err.Error(), RecoveryHint: "Retry later"}
	default:
		return &APIError{Code: "INTERNAL", Message: err.Error()}
	}
}

// toolError renders err as a failed tool result the agent can read.
func toolError(err error) *sdkmcp.CallToolResult {
	data, marshalErr := json.Marshal(MapError(err))
	if marshalErr != nil {
		data = []byte(err.Error())
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
