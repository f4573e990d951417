package auth

import "github.com/rpggio/motherai/internal/domain/user"

// State is the client-side authentication state.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateTokenExpiring  State = "token_expiring"
	StateRefreshing     State = "refreshing"
)

// Tokens is what the backend issues on login or refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	User         *user.User
}

// RegisterRequest is an access application.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Purpose  string `json:"purpose"`
}

// RegisterResult acknowledges an application.
type RegisterResult struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	Name         *string `json:"name,omitempty"`
	ClaudeAPIKey *string `json:"custom_claude_api_key,omitempty"`
}

// UsageSummary aggregates API consumption over a window.
type UsageSummary struct {
	InputTokens  int64   `json:"inputTokens"`
	OutputTokens int64   `json:"outputTokens"`
	Cost         float64 `json:"cost"`
	Requests     int64   `json:"requests"`
}

// APIUsage is the current user's consumption.
type APIUsage struct {
	Today     UsageSummary `json:"today"`
	ThisMonth UsageSummary `json:"thisMonth"`
}

const (
	MinPasswordLength = 8
	MinPurposeLength  = 20
)
