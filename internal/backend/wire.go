package backend

import (
	"github.com/rpggio/motherai/internal/domain/auth"
	"github.com/rpggio/motherai/internal/domain/user"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenType    string     `json:"token_type"`
	User         *user.User `json:"user,omitempty"`
}

func (r tokenResponse) tokens() *auth.Tokens {
	return &auth.Tokens{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken, User: r.User}
}

// envelope is the {"data": ...} wrapper used by the user and admin routes.
type envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type writeFileRequest struct {
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}
