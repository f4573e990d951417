package auth

import (
	"context"

	"github.com/rpggio/motherai/internal/domain/user"
)

// Backend is the remote authentication API.
type Backend interface {
	Login(ctx context.Context, email, password string) (*Tokens, error)
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*user.User, error)
	UpdateMe(ctx context.Context, update ProfileUpdate) (*user.User, error)
	APIUsage(ctx context.Context) (*APIUsage, error)
}
