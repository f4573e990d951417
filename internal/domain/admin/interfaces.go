package admin

import (
	"context"

	"github.com/rpggio/motherai/internal/domain/user"
)

// Backend is the remote administration API.
type Backend interface {
	Applications(ctx context.Context) ([]user.Application, error)
	Approve(ctx context.Context, id string) (*Decision, error)
	Reject(ctx context.Context, id, reason string) (*Decision, error)
	Users(ctx context.Context) ([]user.Account, error)
	Suspend(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) error
	APIStats(ctx context.Context) (*APIStats, error)
}

// Authorizer resolves the signed-in administrator. *auth.Service implements it.
type Authorizer interface {
	RequireAdmin(ctx context.Context) (*user.User, error)
}
