package project

import (
	"context"

	"github.com/rpggio/motherai/internal/stream"
)

// Backend provides remote project storage.
type Backend interface {
	List(ctx context.Context) ([]Project, error)
	Create(ctx context.Context, req CreateRequest) (*Project, error)
	Get(ctx context.Context, id string) (*Project, error)
	Delete(ctx context.Context, id string) error
}

// Streamer sends a phase message and delivers the response through handlers.
// *stream.Client implements it.
type Streamer interface {
	Send(ctx context.Context, projectID string, req stream.SendRequest, h stream.Handlers) error
}
