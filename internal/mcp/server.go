package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/motherai/internal/domain/auth"
	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/rpggio/motherai/internal/domain/user"
	"github.com/rpggio/motherai/internal/domain/workspace"
	"github.com/rpggio/motherai/internal/telemetry"
)

// SessionService defines the session operations needed by MCP.
type SessionService interface {
	EnsureFresh(ctx context.Context) error
	CurrentUser(ctx context.Context) *user.User
	RequireApproved(ctx context.Context) (*user.User, error)
	APIUsage(ctx context.Context) (*auth.APIUsage, error)
}

// Services contains everything the tools call into.
type Services struct {
	Sessions SessionService
	Projects *project.Service
	Streamer project.Streamer
	Files    workspace.Backend
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Metrics  *telemetry.Metrics
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "motherai",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(sessionMiddleware(cfg.Services.Sessions, cfg.Logger))
	server.AddReceivingMiddleware(metricsMiddleware(cfg.Metrics))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services, cfg.Logger)

	return server
}
