// Package app wires the client services over one token store and gateway.
package app

import (
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/motherai/internal/backend"
	"github.com/rpggio/motherai/internal/domain/admin"
	"github.com/rpggio/motherai/internal/domain/auth"
	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/rpggio/motherai/internal/domain/workspace"
	"github.com/rpggio/motherai/internal/gateway"
	"github.com/rpggio/motherai/internal/mcp"
	"github.com/rpggio/motherai/internal/stream"
	"github.com/rpggio/motherai/internal/telemetry"
	"github.com/rpggio/motherai/internal/tokenstore"
)

// Options configures an App.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Navigator gateway.Navigator
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

// App holds the client services. All of them share the token store passed
// to New.
type App struct {
	Gateway  *gateway.Gateway
	Sessions *auth.Service
	Projects *project.Service
	Streamer *stream.Client
	Files    *backend.Files
	Admin    *admin.Service

	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// New creates the services over store.
func New(store tokenstore.Store, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	gw := gateway.New(store, gateway.Options{
		BaseURL:   opts.BaseURL,
		Timeout:   opts.Timeout,
		Navigator: opts.Navigator,
		Metrics:   opts.Metrics,
		Logger:    logger.With("component", "gateway"),
	})

	sessions := auth.NewService(backend.NewAuth(gw), store, opts.Navigator, logger.With("component", "auth"), auth.WithMetrics(opts.Metrics))

	return &App{
		Gateway:  gw,
		Sessions: sessions,
		Projects: project.NewService(backend.NewProjects(gw), logger.With("component", "projects")),
		Streamer: stream.NewClient(gw, logger.With("component", "stream"), opts.Metrics),
		Files:    backend.NewFiles(gw),
		Admin:    admin.NewService(backend.NewAdmin(gw), sessions, logger.With("component", "admin")),
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// NewView opens an empty project view.
func (a *App) NewView() *project.View {
	return project.NewView(a.Projects, a.Streamer, a.logger.With("component", "view"))
}

// Workspace opens the file workspace of a project.
func (a *App) Workspace(projectID string) *workspace.Workspace {
	return workspace.New(a.Files, projectID, a.logger.With("component", "workspace"))
}

// MCPServer exposes the services as MCP tools.
func (a *App) MCPServer(version string) *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Sessions: a.Sessions,
			Projects: a.Projects,
			Streamer: a.Streamer,
			Files:    a.Files,
		},
		Version: version,
		Metrics: a.metrics,
		Logger:  a.logger.With("component", "mcp"),
	})
}
