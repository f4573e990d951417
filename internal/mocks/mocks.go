package mocks

import (
	"context"

	"github.com/rpggio/motherai/internal/domain/admin"
	"github.com/rpggio/motherai/internal/domain/auth"
	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/rpggio/motherai/internal/domain/user"
	"github.com/rpggio/motherai/internal/domain/workspace"
	"github.com/rpggio/motherai/internal/stream"
	"github.com/stretchr/testify/mock"
)

// AuthBackend is a mock for auth.Backend.
type AuthBackend struct {
	mock.Mock
}

func (m *AuthBackend) Login(ctx context.Context, email, password string) (*auth.Tokens, error) {
	args := m.Called(ctx, email, password)
	if tokens, ok := args.Get(0).(*auth.Tokens); ok {
		return tokens, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthBackend) Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResult, error) {
	args := m.Called(ctx, req)
	if res, ok := args.Get(0).(*auth.RegisterResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthBackend) Refresh(ctx context.Context, refreshToken string) (*auth.Tokens, error) {
	args := m.Called(ctx, refreshToken)
	if tokens, ok := args.Get(0).(*auth.Tokens); ok {
		return tokens, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthBackend) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *AuthBackend) Me(ctx context.Context) (*user.User, error) {
	args := m.Called(ctx)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthBackend) UpdateMe(ctx context.Context, update auth.ProfileUpdate) (*user.User, error) {
	args := m.Called(ctx, update)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthBackend) APIUsage(ctx context.Context) (*auth.APIUsage, error) {
	args := m.Called(ctx)
	if usage, ok := args.Get(0).(*auth.APIUsage); ok {
		return usage, args.Error(1)
	}
	return nil, args.Error(1)
}

// ProjectBackend is a mock for project.Backend.
type ProjectBackend struct {
	mock.Mock
}

func (m *ProjectBackend) List(ctx context.Context) ([]project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectBackend) Create(ctx context.Context, req project.CreateRequest) (*project.Project, error) {
	args := m.Called(ctx, req)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectBackend) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectBackend) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Streamer is a mock for project.Streamer. Events are
// replayed through the handlers before the mocked error is returned.
type Streamer struct {
	mock.Mock
	Events []stream.Event
}

func (m *Streamer) Send(ctx context.Context, projectID string, req stream.SendRequest, h stream.Handlers) error {
	args := m.Called(ctx, projectID, req)
	for _, ev := range m.Events {
		switch ev.Kind {
		case stream.KindToken:
			if h.OnToken != nil {
				h.OnToken(ev.Content)
			}
		case stream.KindEnd:
			if h.OnEnd != nil {
				h.OnEnd(ev.MessageID)
			}
		case stream.KindError:
			if h.OnError != nil {
				h.OnError(ev.Message)
			}
		}
	}
	return args.Error(0)
}

// WorkspaceBackend is a mock for workspace.Backend.
type WorkspaceBackend struct {
	mock.Mock
}

func (m *WorkspaceBackend) ListFiles(ctx context.Context, projectID string) ([]workspace.File, error) {
	args := m.Called(ctx, projectID)
	if files, ok := args.Get(0).([]workspace.File); ok {
		return files, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkspaceBackend) ReadFile(ctx context.Context, projectID, path string) (*workspace.Content, error) {
	args := m.Called(ctx, projectID, path)
	if content, ok := args.Get(0).(*workspace.Content); ok {
		return content, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkspaceBackend) WriteFile(ctx context.Context, projectID string, file workspace.Content) error {
	args := m.Called(ctx, projectID, file)
	return args.Error(0)
}

// AdminBackend is a mock for admin.Backend.
type AdminBackend struct {
	mock.Mock
}

func (m *AdminBackend) Applications(ctx context.Context) ([]user.Application, error) {
	args := m.Called(ctx)
	if apps, ok := args.Get(0).([]user.Application); ok {
		return apps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AdminBackend) Approve(ctx context.Context, id string) (*admin.Decision, error) {
	args := m.Called(ctx, id)
	if d, ok := args.Get(0).(*admin.Decision); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AdminBackend) Reject(ctx context.Context, id, reason string) (*admin.Decision, error) {
	args := m.Called(ctx, id, reason)
	if d, ok := args.Get(0).(*admin.Decision); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AdminBackend) Users(ctx context.Context) ([]user.Account, error) {
	args := m.Called(ctx)
	if accounts, ok := args.Get(0).([]user.Account); ok {
		return accounts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AdminBackend) Suspend(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *AdminBackend) Activate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *AdminBackend) APIStats(ctx context.Context) (*admin.APIStats, error) {
	args := m.Called(ctx)
	if stats, ok := args.Get(0).(*admin.APIStats); ok {
		return stats, args.Error(1)
	}
	return nil, args.Error(1)
}

// Authorizer is a mock for admin.Authorizer.
type Authorizer struct {
	mock.Mock
}

func (m *Authorizer) RequireAdmin(ctx context.Context) (*user.User, error) {
	args := m.Called(ctx)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
