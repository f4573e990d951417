package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/motherai/internal/domain/user"
)

// Service exposes administrator operations. Every call checks the local
// session for the admin role before any request is sent.
type Service struct {
	backend Backend
	authz   Authorizer
	logger  *slog.Logger
}

// NewService creates a new admin service.
func NewService(backend Backend, authz Authorizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{backend: backend, authz: authz, logger: logger}
}

// PendingApplications lists applications awaiting review.
func (s *Service) PendingApplications(ctx context.Context) ([]user.Application, error) {
	if _, err := s.authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	apps, err := s.backend.Applications(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}

	var pending []user.Application
	for _, app := range apps {
		if app.Status == "" || app.Status == user.StatusPending {
			pending = append(pending, app)
		}
	}
	return pending, nil
}

// Approve grants access to an applicant.
func (s *Service) Approve(ctx context.Context, id string) (*Decision, error) {
	admin, err := s.authz.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}

	d, err := s.backend.Approve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("approving application %s: %w", id, err)
	}
	s.logger.Info("application approved", "application_id", id, "admin_id", admin.ID)
	return d, nil
}

// Reject declines an application. A reason is mandatory.
func (s *Service) Reject(ctx context.Context, id, reason string) (*Decision, error) {
	admin, err := s.authz.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	d, err := s.backend.Reject(ctx, id, reason)
	if err != nil {
		return nil, fmt.Errorf("rejecting application %s: %w", id, err)
	}
	s.logger.Info("application rejected", "application_id", id, "admin_id", admin.ID)
	return d, nil
}

// Users lists every account.
func (s *Service) Users(ctx context.Context) ([]user.Account, error) {
	if _, err := s.authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	accounts, err := s.backend.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return accounts, nil
}

// Suspend blocks an account.
func (s *Service) Suspend(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, "suspend", s.backend.Suspend)
}

// Activate restores a suspended account.
func (s *Service) Activate(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, "activate", s.backend.Activate)
}

func (s *Service) setStatus(ctx context.Context, id, action string, call func(context.Context, string) error) error {
	admin, err := s.authz.RequireAdmin(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	if id == admin.ID {
		return ErrSelfAction
	}

	if err := call(ctx, id); err != nil {
		return fmt.Errorf("%s user %s: %w", action, id, err)
	}
	s.logger.Info("user status changed", "action", action, "user_id", id, "admin_id", admin.ID)
	return nil
}

// APIStats returns platform-wide API cost telemetry.
func (s *Service) APIStats(ctx context.Context) (*APIStats, error) {
	if _, err := s.authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	stats, err := s.backend.APIStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching api stats: %w", err)
	}
	return stats, nil
}
