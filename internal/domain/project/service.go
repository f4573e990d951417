package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/motherai/internal/gateway"
	"golang.org/x/sync/singleflight"
)

// ListStaleAfter is how long a fetched project list is served from cache.
const ListStaleAfter = 2 * time.Minute

// Service handles project operations. It is shared by every View of the
// process so that one project never has two responses streaming at once.
type Service struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	cached    []Project
	fetchedAt time.Time
	valid     bool
	epoch     uint64
	group     singleflight.Group

	streamMu  sync.Mutex
	streaming map[string]struct{}
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for list staleness.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new project service.
func NewService(backend Backend, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		backend:   backend,
		logger:    logger,
		now:       time.Now,
		streaming: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the user's projects. A list younger than ListStaleAfter is
// served from cache unless a Create or Delete dropped it; concurrent loads
// share one request.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	s.mu.Lock()
	if s.valid && s.now().Sub(s.fetchedAt) < ListStaleAfter {
		list := slices.Clone(s.cached)
		s.mu.Unlock()
		return list, nil
	}
	epoch := s.epoch
	s.mu.Unlock()

	v, err, _ := s.group.Do("list", func() (any, error) {
		return s.backend.List(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	list := v.([]Project)

	s.mu.Lock()
	if s.epoch == epoch {
		s.cached = list
		s.fetchedAt = s.now()
		s.valid = true
	}
	s.mu.Unlock()
	return slices.Clone(list), nil
}

// Invalidate drops the cached list.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.valid = false
	s.epoch++
	s.mu.Unlock()
}

// beginStream claims projectID for one response. It reports false when a
// response for the project is already streaming.
func (s *Service) beginStream(projectID string) bool {
	s.streamMu.Lock()
	defer s.streamMu.Unlock()
	if _, busy := s.streaming[projectID]; busy {
		return false
	}
	s.streaming[projectID] = struct{}{}
	return true
}

func (s *Service) endStream(projectID string) {
	s.streamMu.Lock()
	delete(s.streaming, projectID)
	s.streamMu.Unlock()
}

// Streaming reports whether a response for projectID is in flight.
func (s *Service) Streaming(projectID string) bool {
	s.streamMu.Lock()
	defer s.streamMu.Unlock()
	_, busy := s.streaming[projectID]
	return busy
}

// Create creates a new project.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrInvalidInput
	}

	proj, err := s.backend.Create(ctx, req)
	if err != nil {
		if errors.Is(err, gateway.ErrBadRequest) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}
	s.Invalidate()

	s.logger.Info("project created", "project_id", proj.ID, "name", proj.Name)
	return proj, nil
}

// Get fetches a project with its messages.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	proj, err := s.backend.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// Delete removes a project.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	if err := s.backend.Delete(ctx, id); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("deleting project: %w", err)
	}
	s.Invalidate()

	s.logger.Info("project deleted", "project_id", id)
	return nil
}
