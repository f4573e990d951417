package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rpggio/motherai/internal/domain/user"
	"github.com/rpggio/motherai/internal/gateway"
	"github.com/rpggio/motherai/internal/telemetry"
	"github.com/rpggio/motherai/internal/tokenstore"
	"golang.org/x/sync/singleflight"
)

// Service drives the session lifecycle.
type Service struct {
	backend   Backend
	store     tokenstore.Store
	navigator gateway.Navigator
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	transient State
	refresh   singleflight.Group
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics records refresh outcomes.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new session controller.
func NewService(backend Backend, store tokenstore.Store, navigator gateway.Navigator, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if navigator == nil {
		navigator = gateway.NavigatorFunc(func(context.Context, string) {})
	}
	s := &Service{
		backend:   backend,
		store:     store,
		navigator: navigator,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login exchanges credentials for a session. Suspended and rejected accounts
// never get a stored session.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	s.setTransient(StateAuthenticating)
	defer s.setTransient("")

	tokens, err := s.backend.Login(ctx, email, password)
	if err != nil {
		switch gateway.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusBadRequest, http.StatusUnprocessableEntity:
			s.logger.Info("login rejected", "email", email)
			return nil, ErrInvalidCredentials
		case http.StatusForbidden:
			s.logger.Info("login refused for suspended account", "email", email)
			return nil, ErrAccountSuspended
		}
		return nil, fmt.Errorf("logging in: %w", err)
	}

	if err := deniedError(tokens.User); err != nil {
		s.logger.Info("login refused by account status", "email", email, "status", tokens.User.Status)
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("logging in: backend returned no access token")
	}

	sess := tokenstore.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         tokens.User,
	}
	if err := s.store.SetSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	s.logger.Info("logged in", "user_id", userID(tokens.User), "status", userStatus(tokens.User))
	return tokens.User, nil
}

// Register submits an access application.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}

	res, err := s.backend.Register(ctx, req)
	if err != nil {
		switch gateway.StatusCode(err) {
		case http.StatusBadRequest, http.StatusConflict:
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, detail(err))
		case http.StatusUnprocessableEntity:
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, detail(err))
		}
		return nil, fmt.Errorf("registering: %w", err)
	}

	s.logger.Info("application submitted", "email", req.Email, "user_id", res.UserID)
	return res, nil
}

// ValidateRegistration mirrors the backend's field checks.
func ValidateRegistration(req RegisterRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil || strings.TrimSpace(req.Email) == "" {
		return fmt.Errorf("%w: email address is invalid", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if utf8.RuneCountInString(req.Purpose) < MinPurposeLength {
		return fmt.Errorf("%w: purpose must be at least %d characters", ErrInvalidInput, MinPurposeLength)
	}
	return nil
}

// Logout notifies the backend when possible and always clears the session.
func (s *Service) Logout(ctx context.Context) error {
	sess, err := s.store.Load(ctx)
	if err == nil && sess.AccessToken != "" {
		if err := s.backend.Logout(ctx); err != nil {
			s.logger.Warn("backend logout failed", "error", err)
		}
	}

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

// refreshTimeout bounds the shared refresh call, which no single caller's
// context controls.
const refreshTimeout = 30 * time.Second

// Refresh renews the access token. Concurrent callers share one backend call;
// a caller that gives up stops waiting without failing the others.
func (s *Service) Refresh(ctx context.Context) (tokenstore.Session, error) {
	ch := s.refresh.DoChan("refresh", func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.doRefresh(shared)
	})

	select {
	case <-ctx.Done():
		return tokenstore.Session{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("joined in-flight token refresh")
		}
		if res.Err != nil {
			return tokenstore.Session{}, res.Err
		}
		return res.Val.(tokenstore.Session), nil
	}
}

func (s *Service) doRefresh(ctx context.Context) (tokenstore.Session, error) {
	s.setTransient(StateRefreshing)
	defer s.setTransient("")

	sess, err := s.store.Load(ctx)
	if err != nil {
		return tokenstore.Session{}, fmt.Errorf("loading session: %w", err)
	}
	if sess.RefreshToken == "" {
		s.expire(ctx, "no refresh token")
		return tokenstore.Session{}, ErrSessionExpired
	}

	tokens, err := s.backend.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		code := gateway.StatusCode(err)
		if code >= 400 && code < 500 {
			s.expire(ctx, detail(err))
			return tokenstore.Session{}, ErrSessionExpired
		}
		s.metrics.Refresh("failed")
		return tokenstore.Session{}, fmt.Errorf("refreshing session: %w", err)
	}
	if tokens.AccessToken == "" {
		s.expire(ctx, "refresh returned no access token")
		return tokenstore.Session{}, ErrSessionExpired
	}

	next := tokenstore.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         tokens.User,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = sess.RefreshToken
	}
	if next.User == nil {
		next.User = sess.User
	}
	if err := deniedError(next.User); err != nil {
		s.expire(ctx, string(next.User.Status))
		return tokenstore.Session{}, err
	}

	if err := s.store.SetSession(ctx, next); err != nil {
		return tokenstore.Session{}, fmt.Errorf("storing refreshed session: %w", err)
	}
	s.metrics.Refresh("ok")
	s.logger.Debug("access token refreshed")
	return next, nil
}

func (s *Service) expire(ctx context.Context, reason string) {
	s.metrics.Refresh("failed")
	s.logger.Warn("session expired", "reason", reason)
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("failed to clear expired session", "error", err)
	}
	s.navigator.RedirectToLogin(ctx, "session expired")
}

// Restore validates the persisted session at startup, refreshing or
// discarding an expired access token.
func (s *Service) Restore(ctx context.Context) (State, error) {
	sess, err := s.store.Load(ctx)
	if err != nil {
		return StateAnonymous, fmt.Errorf("loading session: %w", err)
	}

	switch {
	case sess.AccessToken == "" && sess.RefreshToken == "":
		return StateAnonymous, nil
	case sess.AccessToken != "" && !tokenstore.IsExpired(sess.AccessToken, s.now()):
		return StateAuthenticated, nil
	case sess.RefreshToken == "":
		s.logger.Info("discarding expired session")
		if err := s.store.Clear(ctx); err != nil {
			return StateAnonymous, fmt.Errorf("clearing session: %w", err)
		}
		return StateAnonymous, nil
	}

	if _, err := s.Refresh(ctx); err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return StateAnonymous, nil
		}
		return s.State(ctx), err
	}
	return StateAuthenticated, nil
}

// EnsureFresh refreshes the access token when it has expired.
func (s *Service) EnsureFresh(ctx context.Context) error {
	sess, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if sess.AccessToken == "" && sess.RefreshToken == "" {
		return ErrNotAuthenticated
	}
	if sess.AccessToken != "" && !tokenstore.IsExpired(sess.AccessToken, s.now()) {
		return nil
	}
	_, err = s.Refresh(ctx)
	return err
}

// State reports the current position in the session lifecycle.
func (s *Service) State(ctx context.Context) State {
	s.mu.Lock()
	transient := s.transient
	s.mu.Unlock()
	if transient != "" {
		return transient
	}

	sess, err := s.store.Load(ctx)
	if err != nil || sess.AccessToken == "" {
		return StateAnonymous
	}
	if tokenstore.IsExpired(sess.AccessToken, s.now()) {
		return StateTokenExpiring
	}
	return StateAuthenticated
}

func (s *Service) setTransient(state State) {
	s.mu.Lock()
	s.transient = state
	s.mu.Unlock()
}

// IsAuthenticated reports whether an access token is held.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	sess, err := s.store.Load(ctx)
	return err == nil && sess.AccessToken != ""
}

// CurrentUser returns the cached user, or nil.
func (s *Service) CurrentUser(ctx context.Context) *user.User {
	sess, err := s.store.Load(ctx)
	if err != nil || sess.AccessToken == "" {
		return nil
	}
	return sess.User
}

func (s *Service) IsApproved(ctx context.Context) bool {
	return s.CurrentUser(ctx).IsApproved()
}

func (s *Service) IsAdmin(ctx context.Context) bool {
	return s.CurrentUser(ctx).IsAdmin()
}

// RequireApproved returns the current user when it may use projects.
func (s *Service) RequireApproved(ctx context.Context) (*user.User, error) {
	u := s.CurrentUser(ctx)
	if u == nil {
		return nil, ErrNotAuthenticated
	}
	if err := deniedError(u); err != nil {
		return nil, err
	}
	if !u.IsApproved() {
		return nil, ErrNotApproved
	}
	return u, nil
}

// RequireAdmin returns the current user when it holds the admin role.
func (s *Service) RequireAdmin(ctx context.Context) (*user.User, error) {
	u := s.CurrentUser(ctx)
	if u == nil {
		return nil, ErrNotAuthenticated
	}
	if !u.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return u, nil
}

// FetchProfile reloads the user from the backend and updates the cache.
func (s *Service) FetchProfile(ctx context.Context) (*user.User, error) {
	u, err := s.backend.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	if err := deniedError(u); err != nil {
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			s.logger.Error("failed to clear session", "error", clearErr)
		}
		return nil, err
	}
	if err := s.cacheUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateProfile saves profile fields and merges the result into the cache.
func (s *Service) UpdateProfile(ctx context.Context, update ProfileUpdate) (*user.User, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}

	patch, err := s.backend.UpdateMe(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	merged := mergeUser(s.CurrentUser(ctx), patch)
	if err := s.cacheUser(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// APIUsage returns the current user's consumption.
func (s *Service) APIUsage(ctx context.Context) (*APIUsage, error) {
	usage, err := s.backend.APIUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching api usage: %w", err)
	}
	return usage, nil
}

func (s *Service) cacheUser(ctx context.Context, u *user.User) error {
	sess, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if sess.AccessToken == "" {
		return ErrNotAuthenticated
	}
	sess.User = u
	if err := s.store.SetSession(ctx, sess); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

func mergeUser(base, patch *user.User) *user.User {
	if base == nil {
		return patch
	}
	merged := *base
	if patch == nil {
		return &merged
	}
	override(&merged.ID, patch.ID)
	override(&merged.Email, patch.Email)
	override(&merged.Name, patch.Name)
	override(&merged.Avatar, patch.Avatar)
	override(&merged.CreatedAt, patch.CreatedAt)
	override(&merged.UpdatedAt, patch.UpdatedAt)
	if patch.Role != "" {
		merged.Role = patch.Role
	}
	if patch.Status != "" {
		merged.Status = patch.Status
	}
	return &merged
}

func override(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func deniedError(u *user.User) error {
	if !u.Denied() {
		return nil
	}
	switch u.Status {
	case user.StatusSuspended:
		return ErrAccountSuspended
	case user.StatusRejected:
		return ErrAccountRejected
	}
	return nil
}

func detail(err error) string {
	var se *gateway.StatusError
	if errors.As(err, &se) {
		return se.Message()
	}
	return err.Error()
}

func userID(u *user.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

func userStatus(u *user.User) user.Status {
	if u == nil {
		return ""
	}
	return u.Status
}
