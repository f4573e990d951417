package tokenstore

import (
	"context"
	"errors"

	"github.com/rpggio/motherai/internal/domain/user"
)

// ErrInvalidSession is returned when a session would cache a user without an
// access token.
var ErrInvalidSession = errors.New("invalid session: user without access token")

// Session is the client-held proof of authentication.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *user.User
}

// Empty reports whether no credentials are held.
func (s Session) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.User == nil
}

// Validate enforces that a cached user always comes with an access token.
func (s Session) Validate() error {
	if s.User != nil && s.AccessToken == "" {
		return ErrInvalidSession
	}
	return nil
}

// Store persists the session. Implementations write and clear all keys
// together so observers never see a partial session.
type Store interface {
	SetSession(ctx context.Context, sess Session) error
	Load(ctx context.Context) (Session, error)
	Clear(ctx context.Context) error
}
