package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/motherai/internal/domain/user"
	"github.com/rpggio/motherai/internal/tokenstore"
)

const (
	keyAccessToken  = "auth_token"
	keyRefreshToken = "refresh_token"
	keyUser         = "user_data"
)

// TokenStore implements tokenstore.Store on top of SQLite.
type TokenStore struct {
	db     *DB
	logger *slog.Logger
}

// NewTokenStore creates a new TokenStore
func NewTokenStore(db *DB, logger *slog.Logger) *TokenStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TokenStore{db: db, logger: logger}
}

// SetSession replaces all stored credentials in one transaction.
func (s *TokenStore) SetSession(ctx context.Context, sess tokenstore.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}

	values := map[string]string{}
	if sess.AccessToken != "" {
		values[keyAccessToken] = sess.AccessToken
	}
	if sess.RefreshToken != "" {
		values[keyRefreshToken] = sess.RefreshToken
	}
	if sess.User != nil {
		data, err := json.Marshal(sess.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		values[keyUser] = string(data)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_keys`); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}

	now := time.Now()
	for key, value := range values {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO session_keys (key, value, updated_at) VALUES (?, ?, ?)`,
			key, value, now,
		)
		if err != nil {
			if isConstraintViolation(err) {
				return fmt.Errorf("failed to store %s: %w", key, tokenstore.ErrInvalidSession)
			}
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// Load reads every key in a single query.
func (s *TokenStore) Load(ctx context.Context) (tokenstore.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session_keys`)
	if err != nil {
		return tokenstore.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	defer rows.Close()

	var sess tokenstore.Session
	var userData string
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return tokenstore.Session{}, fmt.Errorf("failed to scan session key: %w", err)
		}
		switch key {
		case keyAccessToken:
			sess.AccessToken = value
		case keyRefreshToken:
			sess.RefreshToken = value
		case keyUser:
			userData = value
		}
	}
	if err := rows.Err(); err != nil {
		return tokenstore.Session{}, fmt.Errorf("error iterating session rows: %w", err)
	}

	if userData != "" && sess.AccessToken != "" {
		var u user.User
		if err := json.Unmarshal([]byte(userData), &u); err != nil {
			s.logger.Warn("discarding unreadable cached user", "error", err)
		} else {
			sess.User = &u
		}
	}

	return sess, nil
}

// Clear removes every stored key in one statement.
func (s *TokenStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_keys`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
