package testserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rpggio/motherai/internal/domain/user"
)

// errUnauthorized indicates invalid or missing credentials.
var errUnauthorized = errors.New("unauthorized")

const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"
	refreshTTL      = 7 * 24 * time.Hour
)

type accountKey struct{}

func accountFromContext(ctx context.Context) (*account, bool) {
	acc, ok := ctx.Value(accountKey{}).(*account)
	return acc, ok
}

// MintToken signs a token for userID that expires after ttl. A negative ttl
// yields an already expired token.
func (ts *TestServer) MintToken(userID string, ttl time.Duration) string {
	return ts.mint(userID, audienceAccess, ttl)
}

func (ts *TestServer) mint(userID, audience string, ttl time.Duration) string {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		panic(err)
	}

	ts.tokenMu.Lock()
	ts.issued = append(ts.issued, claims.ID)
	ts.tokenMu.Unlock()
	return token
}

func (ts *TestServer) verify(token, audience string) (*account, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return ts.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errUnauthorized
	}

	ts.tokenMu.Lock()
	revoked := ts.revoked[claims.ID]
	ts.tokenMu.Unlock()
	if revoked {
		return nil, errUnauthorized
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	acc, ok := ts.accounts[claims.Subject]
	if !ok {
		return nil, errUnauthorized
	}
	return acc, nil
}

// authMiddleware enforces bearer token authentication.
func (ts *TestServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		acc, err := ts.verify(token, audienceAccess)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), accountKey{}, acc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireApproved rejects accounts that may not use projects.
func (ts *TestServer) requireApproved(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc, ok := accountFromContext(r.Context())
		ts.mu.Lock()
		approved := ok && acc.Status == user.StatusApproved
		ts.mu.Unlock()
		if !approved {
			writeDetail(w, http.StatusForbidden, "Account is not approved")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin rejects non-admin accounts.
func (ts *TestServer) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc, ok := accountFromContext(r.Context())
		ts.mu.Lock()
		isAdmin := ok && acc.Role == user.RoleAdmin
		ts.mu.Unlock()
		if !isAdmin {
			writeDetail(w, http.StatusForbidden, "Admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
