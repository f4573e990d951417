package backend

import (
	"context"
	"net/http"

	"github.com/rpggio/motherai/internal/domain/auth"
	"github.com/rpggio/motherai/internal/domain/user"
)

// Auth implements auth.Backend.
type Auth struct {
	doer Doer
}

func NewAuth(doer Doer) *Auth {
	return &Auth{doer: doer}
}

func (a *Auth) Login(ctx context.Context, email, password string) (*auth.Tokens, error) {
	var resp tokenResponse
	if err := a.doer.Do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return resp.tokens(), nil
}

func (a *Auth) Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResult, error) {
	var resp auth.RegisterResult
	if err := a.doer.Do(ctx, http.MethodPost, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *Auth) Refresh(ctx context.Context, refreshToken string) (*auth.Tokens, error) {
	var resp tokenResponse
	if err := a.doer.Do(ctx, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	return resp.tokens(), nil
}

func (a *Auth) Logout(ctx context.Context) error {
	return a.doer.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (a *Auth) Me(ctx context.Context) (*user.User, error) {
	var resp envelope[user.User]
	if err := a.doer.Do(ctx, http.MethodGet, "/users/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (a *Auth) UpdateMe(ctx context.Context, update auth.ProfileUpdate) (*user.User, error) {
	var resp envelope[user.User]
	if err := a.doer.Do(ctx, http.MethodPut, "/users/me", update, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (a *Auth) APIUsage(ctx context.Context) (*auth.APIUsage, error) {
	var resp envelope[auth.APIUsage]
	if err := a.doer.Do(ctx, http.MethodGet, "/users/me/api-usage", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
