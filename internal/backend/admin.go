package backend

import (
	"context"
	"net/http"

	"github.com/rpggio/motherai/internal/domain/admin"
	"github.com/rpggio/motherai/internal/domain/user"
)

// Admin implements admin.Backend.
type Admin struct {
	doer Doer
}

func NewAdmin(doer Doer) *Admin {
	return &Admin{doer: doer}
}

func (a *Admin) Applications(ctx context.Context) ([]user.Application, error) {
	var apps []user.Application
	if err := a.doer.Do(ctx, http.MethodGet, "/admin/applications", nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (a *Admin) Approve(ctx context.Context, id string) (*admin.Decision, error) {
	var resp envelope[admin.Decision]
	if err := a.doer.Do(ctx, http.MethodPut, "/admin/applications/"+escapeID(id)+"/approve", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (a *Admin) Reject(ctx context.Context, id, reason string) (*admin.Decision, error) {
	var resp envelope[admin.Decision]
	if err := a.doer.Do(ctx, http.MethodPut, "/admin/applications/"+escapeID(id)+"/reject", rejectRequest{Reason: reason}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (a *Admin) Users(ctx context.Context) ([]user.Account, error) {
	var accounts []user.Account
	if err := a.doer.Do(ctx, http.MethodGet, "/admin/users", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (a *Admin) Suspend(ctx context.Context, id string) error {
	var resp messageResponse
	return a.doer.Do(ctx, http.MethodPost, "/admin/users/"+escapeID(id)+"/suspend", nil, &resp)
}

func (a *Admin) Activate(ctx context.Context, id string) error {
	var resp messageResponse
	return a.doer.Do(ctx, http.MethodPost, "/admin/users/"+escapeID(id)+"/activate", nil, &resp)
}

func (a *Admin) APIStats(ctx context.Context) (*admin.APIStats, error) {
	var stats admin.APIStats
	if err := a.doer.Do(ctx, http.MethodGet, "/admin/api-stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
