package backend

import (
	"context"
	"net/http"

	"github.com/rpggio/motherai/internal/domain/project"
)

// Projects implements project.Backend.
type Projects struct {
	doer Doer
}

func NewProjects(doer Doer) *Projects {
	return &Projects{doer: doer}
}

func (p *Projects) List(ctx context.Context) ([]project.Project, error) {
	var list []project.Project
	if err := p.doer.Do(ctx, http.MethodGet, "/projects", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Projects) Create(ctx context.Context, req project.CreateRequest) (*project.Project, error) {
	var proj project.Project
	if err := p.doer.Do(ctx, http.MethodPost, "/projects", req, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

func (p *Projects) Get(ctx context.Context, id string) (*project.Project, error) {
	var proj project.Project
	if err := p.doer.Do(ctx, http.MethodGet, "/projects/"+escapeID(id), nil, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

func (p *Projects) Delete(ctx context.Context, id string) error {
	return p.doer.Do(ctx, http.MethodDelete, "/projects/"+escapeID(id), nil, nil)
}
