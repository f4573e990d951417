package project_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/rpggio/motherai/internal/gateway"
	"github.com/rpggio/motherai/internal/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProjectService_CreateValidation(t *testing.T) {
	ctx := context.Background()

	backend := &mocks.ProjectBackend{}
	svc := project.NewService(backend, nil)
	_, err := svc.Create(ctx, project.CreateRequest{Name: "  "})
	require.ErrorIs(t, err, project.ErrInvalidInput)
	backend.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProjectService_ListIsCachedUntilCreate(t *testing.T) {
	ctx := context.Background()

	backend := &mocks.ProjectBackend{}
	backend.On("List", ctx).Return([]project.Project{{ID: "p1", Name: "One"}}, nil).Once()
	backend.On("Create", ctx, project.CreateRequest{Name: "Two"}).Return(&project.Project{ID: "p2", Name: "Two"}, nil)
	backend.On("List", ctx).Return([]project.Project{{ID: "p1", Name: "One"}, {ID: "p2", Name: "Two"}}, nil).Once()

	svc := project.NewService(backend, nil)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	backend.AssertNumberOfCalls(t, "List", 1)

	_, err = svc.Create(ctx, project.CreateRequest{Name: " Two "})
	require.NoError(t, err)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	backend.AssertNumberOfCalls(t, "List", 2)
}

func TestProjectService_ListRefetchesWhenStale(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	backend := &mocks.ProjectBackend{}
	backend.On("List", ctx).Return([]project.Project{{ID: "p1"}}, nil)

	svc := project.NewService(backend, nil, project.WithClock(func() time.Time { return now }))

	_, err := svc.List(ctx)
	require.NoError(t, err)
	now = now.Add(project.ListStaleAfter - time.Second)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	backend.AssertNumberOfCalls(t, "List", 1)

	now = now.Add(2 * time.Second)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	backend.AssertNumberOfCalls(t, "List", 2)
}

func TestProjectService_ConcurrentListSharesRequest(t *testing.T) {
	ctx := context.Background()
	release := make(chan time.Time)

	backend := &mocks.ProjectBackend{}
	backend.On("List", ctx).WaitUntil(release).Return([]project.Project{{ID: "p1"}}, nil).Once()

	svc := project.NewService(backend, nil)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := svc.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	backend.AssertNumberOfCalls(t, "List", 1)
}

func TestProjectService_GetNotFound(t *testing.T) {
	ctx := context.Background()

	backend := &mocks.ProjectBackend{}
	backend.On("Get", ctx, "missing").Return(nil, &gateway.StatusError{StatusCode: 404, Method: "GET", Path: "/projects/missing"})

	_, err := project.NewService(backend, nil).Get(ctx, "missing")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestProjectService_DeleteInvalidatesCache(t *testing.T) {
	ctx := context.Background()

	backend := &mocks.ProjectBackend{}
	backend.On("List", ctx).Return([]project.Project{{ID: "p1"}}, nil).Once()
	backend.On("Delete", ctx, "p1").Return(nil)
	backend.On("List", ctx).Return([]project.Project{}, nil).Once()

	svc := project.NewService(backend, nil)
	_, err := svc.List(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "p1"))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}
