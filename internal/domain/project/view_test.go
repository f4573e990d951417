package project_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/motherai/internal/domain/phase"
	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/rpggio/motherai/internal/mocks"
	"github.com/rpggio/motherai/internal/stream"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleProject(current phase.Number, messages ...project.ChatMessage) *project.Project {
	return &project.Project{ID: "p1", Name: "Demo", Status: "active", CurrentPhase: current, Messages: messages}
}

func newView(t *testing.T, backend *mocks.ProjectBackend, streamer *mocks.Streamer) *project.View {
	t.Helper()
	return project.NewView(project.NewService(backend, nil), streamer, nil)
}

func TestView_LoadSelectsCurrentPhase(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.ProjectBackend{}
	backend.On("Get", ctx, "p1").Return(sampleProject(phase.Deployment), nil)

	v := newView(t, backend, &mocks.Streamer{})
	require.NoError(t, v.LoadProject(ctx, "p1"))
	require.Equal(t, phase.Deployment, v.SelectedPhase())

	progress := v.PhaseProgress()
	require.Len(t, progress, 14)
	require.Equal(t, phase.StatusCompleted, progress[0].Status)
	require.Equal(t, phase.StatusInProgress, progress[2].Status)
	require.Equal(t, phase.StatusPending, progress[13].Status)
}

func TestView_SelectAnyPhase(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.ProjectBackend{}
	backend.On("Get", ctx, "p1").Return(sampleProject(phase.Requirements), nil)

	v := newView(t, backend, &mocks.Streamer{})
	require.ErrorIs(t, v.SelectPhase(phase.Testing), project.ErrNoProject)
	require.NoError(t, v.LoadProject(ctx, "p1"))

	require.NoError(t, v.SelectPhase(phase.Monitoring))
	require.Equal(t, phase.Monitoring, v.SelectedPhase())
	require.ErrorIs(t, v.SelectPhase(phase.Number(15)), phase.ErrInvalidPhase)
	require.ErrorIs(t, v.SelectPhase(phase.Number(0)), phase.ErrInvalidPhase)
}

func TestView_MessagesPartitionedByPhase(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.ProjectBackend{}
	backend.On("Get", ctx, "p1").Return(sampleProject(phase.CodeGeneration,
		project.ChatMessage{ID: "1", Role: project.RoleUser, Content: "a", Phase: phase.Requirements},
		project.ChatMessage{ID: "2", Role: project.RoleAssistant, Content: "b", Phase: phase.CodeGeneration},
		project.ChatMessage{ID: "3", Role: project.RoleAssistant, Content: "c", Phase: phase.Requirements},
	), nil)

	v := newView(t, backend, &mocks.Streamer{})
	require.NoError(t, v.LoadProject(ctx, "p1"))

	msgs := v.Messages(phase.Requirements)
	require.Len(t, msgs, 2)
	require.Equal(t, "1", msgs[0].ID)
	require.Equal(t, "3", msgs[1].ID)
	require.Empty(t, v.Messages(phase.Testing))
}

func TestView_SendMessageEndReloadsProject(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.ProjectBackend{}
	backend.On("Get", ctx, "p1").Return(sampleProject(phase.Requirements), nil).Once()
	backend.On("Get", ctx, "p1").Return(sampleProject(phase.Requirements,
		project.ChatMessage{ID: "u1", Role: project.RoleUser, Content: "hello", Phase: phase.Requirements},
		project.ChatMessage{ID: "m9", Role: project.RoleAssistant, Content: "Hi there", Phase: phase.Requirements},
	), nil).Once()

	streamer := &mocks.Streamer{Events: []stream.Event{
		{Kind: stream.KindToken, Content: "Hi "},
		{Kind: stream.KindToken, Content: "there"},
		{Kind: stream.KindEnd, MessageID: "m9"},
	}}
	streamer.On("Send", ctx, "p1", stream.SendRequest{Content: "hello", Phase: 1}).Return(nil)

	v := newView(t, backend, streamer)
	require.NoError(t, v.LoadProject(ctx, "p1"))

	var tokens []string
	var endID string
	err := v.SendMessage(ctx, " hello ", stream.Handlers{
		OnToken: func(s string) {
			tokens = append(tokens, s)
			require.Equal(t, project.StreamStreaming, v.StreamState())
			require.False(t, v.CanSend())
			require.NotNil(t, v.PendingMessage())
		},
		OnEnd: func(id string) { endID = id },
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Hi ", "there"}, tokens)
	require.Equal(t, "m9", endID)

	require.Equal(t, project.StreamCompleted, v.StreamState())
	require.Empty(t, v.StreamingContent())
	require.Nil(t, v.PendingMessage())
	require.True(t, v.CanSend())
	require.Len(t, v.Messages(phase.Requirements), 2)
}

func TestView_SendMessageErrorDiscardsBuffer(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.ProjectBackend{}
	backend.On("Get", ctx, "p1").Return(sampleProject(phase.Requirements), nil).Once()

	streamer := &mocks.Streamer{Events: []stream.Event{
		{Kind: stream.KindToken, Content: "partial"},
		{Kind: stream.KindError, Message: "agent unavailable"},
	}}
	streamer.On("Send", ctx, "p1", mock.Anything).Return(nil)

	v := newView(t, backend, streamer)
	require.NoError(t, v.LoadProject(ctx, "p1"))

	var gotErr string
	err := v.SendMessage(ctx, "hello", stream.Handlers{OnError: func(m string) { gotErr = m }})
	require.ErrorIs(t, err, project.ErrResponseFailed)
	require.Equal(t, "agent unavailable", gotErr)
	require.Equal(t, project.StreamErrored, v.StreamState())
	require.Equal(t, "agent unavailable", v.LastError())
	require.Empty(t, v.StreamingContent())
	require.True(t, v.CanSend())
	backend.AssertNumberOfCalls(t, "Get", 1)
}

func TestView_SendMessageRejectsWhileStreaming(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.ProjectBackend{}
	backend.On("Get", ctx, "p1").Return(sampleProject(phase.Requirements), nil)

	streamer := &mocks.Streamer{Events: []stream.Event{{Kind: stream.KindToken, Content: "x"}, {Kind: stream.KindEnd, MessageID: "m"}}}
	streamer.On("Send", ctx, "p1", mock.Anything).Return(nil).Once()

	v := newView(t, backend, streamer)
	require.NoError(t, v.LoadProject(ctx, "p1"))

	var nestedErr error
	err := v.SendMessage(ctx, "first", stream.Handlers{
		OnToken: func(string) { nestedErr = v.SendMessage(ctx, "second", stream.Handlers{}) },
	})
	require.NoError(t, err)
	require.ErrorIs(t, nestedErr, project.ErrStreamInProgress)
	streamer.AssertNumberOfCalls(t, "Send", 1)
}

func TestView_OneStreamPerProjectAcrossViews(t *testing.T) {
	ctx := context.Background()
	release := make(chan time.Time)

	backend := &mocks.ProjectBackend{}
	backend.On("Get", mock.Anything, "p1").Return(sampleProject(phase.Requirements), nil)
	streamer := &mocks.Streamer{Events: []stream.Event{{Kind: stream.KindEnd, MessageID: "m"}}}
	streamer.On("Send", mock.Anything, "p1", mock.Anything).WaitUntil(release).Return(nil).Once()
	streamer.On("Send", mock.Anything, "p1", mock.Anything).Return(nil)

	svc := project.NewService(backend, nil)
	first := project.NewView(svc, streamer, nil)
	second := project.NewView(svc, streamer, nil)
	require.NoError(t, first.LoadProject(ctx, "p1"))
	require.NoError(t, second.LoadProject(ctx, "p1"))

	done := make(chan error, 1)
	go func() { done <- first.SendMessage(ctx, "one", stream.Handlers{}) }()
	require.Eventually(t, func() bool { return svc.Streaming("p1") }, time.Second, 5*time.Millisecond)

	require.False(t, second.CanSend())
	require.ErrorIs(t, second.SendMessage(ctx, "two", stream.Handlers{}), project.ErrStreamInProgress)
	require.Equal(t, project.StreamIdle, second.StreamState())

	close(release)
	require.NoError(t, <-done)
	require.False(t, svc.Streaming("p1"))
	require.True(t, second.CanSend())
	require.NoError(t, second.SendMessage(ctx, "three", stream.Handlers{}))
	streamer.AssertNumberOfCalls(t, "Send", 2)
}

func TestView_SendMessageValidation(t *testing.T) {
	ctx := context.Background()
	v := newView(t, &mocks.ProjectBackend{}, &mocks.Streamer{})
	require.ErrorIs(t, v.SendMessage(ctx, "   ", stream.Handlers{}), project.ErrEmptyMessage)
	require.ErrorIs(t, v.SendMessage(ctx, "hi", stream.Handlers{}), project.ErrNoProject)
}

func TestView_CancelledSendReturnsToIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := &mocks.ProjectBackend{}
	backend.On("Get", mock.Anything, "p1").Return(sampleProject(phase.Requirements), nil)
	streamer := &mocks.Streamer{}
	streamer.On("Send", ctx, "p1", mock.Anything).Return(context.Canceled)

	v := newView(t, backend, streamer)
	require.NoError(t, v.LoadProject(context.Background(), "p1"))

	err := v.SendMessage(ctx, "hello", stream.Handlers{})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, project.StreamIdle, v.StreamState())
	require.Nil(t, v.PendingMessage())
}
