package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rpggio/motherai/internal/app"
	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/rpggio/motherai/internal/domain/user"
	"github.com/rpggio/motherai/internal/mcp"
	"github.com/rpggio/motherai/internal/telemetry"
	"github.com/rpggio/motherai/internal/testserver"
	"github.com/rpggio/motherai/internal/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projectRequest(name string) project.CreateRequest {
	return project.CreateRequest{Name: name}
}

type harness struct {
	ts      *testserver.TestServer
	app     *app.App
	metrics *telemetry.Metrics
	client  *sdkmcp.ClientSession
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	ts := testserver.New(t)
	metrics := telemetry.New()
	a := app.New(tokenstore.NewMemory(), app.Options{BaseURL: ts.URL, Metrics: metrics})

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	_, err := a.MCPServer("test").Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return &harness{ts: ts, app: a, metrics: metrics, client: session}
}

func (h *harness) login(t *testing.T, status user.Status) *user.User {
	t.Helper()
	u := h.ts.AddUser(t, "ada@example.com", "password1", "Ada", user.RoleUser, status)
	_, err := h.app.Sessions.Login(context.Background(), "ada@example.com", "password1")
	require.NoError(t, err)
	return u
}

// call invokes a tool and decodes its text payload into out.
func (h *harness) call(t *testing.T, name string, args map[string]any, out any) bool {
	t.Helper()
	res, err := h.client.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text.Text), out), text.Text)
	}
	return res.IsError
}

func TestTools_Listed(t *testing.T) {
	h := newHarness(t)

	res, err := h.client.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"list_phases", "whoami", "api_usage", "list_projects", "create_project",
		"get_project", "send_message", "list_files", "read_file", "write_file",
	}, names)
}

func TestListPhases_NoSession(t *testing.T) {
	h := newHarness(t)

	var phases []map[string]any
	isErr := h.call(t, "list_phases", nil, &phases)
	assert.False(t, isErr)
	require.Len(t, phases, 14)
	assert.Equal(t, "Phase1RequirementsAgent", phases[0]["agent"])
}

func TestProjectTools_RequireSession(t *testing.T) {
	h := newHarness(t)

	var apiErr mcp.APIError
	isErr := h.call(t, "list_projects", nil, &apiErr)
	assert.True(t, isErr)
	assert.Equal(t, "NOT_AUTHENTICATED", apiErr.Code)

	n, err := testutil.GatherAndCount(h.metrics.Registry(), "motherai_mcp_tool_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProjectTools_PendingAccount(t *testing.T) {
	h := newHarness(t)
	h.login(t, user.StatusPending)

	var apiErr mcp.APIError
	assert.True(t, h.call(t, "create_project", map[string]any{"name": "Todo"}, &apiErr))
	assert.Equal(t, "NOT_APPROVED", apiErr.Code)
}

func TestWhoami(t *testing.T) {
	h := newHarness(t)
	u := h.login(t, user.StatusApproved)

	var out struct {
		Authenticated bool      `json:"authenticated"`
		User          user.User `json:"user"`
		Approved      bool      `json:"approved"`
	}
	assert.False(t, h.call(t, "whoami", nil, &out))
	assert.True(t, out.Authenticated)
	assert.True(t, out.Approved)
	assert.Equal(t, u.ID, out.User.ID)
}

func TestProjectFlow(t *testing.T) {
	h := newHarness(t)
	h.login(t, user.StatusApproved)
	h.ts.SetReply(func(content string, phase int) string { return "Noted: " + content })

	var created mcp.ProjectSummaryResponse
	require.False(t, h.call(t, "create_project", map[string]any{"name": "Todo", "description": "tasks"}, &created))
	assert.EqualValues(t, 1, created.CurrentPhase)

	var listed []mcp.ProjectSummaryResponse
	require.False(t, h.call(t, "list_projects", nil, &listed))
	require.Len(t, listed, 1)

	var sent mcp.SendMessageResponse
	require.False(t, h.call(t, "send_message", map[string]any{
		"project_id": created.ID, "phase": 3, "content": "ship it",
	}, &sent))
	assert.Equal(t, "Noted: ship it", sent.Reply)
	assert.NotEmpty(t, sent.MessageID)

	var detail mcp.ProjectDetailResponse
	require.False(t, h.call(t, "get_project", map[string]any{"project_id": created.ID}, &detail))
	assert.EqualValues(t, 3, detail.CurrentPhase)
	assert.EqualValues(t, 3, detail.Phase)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "ship it", detail.Messages[0].Content)
	require.Len(t, detail.Progress, 14)
	assert.Equal(t, "completed", string(detail.Progress[0].Status))

	var earlier mcp.ProjectDetailResponse
	require.False(t, h.call(t, "get_project", map[string]any{"project_id": created.ID, "phase": 1}, &earlier))
	assert.Empty(t, earlier.Messages)
}

func TestSendMessage_StreamFailure(t *testing.T) {
	h := newHarness(t)
	h.login(t, user.StatusApproved)
	p, err := h.app.Projects.Create(context.Background(), projectRequest("Todo"))
	require.NoError(t, err)
	h.ts.FailNextStream("agent unavailable")

	var apiErr mcp.APIError
	assert.True(t, h.call(t, "send_message", map[string]any{"project_id": p.ID, "phase": 1, "content": "hi"}, &apiErr))
	assert.Equal(t, "RESPONSE_FAILED", apiErr.Code)
	assert.Contains(t, apiErr.Message, "agent unavailable")
}

func TestSendMessage_OneStreamPerProject(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.login(t, user.StatusApproved)
	p, err := h.app.Projects.Create(ctx, projectRequest("Todo"))
	require.NoError(t, err)

	started, release := h.ts.HoldNextStream()
	t.Cleanup(release)

	type outcome struct {
		res *sdkmcp.CallToolResult
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := h.client.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "send_message",
			Arguments: map[string]any{"project_id": p.ID, "phase": 1, "content": "one"},
		})
		first <- outcome{res, err}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first stream never started")
	}

	var apiErr mcp.APIError
	assert.True(t, h.call(t, "send_message", map[string]any{"project_id": p.ID, "phase": 1, "content": "two"}, &apiErr))
	assert.Equal(t, "STREAM_IN_PROGRESS", apiErr.Code)

	release()
	got := <-first
	require.NoError(t, got.err)
	assert.False(t, got.res.IsError)

	var sent mcp.SendMessageResponse
	assert.False(t, h.call(t, "send_message", map[string]any{"project_id": p.ID, "phase": 1, "content": "three"}, &sent))

	stored, ok := h.ts.Project(p.ID)
	require.True(t, ok)
	var contents []string
	for _, m := range stored.Messages {
		if m.Role == project.RoleUser {
			contents = append(contents, m.Content)
		}
	}
	assert.Equal(t, []string{"one", "three"}, contents)
}

func TestSendMessage_InvalidPhase(t *testing.T) {
	h := newHarness(t)
	h.login(t, user.StatusApproved)

	var apiErr mcp.APIError
	assert.True(t, h.call(t, "send_message", map[string]any{"project_id": "x", "phase": 15, "content": "hi"}, &apiErr))
	assert.Equal(t, "INVALID_PHASE", apiErr.Code)
}

func TestFileTools(t *testing.T) {
	h := newHarness(t)
	h.login(t, user.StatusApproved)
	p, err := h.app.Projects.Create(context.Background(), projectRequest("Todo"))
	require.NoError(t, err)
	h.ts.PutFile(p.ID, "src/main.py", "print('hi')\n")

	var written map[string]any
	require.False(t, h.call(t, "write_file", map[string]any{
		"project_id": p.ID, "path": "/docs/README.md", "content": "# Todo\n",
	}, &written))
	assert.Equal(t, "docs/README.md", written["path"])

	var files []struct {
		Path     string `json:"path"`
		Language string `json:"language"`
	}
	require.False(t, h.call(t, "list_files", map[string]any{"project_id": p.ID}, &files))
	require.Len(t, files, 2)

	var content mcp.FileContentResponse
	require.False(t, h.call(t, "read_file", map[string]any{"project_id": p.ID, "path": "src/main.py"}, &content))
	assert.Equal(t, "print('hi')\n", content.Content)
	assert.Equal(t, "python", content.Language)

	var missing mcp.FileContentResponse
	require.False(t, h.call(t, "read_file", map[string]any{"project_id": p.ID, "path": "src/app.py"}, &missing))
	assert.Contains(t, missing.Content, "# src/app.py")
}

func TestResources(t *testing.T) {
	h := newHarness(t)

	res, err := h.client.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "motherai://docs/phases"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, "Phase14MonitoringAgent")
}
