package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/motherai/internal/domain/phase"
	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/rpggio/motherai/internal/domain/workspace"
	"github.com/rpggio/motherai/internal/stream"
)

// jsonResult renders v as the text content of a successful call.
func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func failed(err error) (*sdkmcp.CallToolResult, any, error) {
	return toolError(err), nil, nil
}

func registerTools(server *sdkmcp.Server, svc Services, logger *slog.Logger) {
	t := &tools{svc: svc, logger: logger}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_phases",
		Description: "List the 14 development phases and the agent behind each",
	}, t.listPhases)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "whoami",
		Description: "Show the signed-in account, its role and review status",
	}, t.whoami)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "api_usage",
		Description: "Show token and cost usage of the signed-in account for today and this month",
	}, t.apiUsage)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List the projects of the signed-in account",
	}, t.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a project; it starts in phase 1 (Requirements)",
	}, t.createProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get a project with phase progress and the message history of one phase",
	}, t.getProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "send_message",
		Description: "Send a message to a phase agent and wait for its complete reply",
	}, t.sendMessage)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_files",
		Description: "List the generated files of a project",
	}, t.listFiles)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "read_file",
		Description: "Read a generated file; files not generated yet return a placeholder header",
	}, t.readFile)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "write_file",
		Description: "Create or overwrite a project file",
	}, t.writeFile)
}

type tools struct {
	svc    Services
	logger *slog.Logger
}

func (t *tools) listPhases(context.Context, *sdkmcp.CallToolRequest, emptyParams) (*sdkmcp.CallToolResult, any, error) {
	return jsonResult(phase.All())
}

func (t *tools) whoami(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyParams) (*sdkmcp.CallToolResult, any, error) {
	u := t.svc.Sessions.CurrentUser(ctx)
	if u == nil {
		return jsonResult(map[string]any{"authenticated": false})
	}
	return jsonResult(map[string]any{
		"authenticated": true,
		"user":          u,
		"approved":      u.IsApproved(),
		"admin":         u.IsAdmin(),
	})
}

func (t *tools) apiUsage(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyParams) (*sdkmcp.CallToolResult, any, error) {
	usage, err := t.svc.Sessions.APIUsage(ctx)
	if err != nil {
		return failed(err)
	}
	return jsonResult(usage)
}

func (t *tools) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyParams) (*sdkmcp.CallToolResult, any, error) {
	if _, err := t.svc.Sessions.RequireApproved(ctx); err != nil {
		return failed(err)
	}
	projects, err := t.svc.Projects.List(ctx)
	if err != nil {
		return failed(err)
	}
	resp := make([]ProjectSummaryResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, summarize(p))
	}
	return jsonResult(resp)
}

func (t *tools) createProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateProjectParams) (*sdkmcp.CallToolResult, any, error) {
	if _, err := t.svc.Sessions.RequireApproved(ctx); err != nil {
		return failed(err)
	}
	p, err := t.svc.Projects.Create(ctx, project.CreateRequest{Name: in.Name, Description: in.Description})
	if err != nil {
		return failed(err)
	}
	t.logger.Info("project created via mcp", "project_id", p.ID, "user_id", getUserID(ctx))
	return jsonResult(summarize(*p))
}

// openView loads a project into a fresh view with the requested phase
// selected; zero keeps the project's current phase.
func (t *tools) openView(ctx context.Context, projectID string, n int) (*project.View, error) {
	if _, err := t.svc.Sessions.RequireApproved(ctx); err != nil {
		return nil, err
	}
	view := project.NewView(t.svc.Projects, t.svc.Streamer, t.logger)
	if err := view.LoadProject(ctx, projectID); err != nil {
		return nil, err
	}
	if n != 0 {
		if err := view.SelectPhase(phase.Number(n)); err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (t *tools) getProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetProjectParams) (*sdkmcp.CallToolResult, any, error) {
	view, err := t.openView(ctx, in.ProjectID, in.Phase)
	if err != nil {
		return failed(err)
	}
	selected := view.SelectedPhase()
	messages := view.Messages(selected)
	if messages == nil {
		messages = []project.ChatMessage{}
	}
	return jsonResult(ProjectDetailResponse{
		ProjectSummaryResponse: summarize(*view.Project()),
		Phase:                  selected,
		Progress:               view.PhaseProgress(),
		Messages:               messages,
	})
}

func (t *tools) sendMessage(ctx context.Context, _ *sdkmcp.CallToolRequest, in SendMessageParams) (*sdkmcp.CallToolResult, any, error) {
	if _, err := phase.Parse(in.Phase); err != nil {
		return failed(err)
	}
	view, err := t.openView(ctx, in.ProjectID, in.Phase)
	if err != nil {
		return failed(err)
	}

	var reply strings.Builder
	var messageID string
	err = view.SendMessage(ctx, in.Content, stream.Handlers{
		OnToken: func(token string) { reply.WriteString(token) },
		OnEnd:   func(id string) { messageID = id },
	})
	if err != nil {
		return failed(err)
	}
	return jsonResult(SendMessageResponse{Reply: reply.String(), MessageID: messageID, Phase: in.Phase})
}

func (t *tools) openWorkspace(ctx context.Context, projectID string) (*workspace.Workspace, error) {
	if _, err := t.svc.Sessions.RequireApproved(ctx); err != nil {
		return nil, err
	}
	ws := workspace.New(t.svc.Files, projectID, t.logger)
	if err := ws.Load(ctx); err != nil {
		return nil, err
	}
	return ws, nil
}

func (t *tools) listFiles(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListFilesParams) (*sdkmcp.CallToolResult, any, error) {
	ws, err := t.openWorkspace(ctx, in.ProjectID)
	if err != nil {
		return failed(err)
	}
	files := workspace.Flatten(ws.Tree())
	if files == nil {
		files = []workspace.File{}
	}
	return jsonResult(files)
}

func (t *tools) readFile(ctx context.Context, _ *sdkmcp.CallToolRequest, in ReadFileParams) (*sdkmcp.CallToolResult, any, error) {
	ws, err := t.openWorkspace(ctx, in.ProjectID)
	if err != nil {
		return failed(err)
	}
	path := workspace.NormalizePath(in.Path)
	content, err := ws.LoadContent(ctx, path)
	if err != nil {
		return failed(err)
	}
	lang := workspace.DetectLanguage(path)
	if n := workspace.Find(ws.Tree(), path); n != nil && n.Language != "" {
		lang = n.Language
	}
	return jsonResult(FileContentResponse{Path: path, Language: lang, Content: content})
}

func (t *tools) writeFile(ctx context.Context, _ *sdkmcp.CallToolRequest, in WriteFileParams) (*sdkmcp.CallToolResult, any, error) {
	ws, err := t.openWorkspace(ctx, in.ProjectID)
	if err != nil {
		return failed(err)
	}
	if err := ws.SaveFile(ctx, in.Path, in.Content, in.Language); err != nil {
		return failed(err)
	}
	return jsonResult(map[string]any{"path": workspace.NormalizePath(in.Path), "bytes": len(in.Content)})
}
