package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/motherai/internal/domain/phase"
)

const serverInstructions = `motherai drives the staged AI development platform: a project moves
through 14 phases, each served by its own agent.

Workflow:
1) Check the session with whoami. Project tools need an approved account;
   if the session is missing ask the user to run "motherai login".
2) Pick or create a project: list_projects / create_project.
3) Talk to a phase agent with send_message(project_id, phase, content). The call
   returns once the agent's reply has fully streamed.
4) Inspect results with get_project (history of one phase) and the file tools
   list_files / read_file / write_file.

Phases can be opened in any order; a project's current_phase only reflects
progress. Read motherai://docs/phases for the phase table.
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     func() string
}

var docResources = []docResource{
	{
		URI:         "motherai://docs/phases",
		Name:        "phases",
		Title:       "Development phases",
		Description: "The 14 phases, their purpose and the agent that serves each.",
		Content:     phaseTable,
	},
	{
		URI:         "motherai://docs/errors",
		Name:        "errors",
		Title:       "Tool error codes",
		Description: "Codes returned by failed tool calls and how to recover.",
		Content: func() string {
			return errorsDoc
		},
	},
}

const errorsDoc = `# Tool error codes

Failed calls return a JSON object {code, message, recovery_hint}.

- NOT_AUTHENTICATED: no session or it could not be renewed. The user must log in again.
- NOT_APPROVED: the account application is still pending review.
- FORBIDDEN: the account is suspended or rejected, or lacks the role.
- NOT_FOUND: unknown project or file.
- INVALID_PHASE: phase outside 1..14.
- INVALID_INPUT: a required field is empty or malformed.
- STREAM_IN_PROGRESS: a reply for this project is still streaming. Send again once it finishes.
- RESPONSE_FAILED: the phase agent reported an error mid-stream. Retrying is safe.
- BACKEND_UNAVAILABLE: the platform could not be reached.
`

func phaseTable() string {
	var b strings.Builder
	b.WriteString("# Development phases\n\n| # | Phase | Agent | Purpose |\n|---|---|---|---|\n")
	for _, d := range phase.All() {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", int(d.Number), d.Title, d.Agent, d.Description)
	}
	return b.String()
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		content := doc.Content()

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     content,
				}},
			}, nil
		})
	}
}
