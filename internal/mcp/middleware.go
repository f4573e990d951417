package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/motherai/internal/telemetry"
)

type contextKey int

const userIDKey contextKey = iota

// getUserID returns the account the current call runs as.
func getUserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// publicTools run without a session.
var publicTools = map[string]bool{
	"list_phases": true,
}

// sessionMiddleware renews an expired access token before each tool call and
// records the signed-in account on the context.
func sessionMiddleware(sessions SessionService, logger *slog.Logger) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method != "tools/call" || publicTools[toolName(req)] {
				return next(ctx, method, req)
			}

			if err := sessions.EnsureFresh(ctx); err != nil {
				logger.Info("tool call without usable session", "tool", toolName(req), "error", err)
				return toolError(err), nil
			}
			if u := sessions.CurrentUser(ctx); u != nil {
				ctx = context.WithValue(ctx, userIDKey, u.ID)
			}
			return next(ctx, method, req)
		}
	}
}

// metricsMiddleware counts tool calls by outcome.
func metricsMiddleware(metrics *telemetry.Metrics) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			result, err := next(ctx, method, req)
			if method != "tools/call" {
				return result, err
			}
			outcome := "ok"
			if r, ok := result.(*sdkmcp.CallToolResult); err != nil || (ok && r.IsError) {
				outcome = "error"
			}
			metrics.ToolCall(toolName(req), outcome)
			return result, err
		}
	}
}

func toolName(req sdkmcp.Request) string {
	if call, ok := req.(*sdkmcp.CallToolRequest); ok && call.Params != nil {
		return call.Params.Name
	}
	return ""
}
