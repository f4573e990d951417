package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/motherai/internal/telemetry"
	"github.com/spf13/cobra"
)

func newMCPCommand(r *runtime) *cobra.Command {
	var httpAddr, metricsAddr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the platform as MCP tools",
		Long: `Run an MCP server exposing projects, phase chat and files as tools for an
AI agent. The server acts as the signed-in user; run "motherai login" first.

By default the server speaks over stdio. With --http it serves the streamable
HTTP transport at /mcp instead, next to /health and /metrics.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "Serve over HTTP on this address instead of stdio")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides MOTHERAI_METRICS_ADDR)")

	cmd.RunE = r.run(func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if metricsAddr == "" {
			metricsAddr = r.cfg.Metrics.Addr
		}
		server := r.app.MCPServer(cmd.Root().Version)
		logger := r.logger.With("component", "mcp")

		if httpAddr != "" {
			return serveHTTP(ctx, logger, server, r.metrics, httpAddr)
		}

		if metricsAddr != "" {
			metricsServer := &http.Server{Addr: metricsAddr, Handler: r.metrics.Handler()}
			go func() {
				logger.Info("metrics listening", "addr", metricsAddr)
				if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server error", "error", err)
				}
			}()
			defer shutdown(logger, metricsServer)
		}

		logger.Info("starting stdio transport")
		// Run blocks until stdin closes or the context is cancelled.
		if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return cmd
}

func newHTTPHandler(server *sdkmcp.Server, metrics *telemetry.Metrics) http.Handler {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)

	router := chi.NewRouter()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/*", mcpHandler)
	router.Handle("/metrics", metrics.Handler())
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return router
}

func serveHTTP(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server, metrics *telemetry.Metrics, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: newHTTPHandler(server, metrics),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdown(logger, httpServer)
		return nil
	}
}

func shutdown(logger *slog.Logger, server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down", "addr", server.Addr)
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
