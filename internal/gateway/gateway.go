package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/motherai/internal/telemetry"
	"github.com/rpggio/motherai/internal/tokenstore"
)

const (
	// APIPrefix is appended to the configured base URL.
	APIPrefix = "/api/v1"
	// DefaultTimeout bounds non-streaming requests.
	DefaultTimeout = 30 * time.Second

	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 * 1024
)

// authPaths pass 401 responses through without touching the session. Logout
// is included because the caller clears the session itself.
var authPaths = map[string]bool{
	"/auth/login":    true,
	"/auth/register": true,
	"/auth/refresh":  true,
	"/auth/logout":   true,
}

// Options configures a Gateway.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Navigator Navigator
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger

	// HTTPClient and StreamClient override the default clients, mostly for tests.
	HTTPClient   *http.Client
	StreamClient *http.Client
}

// Gateway sends authenticated JSON requests to the backend.
type Gateway struct {
	baseURL   string
	store     tokenstore.Store
	client    *http.Client
	stream    *http.Client
	navigator Navigator
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// New creates a Gateway bound to the given token store.
func New(store tokenstore.Store, opts Options) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	streamClient := opts.StreamClient
	if streamClient == nil {
		// Streams stay open for the whole generation.
		streamClient = &http.Client{}
	}
	navigator := opts.Navigator
	if navigator == nil {
		navigator = noopNavigator{}
	}

	return &Gateway{
		baseURL:   strings.TrimRight(opts.BaseURL, "/") + APIPrefix,
		store:     store,
		client:    client,
		stream:    streamClient,
		navigator: navigator,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// BaseURL returns the resolved API root including the version prefix.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Do sends a JSON request and decodes a 2xx body into out when out is non-nil.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	resp, err := g.send(ctx, g.client, method, path, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// OpenStream sends a POST whose response body is an event stream. On success
// the caller owns the returned response body.
func (g *Gateway) OpenStream(ctx context.Context, path string, body any) (*http.Response, error) {
	return g.send(ctx, g.stream, http.MethodPost, path, body, "text/event-stream")
}

func (g *Gateway) send(ctx context.Context, client *http.Client, method, path string, body any, accept string) (*http.Response, error) {
	req, err := g.newRequest(ctx, method, path, body, accept)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		g.metrics.ObserveRequest(method, "transport", time.Since(start))
		g.logger.Warn("backend request failed",
			"method", method,
			"path", path,
			"request_id", req.Header.Get(requestIDHeader),
			"error", err,
		)
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		g.metrics.ObserveRequest(method, "ok", time.Since(start))
		g.logger.Debug("backend request",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"request_id", req.Header.Get(requestIDHeader),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, nil
	}

	defer resp.Body.Close()
	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		Detail:     readDetail(resp.Body),
		Method:     method,
		Path:       path,
	}
	g.metrics.ObserveRequest(method, outcome(resp.StatusCode), time.Since(start))
	g.handleFailure(ctx, statusErr, req.Header.Get(requestIDHeader))
	return nil, statusErr
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, body any, accept string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	req.Header.Set(requestIDHeader, uuid.NewString())

	sess, err := g.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}
	return req, nil
}

func (g *Gateway) handleFailure(ctx context.Context, err *StatusError, requestID string) {
	attrs := []any{
		"method", err.Method,
		"path", err.Path,
		"status", err.StatusCode,
		"request_id", requestID,
		"detail", err.Detail,
	}

	switch {
	case err.StatusCode == http.StatusUnauthorized:
		if isAuthPath(err.Path) {
			g.logger.Debug("auth request rejected", attrs...)
			return
		}
		g.logger.Warn("session rejected by backend, logging out", attrs...)
		if clearErr := g.store.Clear(ctx); clearErr != nil {
			g.logger.Error("failed to clear session", "error", clearErr)
		}
		g.metrics.ForcedLogout()
		g.navigator.RedirectToLogin(ctx, err.Message())
	case err.StatusCode == http.StatusForbidden:
		g.logger.Warn("access forbidden", attrs...)
	case err.StatusCode == http.StatusNotFound:
		g.logger.Info("resource not found", attrs...)
	case err.StatusCode >= 500:
		g.logger.Error("backend server error", attrs...)
	default:
		g.logger.Debug("backend rejected request", attrs...)
	}
}

func isAuthPath(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return authPaths[path]
}

func outcome(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "unauthorized"
	case status == http.StatusForbidden:
		return "forbidden"
	case status == http.StatusNotFound:
		return "not_found"
	case status >= 500:
		return "server_error"
	default:
		return "bad_request"
	}
}

// readDetail extracts a human readable message from an error body. The
// backend sends {"detail": "..."} or a validation list of {"msg": "..."}.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return ""
	}

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		text := strings.TrimSpace(string(data))
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		return text
	}

	if len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(payload.Detail, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
		return string(payload.Detail)
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
