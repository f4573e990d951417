package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/rpggio/motherai/internal/gateway"
	"github.com/rpggio/motherai/internal/telemetry"
)

// Opener starts a streaming POST. *gateway.Gateway implements it.
type Opener interface {
	OpenStream(ctx context.Context, path string, body any) (*http.Response, error)
}

// SendRequest is the body of a phase message.
type SendRequest struct {
	Content string `json:"content"`
	Phase   int    `json:"phase"`
}

// Client opens phase streams against the backend.
type Client struct {
	opener  Opener
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewClient creates a new stream client.
func NewClient(opener Opener, logger *slog.Logger, metrics *telemetry.Metrics) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{opener: opener, logger: logger, metrics: metrics}
}

// Open posts the message and returns the response stream. A non-2xx reply is
// returned as an error and no stream is created.
func (c *Client) Open(ctx context.Context, projectID string, req SendRequest) (*Stream, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	resp, err := c.opener.OpenStream(streamCtx, messagesPath(projectID), req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open phase stream: %w", err)
	}

	logger := c.logger.With("project_id", projectID, "phase", req.Phase)
	logger.Debug("phase stream opened")
	return newStream(streamCtx, cancel, resp.Body, logger, c.metrics), nil
}

// Send streams one message through handlers on the calling goroutine.
// Failing to open the stream is reported through OnError and returned. It
// returns ctx.Err() when the caller cancelled before a terminal event.
func (c *Client) Send(ctx context.Context, projectID string, req SendRequest, h Handlers) error {
	s, err := c.Open(ctx, projectID, req)
	if err != nil {
		if ctx.Err() == nil {
			h.dispatch(Event{Kind: KindError, Message: openErrorMessage(err)})
		}
		return err
	}
	defer s.Close()

	terminal := false
	for ev := range s.All() {
		h.dispatch(ev)
		terminal = ev.Terminal()
	}
	if !terminal && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func messagesPath(projectID string) string {
	return "/projects/" + url.PathEscape(projectID) + "/messages"
}

func openErrorMessage(err error) string {
	var se *gateway.StatusError
	if errors.As(err, &se) {
		return se.Message()
	}
	return TransportErrorMessage
}
