package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/motherai/internal/domain/phase"
	"github.com/rpggio/motherai/internal/stream"
)

// View is the state of one open project: the selected phase, its history and
// at most one in-flight response.
type View struct {
	svc      *Service
	streamer Streamer
	logger   *slog.Logger

	mu        sync.Mutex
	project   *Project
	selected  phase.Number
	state     StreamState
	buffer    strings.Builder
	pending   *ChatMessage
	lastError string
}

// NewView creates an empty view.
func NewView(svc *Service, streamer Streamer, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &View{
		svc:      svc,
		streamer: streamer,
		logger:   logger,
		selected: phase.First,
		state:    StreamIdle,
	}
}

// LoadProject fetches the project and selects its current phase.
func (v *View) LoadProject(ctx context.Context, id string) error {
	proj, err := v.svc.Get(ctx, id)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.project = proj
	v.selected = phase.Clamp(int(proj.CurrentPhase))
	return nil
}

// SelectPhase switches the visible phase. Every phase can be opened
// regardless of the project's progress.
func (v *View) SelectPhase(n phase.Number) error {
	if !n.Valid() {
		return fmt.Errorf("%w: %d", phase.ErrInvalidPhase, n)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.project == nil {
		return ErrNoProject
	}
	v.selected = n
	return nil
}

// SendMessage posts content to the selected phase and streams the reply.
// Only one response per project streams at a time, across all views sharing
// the Service. Tokens accumulate in a transient buffer; on end the project is reloaded so
// the persisted messages replace the buffer. h observes the raw stream.
func (v *View) SendMessage(ctx context.Context, content string, h stream.Handlers) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}

	v.mu.Lock()
	if v.project == nil {
		v.mu.Unlock()
		return ErrNoProject
	}
	if v.state == StreamStreaming {
		v.mu.Unlock()
		return ErrStreamInProgress
	}
	projectID := v.project.ID
	if !v.svc.beginStream(projectID) {
		v.mu.Unlock()
		return ErrStreamInProgress
	}
	defer v.svc.endStream(projectID)
	selected := v.selected
	v.state = StreamStreaming
	v.buffer.Reset()
	v.lastError = ""
	v.pending = &ChatMessage{
		ID:        "pending-" + uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Phase:     selected,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	v.mu.Unlock()

	logger := v.logger.With("project_id", projectID, "phase", int(selected))
	logger.Debug("sending phase message")

	var ended bool
	var endedID string
	err := v.streamer.Send(ctx, projectID, stream.SendRequest{Content: content, Phase: int(selected)}, stream.Handlers{
		OnToken: func(token string) {
			v.mu.Lock()
			v.buffer.WriteString(token)
			v.mu.Unlock()
			if h.OnToken != nil {
				h.OnToken(token)
			}
		},
		OnEnd: func(messageID string) {
			ended = true
			endedID = messageID
			if h.OnEnd != nil {
				h.OnEnd(messageID)
			}
		},
		OnError: func(message string) {
			v.mu.Lock()
			v.state = StreamErrored
			v.buffer.Reset()
			v.pending = nil
			v.lastError = message
			v.mu.Unlock()
			logger.Warn("phase stream failed", "message", message)
			if h.OnError != nil {
				h.OnError(message)
			}
		},
	})

	if ended {
		logger.Debug("phase stream completed", "message_id", endedID)
		return v.completeAfterEnd(ctx, projectID)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StreamStreaming {
		// Cancelled before a terminal event.
		v.state = StreamIdle
		v.buffer.Reset()
		v.pending = nil
	}
	if err != nil {
		return err
	}
	if v.state == StreamErrored {
		return fmt.Errorf("%w: %s", ErrResponseFailed, v.lastError)
	}
	return nil
}

func (v *View) completeAfterEnd(ctx context.Context, projectID string) error {
	proj, err := v.svc.Get(ctx, projectID)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = StreamCompleted
	v.buffer.Reset()
	v.pending = nil
	if err != nil {
		v.lastError = err.Error()
		return fmt.Errorf("reloading project after response: %w", err)
	}
	if v.project != nil && v.project.ID == projectID {
		v.project = proj
	}
	return nil
}

// Project returns a copy of the loaded project, or nil.
func (v *View) Project() *Project {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.project == nil {
		return nil
	}
	p := *v.project
	p.Messages = append([]ChatMessage(nil), v.project.Messages...)
	return &p
}

func (v *View) SelectedPhase() phase.Number {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

// Messages returns the persisted messages of phase n in order.
func (v *View) Messages(n phase.Number) []ChatMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.project == nil {
		return nil
	}
	var out []ChatMessage
	for _, m := range v.project.Messages {
		if m.Phase == n {
			out = append(out, m)
		}
	}
	return out
}

func (v *View) StreamState() StreamState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// StreamingContent is the assistant text received so far.
func (v *View) StreamingContent() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.buffer.String()
}

// PendingMessage is the optimistic user message shown while streaming.
func (v *View) PendingMessage() *ChatMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pending == nil {
		return nil
	}
	m := *v.pending
	return &m
}

// CanSend reports whether a new message may be sent.
func (v *View) CanSend() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.project != nil && v.state != StreamStreaming && !v.svc.Streaming(v.project.ID)
}

// LastError is the message of the most recent failed response.
func (v *View) LastError() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastError
}

// PhaseProgress reports every phase relative to the project's current phase.
func (v *View) PhaseProgress() []phase.Progress {
	v.mu.Lock()
	defer v.mu.Unlock()
	current := phase.First
	if v.project != nil {
		current = phase.Clamp(int(v.project.CurrentPhase))
	}
	return phase.ProgressFor(current)
}
