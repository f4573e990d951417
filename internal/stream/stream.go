package stream

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rpggio/motherai/internal/telemetry"
)

// Stream is one open phase response. Next must be called from a single
// goroutine; Abandon may be called from any goroutine.
type Stream struct {
	ctx     context.Context
	cancel  context.CancelFunc
	body    io.ReadCloser
	dec     *Decoder
	logger  *slog.Logger
	metrics *telemetry.Metrics

	done      bool
	abandoned atomic.Bool
	closeOnce sync.Once
}

func newStream(ctx context.Context, cancel context.CancelFunc, body io.ReadCloser, logger *slog.Logger, metrics *telemetry.Metrics) *Stream {
	metrics.StreamOpened()
	return &Stream{
		ctx:     ctx,
		cancel:  cancel,
		body:    body,
		dec:     NewDecoder(body, logger, metrics),
		logger:  logger,
		metrics: metrics,
	}
}

// Next blocks for the next event. It returns false once a terminal event has
// been delivered or the stream was abandoned.
func (s *Stream) Next() (Event, bool) {
	if s.done {
		return Event{}, false
	}

	for {
		if s.suppressed() {
			s.finish()
			return Event{}, false
		}

		frame, err := s.dec.Next()
		if s.suppressed() {
			s.finish()
			return Event{}, false
		}
		if err != nil {
			s.finish()
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("stream read failed", "error", err)
			} else {
				s.logger.Warn("stream ended without a terminal frame")
			}
			return Event{Kind: KindError, Message: TransportErrorMessage}, true
		}

		switch frame.Type {
		case "start":
			continue
		case "token":
			return Event{Kind: KindToken, Content: frame.Content}, true
		case "end":
			s.finish()
			return Event{Kind: KindEnd, MessageID: frame.MessageID}, true
		case "error":
			s.finish()
			msg := frame.Message
			if msg == "" {
				msg = StreamErrorMessage
			}
			return Event{Kind: KindError, Message: msg}, true
		default:
			s.logger.Debug("ignoring unknown stream frame", "type", frame.Type)
		}
	}
}

// All yields events until the terminal one. Breaking out of the loop
// abandons the stream.
func (s *Stream) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			ev, ok := s.Next()
			if !ok {
				return
			}
			if !yield(ev) {
				s.Abandon()
				return
			}
		}
	}
}

// Abandon stops delivery. No event is produced after it returns, the
// remaining frames are discarded and the body is closed.
func (s *Stream) Abandon() {
	if s.abandoned.Swap(true) {
		return
	}
	s.cancel()
	s.closeBody()
}

// Close releases the stream. It is safe to call after a terminal event.
func (s *Stream) Close() error {
	s.finish()
	return nil
}

func (s *Stream) suppressed() bool {
	return s.abandoned.Load() || s.ctx.Err() != nil
}

func (s *Stream) finish() {
	s.done = true
	s.cancel()
	s.closeBody()
}

func (s *Stream) closeBody() {
	s.closeOnce.Do(func() {
		_ = s.body.Close()
		s.metrics.StreamClosed()
	})
}
