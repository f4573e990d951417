package stream

// Kind tags an Event.
type Kind string

const (
	KindToken Kind = "token"
	KindEnd   Kind = "end"
	KindError Kind = "error"
)

// Messages used when the backend does not provide one.
const (
	TransportErrorMessage = "connection lost while receiving the response"
	StreamErrorMessage    = "the response stream reported an error"
)

// Event is one observable step of a phase stream.
type Event struct {
	Kind      Kind
	Content   string // token text, KindToken only
	MessageID string // persisted assistant message, KindEnd only
	Message   string // KindError only
}

// Terminal reports whether no event can follow this one.
func (e Event) Terminal() bool {
	return e.Kind == KindEnd || e.Kind == KindError
}

// Handlers is the callback form of a stream. Nil handlers are skipped.
type Handlers struct {
	OnToken func(content string)
	OnEnd   func(messageID string)
	OnError func(message string)
}

func (h Handlers) dispatch(ev Event) {
	switch ev.Kind {
	case KindToken:
		if h.OnToken != nil {
			h.OnToken(ev.Content)
		}
	case KindEnd:
		if h.OnEnd != nil {
			h.OnEnd(ev.MessageID)
		}
	case KindError:
		if h.OnError != nil {
			h.OnError(ev.Message)
		}
	}
}
