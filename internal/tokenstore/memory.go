package tokenstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	sess Session
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// SetSession replaces the held session.
func (m *Memory) SetSession(_ context.Context, sess Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	if sess.User != nil {
		u := *sess.User
		sess.User = &u
	}
	m.mu.Lock()
	m.sess = sess
	m.mu.Unlock()
	return nil
}

// Load returns a copy of the held session.
func (m *Memory) Load(_ context.Context) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess := m.sess
	if sess.User != nil {
		u := *sess.User
		sess.User = &u
	}
	return sess, nil
}

// Clear drops every credential.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.sess = Session{}
	m.mu.Unlock()
	return nil
}
