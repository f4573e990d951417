package testserver

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/rpggio/motherai/internal/domain/user"
	"github.com/rpggio/motherai/internal/domain/workspace"
	"github.com/stretchr/testify/require"
)

// TestServer is an in-memory stand-in for the platform backend.
type TestServer struct {
	Server *httptest.Server
	// URL is the base URL to configure clients with (without the API prefix).
	URL string

	secret    []byte
	accessTTL time.Duration

	tokenMu sync.Mutex
	issued  []string
	revoked map[string]bool

	mu          sync.Mutex
	accounts    map[string]*account
	projects    map[string]*project.Project
	owners      map[string]string
	order       []string
	files       map[string]map[string]workspace.Content
	usage       map[string]*usageCounters
	nextFailure string
	dropNext    bool
	holdNext    *streamHold
	reply       func(content string, phase int) string
}

type account struct {
	user.User
	password  string
	purpose   string
	appliedAt string
	lastLogin string
}

type streamHold struct {
	started chan struct{}
	release chan struct{}
}

type usageCounters struct {
	requests     int64
	inputTokens  int64
	outputTokens int64
}

// New starts a fake backend that is closed when the test ends.
func New(t *testing.T) *TestServer {
	t.Helper()

	ts := &TestServer{
		secret:    []byte("test-secret-" + uuid.NewString()),
		accessTTL: time.Hour,
		revoked:   map[string]bool{},
		accounts:  map[string]*account{},
		projects:  map[string]*project.Project{},
		owners:    map[string]string{},
		files:     map[string]map[string]workspace.Content{},
		usage:     map[string]*usageCounters{},
		reply: func(content string, phase int) string {
			return fmt.Sprintf("Phase %d agent received: %s", phase, content)
		},
	}

	server := httptest.NewServer(ts.routes())
	ts.Server = server
	ts.URL = server.URL

	t.Cleanup(func() {
		server.Close()
	})

	return ts
}

// AddUser seeds an account and returns its profile.
func (ts *TestServer) AddUser(t *testing.T, email, password, name string, role user.Role, status user.Status) *user.User {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for _, acc := range ts.accounts {
		require.NotEqual(t, email, acc.Email, "duplicate seeded email")
	}
	acc := &account{
		User: user.User{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      name,
			Role:      role,
			Status:    status,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
		password:  password,
		appliedAt: time.Now().UTC().Format(time.RFC3339),
	}
	ts.accounts[acc.ID] = acc
	u := acc.User
	return &u
}

// SetUserStatus changes an account's status directly.
func (ts *TestServer) SetUserStatus(id string, status user.Status) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if acc, ok := ts.accounts[id]; ok {
		acc.Status = status
	}
}

// SetAccessTTL changes the lifetime of tokens issued from now on.
func (ts *TestServer) SetAccessTTL(ttl time.Duration) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.accessTTL = ttl
}

// RevokeTokens invalidates every token issued so far.
func (ts *TestServer) RevokeTokens() {
	ts.tokenMu.Lock()
	defer ts.tokenMu.Unlock()
	for _, id := range ts.issued {
		ts.revoked[id] = true
	}
}

// FailNextStream makes the next message stream end with an error frame.
func (ts *TestServer) FailNextStream(message string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.nextFailure = message
}

// DropNextStream makes the next message stream close before its end frame.
func (ts *TestServer) DropNextStream() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.dropNext = true
}

// HoldNextStream pauses the next message stream right after its start frame.
// started is closed once the stream is paused; release lets it finish.
func (ts *TestServer) HoldNextStream() (started <-chan struct{}, release func()) {
	hold := &streamHold{started: make(chan struct{}), release: make(chan struct{})}
	ts.mu.Lock()
	ts.holdNext = hold
	ts.mu.Unlock()

	var once sync.Once
	return hold.started, func() { once.Do(func() { close(hold.release) }) }
}

// SetReply replaces the assistant reply generator.
func (ts *TestServer) SetReply(reply func(content string, phase int) string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.reply = reply
}

// PutFile seeds a generated file.
func (ts *TestServer) PutFile(projectID, path, content string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.putFileLocked(projectID, workspace.Content{Path: path, Content: content})
}

// Project returns a copy of a stored project.
func (ts *TestServer) Project(id string) (*project.Project, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	p, ok := ts.projects[id]
	if !ok {
		return nil, false
	}
	cp := *p
	cp.Messages = append([]project.ChatMessage(nil), p.Messages...)
	return &cp, true
}

func (ts *TestServer) putFileLocked(projectID string, file workspace.Content) {
	files, ok := ts.files[projectID]
	if !ok {
		files = map[string]workspace.Content{}
		ts.files[projectID] = files
	}
	file.Path = strings.Trim(file.Path, "/")
	if file.Language == "" {
		file.Language = workspace.DetectLanguage(file.Path)
	}
	files[file.Path] = file
}

func (ts *TestServer) accountByEmail(email string) *account {
	for _, acc := range ts.accounts {
		if strings.EqualFold(acc.Email, email) {
			return acc
		}
	}
	return nil
}

func (ts *TestServer) projectCount(userID string) int {
	n := 0
	for _, owner := range ts.owners {
		if owner == userID {
			n++
		}
	}
	return n
}
