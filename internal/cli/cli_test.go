package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/motherai/internal/domain/auth"
	"github.com/rpggio/motherai/internal/domain/user"
	"github.com/rpggio/motherai/internal/testserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	ts    *testserver.TestServer
	state string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	for _, key := range []string{
		"MOTHERAI_CONFIG_PATH", "MOTHERAI_API_BASE_URL", "MOTHERAI_STATE_PATH",
		"MOTHERAI_LOG_LEVEL", "MOTHERAI_LOG_PATH", "MOTHERAI_REQUEST_TIMEOUT",
		"MOTHERAI_METRICS_ADDR", "MOTHERAI_PASSWORD",
	} {
		t.Setenv(key, "")
	}
	return &cliEnv{
		ts:    testserver.New(t),
		state: filepath.Join(t.TempDir(), "state.db"),
	}
}

// exec runs one invocation with stdin and returns stdout and stderr.
func (e *cliEnv) exec(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(Options{
		Version: "test",
		In:      strings.NewReader(stdin),
		Out:     &stdout,
		Err:     &stderr,
	})
	cmd.SetArgs(append([]string{"--api-url", e.ts.URL, "--state", e.state, "--plain"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliEnv) login(t *testing.T, email, password string) {
	t.Helper()
	out, _, err := e.exec(t, password+"\n", "login", "--email", email)
	require.NoError(t, err)
	require.Contains(t, out, "Signed in")
}

func TestPhases_Offline(t *testing.T) {
	e := newCLIEnv(t)
	out, _, err := e.exec(t, "", "phases")
	require.NoError(t, err)
	assert.Contains(t, out, "Phase14MonitoringAgent")
	assert.Contains(t, out, "Requirements")
}

func TestLogin_PersistsSessionAcrossInvocations(t *testing.T) {
	e := newCLIEnv(t)
	e.ts.AddUser(t, "ada@example.com", "password1", "Ada", user.RoleUser, user.StatusApproved)

	e.login(t, "ada@example.com", "password1")

	out, _, err := e.exec(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada <ada@example.com>")
	assert.Contains(t, out, "status: approved")

	_, _, err = e.exec(t, "", "logout")
	require.NoError(t, err)
	_, _, err = e.exec(t, "", "whoami")
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestLogin_BadPassword(t *testing.T) {
	e := newCLIEnv(t)
	e.ts.AddUser(t, "ada@example.com", "password1", "Ada", user.RoleUser, user.StatusApproved)

	_, _, err := e.exec(t, "", "login", "--email", "ada@example.com", "--password", "nope")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_PendingAccountIsTold(t *testing.T) {
	e := newCLIEnv(t)
	e.ts.AddUser(t, "pat@example.com", "password1", "Pat", user.RoleUser, user.StatusPending)

	out, _, err := e.exec(t, "", "login", "--email", "pat@example.com", "--password", "password1")
	require.NoError(t, err)
	assert.Contains(t, out, "Your application is pending")

	_, _, err = e.exec(t, "", "projects", "list")
	assert.ErrorIs(t, err, auth.ErrNotApproved)
}

func TestRegister(t *testing.T) {
	e := newCLIEnv(t)

	out, _, err := e.exec(t, "", "register",
		"--name", "New", "--email", "new@example.com", "--password", "password1",
		"--purpose", "A tool that plans weekly meals")
	require.NoError(t, err)
	assert.Contains(t, out, "Application id:")

	_, _, err = e.exec(t, "", "register",
		"--name", "New", "--email", "new@example.com", "--password", "password1",
		"--purpose", "A tool that plans weekly meals")
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)

	_, _, err = e.exec(t, "", "register",
		"--name", "Short", "--email", "short@example.com", "--password", "password1", "--purpose", "too short")
	assert.ErrorIs(t, err, auth.ErrInvalidInput)
}

func TestProjectsAndChat(t *testing.T) {
	e := newCLIEnv(t)
	e.ts.AddUser(t, "ada@example.com", "password1", "Ada", user.RoleUser, user.StatusApproved)
	e.ts.SetReply(func(content string, phase int) string { return "Reply to " + content })
	e.login(t, "ada@example.com", "password1")

	out, _, err := e.exec(t, "", "projects", "create", "Todo", "-d", "Shared lists")
	require.NoError(t, err)
	require.Contains(t, out, "Created project Todo")
	id := strings.TrimSpace(out[strings.Index(out, "id: ")+len("id: "):])

	out, _, err = e.exec(t, "", "projects", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Phase 1: Requirements")

	out, _, err = e.exec(t, "", "chat", id, "--phase", "2", "generate it")
	require.NoError(t, err)
	assert.Equal(t, "Reply to generate it\n", out)

	out, _, err = e.exec(t, "", "projects", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Phase 2: Code Generation")
	assert.Contains(t, out, "generate it")
	assert.Contains(t, out, "Reply to generate it")
	assert.Contains(t, out, "completed")

	_, _, err = e.exec(t, "", "chat", id, "--phase", "15", "hi")
	assert.Error(t, err)

	_, _, err = e.exec(t, "", "projects", "delete", id)
	require.NoError(t, err)
	out, _, err = e.exec(t, "", "projects", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No projects yet")
}

func TestChat_InteractiveLoop(t *testing.T) {
	e := newCLIEnv(t)
	e.ts.AddUser(t, "ada@example.com", "password1", "Ada", user.RoleUser, user.StatusApproved)
	e.ts.SetReply(func(content string, phase int) string { return content + " ok" })
	e.login(t, "ada@example.com", "password1")

	out, _, err := e.exec(t, "", "projects", "create", "Todo")
	require.NoError(t, err)
	id := strings.TrimSpace(out[strings.Index(out, "id: ")+len("id: "):])

	e.ts.FailNextStream("agent crashed")
	out, stderr, err := e.exec(t, "first\n/phase 3\nsecond\n/phase 99\n/quit\n", "chat", id)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Response failed: agent crashed")
	assert.Contains(t, out, "Phase 3: Deployment")
	assert.Contains(t, out, "second ok")
	assert.Contains(t, stderr, "invalid phase")
}

func TestChat_StreamDropped(t *testing.T) {
	e := newCLIEnv(t)
	e.ts.AddUser(t, "ada@example.com", "password1", "Ada", user.RoleUser, user.StatusApproved)
	e.login(t, "ada@example.com", "password1")
	out, _, err := e.exec(t, "", "projects", "create", "Todo")
	require.NoError(t, err)
	id := strings.TrimSpace(out[strings.Index(out, "id: ")+len("id: "):])

	e.ts.DropNextStream()
	_, stderr, err := e.exec(t, "", "chat", id, "hello")
	require.Error(t, err)
	assert.Contains(t, stderr, "connection lost while receiving the response")
}

func TestRevokedSessionSignsOut(t *testing.T) {
	e := newCLIEnv(t)
	e.ts.AddUser(t, "ada@example.com", "password1", "Ada", user.RoleUser, user.StatusApproved)
	e.login(t, "ada@example.com", "password1")

	e.ts.RevokeTokens()
	_, stderr, err := e.exec(t, "", "projects", "list")
	require.Error(t, err)
	assert.Contains(t, stderr, "Run `motherai login` to sign in again")

	_, _, err = e.exec(t, "", "whoami")
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestLogout_AfterRevocationIsQuiet(t *testing.T) {
	e := newCLIEnv(t)
	e.ts.AddUser(t, "ada@example.com", "password1", "Ada", user.RoleUser, user.StatusApproved)
	e.login(t, "ada@example.com", "password1")

	e.ts.RevokeTokens()
	out, stderr, err := e.exec(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	assert.NotContains(t, stderr, "Run `motherai login`")

	_, _, err = e.exec(t, "", "whoami")
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestExpiredAccessTokenIsRefreshedOnStartup(t *testing.T) {
	e := newCLIEnv(t)
	e.ts.AddUser(t, "ada@example.com", "password1", "Ada", user.RoleUser, user.StatusApproved)
	e.ts.SetAccessTTL(-time.Minute)
	e.login(t, "ada@example.com", "password1")
	e.ts.SetAccessTTL(time.Hour)

	out, _, err := e.exec(t, "", "projects", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No projects yet")
}

func TestFiles(t *testing.T) {
	e := newCLIEnv(t)
	e.ts.AddUser(t, "ada@example.com", "password1", "Ada", user.RoleUser, user.StatusApproved)
	e.login(t, "ada@example.com", "password1")
	out, _, err := e.exec(t, "", "projects", "create", "Todo")
	require.NoError(t, err)
	id := strings.TrimSpace(out[strings.Index(out, "id: ")+len("id: "):])
	e.ts.PutFile(id, "src/main.go", "package main\n")

	_, _, err = e.exec(t, "# Todo\n", "files", "save", id, "docs/README.md")
	require.NoError(t, err)

	out, _, err = e.exec(t, "", "files", "tree", id)
	require.NoError(t, err)
	assert.Contains(t, out, "docs/")
	assert.Contains(t, out, "README.md")
	assert.Contains(t, out, "main.go go")

	out, _, err = e.exec(t, "", "files", "cat", id, "src/main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", out)

	out, _, err = e.exec(t, "", "files", "cat", id, "src/util.go")
	require.NoError(t, err)
	assert.Contains(t, out, "// src/util.go")

	_, _, err = e.exec(t, "", "files", "cat", id, "src")
	assert.Error(t, err)
}

func TestAdmin(t *testing.T) {
	e := newCLIEnv(t)
	e.ts.AddUser(t, "root@example.com", "password1", "Root", user.RoleAdmin, user.StatusApproved)
	applicant := e.ts.AddUser(t, "new@example.com", "password1", "Newcomer", user.RoleUser, user.StatusPending)
	e.login(t, "root@example.com", "password1")

	out, _, err := e.exec(t, "", "admin", "applications")
	require.NoError(t, err)
	assert.Contains(t, out, "Newcomer")

	_, _, err = e.exec(t, "", "admin", "reject", applicant.ID)
	require.Error(t, err)

	out, _, err = e.exec(t, "", "admin", "approve", applicant.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Approved "+applicant.ID)

	_, _, err = e.exec(t, "", "admin", "suspend", applicant.ID)
	require.NoError(t, err)
	out, _, err = e.exec(t, "", "admin", "users")
	require.NoError(t, err)
	assert.Contains(t, out, "suspended")

	out, _, err = e.exec(t, "", "admin", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Prompt cache")
}

func TestAdmin_RequiresRole(t *testing.T) {
	e := newCLIEnv(t)
	e.ts.AddUser(t, "ada@example.com", "password1", "Ada", user.RoleUser, user.StatusApproved)
	e.login(t, "ada@example.com", "password1")

	_, _, err := e.exec(t, "", "admin", "users")
	assert.ErrorIs(t, err, auth.ErrNotAdmin)
}
