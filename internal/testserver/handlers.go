package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpggio/motherai/internal/domain/admin"
	"github.com/rpggio/motherai/internal/domain/auth"
	"github.com/rpggio/motherai/internal/domain/phase"
	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/rpggio/motherai/internal/domain/user"
	"github.com/rpggio/motherai/internal/domain/workspace"
)

func (ts *TestServer) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", ts.handleLogin)
		r.Post("/auth/register", ts.handleRegister)
		r.Post("/auth/refresh", ts.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(ts.authMiddleware)

			r.Post("/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
			r.Get("/users/me", ts.handleMe)
			r.Put("/users/me", ts.handleUpdateMe)
			r.Get("/users/me/api-usage", ts.handleUsage)

			r.Group(func(r chi.Router) {
				r.Use(ts.requireApproved)
				r.Get("/projects", ts.handleListProjects)
				r.Post("/projects", ts.handleCreateProject)
				r.Get("/projects/{id}", ts.handleGetProject)
				r.Delete("/projects/{id}", ts.handleDeleteProject)
				r.Post("/projects/{id}/messages", ts.handleSendMessage)
				r.Get("/projects/{id}/files", ts.handleListFiles)
				r.Get("/projects/{id}/files/*", ts.handleReadFile)
				r.Put("/projects/{id}/files/*", ts.handleWriteFile)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(ts.requireAdmin)
				r.Get("/applications", ts.handleApplications)
				r.Put("/applications/{id}/approve", ts.handleReview(user.StatusApproved))
				r.Put("/applications/{id}/reject", ts.handleReview(user.StatusRejected))
				r.Get("/users", ts.handleUsers)
				r.Post("/users/{id}/suspend", ts.handleSetStatus(user.StatusSuspended))
				r.Post("/users/{id}/activate", ts.handleSetStatus(user.StatusApproved))
				r.Get("/api-stats", ts.handleStats)
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return false
	}
	return true
}

func (ts *TestServer) issue(w http.ResponseWriter, acc *account) {
	ts.mu.Lock()
	ttl := ts.accessTTL
	acc.lastLogin = time.Now().UTC().Format(time.RFC3339)
	u := acc.User
	ts.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  ts.mint(u.ID, audienceAccess, ttl),
		"refresh_token": ts.mint(u.ID, audienceRefresh, refreshTTL),
		"token_type":    "bearer",
		"user":          u,
	})
}

func (ts *TestServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	ts.mu.Lock()
	acc := ts.accountByEmail(req.Email)
	valid := acc != nil && acc.password == req.Password
	suspended := valid && acc.Status == user.StatusSuspended
	ts.mu.Unlock()

	switch {
	case !valid:
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
	case suspended:
		writeDetail(w, http.StatusForbidden, "Account is suspended")
	default:
		ts.issue(w, acc)
	}
}

func (ts *TestServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decode(w, r, &req) {
		return
	}
	acc, err := ts.verify(req.RefreshToken, audienceRefresh)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	ts.issue(w, acc)
}

func (ts *TestServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if utf8.RuneCountInString(req.Password) < auth.MinPasswordLength {
		writeDetail(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}
	if utf8.RuneCountInString(req.Purpose) < auth.MinPurposeLength {
		writeDetail(w, http.StatusBadRequest, "Purpose must be at least 20 characters")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.accountByEmail(req.Email) != nil {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	acc := &account{
		User: user.User{
			ID:        uuid.NewString(),
			Email:     req.Email,
			Name:      req.Name,
			Role:      user.RoleUser,
			Status:    user.StatusPending,
			CreatedAt: now,
		},
		password:  req.Password,
		purpose:   req.Purpose,
		appliedAt: now,
	}
	ts.accounts[acc.ID] = acc

	writeJSON(w, http.StatusOK, auth.RegisterResult{
		Message: "Application received. Please wait for review.",
		UserID:  acc.ID,
	})
}

func (ts *TestServer) handleMe(w http.ResponseWriter, r *http.Request) {
	acc, _ := accountFromContext(r.Context())
	ts.mu.Lock()
	u := acc.User
	ts.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": u})
}

func (ts *TestServer) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req auth.ProfileUpdate
	if !decode(w, r, &req) {
		return
	}
	acc, _ := accountFromContext(r.Context())

	ts.mu.Lock()
	if req.Name != nil {
		acc.Name = *req.Name
	}
	acc.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	patch := map[string]any{"id": acc.ID, "name": acc.Name, "updatedAt": acc.UpdatedAt}
	ts.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": patch, "message": "Profile updated"})
}

func (ts *TestServer) handleUsage(w http.ResponseWriter, r *http.Request) {
	acc, _ := accountFromContext(r.Context())
	ts.mu.Lock()
	c := ts.usage[acc.ID]
	ts.mu.Unlock()

	var summary auth.UsageSummary
	if c != nil {
		summary = auth.UsageSummary{
			InputTokens:  c.inputTokens,
			OutputTokens: c.outputTokens,
			Cost:         cost(c.inputTokens, c.outputTokens),
			Requests:     c.requests,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": auth.APIUsage{Today: summary, ThisMonth: summary}})
}

func (ts *TestServer) ownedProject(w http.ResponseWriter, r *http.Request) (*project.Project, bool) {
	acc, _ := accountFromContext(r.Context())
	id := chi.URLParam(r, "id")
	p, ok := ts.projects[id]
	if !ok || ts.owners[id] != acc.ID {
		writeDetail(w, http.StatusNotFound, "Project not found")
		return nil, false
	}
	return p, true
}

func (ts *TestServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	acc, _ := accountFromContext(r.Context())
	ts.mu.Lock()
	defer ts.mu.Unlock()

	list := []project.Project{}
	for _, id := range ts.order {
		if ts.owners[id] != acc.ID {
			continue
		}
		p := *ts.projects[id]
		p.Messages = nil
		list = append(list, p)
	}
	writeJSON(w, http.StatusOK, list)
}

func (ts *TestServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req project.CreateRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeDetail(w, http.StatusBadRequest, "Project name is required")
		return
	}
	acc, _ := accountFromContext(r.Context())

	p := &project.Project{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		Status:       "active",
		CurrentPhase: phase.First,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	ts.mu.Lock()
	ts.projects[p.ID] = p
	ts.owners[p.ID] = acc.ID
	ts.order = append(ts.order, p.ID)
	out := *p
	ts.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (ts *TestServer) handleGetProject(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	p, ok := ts.ownedProject(w, r)
	if !ok {
		return
	}
	out := *p
	out.Messages = append([]project.ChatMessage{}, p.Messages...)
	writeJSON(w, http.StatusOK, out)
}

func (ts *TestServer) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	p, ok := ts.ownedProject(w, r)
	if !ok {
		return
	}
	delete(ts.projects, p.ID)
	delete(ts.owners, p.ID)
	delete(ts.files, p.ID)
	for i, id := range ts.order {
		if id == p.ID {
			ts.order = append(ts.order[:i], ts.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ts *TestServer) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
		Phase   int    `json:"phase"`
	}
	if !decode(w, r, &req) {
		return
	}
	n, err := phase.Parse(req.Phase)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid phase")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeDetail(w, http.StatusBadRequest, "Message content is required")
		return
	}
	acc, _ := accountFromContext(r.Context())

	ts.mu.Lock()
	p, ok := ts.ownedProject(w, r)
	if !ok {
		ts.mu.Unlock()
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	p.Messages = append(p.Messages, project.ChatMessage{
		ID: uuid.NewString(), Role: project.RoleUser, Content: req.Content, Phase: n, CreatedAt: now,
	})
	reply := ts.reply(req.Content, int(n))
	failure := ts.nextFailure
	drop := ts.dropNext
	ts.nextFailure = ""
	ts.dropNext = false
	hold := ts.holdNext
	ts.holdNext = nil
	projectID := p.ID
	ts.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	send := func(frame map[string]any) {
		data, _ := json.Marshal(frame)
		_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
		if flusher != nil {
			flusher.Flush()
		}
	}

	send(map[string]any{"type": "start"})
	if hold != nil {
		close(hold.started)
		select {
		case <-hold.release:
		case <-r.Context().Done():
			return
		}
	}
	tokens := splitTokens(reply)
	for i, tok := range tokens {
		if r.Context().Err() != nil {
			return
		}
		send(map[string]any{"type": "token", "content": tok})
		if drop && i == 0 {
			return
		}
	}
	if failure != "" {
		send(map[string]any{"type": "error", "message": failure})
		return
	}

	msg := project.ChatMessage{
		ID: uuid.NewString(), Role: project.RoleAssistant, Content: reply, Phase: n, CreatedAt: now,
	}
	ts.mu.Lock()
	if p, ok := ts.projects[projectID]; ok {
		p.Messages = append(p.Messages, msg)
		if n > p.CurrentPhase {
			p.CurrentPhase = n
		}
	}
	c := ts.usage[acc.ID]
	if c == nil {
		c = &usageCounters{}
		ts.usage[acc.ID] = c
	}
	c.requests++
	c.inputTokens += int64(len(strings.Fields(req.Content)))
	c.outputTokens += int64(len(tokens))
	ts.mu.Unlock()

	send(map[string]any{"type": "end", "messageId": msg.ID})
}

// splitTokens breaks text into word tokens that concatenate back to it.
func splitTokens(text string) []string {
	var tokens []string
	start := 0
	for i := 1; i < len(text); i++ {
		if text[i] == ' ' {
			tokens = append(tokens, text[start:i])
			start = i
		}
	}
	if start < len(text) {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

func filePathParam(r *http.Request) string {
	raw := chi.URLParam(r, "*")
	if path, err := url.PathUnescape(raw); err == nil {
		raw = path
	}
	return strings.Trim(raw, "/")
}

func (ts *TestServer) handleListFiles(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	p, ok := ts.ownedProject(w, r)
	if !ok {
		return
	}
	files := []workspace.File{}
	for _, f := range ts.files[p.ID] {
		files = append(files, workspace.File{Path: f.Path, Language: f.Language, Size: int64(len(f.Content))})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	writeJSON(w, http.StatusOK, files)
}

func (ts *TestServer) handleReadFile(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	p, ok := ts.ownedProject(w, r)
	if !ok {
		return
	}
	f, ok := ts.files[p.ID][filePathParam(r)]
	if !ok {
		writeDetail(w, http.StatusNotFound, "File not found")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (ts *TestServer) handleWriteFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string `json:"content"`
		Language string `json:"language"`
	}
	if !decode(w, r, &req) {
		return
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	p, ok := ts.ownedProject(w, r)
	if !ok {
		return
	}
	path := filePathParam(r)
	if path == "" {
		writeDetail(w, http.StatusBadRequest, "File path is required")
		return
	}
	ts.putFileLocked(p.ID, workspace.Content{Path: path, Content: req.Content, Language: req.Language})
	writeJSON(w, http.StatusOK, map[string]string{"message": "saved"})
}

func (ts *TestServer) handleApplications(w http.ResponseWriter, _ *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	apps := []user.Application{}
	for _, acc := range ts.accounts {
		if acc.Status != user.StatusPending {
			continue
		}
		apps = append(apps, user.Application{
			ID: acc.ID, Name: acc.Name, Email: acc.Email, Purpose: acc.purpose, Status: acc.Status, AppliedAt: acc.appliedAt,
		})
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Email < apps[j].Email })
	writeJSON(w, http.StatusOK, apps)
}

func (ts *TestServer) handleReview(status user.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if status == user.StatusRejected {
			var req struct {
				Reason string `json:"reason"`
			}
			if !decode(w, r, &req) {
				return
			}
			if strings.TrimSpace(req.Reason) == "" {
				writeDetail(w, http.StatusBadRequest, "Reason is required")
				return
			}
		}

		ts.mu.Lock()
		defer ts.mu.Unlock()
		acc, ok := ts.accounts[chi.URLParam(r, "id")]
		if !ok || acc.Status != user.StatusPending {
			writeDetail(w, http.StatusNotFound, "Application not found")
			return
		}
		acc.Status = status
		writeJSON(w, http.StatusOK, map[string]any{
			"data": admin.Decision{Message: "Application " + string(status), UserID: acc.ID},
		})
	}
}

func (ts *TestServer) handleUsers(w http.ResponseWriter, _ *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	accounts := []user.Account{}
	for _, acc := range ts.accounts {
		accounts = append(accounts, user.Account{
			ID:           acc.ID,
			Name:         acc.Name,
			Email:        acc.Email,
			Role:         acc.Role,
			Status:       acc.Status,
			ProjectCount: ts.projectCount(acc.ID),
			LastLogin:    acc.lastLogin,
			CreatedAt:    acc.CreatedAt,
		})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Email < accounts[j].Email })
	writeJSON(w, http.StatusOK, accounts)
}

func (ts *TestServer) handleSetStatus(status user.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		acc, ok := ts.accounts[chi.URLParam(r, "id")]
		if !ok {
			writeDetail(w, http.StatusNotFound, "User not found")
			return
		}
		acc.Status = status
		writeJSON(w, http.StatusOK, map[string]string{"message": "User status updated"})
	}
}

func (ts *TestServer) handleStats(w http.ResponseWriter, _ *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	stats := admin.APIStats{
		TopUsers:        []admin.UserUsage{},
		PhaseStats:      []admin.PhaseUsage{},
		TodayPhaseStats: []admin.PhaseDaily{},
		CacheStats:      &admin.CacheStats{},
	}
	for id, c := range ts.usage {
		total := c.inputTokens + c.outputTokens
		stats.TotalRequests += c.requests
		stats.TotalTokens += total
		stats.TotalCost += cost(c.inputTokens, c.outputTokens)
		name := ""
		if acc, ok := ts.accounts[id]; ok {
			name = acc.Name
		}
		stats.TopUsers = append(stats.TopUsers, admin.UserUsage{
			UserID: id, UserName: name, TotalRequests: c.requests, TotalCost: cost(c.inputTokens, c.outputTokens),
		})
	}
	stats.TodayRequests = stats.TotalRequests
	stats.TodayCost = stats.TotalCost

	byPhase := map[phase.Number]*admin.PhaseUsage{}
	for _, p := range ts.projects {
		for _, m := range p.Messages {
			if m.Role != project.RoleAssistant {
				continue
			}
			ps, ok := byPhase[m.Phase]
			if !ok {
				ps = &admin.PhaseUsage{Phase: int(m.Phase)}
				byPhase[m.Phase] = ps
			}
			ps.TotalRequests++
		}
	}
	for _, d := range phase.All() {
		if ps, ok := byPhase[d.Number]; ok {
			stats.PhaseStats = append(stats.PhaseStats, *ps)
			stats.TodayPhaseStats = append(stats.TodayPhaseStats, admin.PhaseDaily{Phase: ps.Phase, Requests: ps.TotalRequests})
		}
	}
	sort.Slice(stats.TopUsers, func(i, j int) bool { return stats.TopUsers[i].TotalRequests > stats.TopUsers[j].TotalRequests })
	writeJSON(w, http.StatusOK, stats)
}

func cost(input, output int64) float64 {
	return float64(input)*0.000003 + float64(output)*0.000015
}
