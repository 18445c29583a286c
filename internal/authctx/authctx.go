// Package authctx holds the authenticated session of a client process.
// State lives in memory and mirrors the session store.
package authctx

import (
	"context"
	"sync"

	"github.com/gi8lino/ricefwboard/internal/apiclient"
	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/session"
)

// API is the subset of the API client used for authentication.
type API interface {
	Validate(ctx context.Context) (models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error)
	Signup(ctx context.Context, req models.SignupRequest) (models.AuthResponse, error)
	Logout(ctx context.Context) error
}

// Result is the outcome of Login and Signup.
type Result struct {
	Success bool
	Message string
}

// Context is the auth state of one client. Safe for concurrent use.
type Context struct {
	mu    sync.RWMutex
	store session.Store
	api   API

	token string
	user  *models.User
}

// New returns a logged-out context. Call Init to restore a stored session.
func New(store session.Store, api API) *Context {
	return &Context{store: store, api: api}
}

// Init restores a stored session when the server still accepts its token.
// Any failure clears the stored session and leaves the context logged out.
func (c *Context) Init(ctx context.Context) {
	token, user, ok := session.Load(c.store)
	if !ok {
		_ = session.Clear(c.store)
		c.reset()
		return
	}

	resp, err := c.api.Validate(ctx)
	if err != nil || !resp.Success {
		_ = session.Clear(c.store)
		c.reset()
		return
	}

	c.mu.Lock()
	c.token = token
	c.user = &user
	c.mu.Unlock()
}

// Login authenticates and persists the session on success.
func (c *Context) Login(ctx context.Context, username, password string) Result {
	resp, err := c.api.Login(ctx, models.LoginRequest{Username: username, Password: password})
	if err != nil {
		return Result{Message: apiclient.Message(err, "Login failed")}
	}
	if !resp.Success || resp.Token == "" {
		return Result{Message: fallback(resp.Message, "Login failed")}
	}
	user := models.User{Username: resp.Username, Email: resp.Email, JiraToken: resp.JiraToken}
	if err := c.establish(resp.Token, user); err != nil {
		return Result{Message: "Login failed"}
	}
	return Result{Success: true, Message: fallback(resp.Message, "Login successful")}
}

// Signup registers a user and logs in when the response carries a session.
func (c *Context) Signup(ctx context.Context, req models.SignupRequest) Result {
	resp, err := c.api.Signup(ctx, req)
	if err != nil {
		return Result{Message: apiclient.Message(err, "Signup failed")}
	}
	if !resp.Success {
		return Result{Message: fallback(resp.Message, "Signup failed")}
	}
	if resp.Token != "" && resp.Username != "" && resp.Email != "" {
		jiraToken := resp.JiraToken
		if jiraToken == "" {
			jiraToken = req.Token
		}
		user := models.User{Username: resp.Username, Email: resp.Email, JiraToken: jiraToken}
		if err := c.establish(resp.Token, user); err != nil {
			return Result{Message: "Signup failed"}
		}
	}
	return Result{Success: true, Message: fallback(resp.Message, "User registered successfully")}
}

// Logout tells the server (best effort) and always clears local state.
func (c *Context) Logout(ctx context.Context) {
	if c.SessionToken() != "" {
		_ = c.api.Logout(ctx)
	}
	_ = session.Clear(c.store)
	c.reset()
}

// Invalidate drops local state without calling the server. Use it as the
// API client's unauthorized handler.
func (c *Context) Invalidate() {
	_ = session.Clear(c.store)
	c.reset()
}

// User returns a copy of the current user, or nil when logged out.
func (c *Context) User() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Username returns the current username or "".
func (c *Context) Username() string {
	return c.field(func(u *models.User) string { return u.Username })
}

// Email returns the current email or "".
func (c *Context) Email() string {
	return c.field(func(u *models.User) string { return u.Email })
}

// JiraToken returns the JIRA API token known for the user, if any.
func (c *Context) JiraToken() string {
	return c.field(func(u *models.User) string { return u.JiraToken })
}

// SessionToken returns the current session token or "".
func (c *Context) SessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// IsAuthenticated reports whether both a token and a user are held.
func (c *Context) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != "" && c.user != nil
}

// establish writes the store first, then memory, so both change together.
func (c *Context) establish(token string, user models.User) error {
	if err := session.Save(c.store, token, user); err != nil {
		return err
	}
	c.mu.Lock()
	c.token = token
	c.user = &user
	c.mu.Unlock()
	return nil
}

func (c *Context) reset() {
	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.mu.Unlock()
}

func (c *Context) field(get func(*models.User) string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return ""
	}
	return get(c.user)
}

func fallback(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
