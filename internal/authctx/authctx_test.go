package authctx

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gi8lino/ricefwboard/internal/apiclient"
	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	validate    func() (models.AuthResponse, error)
	login       func(models.LoginRequest) (models.AuthResponse, error)
	signup      func(models.SignupRequest) (models.AuthResponse, error)
	logoutCalls int
}

func (f *fakeAPI) Validate(context.Context) (models.AuthResponse, error) { return f.validate() }
func (f *fakeAPI) Login(_ context.Context, r models.LoginRequest) (models.AuthResponse, error) {
	return f.login(r)
}
func (f *fakeAPI) Signup(_ context.Context, r models.SignupRequest) (models.AuthResponse, error) {
	return f.signup(r)
}
func (f *fakeAPI) Logout(context.Context) error {
	f.logoutCalls++
	return errors.New("network down")
}

func TestInit(t *testing.T) {
	t.Parallel()

	t.Run("restores valid session", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		require.NoError(t, session.Save(store, "tok", models.User{Username: "alice", Email: "a@acme.com"}))
		api := &fakeAPI{validate: func() (models.AuthResponse, error) {
			return models.AuthResponse{Success: true}, nil
		}}

		c := New(store, api)
		c.Init(context.Background())

		assert.True(t, c.IsAuthenticated())
		assert.Equal(t, "alice", c.Username())
		assert.Equal(t, "a@acme.com", c.Email())
		assert.Equal(t, "tok", c.SessionToken())
	})

	t.Run("stale session is cleared", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		require.NoError(t, session.Save(store, "stale", models.User{Username: "alice"}))
		api := &fakeAPI{validate: func() (models.AuthResponse, error) {
			return models.AuthResponse{}, &apiclient.APIError{Status: http.StatusUnauthorized}
		}}

		c := New(store, api)
		c.Init(context.Background())

		assert.False(t, c.IsAuthenticated())
		assert.Nil(t, c.User())
		_, ok := store.Get(session.TokenKey)
		assert.False(t, ok)
		_, ok = store.Get(session.UserKey)
		assert.False(t, ok)
	})

	t.Run("partial session is cleared without calling server", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		require.NoError(t, store.Set(session.TokenKey, "orphan"))
		api := &fakeAPI{validate: func() (models.AuthResponse, error) {
			t.Fatal("validate must not be called")
			return models.AuthResponse{}, nil
		}}

		c := New(store, api)
		c.Init(context.Background())

		assert.False(t, c.IsAuthenticated())
		_, ok := store.Get(session.TokenKey)
		assert.False(t, ok)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("success persists session", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		api := &fakeAPI{login: func(r models.LoginRequest) (models.AuthResponse, error) {
			assert.Equal(t, "alice", r.Username)
			return models.AuthResponse{Success: true, Token: "t1", Username: "alice", Email: "a@acme.com", JiraToken: "jt"}, nil
		}}

		c := New(store, api)
		res := c.Login(context.Background(), "alice", "pw")

		assert.True(t, res.Success)
		assert.True(t, c.IsAuthenticated())
		assert.Equal(t, "jt", c.JiraToken())

		token, user, ok := session.Load(store)
		require.True(t, ok)
		assert.Equal(t, "t1", token)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("server message on failure", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{login: func(models.LoginRequest) (models.AuthResponse, error) {
			return models.AuthResponse{}, &apiclient.APIError{Status: http.StatusUnauthorized, Message: "Invalid username or password"}
		}}

		c := New(session.NewMemoryStore(), api)
		res := c.Login(context.Background(), "alice", "bad")

		assert.False(t, res.Success)
		assert.Equal(t, "Invalid username or password", res.Message)
		assert.False(t, c.IsAuthenticated())
	})

	t.Run("fallback message", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{login: func(models.LoginRequest) (models.AuthResponse, error) {
			return models.AuthResponse{}, errors.New("dial tcp: refused")
		}}

		res := New(session.NewMemoryStore(), api).Login(context.Background(), "a", "b")
		assert.Equal(t, Result{Message: "Login failed"}, res)
	})
}

func TestSignup(t *testing.T) {
	t.Parallel()

	t.Run("auto login with full response", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{signup: func(r models.SignupRequest) (models.AuthResponse, error) {
			return models.AuthResponse{Success: true, Token: "t", Username: r.Username, Email: r.Email}, nil
		}}

		c := New(session.NewMemoryStore(), api)
		res := c.Signup(context.Background(), models.SignupRequest{Username: "bob", Email: "b@acme.com", Password: "pw", Token: "jira"})

		assert.True(t, res.Success)
		assert.True(t, c.IsAuthenticated())
		assert.Equal(t, "jira", c.JiraToken())
	})

	t.Run("no auto login without token", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{signup: func(models.SignupRequest) (models.AuthResponse, error) {
			return models.AuthResponse{Success: true, Message: "User registered successfully"}, nil
		}}

		c := New(session.NewMemoryStore(), api)
		res := c.Signup(context.Background(), models.SignupRequest{Username: "bob"})

		assert.True(t, res.Success)
		assert.False(t, c.IsAuthenticated())
	})

	t.Run("failure fallback", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{signup: func(models.SignupRequest) (models.AuthResponse, error) {
			return models.AuthResponse{}, &apiclient.APIError{Status: http.StatusBadRequest}
		}}

		res := New(session.NewMemoryStore(), api).Signup(context.Background(), models.SignupRequest{})
		assert.Equal(t, "Signup failed", res.Message)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	api := &fakeAPI{login: func(models.LoginRequest) (models.AuthResponse, error) {
		return models.AuthResponse{Success: true, Token: "t", Username: "a", Email: "a@x.io"}, nil
	}}
	c := New(store, api)
	require.True(t, c.Login(context.Background(), "a", "b").Success)

	c.Logout(context.Background())

	assert.Equal(t, 1, api.logoutCalls)
	assert.False(t, c.IsAuthenticated())
	_, ok := store.Get(session.TokenKey)
	assert.False(t, ok)

	c.Logout(context.Background())
	assert.Equal(t, 1, api.logoutCalls, "no server call without token")
}
