package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, store session.Store, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithHTTPClient(srv.Client())}, opts...)
	c, err := New(srv.URL, store, opts...)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("appends api path", func(t *testing.T) {
		t.Parallel()

		c, err := New("http://localhost:8080", session.NewMemoryStore())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/api/", c.BaseURL.String())
	})

	t.Run("keeps existing api path", func(t *testing.T) {
		t.Parallel()

		c, err := New("http://localhost:8080/board/api/", session.NewMemoryStore())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/board/api/", c.BaseURL.String())
	})

	t.Run("rejects relative url", func(t *testing.T) {
		t.Parallel()

		_, err := New("localhost", session.NewMemoryStore())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be absolute")
	})
}

func TestDo(t *testing.T) {
	t.Parallel()

	t.Run("attaches bearer token from store", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		require.NoError(t, store.Set(session.TokenKey, "tok-1"))

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			assert.Equal(t, "/api/auth/validate", r.URL.Path)
			w.Write([]byte(`{"success":true,"username":"alice"}`)) // nolint:errcheck
		}, store)

		resp, err := c.Validate(context.Background())
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "alice", resp.Username)
	})

	t.Run("no token means no authorization header", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			w.Write([]byte(`{"success":true}`)) // nolint:errcheck
		}, session.NewMemoryStore())

		_, err := c.Login(context.Background(), models.LoginRequest{Username: "a", Password: "b"})
		require.NoError(t, err)
	})

	t.Run("401 clears session and fires hook", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		require.NoError(t, session.Save(store, "stale", models.User{Username: "alice"}))

		fired := 0
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"message":"Invalid or expired token"}`)) // nolint:errcheck
		}, store, WithUnauthorizedHandler(func() { fired++ }))

		_, err := c.ListIssues(context.Background(), "ACME")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnauthorized))
		assert.Equal(t, "Invalid or expired token", Message(err, "fallback"))
		assert.Equal(t, 1, fired)

		_, hasToken := store.Get(session.TokenKey)
		_, hasUser := store.Get(session.UserKey)
		assert.False(t, hasToken)
		assert.False(t, hasUser)
	})

	t.Run("400 keeps session and returns message", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		require.NoError(t, session.Save(store, "tok", models.User{Username: "alice"}))

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success":false,"message":"Summary is required"}`)) // nolint:errcheck
		}, store)

		_, err := c.CreateIssue(context.Background(), "ACME", models.CreateIssueRequest{})
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrUnauthorized))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, "Summary is required", apiErr.Message)

		token, ok := store.Get(session.TokenKey)
		assert.True(t, ok)
		assert.Equal(t, "tok", token)
	})

	t.Run("plain text error body", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}, session.NewMemoryStore())

		_, err := c.Me(context.Background())
		require.Error(t, err)
		assert.Equal(t, "bad gateway", Message(err, "fallback"))
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`)) // nolint:errcheck
		}, session.NewMemoryStore())

		_, err := c.Me(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode response")
		assert.Equal(t, "fallback", Message(err, "fallback"))
	})
}

func TestSearchProjects(t *testing.T) {
	t.Parallel()

	t.Run("requires domain", func(t *testing.T) {
		t.Parallel()

		c, err := New("http://127.0.0.1:1", session.NewMemoryStore())
		require.NoError(t, err)

		_, err = c.SearchProjects(context.Background(), "  ", "acme")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("sends fixed page", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/projects/search", r.URL.Path)

			var req models.ProjectSearchRequest
			raw, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(raw, &req))
			assert.Equal(t, "acme", req.AtlassianDomain)
			assert.Equal(t, "core", req.SearchQuery)
			assert.Equal(t, ProjectPageSize, req.MaxResults)
			assert.Equal(t, 0, req.StartAt)

			w.Write([]byte(`{"values":[{"key":"ACME","name":"Acme Core"}],"total":1,"isLast":true}`)) // nolint:errcheck
		}, session.NewMemoryStore())

		page, err := c.SearchProjects(context.Background(), " acme ", " core ")
		require.NoError(t, err)
		require.Len(t, page.Values, 1)
		assert.Equal(t, "ACME", page.Values[0].Key)
		assert.True(t, page.IsLast)
	})
}

func TestIssueEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("update labels", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/projects/issues/ACME-1/labels", r.URL.Path)

			var req models.UpdateLabelsRequest
			raw, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(raw, &req))
			assert.Equal(t, "Interface", req.RicefwCategory)

			w.Write([]byte(`{"key":"ACME-1","labels":["backend","Interface"],"ricefwCategory":"Interface"}`)) // nolint:errcheck
		}, session.NewMemoryStore())

		out, err := c.UpdateLabels(context.Background(), "ACME-1", "Interface")
		require.NoError(t, err)
		assert.Equal(t, []string{"backend", "Interface"}, out.Labels)
	})

	t.Run("list issues requires key", func(t *testing.T) {
		t.Parallel()

		c, err := New("http://127.0.0.1:1", session.NewMemoryStore())
		require.NoError(t, err)

		_, err = c.ListIssues(context.Background(), "")
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("transitions", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/projects/issues/ACME-2/transitions", r.URL.Path)
			switch r.Method {
			case http.MethodGet:
				w.Write([]byte(`{"transitions":[{"id":"31","name":"Done","to":{"name":"Done"}}]}`)) // nolint:errcheck
			case http.MethodPost:
				var req models.TransitionRequest
				raw, _ := io.ReadAll(r.Body)
				assert.NoError(t, json.Unmarshal(raw, &req))
				assert.Equal(t, "31", req.TransitionID)
				w.Write([]byte(`{"success":true,"message":"Issue transitioned"}`)) // nolint:errcheck
			}
		}, session.NewMemoryStore())

		ts, err := c.Transitions(context.Background(), "ACME-2")
		require.NoError(t, err)
		require.Len(t, ts, 1)
		assert.Equal(t, "Done", ts[0].To.Name)

		require.NoError(t, c.Transition(context.Background(), "ACME-2", "31"))
	})
}

func TestMessageFrom(t *testing.T) {
	t.Parallel()

	t.Run("json message", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Nope", messageFrom([]byte(`{"success":false,"message":"Nope"}`)))
	})

	t.Run("plain text is trimmed", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "bad gateway", messageFrom([]byte("  bad gateway\n")))
	})

	t.Run("long ascii body is cut", func(t *testing.T) {
		t.Parallel()
		msg := messageFrom([]byte(strings.Repeat("x", maxMessageLen+50)))
		assert.Len(t, msg, maxMessageLen)
	})

	t.Run("multi-byte rune on the boundary is dropped whole", func(t *testing.T) {
		t.Parallel()
		body := strings.Repeat("a", maxMessageLen-1) + "€ tail"
		msg := messageFrom([]byte(body))
		assert.True(t, utf8.ValidString(msg))
		assert.Equal(t, strings.Repeat("a", maxMessageLen-1), msg)
	})
}
