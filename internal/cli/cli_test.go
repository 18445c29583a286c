package cli_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gi8lino/ricefwboard/internal/apiclient"
	"github.com/gi8lino/ricefwboard/internal/assistant"
	"github.com/gi8lino/ricefwboard/internal/auth"
	"github.com/gi8lino/ricefwboard/internal/cache"
	"github.com/gi8lino/ricefwboard/internal/cli"
	"github.com/gi8lino/ricefwboard/internal/jira"
	"github.com/gi8lino/ricefwboard/internal/jiramock"
	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/server"
	"github.com/gi8lino/ricefwboard/internal/session"
	"github.com/gi8lino/ricefwboard/internal/testutils"
	"github.com/gi8lino/ricefwboard/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	url  string
	fake *jiramock.Server
	kv   session.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	site, fake := testutils.StartJiraSite(t)

	st := testutils.OpenStore(t)
	deps := server.Deps{
		Accounts:     auth.NewService(st, time.Hour, auth.WithBcryptCost(bcrypt.MinCost)),
		Jira:         jira.NewFactory(site, false, 5*time.Second),
		Tickets:      tracker.NewService(st),
		DB:           st,
		ProjectCache: cache.NewMemCache[models.ProjectPage](),
		MaxResults:   50,
	}
	srv := httptest.NewServer(server.NewRouter(deps, "", testutils.DiscardLogger(), false, "vTEST", "abc"))
	t.Cleanup(srv.Close)

	return &harness{url: srv.URL, fake: fake, kv: session.NewMemoryStore()}
}

// run executes one ricefw invocation and returns stdout, stderr and the error.
func (h *harness) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	opts := cli.Options{
		Out:    &out,
		Err:    &errOut,
		Store:  h.kv,
		Getenv: func(string) string { return "" },
	}
	err := cli.Execute(t.Context(), "vTEST", append([]string{"--server", h.url, "--no-color"}, args...), opts)
	return out.String(), errOut.String(), err
}

func (h *harness) signup(t *testing.T) {
	t.Helper()
	out, _, err := h.run(t, "signup", "-u", "alice", "-e", "alice@acme.com", "-p", "secret", "--jira-token", "jira-token")
	require.NoError(t, err)
	require.Contains(t, out, "User registered successfully")
}

func TestAuthCommands(t *testing.T) {
	t.Parallel()

	t.Run("signup, whoami, logout", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.signup(t)

		out, _, err := h.run(t, "whoami")
		require.NoError(t, err)
		assert.Contains(t, out, "alice <alice@acme.com>")
		assert.Contains(t, out, "JIRA token:     stored")

		out, _, err = h.run(t, "logout")
		require.NoError(t, err)
		assert.Contains(t, out, "Logged out")
		_, _, ok := session.Load(h.kv)
		assert.False(t, ok)

		_, _, err = h.run(t, "whoami")
		assert.EqualError(t, err, "not logged in, run 'ricefw login' first")
	})

	t.Run("login", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.signup(t)
		_, _, err := h.run(t, "logout")
		require.NoError(t, err)

		_, errOut, err := h.run(t, "login", "-u", "alice", "-p", "wrong")
		assert.EqualError(t, err, "Invalid username or password")
		assert.NotContains(t, errOut, "Session expired")

		out, _, err := h.run(t, "login", "-u", "alice", "-p", "secret")
		require.NoError(t, err)
		assert.Contains(t, out, "Login successful as alice")
	})

	t.Run("bad credentials while logged in", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.signup(t)

		_, errOut, err := h.run(t, "login", "-u", "alice", "-p", "wrong")
		assert.EqualError(t, err, "Invalid username or password")
		assert.Empty(t, errOut)
	})

	t.Run("duplicate signup", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.signup(t)

		_, _, err := h.run(t, "signup", "-u", "alice", "-e", "x@acme.com", "-p", "secret")
		assert.EqualError(t, err, "Username already exists")
	})

	t.Run("version", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		out, _, err := h.run(t, "--version")
		require.NoError(t, err)
		assert.Contains(t, out, "vTEST")
	})
}

func TestBoardCommands(t *testing.T) {
	t.Parallel()

	t.Run("search projects", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.signup(t)

		out, _, err := h.run(t, "projects", "search", "acme", "acme")
		require.NoError(t, err)
		assert.Contains(t, out, "Acme Core")
		assert.Contains(t, out, "Acme HR")
		assert.NotContains(t, out, "Operations")
		assert.Contains(t, out, "2 of 2 projects on acme")
	})

	t.Run("list with filters and counts", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.signup(t)

		out, _, err := h.run(t, "issues", "list", "acme", "--priority", "High", "--counts")
		require.NoError(t, err)
		assert.Contains(t, out, "ACME-1")
		assert.Contains(t, out, "ACME-3")
		assert.NotContains(t, out, "ACME-2")
		assert.Contains(t, out, "2 of 3 issues in ACME")
		assert.Contains(t, out, "[Report]        1")

		out, _, err = h.run(t, "issues", "list", "ACME", "--category", "uncategorized")
		require.NoError(t, err)
		assert.Contains(t, out, "ACME-3")
		assert.NotContains(t, out, "ACME-1 ")

		_, _, err = h.run(t, "issues", "list", "ACME", "--category", "Bogus")
		assert.Error(t, err)
	})

	t.Run("filter options", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.signup(t)

		out, _, err := h.run(t, "issues", "options", "ACME")
		require.NoError(t, err)
		assert.Contains(t, out, "Statuses:    In Progress, To Do")
		assert.Contains(t, out, "Priorities:  High, Medium")
		assert.Contains(t, out, "Assignees:   Jane Doe, John Roe")
		assert.Contains(t, out, "Issue types: Story, Task")
		assert.Contains(t, out, "Workflow, Uncategorized")
	})

	t.Run("load failure shows the server message", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.signup(t)
		h.fake.Fail(http.StatusServiceUnavailable)

		_, _, err := h.run(t, "issues", "list", "ACME")
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "Error fetching issues from Jira"), err.Error())
		assert.NotContains(t, err.Error(), "load issues of ACME")

		var apiErr *apiclient.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	})

	t.Run("set category", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.signup(t)

		out, _, err := h.run(t, "issues", "set-category", "ACME-2", "Interface")
		require.NoError(t, err)
		assert.Contains(t, out, "ACME-2 is now Interface")
		assert.Equal(t, []string{"x", "Interface"}, h.fake.Labels("ACME-2"))

		_, _, err = h.run(t, "issues", "set-category", "ACME-99", "Form")
		assert.Error(t, err)
	})

	t.Run("create", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.signup(t)

		out, _, err := h.run(t, "issues", "create", "ACME", "--summary", "Vendor feed", "--category", "Interface", "--labels", "sap, idoc")
		require.NoError(t, err)
		assert.Contains(t, out, "ACME-4 [Interface]")
		assert.Contains(t, out, "Labels:   Interface, sap, idoc")

		_, _, err = h.run(t, "issues", "create", "ACME", "--summary", "No category")
		assert.Error(t, err)
	})

	t.Run("transitions", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.signup(t)

		out, _, err := h.run(t, "issues", "transitions", "acme-1")
		require.NoError(t, err)
		assert.Contains(t, out, "Start Progress")

		out, _, err = h.run(t, "issues", "transition", "ACME-1", "31")
		require.NoError(t, err)
		assert.Contains(t, out, "ACME-1 transitioned")
	})

	t.Run("requires login", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		_, _, err := h.run(t, "issues", "list", "ACME")
		assert.EqualError(t, err, "not logged in, run 'ricefw login' first")
	})

	t.Run("expired session", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		require.NoError(t, session.Save(h.kv, "stale", models.User{Username: "alice"}))

		_, errOut, err := h.run(t, "whoami")
		assert.EqualError(t, err, "not logged in, run 'ricefw login' first")
		assert.Empty(t, errOut)
		_, _, ok := session.Load(h.kv)
		assert.False(t, ok)
	})
}

func TestTicketCommands(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.signup(t)

	out, _, err := h.run(t, "tickets", "create", "--title", "Vendor feed", "--type", "I", "--jira", "acme-1", "--due", "2000-01-01", "--labels", "sap, idoc")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 Vendor feed")
	assert.Contains(t, out, "Type:     Interface")
	assert.Contains(t, out, "Status:   DRAFT")
	assert.Contains(t, out, "JIRA:     ACME-1")
	assert.Contains(t, out, "Labels:   sap, idoc")

	_, _, err = h.run(t, "tickets", "create", "--title", "No type")
	assert.EqualError(t, err, "RICEFW type is required")

	_, _, err = h.run(t, "tickets", "create", "--title", "Sales report", "--type", "Report", "--status", "closed", "--due", "2000-01-01")
	require.NoError(t, err)

	out, _, err = h.run(t, "tickets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Vendor feed")
	assert.Contains(t, out, "Sales report")
	assert.Contains(t, out, "page 1 of 1, 2 tickets")

	out, _, err = h.run(t, "tickets", "overdue")
	require.NoError(t, err)
	assert.Contains(t, out, "Vendor feed")
	assert.NotContains(t, out, "Sales report")
	assert.Contains(t, out, "1 overdue")

	out, _, err = h.run(t, "tickets", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "CLOSED           1")
	assert.Contains(t, out, "Interface        1")

	out, _, err = h.run(t, "tickets", "delete", "#1")
	require.NoError(t, err)
	assert.Contains(t, out, "Ticket #1 deleted")

	_, _, err = h.run(t, "tickets", "delete", "1")
	assert.EqualError(t, err, "Ticket not found")
}

func TestAssistCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	_, _, err := h.run(t, "assist", "ACME", "which", "issues", "are", "interfaces?")
	assert.ErrorIs(t, err, assistant.ErrNotImplemented)

	_, _, err = h.run(t, "assist", "ACME")
	assert.Error(t, err)
}

func TestFileSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "session.yaml")

	run := func(args ...string) error {
		opts := cli.Options{Out: io.Discard, Err: io.Discard, Getenv: func(string) string { return "" }}
		return cli.Execute(t.Context(), "vTEST", append([]string{"--server", h.url, "--session-file", path}, args...), opts)
	}

	require.NoError(t, run("signup", "-u", "bob", "-e", "bob@acme.com", "-p", "pw", "--jira-token", "jira-token"))
	require.NoError(t, run("whoami"))

	fs, err := session.OpenFileStore(path)
	require.NoError(t, err)
	_, user, ok := session.Load(fs)
	require.True(t, ok)
	assert.Equal(t, "bob", user.Username)
}
