package templates_test

import (
	"bytes"
	"testing"

	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/ricefw"
	"github.com/gi8lino/ricefwboard/internal/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, name string, data any) string {
	t.Helper()
	r, err := templates.NewRenderer(false)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, data))
	return buf.String()
}

func TestRenderer(t *testing.T) {
	t.Parallel()

	issues := []models.Issue{
		{
			Key: "ACME-1", Summary: "Payroll export", Labels: []string{"Enhancement", "backend"},
			Status: models.Named{Name: "To Do"}, Priority: models.Named{Name: "High"},
			Assignee: &models.Person{DisplayName: "Jane Doe"},
		},
		{
			Key: "ACME-3", Summary: "Invoice form layout",
			Status: models.Named{Name: "To Do"}, Priority: models.Named{Name: "High"},
		},
	}

	t.Run("projects", func(t *testing.T) {
		t.Parallel()

		out := render(t, "projects", templates.ProjectsView{
			Domain: "acme",
			Total:  2,
			Values: []models.Project{{Key: "ACME", Name: "Acme Core", ProjectTypeKey: "software"}, {Key: "ACMEHR", Name: "Acme HR"}},
		})
		assert.Contains(t, out, "KEY")
		assert.Contains(t, out, "Acme Core")
		assert.Contains(t, out, "ACMEHR")
		assert.Contains(t, out, "2 of 2 projects on acme")
	})

	t.Run("no projects", func(t *testing.T) {
		t.Parallel()

		out := render(t, "projects", templates.ProjectsView{Domain: "acme"})
		assert.Equal(t, "No projects found on acme.\n", out)
	})

	t.Run("issues with counts", func(t *testing.T) {
		t.Parallel()

		out := render(t, "issues", templates.IssuesView{
			Project: "ACME",
			Issues:  issues,
			Total:   3,
			Counts:  ricefw.Counts(issues),
		})
		assert.Contains(t, out, "ACME-1")
		assert.Contains(t, out, "[Enhancement]")
		assert.Contains(t, out, "Jane Doe")
		assert.Contains(t, out, "Unassigned")
		assert.Contains(t, out, "2 of 3 issues in ACME")
		assert.Contains(t, out, "[Uncategorized] 1")
		assert.Contains(t, out, "[Report]")
		assert.NotContains(t, out, "\x1b[")
	})

	t.Run("no issues", func(t *testing.T) {
		t.Parallel()

		out := render(t, "issues", templates.IssuesView{Project: "ACME"})
		assert.Contains(t, out, "No issues match.")
	})

	t.Run("issue", func(t *testing.T) {
		t.Parallel()

		is := issues[0]
		is.IssueType = models.Named{Name: "Task"}
		is.Created = "2024-01-01T10:00:00.000+0000"
		out := render(t, "issue", is)
		assert.Contains(t, out, "ACME-1 [Enhancement]")
		assert.Contains(t, out, "Labels:   Enhancement, backend")
		assert.Contains(t, out, "Created:  2024-01-01 10:00")
	})

	t.Run("transitions", func(t *testing.T) {
		t.Parallel()

		out := render(t, "transitions", templates.TransitionsView{
			Key:         "ACME-1",
			Transitions: []models.Transition{{ID: "11", Name: "Start Progress", To: models.Named{Name: "In Progress"}}},
		})
		assert.Contains(t, out, "Start Progress")
		assert.Contains(t, out, "In Progress")

		out = render(t, "transitions", templates.TransitionsView{Key: "ACME-1"})
		assert.Contains(t, out, "No transitions available for ACME-1.")
	})

	t.Run("whoami", func(t *testing.T) {
		t.Parallel()

		out := render(t, "whoami", models.Profile{Username: "alice", Email: "alice@acme.com", HasJiraToken: true})
		assert.Contains(t, out, "alice <alice@acme.com>")
		assert.Contains(t, out, "Atlassian site: -")
		assert.Contains(t, out, "JIRA token:     stored")
	})

	t.Run("unknown template", func(t *testing.T) {
		t.Parallel()

		r, err := templates.NewRenderer(false)
		require.NoError(t, err)
		err = r.Render(&bytes.Buffer{}, "missing", nil)
		assert.Error(t, err)
	})

	t.Run("tickets", func(t *testing.T) {
		t.Parallel()

		out := render(t, "tickets", templates.TicketsView{
			Tickets: []models.Ticket{{ID: 7, Title: "Vendor feed", RicefwType: "Interface", Status: "DRAFT", Priority: "BLOCKER"}},
			Footer:  "1 overdue",
		})
		assert.Contains(t, out, "#7     Interface    DRAFT          BLOCKER  -          Vendor feed")
		assert.Contains(t, out, "1 overdue")

		assert.Equal(t, "No tickets.\n", render(t, "tickets", templates.TicketsView{}))
	})

	t.Run("ticket stats", func(t *testing.T) {
		t.Parallel()

		out := render(t, "ticketstats", templates.TicketStatsView{
			ByStatus: map[string]int64{"TESTING": 2, "DRAFT": 1},
			ByType:   map[string]int64{"Report": 3},
		})
		assert.Equal(t, "By status:\n  DRAFT            1\n  TESTING          2\nBy type:\n  Report           3\n", out)
	})
}
