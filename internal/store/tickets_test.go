package store

import (
	"context"
	"testing"
	"time"

	"github.com/gi8lino/ricefwboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicket(t *testing.T, s *Store, in models.Ticket) models.Ticket {
	t.Helper()
	if in.Status == "" {
		in.Status = "DRAFT"
	}
	if in.Priority == "" {
		in.Priority = "MEDIUM"
	}
	if in.RicefwType == "" {
		in.RicefwType = "Report"
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Unix(1_700_000_000, 0).UTC()
	}
	in.UpdatedAt = in.CreatedAt
	require.NoError(t, s.CreateTicket(context.Background(), &in))
	require.NotZero(t, in.ID)
	return in
}

func TestTickets(t *testing.T) {
	t.Parallel()

	t.Run("create, get, update, delete", func(t *testing.T) {
		t.Parallel()

		s := openTest(t)
		ctx := context.Background()
		hours := 4.5
		created := newTicket(t, s, models.Ticket{
			Title:          "Vendor feed",
			RicefwType:     "Interface",
			JiraTicketKey:  "ACME-1",
			EstimatedHours: &hours,
			DueDate:        "2026-01-31",
			Labels:         []string{"sap", "idoc"},
			CreatedBy:      "alice",
		})

		got, err := s.GetTicket(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Vendor feed", got.Title)
		assert.Equal(t, "ACME-1", got.JiraTicketKey)
		require.NotNil(t, got.EstimatedHours)
		assert.InDelta(t, 4.5, *got.EstimatedHours, 0.001)
		assert.Nil(t, got.ActualHours)
		assert.Equal(t, "2026-01-31", got.DueDate)
		assert.Empty(t, got.CompletionDate)
		assert.Equal(t, []string{"sap", "idoc"}, got.Labels)
		assert.Equal(t, []string{}, got.Components)
		assert.Equal(t, created.CreatedAt, got.CreatedAt)

		got.Title = "Vendor feed v2"
		got.CreatedBy = "mallory"
		got.UpdatedAt = got.CreatedAt.Add(time.Hour)
		require.NoError(t, s.UpdateTicket(ctx, &got))

		again, err := s.GetTicket(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Vendor feed v2", again.Title)
		assert.Equal(t, "alice", again.CreatedBy)
		assert.Equal(t, got.UpdatedAt, again.UpdatedAt)

		require.NoError(t, s.DeleteTicket(ctx, created.ID))
		_, err = s.GetTicket(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteTicket(ctx, created.ID), ErrNotFound)

		got.ID = 999
		assert.ErrorIs(t, s.UpdateTicket(ctx, &got), ErrNotFound)
	})

	t.Run("jira key is unique but optional", func(t *testing.T) {
		t.Parallel()

		s := openTest(t)
		newTicket(t, s, models.Ticket{Title: "a", JiraTicketKey: "ACME-1"})
		newTicket(t, s, models.Ticket{Title: "b"})
		newTicket(t, s, models.Ticket{Title: "c"})

		dup := models.Ticket{Title: "d", RicefwType: "Form", Status: "DRAFT", Priority: "LOW", JiraTicketKey: "ACME-1"}
		assert.ErrorIs(t, s.CreateTicket(context.Background(), &dup), ErrTicketKeyTaken)
	})

	t.Run("find filters, sorts and pages", func(t *testing.T) {
		t.Parallel()

		s := openTest(t)
		ctx := context.Background()
		newTicket(t, s, models.Ticket{Title: "Sales report", RicefwType: "Report", Assignee: "Jane Doe", DueDate: "2026-01-01"})
		newTicket(t, s, models.Ticket{Title: "100% match", RicefwType: "Form", Assignee: "John Roe", Status: "CLOSED", DueDate: "2026-01-02"})
		newTicket(t, s, models.Ticket{Title: "Stock report", RicefwType: "Report", Assignee: "Jane Doe", DueDate: "2026-03-01"})

		list, total, err := s.FindTickets(ctx, TicketQuery{Filter: TicketFilter{Title: "REPORT"}})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, list, 2)
		assert.Equal(t, "Sales report", list[0].Title)

		list, _, err = s.FindTickets(ctx, TicketQuery{Filter: TicketFilter{Title: "%"}})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "100% match", list[0].Title)

		list, _, err = s.FindTickets(ctx, TicketQuery{Filter: TicketFilter{Assignee: "doe"}})
		require.NoError(t, err)
		assert.Len(t, list, 2)

		list, _, err = s.FindTickets(ctx, TicketQuery{Filter: TicketFilter{AssigneeIs: "doe"}})
		require.NoError(t, err)
		assert.Empty(t, list)

		list, total, err = s.FindTickets(ctx, TicketQuery{SortBy: "title", Desc: true, Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, list, 2)
		assert.Equal(t, "Sales report", list[0].Title)
		assert.Equal(t, "100% match", list[1].Title)

		list, _, err = s.FindTickets(ctx, TicketQuery{
			Filter: TicketFilter{DueBefore: "2026-02-01", StatusNotIn: []string{"CLOSED", "CANCELLED"}},
			SortBy: "dueDate",
		})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Sales report", list[0].Title)

		_, _, err = s.FindTickets(ctx, TicketQuery{SortBy: "password"})
		assert.Error(t, err)
	})

	t.Run("counts", func(t *testing.T) {
		t.Parallel()

		s := openTest(t)
		ctx := context.Background()
		newTicket(t, s, models.Ticket{Title: "a", RicefwType: "Report"})
		newTicket(t, s, models.Ticket{Title: "b", RicefwType: "Report", Status: "TESTING"})
		newTicket(t, s, models.Ticket{Title: "c", RicefwType: "Workflow"})

		byStatus, err := s.CountTicketsByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"DRAFT": 2, "TESTING": 1}, byStatus)

		byType, err := s.CountTicketsByType(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"Report": 2, "Workflow": 1}, byType)
	})
}

func TestConfigurations(t *testing.T) {
	t.Parallel()

	s := openTest(t)
	ctx := context.Background()
	inactive := false

	for _, c := range []models.Configuration{
		{Name: "prod", JiraURL: "https://acme.atlassian.net", ProjectKey: "ACME", Username: "bot", APIToken: "secret", DefaultIssueType: "Task"},
		{Name: "archive", JiraURL: "https://old.acme.com", ProjectKey: "OLD", Username: "bot", DefaultIssueType: "Task", Active: &inactive},
	} {
		c.CreatedAt = time.Unix(1_700_000_000, 0).UTC()
		require.NoError(t, s.CreateConfiguration(ctx, &c))
		require.NotZero(t, c.ID)
	}

	all, err := s.ListConfigurations(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "archive", all[0].Name)
	require.NotNil(t, all[0].Active)
	assert.False(t, *all[0].Active)
	assert.Equal(t, "secret", all[1].APIToken)

	active, err := s.ListConfigurations(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "prod", active[0].Name)

	dup := models.Configuration{Name: "prod", JiraURL: "https://x", ProjectKey: "X", Username: "u", DefaultIssueType: "Task"}
	assert.ErrorIs(t, s.CreateConfiguration(ctx, &dup), ErrConfigurationNameTaken)
}
