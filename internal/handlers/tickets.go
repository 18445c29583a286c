package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/tracker"
)

// Tickets is the RICEFW ticket tracker.
type Tickets interface {
	List(ctx context.Context, req tracker.PageRequest) (models.TicketPage, error)
	Search(ctx context.Context, q tracker.Search) (models.TicketPage, error)
	Get(ctx context.Context, id int64) (models.Ticket, error)
	Create(ctx context.Context, in models.Ticket, createdBy string) (models.Ticket, error)
	Update(ctx context.Context, id int64, in models.Ticket) (models.Ticket, error)
	Delete(ctx context.Context, id int64) error
	ByType(ctx context.Context, ricefwType string) ([]models.Ticket, error)
	ByStatus(ctx context.Context, status string) ([]models.Ticket, error)
	ByAssignee(ctx context.Context, assignee string) ([]models.Ticket, error)
	Overdue(ctx context.Context) ([]models.Ticket, error)
	StatusStats(ctx context.Context) (map[string]int64, error)
	TypeStats(ctx context.Context) (map[string]int64, error)
	Configurations(ctx context.Context, activeOnly bool) ([]models.Configuration, error)
	CreateConfiguration(ctx context.Context, in models.Configuration) (models.Configuration, error)
}

// ListTickets serves one page of all tickets (?page, size, sortBy, sortDir).
func ListTickets(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, size, ok := pageParams(w, r)
		if !ok {
			return
		}
		res, err := tickets.List(r.Context(), tracker.PageRequest{
			Page:    page,
			Size:    size,
			SortBy:  q.Get("sortBy"),
			SortDir: q.Get("sortDir"),
		})
		if err != nil {
			writeTrackerError(w, logger, "list tickets", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// SearchTickets filters tickets by title, ricefwType, status and assignee.
func SearchTickets(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, size, ok := pageParams(w, r)
		if !ok {
			return
		}
		res, err := tickets.Search(r.Context(), tracker.Search{
			Title:      q.Get("title"),
			RicefwType: q.Get("ricefwType"),
			Status:     q.Get("status"),
			Assignee:   q.Get("assignee"),
			Page:       page,
			Size:       size,
		})
		if err != nil {
			writeTrackerError(w, logger, "search tickets", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GetTicket serves the ticket {id}.
func GetTicket(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ticketID(w, r)
		if !ok {
			return
		}
		t, err := tickets.Get(r.Context(), id)
		if err != nil {
			writeTrackerError(w, logger, "get ticket", err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// CreateTicket stores a new ticket owned by the session user.
func CreateTicket(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := sessionUser(r.Context())

		var in models.Ticket
		if err := decodeJSON(w, r, &in); err != nil {
			writeStatus(w, http.StatusBadRequest, err.Error())
			return
		}
		t, err := tickets.Create(r.Context(), in, user.Username)
		if err != nil {
			writeTrackerError(w, logger, "create ticket", err)
			return
		}
		logger.Info("ticket created", "id", t.ID, "type", t.RicefwType, "user", user.Username)
		writeJSON(w, http.StatusCreated, t)
	}
}

// UpdateTicket replaces the ticket {id}.
func UpdateTicket(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ticketID(w, r)
		if !ok {
			return
		}
		var in models.Ticket
		if err := decodeJSON(w, r, &in); err != nil {
			writeStatus(w, http.StatusBadRequest, err.Error())
			return
		}
		t, err := tickets.Update(r.Context(), id, in)
		if err != nil {
			writeTrackerError(w, logger, "update ticket", err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// DeleteTicket removes the ticket {id} and answers 204.
func DeleteTicket(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ticketID(w, r)
		if !ok {
			return
		}
		if err := tickets.Delete(r.Context(), id); err != nil {
			writeTrackerError(w, logger, "delete ticket", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// TicketsByType serves every ticket of the RICEFW type {type}.
func TicketsByType(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return ticketList(logger, "tickets by type", func(r *http.Request) ([]models.Ticket, error) {
		return tickets.ByType(r.Context(), r.PathValue("type"))
	})
}

// TicketsByStatus serves every ticket in {status}.
func TicketsByStatus(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return ticketList(logger, "tickets by status", func(r *http.Request) ([]models.Ticket, error) {
		return tickets.ByStatus(r.Context(), r.PathValue("status"))
	})
}

// TicketsByAssignee serves every ticket assigned to {assignee}.
func TicketsByAssignee(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return ticketList(logger, "tickets by assignee", func(r *http.Request) ([]models.Ticket, error) {
		return tickets.ByAssignee(r.Context(), r.PathValue("assignee"))
	})
}

// OverdueTickets serves the open tickets past their due date.
func OverdueTickets(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return ticketList(logger, "overdue tickets", func(r *http.Request) ([]models.Ticket, error) {
		return tickets.Overdue(r.Context())
	})
}

// TicketStatusStats serves the ticket count per status.
func TicketStatusStats(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := tickets.StatusStats(r.Context())
		if err != nil {
			writeTrackerError(w, logger, "status stats", err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// TicketTypeStats serves the ticket count per RICEFW type.
func TicketTypeStats(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := tickets.TypeStats(r.Context())
		if err != nil {
			writeTrackerError(w, logger, "type stats", err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// ListConfigurations serves the saved JIRA configurations.
func ListConfigurations(tickets Tickets, activeOnly bool, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := tickets.Configurations(r.Context(), activeOnly)
		if err != nil {
			writeTrackerError(w, logger, "list configurations", err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// CreateConfiguration saves a JIRA configuration.
func CreateConfiguration(tickets Tickets, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.Configuration
		if err := decodeJSON(w, r, &in); err != nil {
			writeStatus(w, http.StatusBadRequest, err.Error())
			return
		}
		c, err := tickets.CreateConfiguration(r.Context(), in)
		if err != nil {
			writeTrackerError(w, logger, "create configuration", err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func ticketList(logger *slog.Logger, op string, find func(*http.Request) ([]models.Ticket, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := find(r)
		if err != nil {
			writeTrackerError(w, logger, op, err)
			return
		}
		writeJSON(w, http.StatusOK, models.TicketList{Tickets: list})
	}
}

// pageParams reads ?page and ?size; absent values are zero.
func pageParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	q := r.URL.Query()
	var out [2]int
	for i, name := range []string{"page", "size"} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeStatus(w, http.StatusBadRequest, name+" must be an integer")
			return 0, 0, false
		}
		out[i] = n
	}
	return out[0], out[1], true
}

func ticketID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeStatus(w, http.StatusBadRequest, "ticket id must be a positive integer")
		return 0, false
	}
	return id, true
}

// writeTrackerError maps tracker errors to status codes; others are logged as 500.
func writeTrackerError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, tracker.ErrInvalidInput):
		writeStatus(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tracker.ErrConflict):
		writeStatus(w, http.StatusConflict, err.Error())
	case errors.Is(err, tracker.ErrNotFound):
		writeStatus(w, http.StatusNotFound, "Ticket not found")
	default:
		logger.Error(op, "error", err)
		writeStatus(w, http.StatusInternalServerError, "Internal server error")
	}
}
