package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gi8lino/ricefwboard/internal/models"
)

// ListTickets fetches one page of tracker tickets, newest first.
func (c *Client) ListTickets(ctx context.Context, page, size int) (models.TicketPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	var out models.TicketPage
	_, err := c.do(ctx, http.MethodGet, "ricefw/tickets?"+q.Encode(), nil, &out)
	return out, err
}

// CreateTicket adds a ticket to the tracker.
func (c *Client) CreateTicket(ctx context.Context, t models.Ticket) (models.Ticket, error) {
	var out models.Ticket
	_, err := c.do(ctx, http.MethodPost, "ricefw/tickets", t, &out)
	return out, err
}

// DeleteTicket removes a ticket from the tracker.
func (c *Client) DeleteTicket(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, "ricefw/tickets/"+strconv.FormatInt(id, 10), nil, nil)
	return err
}

// OverdueTickets lists the open tickets past their due date.
func (c *Client) OverdueTickets(ctx context.Context) ([]models.Ticket, error) {
	var out models.TicketList
	_, err := c.do(ctx, http.MethodGet, "ricefw/tickets/overdue", nil, &out)
	return out.Tickets, err
}

// TicketStats returns the ticket counts per status and per RICEFW type.
func (c *Client) TicketStats(ctx context.Context) (byStatus, byType map[string]int64, err error) {
	if _, err = c.do(ctx, http.MethodGet, "ricefw/stats/status", nil, &byStatus); err != nil {
		return nil, nil, err
	}
	if _, err = c.do(ctx, http.MethodGet, "ricefw/stats/type", nil, &byType); err != nil {
		return nil, nil, err
	}
	return byStatus, byType, nil
}
