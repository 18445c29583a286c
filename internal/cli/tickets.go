package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/templates"

	"github.com/spf13/cobra"
)

func (c *client) ticketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Track RICEFW tickets",
	}
	cmd.AddCommand(
		c.ticketsListCmd(),
		c.ticketsCreateCmd(),
		c.ticketsDeleteCmd(),
		c.ticketsOverdueCmd(),
		c.ticketsStatsCmd(),
	)
	return cmd
}

func (c *client) ticketsListCmd() *cobra.Command {
	var page, size int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			res, err := c.api.ListTickets(cmd.Context(), page, size)
			if err != nil {
				return serverError(err, "Failed to load tickets")
			}
			footer := fmt.Sprintf("page %d of %d, %d tickets", res.CurrentPage+1, max(res.TotalPages, 1), res.TotalElements)
			return c.render("tickets", templates.TicketsView{Tickets: res.Tickets, Footer: footer})
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Zero based page")
	cmd.Flags().IntVar(&size, "size", 20, "Tickets per page")
	return cmd
}

func (c *client) ticketsCreateCmd() *cobra.Command {
	var (
		t      models.Ticket
		labels string
	)
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a ticket",
		Example: `  ricefw tickets create --title "Vendor feed" --type I --due 2026-12-01`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			if labels != "" {
				t.Labels = strings.Split(labels, ",")
			}
			created, err := c.api.CreateTicket(cmd.Context(), t)
			if err != nil {
				return serverError(err, "Failed to create ticket")
			}
			return c.render("ticket", created)
		},
	}
	cmd.Flags().StringVar(&t.Title, "title", "", "Title")
	cmd.Flags().StringVar(&t.Description, "description", "", "Description")
	cmd.Flags().StringVar(&t.RicefwType, "type", "", "RICEFW type or its letter (R, I, C, E, F, W)")
	cmd.Flags().StringVar(&t.Status, "status", "", "Status (default DRAFT)")
	cmd.Flags().StringVar(&t.Priority, "priority", "", "Priority (default MEDIUM)")
	cmd.Flags().StringVar(&t.Assignee, "assignee", "", "Assignee")
	cmd.Flags().StringVar(&t.JiraTicketKey, "jira", "", "Linked JIRA issue key")
	cmd.Flags().StringVar(&t.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&labels, "labels", "", "Comma separated labels")
	return cmd
}

func (c *client) ticketsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ticket id %q", args[0])
			}
			if err := c.api.DeleteTicket(cmd.Context(), id); err != nil {
				return serverError(err, "Failed to delete ticket")
			}
			c.println(fmt.Sprintf("Ticket #%d deleted", id))
			return nil
		},
	}
}

func (c *client) ticketsOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List open tickets past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			list, err := c.api.OverdueTickets(cmd.Context())
			if err != nil {
				return serverError(err, "Failed to load tickets")
			}
			footer := fmt.Sprintf("%d overdue", len(list))
			return c.render("tickets", templates.TicketsView{Tickets: list, Footer: footer})
		},
	}
}

func (c *client) ticketsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show ticket counts per status and type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			byStatus, byType, err := c.api.TicketStats(cmd.Context())
			if err != nil {
				return serverError(err, "Failed to load statistics")
			}
			return c.render("ticketstats", templates.TicketStatsView{ByStatus: byStatus, ByType: byType})
		},
	}
}
