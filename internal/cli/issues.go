package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/gi8lino/ricefwboard/internal/apiclient"
	"github.com/gi8lino/ricefwboard/internal/board"
	"github.com/gi8lino/ricefwboard/internal/ricefw"
	"github.com/gi8lino/ricefwboard/internal/templates"

	"github.com/spf13/cobra"
)

func (c *client) issuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues",
		Short: "List, create and categorize issues",
	}
	cmd.AddCommand(
		c.issuesListCmd(),
		c.issuesOptionsCmd(),
		c.issuesCreateCmd(),
		c.setCategoryCmd(),
		c.transitionsCmd(),
		c.transitionCmd(),
	)
	return cmd
}

// loadBoard returns a loaded board of projectKey.
func (c *client) loadBoard(ctx context.Context, projectKey string) (*board.Board, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	b := board.New(c.api, strings.ToUpper(projectKey))
	if err := b.Load(ctx); err != nil {
		return nil, &messageError{msg: b.ErrorMessage(), err: err}
	}
	return b, nil
}

// messageError shows a user-facing message and keeps the cause for errors.Is.
type messageError struct {
	msg string
	err error
}

func (e *messageError) Error() string { return e.msg }
func (e *messageError) Unwrap() error { return e.err }

// serverError replaces err by the server's message, or fallback when there is none.
func serverError(err error, fallback string) error {
	return &messageError{msg: apiclient.Message(err, fallback), err: err}
}

func (c *client) issuesListCmd() *cobra.Command {
	var (
		filters  ricefw.FilterSet
		category string
		counts   bool
	)
	cmd := &cobra.Command{
		Use:     "list PROJECT",
		Short:   "List the issues of a project",
		Example: "  ricefw issues list ACME --priority High --category Uncategorized",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if category != "" {
				cat, err := ricefw.ParseCategory(category)
				if err != nil {
					return err
				}
				filters.Category = cat
			}

			b, err := c.loadBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b.SetFilters(filters)

			view := templates.IssuesView{
				Project: b.ProjectKey(),
				Issues:  b.Filtered(),
				Total:   len(b.Issues()),
			}
			if counts {
				view.Counts = b.Counts()
			}
			return c.render("issues", view)
		},
	}
	cmd.Flags().StringVar(&filters.Status, "status", "", "Exact status name")
	cmd.Flags().StringVar(&filters.Priority, "priority", "", "Exact priority name")
	cmd.Flags().StringVar(&filters.Assignee, "assignee", "", "Assignee name contains")
	cmd.Flags().StringVar(&filters.IssueType, "type", "", "Exact issue type name")
	cmd.Flags().StringVar(&filters.SearchText, "search", "", "Summary or key contains")
	cmd.Flags().StringVar(&category, "category", "", "RICEFW category or Uncategorized")
	cmd.Flags().BoolVar(&counts, "counts", false, "Show issue totals per category")
	return cmd
}

func (c *client) issuesOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options PROJECT",
		Short: "Show the values the list filters accept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.loadBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render("options", b.Options())
		},
	}
}

func (c *client) issuesCreateCmd() *cobra.Command {
	var form board.IssueForm
	cmd := &cobra.Command{
		Use:     "create PROJECT",
		Short:   "Create an issue tagged with a RICEFW category",
		Example: `  ricefw issues create ACME --summary "Vendor feed" --category Interface --labels sap,idoc`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.loadBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			issue, err := b.CreateIssue(cmd.Context(), form)
			if err != nil {
				return err
			}
			return c.render("issue", issue)
		},
	}
	cmd.Flags().StringVar(&form.Summary, "summary", "", "Summary")
	cmd.Flags().StringVar(&form.Description, "description", "", "Description")
	cmd.Flags().StringVar(&form.IssueTypeName, "type", "", "Issue type (default Task)")
	cmd.Flags().StringVar(&form.PriorityName, "priority", "", "Priority (default Medium)")
	cmd.Flags().StringVar(&form.Category, "category", "", "RICEFW category or Uncategorized")
	cmd.Flags().StringVar(&form.Labels, "labels", "", "Additional comma separated labels")
	return cmd
}

func (c *client) setCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set-category ISSUE CATEGORY",
		Short:   "Set the RICEFW category of an issue",
		Example: "  ricefw issues set-category ACME-3 Interface",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			issueKey := strings.ToUpper(args[0])
			projectKey, _, ok := strings.Cut(issueKey, "-")
			if !ok {
				return fmt.Errorf("invalid issue key %q", args[0])
			}
			b, err := c.loadBoard(cmd.Context(), projectKey)
			if err != nil {
				return err
			}
			if err := b.UpdateCategory(cmd.Context(), issueKey, args[1]); err != nil {
				return err
			}
			cat, _ := ricefw.ParseCategory(args[1])
			c.println(fmt.Sprintf("%s is now %s", issueKey, cat))
			return nil
		},
	}
}

func (c *client) transitionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transitions ISSUE",
		Short: "List the workflow transitions of an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			key := strings.ToUpper(args[0])
			list, err := c.api.Transitions(cmd.Context(), key)
			if err != nil {
				return err
			}
			return c.render("transitions", templates.TransitionsView{Key: key, Transitions: list})
		},
	}
}

func (c *client) transitionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "transition ISSUE TRANSITION_ID",
		Short:   "Move an issue through a workflow transition",
		Example: "  ricefw issues transition ACME-1 31",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			key := strings.ToUpper(args[0])
			if err := c.api.Transition(cmd.Context(), key, args[1]); err != nil {
				return err
			}
			c.println(key + " transitioned")
			return nil
		},
	}
}
