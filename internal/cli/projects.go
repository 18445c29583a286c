package cli

import (
	"strings"

	"github.com/gi8lino/ricefwboard/internal/templates"

	"github.com/spf13/cobra"
)

func (c *client) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Browse JIRA projects",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "search DOMAIN [QUERY...]",
		Short:   "Search the projects of an Atlassian site",
		Example: "  ricefw projects search acme payroll",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			domain := args[0]
			page, err := c.api.SearchProjects(cmd.Context(), domain, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return c.render("projects", templates.ProjectsView{Domain: domain, Values: page.Values, Total: page.Total})
		},
	})
	return cmd
}
