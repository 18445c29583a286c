package cli

import (
	"errors"
	"strings"

	"github.com/gi8lino/ricefwboard/internal/models"

	"github.com/spf13/cobra"
)

func (c *client) loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = c.opts.Getenv("RICEFW_PASSWORD")
			}
			c.authenticating = true
			res := c.auth.Login(cmd.Context(), username, password)
			c.authenticating = false
			if !res.Success {
				return errors.New(res.Message)
			}
			c.println(res.Message + " as " + c.auth.Username())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (env RICEFW_PASSWORD)")
	cmd.MarkFlagRequired("username") // nolint:errcheck
	return cmd
}

func (c *client) signupCmd() *cobra.Command {
	var req models.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a user with a JIRA API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = c.opts.Getenv("RICEFW_PASSWORD")
			}
			req.AtlassianDomain = strings.TrimSpace(req.AtlassianDomain)
			c.authenticating = true
			res := c.auth.Signup(cmd.Context(), req)
			c.authenticating = false
			if !res.Success {
				return errors.New(res.Message)
			}
			c.println(res.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Email address, also used for JIRA")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Password (env RICEFW_PASSWORD)")
	cmd.Flags().StringVar(&req.Token, "jira-token", "", "JIRA API token")
	cmd.Flags().StringVar(&req.AtlassianDomain, "domain", "", "Atlassian site name (acme for acme.atlassian.net)")
	return cmd
}

func (c *client) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.auth.Logout(cmd.Context())
			c.println("Logged out")
			return nil
		},
	}
}

func (c *client) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			profile, err := c.api.Me(cmd.Context())
			if err != nil {
				return err
			}
			return c.render("whoami", profile)
		},
	}
}
