// Package cli is the terminal client of ricefwboard.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gi8lino/ricefwboard/internal/apiclient"
	"github.com/gi8lino/ricefwboard/internal/assistant"
	"github.com/gi8lino/ricefwboard/internal/authctx"
	"github.com/gi8lino/ricefwboard/internal/session"
	"github.com/gi8lino/ricefwboard/internal/templates"

	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8080"

var errNotLoggedIn = errors.New("not logged in, run 'ricefw login' first")

// Options are the collaborators of the terminal client. Zero values select the defaults.
type Options struct {
	Out        io.Writer
	Err        io.Writer
	Store      session.Store       // default: YAML file in the user config dir
	HTTPClient *http.Client        // default: pooled client
	Assistant  assistant.Assistant // default: assistant.Unavailable
	Getenv     func(string) string
}

// client is the state shared by all commands of one invocation.
type client struct {
	opts     Options
	server   string
	file     string
	noColor  bool
	api      *apiclient.Client
	auth     *authctx.Context
	renderer *templates.Renderer

	authenticating bool // set while login or signup talks to the server
}

// Execute runs the terminal client with args.
func Execute(ctx context.Context, version string, args []string, opts Options) error {
	cmd := NewRootCommand(version, opts)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewRootCommand builds the ricefw command tree.
func NewRootCommand(version string, opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Assistant == nil {
		opts.Assistant = assistant.Unavailable{}
	}
	c := &client{opts: opts}

	server := opts.Getenv("RICEFW_SERVER")
	if server == "" {
		server = defaultServer
	}

	root := &cobra.Command{
		Use:   "ricefw",
		Short: "Tag JIRA issues with RICEFW categories",
		Long: `ricefw searches the JIRA projects of an Atlassian site, lists their issues
and tags them with a RICEFW category (Report, Interface, Conversion,
Enhancement, Form, Workflow) through a ricefwboard server.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return c.setup(cmd.Context()) },
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.PersistentFlags().StringVarP(&c.server, "server", "s", server, "ricefwboard server URL (env RICEFW_SERVER)")
	root.PersistentFlags().StringVar(&c.file, "session-file", "", "Session file (default: user config dir)")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		c.loginCmd(),
		c.signupCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.projectsCmd(),
		c.issuesCmd(),
		c.ticketsCmd(),
		c.assistCmd(),
	)
	return root
}

// setup opens the session store, builds the API client and restores the session.
func (c *client) setup(ctx context.Context) error {
	store := c.opts.Store
	if store == nil {
		path := c.file
		if path == "" {
			p, err := session.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		fs, err := session.OpenFileStore(path)
		if err != nil {
			return err
		}
		store = fs
	}

	apiOpts := []apiclient.Option{
		apiclient.WithUnauthorizedHandler(func() {
			if c.auth == nil {
				return
			}
			// A 401 answering a login or signup is about the credentials, not the session.
			hadSession := c.auth.IsAuthenticated() && !c.authenticating
			c.auth.Invalidate()
			if hadSession {
				fmt.Fprintln(c.opts.Err, "Session expired, please run 'ricefw login' again.") // nolint:errcheck
			}
		}),
	}
	if c.opts.HTTPClient != nil {
		apiOpts = append(apiOpts, apiclient.WithHTTPClient(c.opts.HTTPClient))
	}
	api, err := apiclient.New(c.server, store, apiOpts...)
	if err != nil {
		return err
	}

	renderer, err := templates.NewRenderer(!c.noColor)
	if err != nil {
		return err
	}

	c.api = api
	c.auth = authctx.New(store, api)
	c.renderer = renderer
	c.auth.Init(ctx)
	return nil
}

func (c *client) requireLogin() error {
	if !c.auth.IsAuthenticated() {
		return errNotLoggedIn
	}
	return nil
}

func (c *client) render(name string, data any) error {
	return c.renderer.Render(c.opts.Out, name, data)
}

func (c *client) println(a ...any) {
	fmt.Fprintln(c.opts.Out, a...) // nolint:errcheck
}
