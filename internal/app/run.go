package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gi8lino/ricefwboard/internal/auth"
	"github.com/gi8lino/ricefwboard/internal/cache"
	"github.com/gi8lino/ricefwboard/internal/config"
	"github.com/gi8lino/ricefwboard/internal/flag"
	"github.com/gi8lino/ricefwboard/internal/jira"
	"github.com/gi8lino/ricefwboard/internal/logging"
	"github.com/gi8lino/ricefwboard/internal/middleware"
	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/server"
	"github.com/gi8lino/ricefwboard/internal/store"
	"github.com/gi8lino/ricefwboard/internal/tracker"

	"github.com/containeroo/tinyflags"
	"golang.org/x/sync/errgroup"
)

// Run starts the ricefwboard service and blocks until ctx is canceled.
func Run(ctx context.Context, version, commit string, args []string, w io.Writer, getEnv func(string) string) error {
	// Create a new context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Parse command-line flags
	flags, err := flag.ParseArgs(version, args, w, getEnv)
	if err != nil {
		if tinyflags.IsHelpRequested(err) || tinyflags.IsVersionRequested(err) {
			fmt.Fprint(w, err.Error()) // nolint:errcheck
			return nil
		}
		return fmt.Errorf("parsing error: %w", err)
	}

	// Setup logger
	logger := logging.SetupLogger(flags.LogFormat, flags.Debug, w)

	logger.Info("Starting ricefwboard",
		"version", version,
		"commit", commit,
	)

	// Load and validate config
	cfg, err := config.LoadConfig(flags.Config)
	if err != nil {
		return fmt.Errorf("loading config error: %w", err)
	}
	if flags.Database != "" {
		cfg.Database = flags.Database
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return fmt.Errorf("validating config error: %w", err)
	}

	// Open user store
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database error: %w", err)
	}
	defer st.Close() // nolint:errcheck
	logger.Debug("database ready", "dsn", cfg.Database)

	deps := newDeps(cfg, st)
	logger.Debug("jira",
		"baseURL", cfg.Jira.BaseURL,
		"timeout", cfg.Jira.Timeout,
		"skipTLSVerify", cfg.Jira.SkipTLSVerify,
	)

	router := server.NewRouter(deps, flags.RoutePrefix, logger, flags.Debug, version, commit)

	// Server and janitor share one lifetime; the first failure stops both.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.RunHTTPServer(gctx, router, flags.ListenAddr, logger)
	})
	g.Go(func() error {
		j := &janitor{
			sessions: st,
			pages:    deps.ProjectCache,
			limiter:  deps.AuthLimiter,
			idle:     time.Duration(cfg.Session.CleanupInterval),
			logger:   logger,
		}
		j.run(gctx, time.Duration(cfg.Session.CleanupInterval))
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("HTTP server exited with error", "error", err)
		return err
	}
	return nil
}

// newDeps builds the services behind the router from cfg.
func newDeps(cfg config.Config, st *store.Store) server.Deps {
	var limiter *middleware.IPRateLimiter
	if cfg.Auth.RateLimit.RPS > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.Auth.RateLimit.RPS, cfg.Auth.RateLimit.Burst)
	}
	return server.Deps{
		Accounts:       auth.NewService(st, time.Duration(cfg.Session.TTL)),
		Jira:           jira.NewFactory(cfg.Jira.BaseURL, cfg.Jira.SkipTLSVerify, time.Duration(cfg.Jira.Timeout)),
		Tickets:        tracker.NewService(st),
		DB:             st,
		ProjectCache:   cache.NewMemCache[models.ProjectPage](),
		CacheTTL:       time.Duration(cfg.Cache.TTL),
		MaxResults:     cfg.Jira.MaxResults,
		AuthLimiter:    limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}
}
