package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gi8lino/ricefwboard/internal/cache"
	"github.com/gi8lino/ricefwboard/internal/handlers"
	"github.com/gi8lino/ricefwboard/internal/middleware"
	"github.com/gi8lino/ricefwboard/internal/models"
)

// Deps are the services the routes are served from.
type Deps struct {
	Accounts       handlers.Accounts
	Jira           handlers.JiraClients
	Tickets        handlers.Tickets
	DB             handlers.Pinger // nil skips the database health check
	ProjectCache   *cache.MemCache[models.ProjectPage]
	CacheTTL       time.Duration
	MaxResults     int
	AuthLimiter    *middleware.IPRateLimiter // nil disables throttling
	AllowedOrigins []string
}

// NewRouter creates the HTTP router, mounted under routePrefix.
func NewRouter(
	deps Deps,
	routePrefix string,
	logger *slog.Logger,
	debug bool,
	version, commit string,
) http.Handler {
	root := http.NewServeMux()

	// Health checks (no logging)
	healthz := handlers.Healthz(deps.DB, logger)
	root.Handle("GET /healthz", healthz)
	root.Handle("POST /healthz", healthz)

	session := handlers.RequireSession(deps.Accounts, logger)
	throttle := middleware.RateLimit(deps.AuthLimiter)

	api := http.NewServeMux()
	api.Handle("GET /info", handlers.Info(version, commit))

	// Authentication
	api.Handle("POST /auth/signup", throttle(handlers.Signup(deps.Accounts, logger)))
	api.Handle("POST /auth/login", throttle(handlers.Login(deps.Accounts, logger)))
	api.Handle("POST /auth/logout", throttle(handlers.Logout(deps.Accounts, logger)))
	api.Handle("GET /auth/validate", session(handlers.Validate()))
	api.Handle("GET /auth/me", session(handlers.Me()))

	// JIRA projects and issues
	api.Handle("POST /projects/search",
		session(handlers.SearchProjects(deps.Accounts, deps.Jira, deps.ProjectCache, deps.CacheTTL, logger)))
	api.Handle("GET /projects/{projectKey}/issues", session(handlers.ListIssues(deps.Jira, deps.MaxResults, logger)))
	api.Handle("POST /projects/{projectKey}/issues", session(handlers.CreateIssue(deps.Jira, logger)))
	api.Handle("PUT /projects/issues/{issueKey}/labels", session(handlers.UpdateLabels(deps.Jira, logger)))
	api.Handle("GET /projects/issues/{issueKey}/transitions", session(handlers.Transitions(deps.Jira, logger)))
	api.Handle("POST /projects/issues/{issueKey}/transitions", session(handlers.DoTransition(deps.Jira, logger)))

	// RICEFW ticket tracker
	api.Handle("GET /ricefw/tickets", session(handlers.ListTickets(deps.Tickets, logger)))
	api.Handle("POST /ricefw/tickets", session(handlers.CreateTicket(deps.Tickets, logger)))
	api.Handle("GET /ricefw/tickets/search", session(handlers.SearchTickets(deps.Tickets, logger)))
	api.Handle("GET /ricefw/tickets/overdue", session(handlers.OverdueTickets(deps.Tickets, logger)))
	api.Handle("GET /ricefw/tickets/type/{type}", session(handlers.TicketsByType(deps.Tickets, logger)))
	api.Handle("GET /ricefw/tickets/status/{status}", session(handlers.TicketsByStatus(deps.Tickets, logger)))
	api.Handle("GET /ricefw/tickets/assignee/{assignee}", session(handlers.TicketsByAssignee(deps.Tickets, logger)))
	api.Handle("GET /ricefw/tickets/{id}", session(handlers.GetTicket(deps.Tickets, logger)))
	api.Handle("PUT /ricefw/tickets/{id}", session(handlers.UpdateTicket(deps.Tickets, logger)))
	api.Handle("DELETE /ricefw/tickets/{id}", session(handlers.DeleteTicket(deps.Tickets, logger)))
	api.Handle("GET /ricefw/stats/status", session(handlers.TicketStatusStats(deps.Tickets, logger)))
	api.Handle("GET /ricefw/stats/type", session(handlers.TicketTypeStats(deps.Tickets, logger)))
	api.Handle("GET /ricefw/configurations", session(handlers.ListConfigurations(deps.Tickets, false, logger)))
	api.Handle("GET /ricefw/configurations/active", session(handlers.ListConfigurations(deps.Tickets, true, logger)))
	api.Handle("POST /ricefw/configurations", session(handlers.CreateConfiguration(deps.Tickets, logger)))

	mws := []middleware.Middleware{middleware.CORS(deps.AllowedOrigins)}
	if debug {
		mws = append([]middleware.Middleware{middleware.LoggingMiddleware(logger)}, mws...)
	}
	root.Handle("/api/", http.StripPrefix("/api", middleware.Chain(api, mws...)))

	return mountUnderPrefix(root, routePrefix)
}
