package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gi8lino/ricefwboard/internal/cache"
	"github.com/gi8lino/ricefwboard/internal/jira"
	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/ricefw"
	"github.com/gi8lino/ricefwboard/internal/store"
	"github.com/gi8lino/ricefwboard/internal/utils"
)

// Page size limits of the project search.
const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// JiraClients builds per-user JIRA clients.
type JiraClients interface {
	Client(domain string, creds jira.Credentials) (*jira.Client, error)
}

// SearchProjects searches the projects of an Atlassian site. Missing
// credentials fall back to the session user's; the domain is remembered.
func SearchProjects(
	accounts Accounts,
	clients JiraClients,
	pages *cache.MemCache[models.ProjectPage],
	ttl time.Duration,
	logger *slog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := sessionUser(r.Context())

		var req models.ProjectSearchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeStatus(w, http.StatusBadRequest, err.Error())
			return
		}
		domain := strings.TrimSpace(req.AtlassianDomain)
		if domain == "" {
			writeStatus(w, http.StatusBadRequest, "Atlassian domain is required")
			return
		}
		creds := jira.Credentials{Email: strings.TrimSpace(req.Email), APIToken: strings.TrimSpace(req.APIToken)}
		if creds.Email == "" {
			creds.Email = user.Email
		}
		if creds.APIToken == "" {
			creds.APIToken = user.JiraToken
		}
		maxResults := req.MaxResults
		if maxResults <= 0 {
			maxResults = defaultPageSize
		}
		maxResults = min(maxResults, maxPageSize)
		startAt := max(req.StartAt, 0)
		query := strings.TrimSpace(req.SearchQuery)

		key, err := cache.Key(user.ID, strings.ToLower(domain), query, maxResults, startAt, creds.Email, creds.APIToken)
		if err != nil {
			logger.Error("project cache key", "error", err)
		}
		if err == nil {
			if page, ok := pages.Get(key); ok {
				logger.Debug("project search cache hit", "domain", domain, "query", query)
				writeJSON(w, http.StatusOK, page)
				return
			}
		}

		client, err := clients.Client(domain, creds)
		if err != nil {
			writeJiraError(w, logger, "Error fetching projects from Jira", err)
			return
		}

		logger.Debug("searching projects",
			"domain", domain,
			"query", query,
			"email", creds.Email,
			"apiToken", utils.MaskToken(creds.APIToken),
		)
		page, err := client.SearchProjects(r.Context(), query, maxResults, startAt)
		if err != nil {
			writeJiraError(w, logger, "Error fetching projects from Jira", err)
			return
		}
		if key != "" {
			pages.Set(key, page, ttl)
		}

		if err := accounts.RememberDomain(r.Context(), user, domain); err != nil {
			logger.Warn("remember atlassian domain", "username", user.Username, "error", err)
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// ListIssues returns the first page of issues of a project.
func ListIssues(clients JiraClients, maxResults int, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := userClient(w, r, clients, logger)
		if !ok {
			return
		}
		list, err := client.ListIssues(r.Context(), r.PathValue("projectKey"), maxResults)
		if err != nil {
			writeJiraError(w, logger, "Error fetching issues from Jira", err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// CreateIssue creates an issue in a project and returns it.
func CreateIssue(clients JiraClients, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateIssueRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeStatus(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Summary) == "" {
			writeStatus(w, http.StatusBadRequest, "Summary is required")
			return
		}

		client, ok := userClient(w, r, clients, logger)
		if !ok {
			return
		}
		projectKey := r.PathValue("projectKey")
		issue, err := client.CreateIssue(r.Context(), projectKey, req)
		if err != nil {
			writeJiraError(w, logger, "Error creating issue in Jira", err)
			return
		}
		logger.Info("issue created", "project", projectKey, "key", issue.Key, "labels", issue.Labels)
		writeJSON(w, http.StatusOK, issue)
	}
}

// UpdateLabels sets the RICEFW category of an issue.
func UpdateLabels(clients JiraClients, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdateLabelsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeStatus(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.RicefwCategory) == "" {
			writeStatus(w, http.StatusBadRequest, "ricefwCategory is required")
			return
		}
		category, err := ricefw.ParseCategory(req.RicefwCategory)
		if err != nil {
			writeStatus(w, http.StatusBadRequest, err.Error())
			return
		}

		client, ok := userClient(w, r, clients, logger)
		if !ok {
			return
		}
		issueKey := r.PathValue("issueKey")
		upd, err := client.SetCategory(r.Context(), issueKey, category)
		if err != nil {
			writeJiraError(w, logger, "Error updating labels for issue", err)
			return
		}
		logger.Info("category updated", "key", issueKey, "category", category)
		writeJSON(w, http.StatusOK, upd)
	}
}

// Transitions lists the workflow transitions of an issue.
func Transitions(clients JiraClients, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := userClient(w, r, clients, logger)
		if !ok {
			return
		}
		list, err := client.Transitions(r.Context(), r.PathValue("issueKey"))
		if err != nil {
			writeJiraError(w, logger, "Error fetching transitions from Jira", err)
			return
		}
		writeJSON(w, http.StatusOK, models.TransitionList{Transitions: list})
	}
}

// DoTransition applies a workflow transition to an issue.
func DoTransition(clients JiraClients, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.TransitionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeStatus(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.TransitionID) == "" {
			writeStatus(w, http.StatusBadRequest, "transitionId is required")
			return
		}

		client, ok := userClient(w, r, clients, logger)
		if !ok {
			return
		}
		issueKey := r.PathValue("issueKey")
		if err := client.DoTransition(r.Context(), issueKey, req.TransitionID); err != nil {
			writeJiraError(w, logger, "Error transitioning issue", err)
			return
		}
		writeStatus(w, http.StatusOK, "Issue transitioned successfully")
	}
}

// userClient builds a JIRA client for the session user and the resolved domain.
func userClient(w http.ResponseWriter, r *http.Request, clients JiraClients, logger *slog.Logger) (*jira.Client, bool) {
	user, _ := sessionUser(r.Context())
	domain := resolveDomain(r, user)
	if domain == "" {
		writeStatus(w, http.StatusBadRequest, "Atlassian domain is required")
		return nil, false
	}
	client, err := clients.Client(domain, jira.Credentials{Email: user.Email, APIToken: user.JiraToken})
	if err != nil {
		writeJiraError(w, logger, "Cannot reach Jira", err)
		return nil, false
	}
	return client, true
}

// resolveDomain picks ?domain=, then the stored domain, then the email host label.
func resolveDomain(r *http.Request, u store.User) string {
	if d := strings.TrimSpace(r.URL.Query().Get("domain")); d != "" {
		return d
	}
	if u.AtlassianDomain != "" {
		return u.AtlassianDomain
	}
	return utils.EmailDomainLabel(u.Email)
}

// writeJiraError maps a JIRA failure to a client status; never 401.
func writeJiraError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	status := jira.ClientStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, "status", jira.StatusCode(err), "error", err)
	} else {
		logger.Debug(msg, "status", status, "error", err)
	}
	if errors.Is(err, jira.ErrMissingCredential) {
		writeStatus(w, status, "No JIRA email or API token configured")
		return
	}
	writeStatus(w, status, msg+": "+err.Error())
}
