package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gi8lino/ricefwboard/internal/models"
)

// ProjectPageSize is the single fixed page size used for project search.
const ProjectPageSize = 50

// Signup registers a user. A 400 carries the server message in *APIError.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (models.AuthResponse, error) {
	var out models.AuthResponse
	_, err := c.do(ctx, http.MethodPost, "auth/signup", req, &out)
	return out, err
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	var out models.AuthResponse
	_, err := c.do(ctx, http.MethodPost, "auth/login", req, &out)
	return out, err
}

// Logout invalidates the current session token on the server.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "auth/logout", nil, nil)
	return err
}

// Validate checks the stored session token.
func (c *Client) Validate(ctx context.Context) (models.AuthResponse, error) {
	var out models.AuthResponse
	_, err := c.do(ctx, http.MethodGet, "auth/validate", nil, &out)
	return out, err
}

// Me returns the profile behind the stored session token.
func (c *Client) Me(ctx context.Context) (models.Profile, error) {
	var out models.Profile
	_, err := c.do(ctx, http.MethodGet, "auth/me", nil, &out)
	return out, err
}

// SearchProjects searches projects of an Atlassian site. query may be empty.
func (c *Client) SearchProjects(ctx context.Context, domain, query string) (models.ProjectPage, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return models.ProjectPage{}, fmt.Errorf("%w: atlassian domain is required", ErrInvalidInput)
	}
	req := models.ProjectSearchRequest{
		AtlassianDomain: domain,
		SearchQuery:     strings.TrimSpace(query),
		MaxResults:      ProjectPageSize,
		StartAt:         0,
	}
	var out models.ProjectPage
	_, err := c.do(ctx, http.MethodPost, "projects/search", req, &out)
	return out, err
}

// ListIssues fetches the issues of a project.
func (c *Client) ListIssues(ctx context.Context, projectKey string) (models.IssueList, error) {
	if strings.TrimSpace(projectKey) == "" {
		return models.IssueList{}, fmt.Errorf("%w: project key is required", ErrInvalidInput)
	}
	var out models.IssueList
	_, err := c.do(ctx, http.MethodGet, "projects/"+url.PathEscape(projectKey)+"/issues", nil, &out)
	return out, err
}

// CreateIssue creates an issue and returns it as stored by JIRA.
func (c *Client) CreateIssue(ctx context.Context, projectKey string, req models.CreateIssueRequest) (models.Issue, error) {
	var out models.Issue
	_, err := c.do(ctx, http.MethodPost, "projects/"+url.PathEscape(projectKey)+"/issues", req, &out)
	return out, err
}

// UpdateLabels sets the RICEFW category of an issue.
func (c *Client) UpdateLabels(ctx context.Context, issueKey, category string) (models.LabelUpdate, error) {
	var out models.LabelUpdate
	body := models.UpdateLabelsRequest{RicefwCategory: category}
	_, err := c.do(ctx, http.MethodPut, "projects/issues/"+url.PathEscape(issueKey)+"/labels", body, &out)
	return out, err
}

// Transitions lists the workflow transitions available on an issue.
func (c *Client) Transitions(ctx context.Context, issueKey string) ([]models.Transition, error) {
	var out models.TransitionList
	_, err := c.do(ctx, http.MethodGet, "projects/issues/"+url.PathEscape(issueKey)+"/transitions", nil, &out)
	return out.Transitions, err
}

// Transition applies a workflow transition to an issue.
func (c *Client) Transition(ctx context.Context, issueKey, transitionID string) error {
	body := models.TransitionRequest{TransitionID: transitionID}
	_, err := c.do(ctx, http.MethodPost, "projects/issues/"+url.PathEscape(issueKey)+"/transitions", body, nil)
	return err
}
