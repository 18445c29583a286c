// Package jira talks to the Atlassian site of a user on behalf of the API.
package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	gojira "github.com/andygrunwald/go-jira"
	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/ricefw"
	"github.com/gi8lino/ricefwboard/internal/transport"
)

// DomainPlaceholder is replaced by the Atlassian site name in the base URL template.
const DomainPlaceholder = "{domain}"

// issueFields are the fields requested for board issues.
var issueFields = []string{"id", "key", "summary", "status", "priority", "assignee", "created", "updated", "issuetype", "labels"}

var (
	domainPattern     = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?$`)
	projectKeyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	issueKeyPattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*-[0-9]+$`)
)

var (
	ErrInvalidDomain     = errors.New("invalid atlassian domain")
	ErrMissingCredential = errors.New("missing JIRA email or API token")
	ErrInvalidKey        = errors.New("invalid JIRA key")
)

// Credentials authenticate against an Atlassian site (Basic email:apiToken).
type Credentials struct {
	Email    string
	APIToken string
}

// Factory builds clients for Atlassian sites from a base URL template.
type Factory struct {
	baseURL   string
	transport http.RoundTripper
	timeout   time.Duration
}

// NewFactory returns a factory. baseURL must contain DomainPlaceholder.
func NewFactory(baseURL string, skipTLSVerify bool, timeout time.Duration) *Factory {
	return &Factory{
		baseURL:   baseURL,
		transport: transport.New(skipTLSVerify),
		timeout:   timeout,
	}
}

// SiteURL returns the base URL of an Atlassian site.
func (f *Factory) SiteURL(domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	if !domainPattern.MatchString(domain) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	return strings.ReplaceAll(f.baseURL, DomainPlaceholder, strings.ToLower(domain)), nil
}

// Client returns a client for domain authenticated with creds.
func (f *Factory) Client(domain string, creds Credentials) (*Client, error) {
	if creds.Email == "" || creds.APIToken == "" {
		return nil, ErrMissingCredential
	}
	site, err := f.SiteURL(domain)
	if err != nil {
		return nil, err
	}

	basic := &gojira.BasicAuthTransport{
		Username:  creds.Email,
		Password:  creds.APIToken,
		Transport: f.transport,
	}
	api, err := gojira.NewClient(transport.NewClient(basic, f.timeout), site)
	if err != nil {
		return nil, fmt.Errorf("create jira client: %w", err)
	}
	return &Client{api: api, Site: site}, nil
}

// Client is a JIRA REST client for one site and one user.
type Client struct {
	Site string
	api  *gojira.Client
}

// SearchProjects pages through the projects visible to the user.
func (c *Client) SearchProjects(ctx context.Context, query string, maxResults, startAt int) (models.ProjectPage, error) {
	params := url.Values{}
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("startAt", strconv.Itoa(startAt))
	if q := strings.TrimSpace(query); q != "" {
		params.Set("query", q)
	}

	req, err := c.api.NewRequestWithContext(ctx, http.MethodGet, "rest/api/2/project/search?"+params.Encode(), nil)
	if err != nil {
		return models.ProjectPage{}, fmt.Errorf("build project search: %w", err)
	}

	var page models.ProjectPage
	resp, err := c.api.Do(req, &page)
	if err != nil {
		return models.ProjectPage{}, wrap("search projects", resp, gojira.NewJiraError(resp, err))
	}
	if page.Values == nil {
		page.Values = []models.Project{}
	}
	return page, nil
}

// ListIssues returns the first page of issues of a project.
func (c *Client) ListIssues(ctx context.Context, projectKey string, maxResults int) (models.IssueList, error) {
	if !projectKeyPattern.MatchString(projectKey) {
		return models.IssueList{}, fmt.Errorf("%w: %q", ErrInvalidKey, projectKey)
	}
	jql := fmt.Sprintf("project = %q", strings.ToUpper(projectKey))

	issues, resp, err := c.api.Issue.SearchWithContext(ctx, jql, &gojira.SearchOptions{
		StartAt:    0,
		MaxResults: maxResults,
		Fields:     issueFields,
	})
	if err != nil {
		return models.IssueList{}, wrap("list issues", resp, err)
	}

	out := models.IssueList{
		Issues:     make([]models.Issue, 0, len(issues)),
		StartAt:    resp.StartAt,
		MaxResults: resp.MaxResults,
		Total:      resp.Total,
	}
	for _, issue := range issues {
		out.Issues = append(out.Issues, toModel(issue))
	}
	return out, nil
}

// GetIssue fetches a single issue with the board fields.
func (c *Client) GetIssue(ctx context.Context, issueKey string) (models.Issue, error) {
	if !issueKeyPattern.MatchString(issueKey) {
		return models.Issue{}, fmt.Errorf("%w: %q", ErrInvalidKey, issueKey)
	}
	issue, resp, err := c.api.Issue.GetWithContext(ctx, issueKey, &gojira.GetQueryOptions{
		Fields: strings.Join(issueFields, ","),
	})
	if err != nil {
		return models.Issue{}, wrap("get issue", resp, err)
	}
	return toModel(*issue), nil
}

// CreateIssue creates an issue and returns it as stored by JIRA.
// Issue type defaults to Task and priority to Medium.
func (c *Client) CreateIssue(ctx context.Context, projectKey string, in models.CreateIssueRequest) (models.Issue, error) {
	if !projectKeyPattern.MatchString(projectKey) {
		return models.Issue{}, fmt.Errorf("%w: %q", ErrInvalidKey, projectKey)
	}
	issueType := strings.TrimSpace(in.IssueTypeName)
	if issueType == "" {
		issueType = "Task"
	}
	priority := strings.TrimSpace(in.PriorityName)
	if priority == "" {
		priority = "Medium"
	}
	labels := in.Labels
	if labels == nil {
		labels = []string{}
	}

	created, resp, err := c.api.Issue.CreateWithContext(ctx, &gojira.Issue{
		Fields: &gojira.IssueFields{
			Project:     gojira.Project{Key: strings.ToUpper(projectKey)},
			Summary:     in.Summary,
			Description: in.Description,
			Type:        gojira.IssueType{Name: issueType},
			Priority:    &gojira.Priority{Name: priority},
			Labels:      labels,
		},
	})
	if err != nil {
		return models.Issue{}, wrap("create issue", resp, err)
	}
	return c.GetIssue(ctx, created.Key)
}

// SetCategory replaces the RICEFW label of an issue and keeps all other labels.
func (c *Client) SetCategory(ctx context.Context, issueKey string, category ricefw.Category) (models.LabelUpdate, error) {
	if !issueKeyPattern.MatchString(issueKey) {
		return models.LabelUpdate{}, fmt.Errorf("%w: %q", ErrInvalidKey, issueKey)
	}
	current, resp, err := c.api.Issue.GetWithContext(ctx, issueKey, &gojira.GetQueryOptions{Fields: "labels"})
	if err != nil {
		return models.LabelUpdate{}, wrap("get labels", resp, err)
	}

	var labels []string
	if current.Fields != nil {
		labels = current.Fields.Labels
	}
	next := ricefw.ReplaceCategory(labels, category)

	update := map[string]any{
		"update": map[string]any{
			"labels": []any{map[string]any{"set": next}},
		},
	}
	resp, err = c.api.Issue.UpdateIssueWithContext(ctx, issueKey, update)
	if err != nil {
		return models.LabelUpdate{}, wrap("update labels", resp, err)
	}
	return models.LabelUpdate{Key: issueKey, Labels: next, RicefwCategory: category.String()}, nil
}

// Transitions lists the workflow transitions available on an issue.
func (c *Client) Transitions(ctx context.Context, issueKey string) ([]models.Transition, error) {
	if !issueKeyPattern.MatchString(issueKey) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, issueKey)
	}
	list, resp, err := c.api.Issue.GetTransitionsWithContext(ctx, issueKey)
	if err != nil {
		return nil, wrap("get transitions", resp, err)
	}
	out := make([]models.Transition, 0, len(list))
	for _, t := range list {
		out = append(out, models.Transition{
			ID:   t.ID,
			Name: t.Name,
			To:   models.Named{ID: t.To.ID, Name: t.To.Name},
		})
	}
	return out, nil
}

// DoTransition moves an issue through a workflow transition.
func (c *Client) DoTransition(ctx context.Context, issueKey, transitionID string) error {
	if !issueKeyPattern.MatchString(issueKey) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, issueKey)
	}
	if strings.TrimSpace(transitionID) == "" {
		return fmt.Errorf("%w: empty transition id", ErrInvalidKey)
	}
	resp, err := c.api.Issue.DoTransitionWithContext(ctx, issueKey, transitionID)
	if err != nil {
		return wrap("do transition", resp, err)
	}
	return nil
}
