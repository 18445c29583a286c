package models

import "time"

// Ticket is a RICEFW work item tracked by the service itself, optionally
// linked to a JIRA issue. Dates are calendar days (YYYY-MM-DD).
type Ticket struct {
	ID                     int64     `json:"id"`
	Title                  string    `json:"title"`
	Description            string    `json:"description,omitempty"`
	RicefwType             string    `json:"ricefwType"`
	Status                 string    `json:"status"`
	Priority               string    `json:"priority"`
	JiraTicketKey          string    `json:"jiraTicketKey,omitempty"`
	JiraTicketID           string    `json:"jiraTicketId,omitempty"`
	Assignee               string    `json:"assignee,omitempty"`
	Reporter               string    `json:"reporter,omitempty"`
	BusinessRequirement    string    `json:"businessRequirement,omitempty"`
	TechnicalSpecification string    `json:"technicalSpecification,omitempty"`
	TestCases              string    `json:"testCases,omitempty"`
	DeploymentInstructions string    `json:"deploymentInstructions,omitempty"`
	ImpactAnalysis         string    `json:"impactAnalysis,omitempty"`
	EstimatedHours         *float64  `json:"estimatedHours,omitempty"`
	ActualHours            *float64  `json:"actualHours,omitempty"`
	DueDate                string    `json:"dueDate,omitempty"`
	CompletionDate         string    `json:"completionDate,omitempty"`
	Labels                 []string  `json:"labels"`
	Components             []string  `json:"components"`
	CreatedBy              string    `json:"createdBy,omitempty"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// TicketPage is one page of tickets. Pages are zero based.
type TicketPage struct {
	Tickets       []Ticket `json:"tickets"`
	CurrentPage   int      `json:"currentPage"`
	PageSize      int      `json:"pageSize"`
	TotalPages    int      `json:"totalPages"`
	TotalElements int64    `json:"totalElements"`
	HasNext       bool     `json:"hasNext"`
	HasPrevious   bool     `json:"hasPrevious"`
}

// TicketList is returned by the lookups that are not paged.
type TicketList struct {
	Tickets []Ticket `json:"tickets"`
}

// Configuration is a saved JIRA project connection. The API token is never
// returned in full.
type Configuration struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	JiraURL          string    `json:"jiraUrl"`
	ProjectKey       string    `json:"projectKey"`
	ProjectName      string    `json:"projectName,omitempty"`
	Username         string    `json:"username"`
	APIToken         string    `json:"apiToken,omitempty"`
	DefaultIssueType string    `json:"defaultIssueType"`
	Active           *bool     `json:"isActive,omitempty"`
	Description      string    `json:"description,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}
