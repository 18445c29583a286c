// Package models holds the JSON shapes exchanged between the ricefwboard
// service and its clients.
package models

// Named is a JIRA reference that is only ever shown or matched by name
// (status, priority, issue type).
type Named struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Person is a JIRA user as shown on an issue.
type Person struct {
	AccountID    string `json:"accountId,omitempty"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// Issue is a flattened JIRA issue. Labels is the only field clients mutate.
type Issue struct {
	ID        string   `json:"id"`
	Key       string   `json:"key"`
	Self      string   `json:"self,omitempty"`
	Summary   string   `json:"summary"`
	Status    Named    `json:"status"`
	Priority  Named    `json:"priority"`
	Assignee  *Person  `json:"assignee"` // nullable
	IssueType Named    `json:"issueType"`
	Created   string   `json:"created,omitempty"`
	Updated   string   `json:"updated,omitempty"`
	Labels    []string `json:"labels"`
}

// AssigneeName returns the assignee display name or "" when unassigned.
func (i Issue) AssigneeName() string {
	if i.Assignee == nil {
		return ""
	}
	return i.Assignee.DisplayName
}

// IssueList is the response of the issue listing endpoint.
type IssueList struct {
	Issues     []Issue `json:"issues"`
	Total      int     `json:"total"`
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
}

// Project is a read-only JIRA project as returned by project search.
type Project struct {
	ID             string            `json:"id"`
	Key            string            `json:"key"`
	Name           string            `json:"name"`
	Self           string            `json:"self,omitempty"`
	AvatarURLs     map[string]string `json:"avatarUrls,omitempty"`
	ProjectTypeKey string            `json:"projectTypeKey,omitempty"`
	Simplified     bool              `json:"simplified"`
	Style          string            `json:"style,omitempty"`
	IsPrivate      bool              `json:"isPrivate"`
	EntityID       string            `json:"entityId,omitempty"`
	UUID           string            `json:"uuid,omitempty"`
}

// ProjectPage is one page of a project search.
type ProjectPage struct {
	Self       string    `json:"self,omitempty"`
	Values     []Project `json:"values"`
	Total      int       `json:"total"`
	MaxResults int       `json:"maxResults"`
	StartAt    int       `json:"startAt"`
	IsLast     bool      `json:"isLast"`
}

// ProjectSearchRequest is the body of POST /projects/search.
// Email and APIToken fall back to the caller's stored credentials when empty.
type ProjectSearchRequest struct {
	AtlassianDomain string `json:"atlassianDomain"`
	SearchQuery     string `json:"searchQuery,omitempty"`
	MaxResults      int    `json:"maxResults"`
	StartAt         int    `json:"startAt"`
	Email           string `json:"email,omitempty"`
	APIToken        string `json:"apiToken,omitempty"`
}

// CreateIssueRequest is the body of POST /projects/{key}/issues.
type CreateIssueRequest struct {
	Summary       string   `json:"summary"`
	Description   string   `json:"description,omitempty"`
	IssueTypeName string   `json:"issueTypeName,omitempty"`
	PriorityName  string   `json:"priorityName,omitempty"`
	Labels        []string `json:"labels"`
}

// UpdateLabelsRequest is the body of PUT /projects/issues/{key}/labels.
type UpdateLabelsRequest struct {
	RicefwCategory string `json:"ricefwCategory"`
}

// LabelUpdate is the representation returned after a category change.
type LabelUpdate struct {
	Key            string   `json:"key"`
	Labels         []string `json:"labels"`
	RicefwCategory string   `json:"ricefwCategory"`
}

// Transition is a JIRA workflow transition available on an issue.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   Named  `json:"to"`
}

// TransitionList wraps the transitions of one issue.
type TransitionList struct {
	Transitions []Transition `json:"transitions"`
}

// TransitionRequest is the body used to apply a transition.
type TransitionRequest struct {
	TransitionID string `json:"transitionId"`
}

// SignupRequest is the body of POST /auth/signup. Token is the user's JIRA API token.
type SignupRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Token           string `json:"token"`
	AtlassianDomain string `json:"atlassianDomain,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by every /auth endpoint. Token is the session token.
type AuthResponse struct {
	Message   string `json:"message"`
	Success   bool   `json:"success"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Token     string `json:"token,omitempty"`
	JiraToken string `json:"jiraToken,omitempty"`
}

// User is the profile kept by clients alongside the session token.
type User struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	JiraToken string `json:"jiraToken,omitempty"`
}

// Profile is returned by GET /auth/me.
type Profile struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	AtlassianDomain string `json:"atlassianDomain,omitempty"`
	HasJiraToken    bool   `json:"hasJiraToken"`
	LastLogin       string `json:"lastLogin,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

// Status is the generic {success, message} body used for errors and simple acknowledgements.
type Status struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
