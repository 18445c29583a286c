// Package jiramock is an in-memory stand-in for the parts of the JIRA REST API
// the board uses. It backs tests and the local mock server command.
package jiramock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TimeLayout is the timestamp format used in responses.
const TimeLayout = "2006-01-02T15:04:05.000-0700"

var jqlProject = regexp.MustCompile(`(?i)^\s*project\s*=\s*"?([A-Za-z0-9_]+)"?\s*$`)

type issue struct {
	ID          string
	Key         string
	Project     string
	Summary     string
	Description string
	Status      string
	Priority    string
	IssueType   string
	Assignee    string
	Labels      []string
	Created     time.Time
	Updated     time.Time
}

// Server is a fake JIRA site. Safe for concurrent use.
type Server struct {
	mu          sync.Mutex
	seed        Seed
	issues      []*issue
	nextID      int
	hits        map[string]int
	forceStatus int
	now         func() time.Time
}

// New returns a server holding a copy of seed.
func New(seed Seed) *Server {
	s := &Server{
		seed:   seed,
		nextID: 10100,
		hits:   map[string]int{},
		now:    func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) },
	}
	for _, si := range seed.Issues {
		s.issues = append(s.issues, s.newIssue(si))
	}
	return s
}

// Fail makes every following request answer with status. Zero restores normal behavior.
func (s *Server) Fail(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceStatus = status
}

// Hits returns how often a route was served, keyed like "GET /project/search".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Labels returns the current labels of an issue.
func (s *Server) Labels(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if is := s.find(key); is != nil {
		return slices.Clone(is.Labels)
	}
	return nil
}

// Handler returns the REST API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/api/2/project/search", s.guard("GET /project/search", s.searchProjects))
	mux.HandleFunc("GET /rest/api/2/search", s.guard("GET /search", s.search))
	mux.HandleFunc("POST /rest/api/2/issue", s.guard("POST /issue", s.createIssue))
	mux.HandleFunc("GET /rest/api/2/issue/{key}", s.guard("GET /issue", s.getIssue))
	mux.HandleFunc("PUT /rest/api/2/issue/{key}", s.guard("PUT /issue", s.updateIssue))
	mux.HandleFunc("GET /rest/api/2/issue/{key}/transitions", s.guard("GET /transitions", s.transitions))
	mux.HandleFunc("POST /rest/api/2/issue/{key}/transitions", s.guard("POST /transitions", s.doTransition))
	return mux
}

// guard counts the hit, checks Basic auth and applies a forced failure.
func (s *Server) guard(route string, next func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[route]++
		forced := s.forceStatus
		email, token := s.seed.Email, s.seed.APIToken
		s.mu.Unlock()

		if forced != 0 {
			writeErrors(w, forced, fmt.Sprintf("forced status %d", forced))
			return
		}
		if email != "" {
			user, pass, ok := r.BasicAuth()
			if !ok || user != email || pass != token {
				writeErrors(w, http.StatusUnauthorized, "Client must be authenticated to access this resource.")
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) searchProjects(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
	startAt, maxResults := paging(r, 50)

	s.mu.Lock()
	var matched []map[string]any
	for _, p := range s.seed.Projects {
		if q != "" && !strings.Contains(strings.ToLower(p.Key), q) && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		matched = append(matched, map[string]any{
			"id":             p.ID,
			"key":            p.Key,
			"name":           p.Name,
			"self":           "http://" + r.Host + "/rest/api/2/project/" + p.ID,
			"projectTypeKey": p.ProjectTypeKey,
			"simplified":     false,
			"style":          "classic",
			"isPrivate":      false,
			"avatarUrls":     map[string]string{"48x48": "http://" + r.Host + "/avatar/" + p.ID},
		})
	}
	s.mu.Unlock()

	page := window(matched, startAt, maxResults)
	writeJSON(w, http.StatusOK, map[string]any{
		"self":       "http://" + r.Host + r.URL.String(),
		"maxResults": maxResults,
		"startAt":    startAt,
		"total":      len(matched),
		"isLast":     startAt+len(page) >= len(matched),
		"values":     nonNil(page),
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	m := jqlProject.FindStringSubmatch(r.URL.Query().Get("jql"))
	if m == nil {
		writeErrors(w, http.StatusBadRequest, "Error in the JQL Query")
		return
	}
	project := strings.ToUpper(m[1])
	startAt, maxResults := paging(r, 50)

	s.mu.Lock()
	known := slices.ContainsFunc(s.seed.Projects, func(p SeedProject) bool { return p.Key == project })
	var matched []map[string]any
	for _, is := range s.issues {
		if is.Project == project {
			matched = append(matched, s.render(r, is))
		}
	}
	s.mu.Unlock()

	if !known {
		writeErrors(w, http.StatusBadRequest, fmt.Sprintf("The value '%s' does not exist for the field 'project'.", project))
		return
	}

	page := window(matched, startAt, maxResults)
	writeJSON(w, http.StatusOK, map[string]any{
		"startAt":    startAt,
		"maxResults": maxResults,
		"total":      len(matched),
		"issues":     nonNil(page),
	})
}

func (s *Server) getIssue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	is := s.find(r.PathValue("key"))
	if is == nil {
		writeErrors(w, http.StatusNotFound, "Issue does not exist or you do not have permission to see it.")
		return
	}
	writeJSON(w, http.StatusOK, s.render(r, is))
}

type createBody struct {
	Fields struct {
		Project     struct{ Key string }  `json:"project"`
		Summary     string                `json:"summary"`
		Description string                `json:"description"`
		IssueType   struct{ Name string } `json:"issuetype"`
		Priority    struct{ Name string } `json:"priority"`
		Labels      []string              `json:"labels"`
	} `json:"fields"`
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid body")
		return
	}
	f := body.Fields
	if strings.TrimSpace(f.Summary) == "" {
		writeFieldError(w, "summary", "You must specify a summary of the issue.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	project := strings.ToUpper(f.Project.Key)
	if !slices.ContainsFunc(s.seed.Projects, func(p SeedProject) bool { return p.Key == project }) {
		writeFieldError(w, "project", "valid project is required")
		return
	}

	n := 0
	for _, is := range s.issues {
		if is.Project == project {
			n++
		}
	}
	is := s.newIssue(SeedIssue{
		Key:       fmt.Sprintf("%s-%d", project, n+1),
		Summary:   f.Summary,
		Status:    "To Do",
		Priority:  f.Priority.Name,
		IssueType: f.IssueType.Name,
		Labels:    f.Labels,
	})
	is.Description = f.Description
	s.issues = append(s.issues, is)

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":   is.ID,
		"key":  is.Key,
		"self": "http://" + r.Host + "/rest/api/2/issue/" + is.ID,
	})
}

type updateBody struct {
	Update struct {
		Labels []struct {
			Set []string `json:"set"`
		} `json:"labels"`
	} `json:"update"`
}

func (s *Server) updateIssue(w http.ResponseWriter, r *http.Request) {
	var body updateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	is := s.find(r.PathValue("key"))
	if is == nil {
		writeErrors(w, http.StatusNotFound, "Issue does not exist or you do not have permission to see it.")
		return
	}
	for _, op := range body.Update.Labels {
		if op.Set != nil {
			is.Labels = slices.Clone(op.Set)
		}
	}
	is.Updated = s.now()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) transitions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(r.PathValue("key")) == nil {
		writeErrors(w, http.StatusNotFound, "Issue does not exist or you do not have permission to see it.")
		return
	}
	out := make([]map[string]any, 0, len(s.seed.Transitions))
	for _, t := range s.seed.Transitions {
		out = append(out, map[string]any{
			"id":   t.ID,
			"name": t.Name,
			"to":   map[string]string{"id": t.ID, "name": t.To},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"expand": "transitions", "transitions": out})
}

func (s *Server) doTransition(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Transition struct {
			ID string `json:"id"`
		} `json:"transition"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	is := s.find(r.PathValue("key"))
	if is == nil {
		writeErrors(w, http.StatusNotFound, "Issue does not exist or you do not have permission to see it.")
		return
	}
	i := slices.IndexFunc(s.seed.Transitions, func(t SeedTransition) bool { return t.ID == body.Transition.ID })
	if i < 0 {
		writeErrors(w, http.StatusBadRequest, "Transition id '"+body.Transition.ID+"' is not valid for this issue.")
		return
	}
	is.Status = s.seed.Transitions[i].To
	is.Updated = s.now()
	w.WriteHeader(http.StatusNoContent)
}

// newIssue must be called with mu held (or before the server is shared).
func (s *Server) newIssue(si SeedIssue) *issue {
	project, _, _ := strings.Cut(si.Key, "-")
	s.nextID++
	now := s.now()
	return &issue{
		ID:        strconv.Itoa(s.nextID),
		Key:       si.Key,
		Project:   strings.ToUpper(project),
		Summary:   si.Summary,
		Status:    si.Status,
		Priority:  si.Priority,
		IssueType: si.IssueType,
		Assignee:  si.Assignee,
		Labels:    slices.Clone(si.Labels),
		Created:   now,
		Updated:   now,
	}
}

// find must be called with mu held.
func (s *Server) find(key string) *issue {
	for _, is := range s.issues {
		if strings.EqualFold(is.Key, key) || is.ID == key {
			return is
		}
	}
	return nil
}

// render must be called with mu held.
func (s *Server) render(r *http.Request, is *issue) map[string]any {
	fields := map[string]any{
		"summary":     is.Summary,
		"description": is.Description,
		"status":      map[string]string{"name": is.Status},
		"priority":    map[string]string{"name": is.Priority},
		"issuetype":   map[string]string{"name": is.IssueType},
		"labels":      nonNilStrings(is.Labels),
		"created":     is.Created.Format(TimeLayout),
		"updated":     is.Updated.Format(TimeLayout),
		"assignee":    nil,
	}
	if is.Assignee != "" {
		fields["assignee"] = map[string]string{
			"accountId":    "acc-" + strings.ToLower(strings.ReplaceAll(is.Assignee, " ", "-")),
			"displayName":  is.Assignee,
			"emailAddress": strings.ToLower(strings.ReplaceAll(is.Assignee, " ", ".")) + "@example.com",
		}
	}
	return map[string]any{
		"id":     is.ID,
		"key":    is.Key,
		"self":   "http://" + r.Host + "/rest/api/2/issue/" + is.ID,
		"fields": fields,
	}
}

func paging(r *http.Request, defLimit int) (startAt, maxResults int) {
	startAt, _ = strconv.Atoi(r.URL.Query().Get("startAt"))
	maxResults, err := strconv.Atoi(r.URL.Query().Get("maxResults"))
	if err != nil || maxResults <= 0 {
		maxResults = defLimit
	}
	return max(startAt, 0), maxResults
}

func window[T any](items []T, start, limit int) []T {
	if start >= len(items) {
		return nil
	}
	return items[start:min(start+limit, len(items))]
}

func nonNil(items []map[string]any) []map[string]any {
	if items == nil {
		return []map[string]any{}
	}
	return items
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) // nolint:errcheck
}

func writeErrors(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"errorMessages": []string{msg}, "errors": map[string]string{}})
}

func writeFieldError(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"errorMessages": []string{}, "errors": map[string]string{field: msg}})
}
