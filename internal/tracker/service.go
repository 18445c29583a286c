package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/store"
	"github.com/gi8lino/ricefwboard/internal/utils"
)

// Paging limits.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	maxTitleLen     = 255
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("ticket not found")
	ErrConflict     = errors.New("conflict")
)

// InputError is a rejected field or parameter. It matches ErrInvalidInput.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// Is reports target == ErrInvalidInput.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// ConflictError is a uniqueness violation. It matches ErrConflict.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Is reports target == ErrConflict.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func invalid(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// Repository is the persistence the service needs.
type Repository interface {
	CreateTicket(ctx context.Context, t *models.Ticket) error
	UpdateTicket(ctx context.Context, t *models.Ticket) error
	GetTicket(ctx context.Context, id int64) (models.Ticket, error)
	DeleteTicket(ctx context.Context, id int64) error
	FindTickets(ctx context.Context, q store.TicketQuery) ([]models.Ticket, int64, error)
	CountTicketsByStatus(ctx context.Context) (map[string]int64, error)
	CountTicketsByType(ctx context.Context) (map[string]int64, error)
	CreateConfiguration(ctx context.Context, c *models.Configuration) error
	ListConfigurations(ctx context.Context, activeOnly bool) ([]models.Configuration, error)
}

// PageRequest selects one page of all tickets. SortDir is "asc" or "desc" (default).
type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

// Search filters tickets; empty fields are ignored. Results are newest first.
type Search struct {
	Title      string
	RicefwType string
	Status     string
	Assignee   string
	Page       int
	Size       int
}

// Service validates and stores tickets and configurations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now; it decides what "overdue" means.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service backed by repo.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of all tickets.
func (s *Service) List(ctx context.Context, req PageRequest) (models.TicketPage, error) {
	page, size, err := paging(req.Page, req.Size)
	if err != nil {
		return models.TicketPage{}, err
	}
	sortBy := strings.TrimSpace(req.SortBy)
	if sortBy == "" {
		sortBy = "id"
	}
	if !store.IsTicketSortField(sortBy) {
		return models.TicketPage{}, invalid("cannot sort by %q", sortBy)
	}
	var desc bool
	switch strings.ToLower(strings.TrimSpace(req.SortDir)) {
	case "", "desc":
		desc = true
	case "asc":
	default:
		return models.TicketPage{}, invalid("sortDir must be asc or desc")
	}
	return s.page(ctx, store.TicketQuery{SortBy: sortBy, Desc: desc}, page, size)
}

// Search returns one page of the tickets matching q, newest first.
func (s *Service) Search(ctx context.Context, q Search) (models.TicketPage, error) {
	page, size, err := paging(q.Page, q.Size)
	if err != nil {
		return models.TicketPage{}, err
	}
	filter := store.TicketFilter{
		Title:    strings.TrimSpace(q.Title),
		Assignee: strings.TrimSpace(q.Assignee),
	}
	if strings.TrimSpace(q.RicefwType) != "" {
		c, err := ParseType(q.RicefwType)
		if err != nil {
			return models.TicketPage{}, &InputError{Message: err.Error()}
		}
		filter.RicefwType = string(c)
	}
	if strings.TrimSpace(q.Status) != "" {
		st, err := ParseStatus(q.Status)
		if err != nil {
			return models.TicketPage{}, &InputError{Message: err.Error()}
		}
		filter.Status = string(st)
	}
	return s.page(ctx, store.TicketQuery{Filter: filter, SortBy: "createdAt", Desc: true}, page, size)
}

// ByType returns every ticket of a RICEFW type.
func (s *Service) ByType(ctx context.Context, raw string) ([]models.Ticket, error) {
	c, err := ParseType(raw)
	if err != nil {
		return nil, &InputError{Message: err.Error()}
	}
	return s.all(ctx, store.TicketFilter{RicefwType: string(c)}, "id")
}

// ByStatus returns every ticket in a status.
func (s *Service) ByStatus(ctx context.Context, raw string) ([]models.Ticket, error) {
	st, err := ParseStatus(raw)
	if err != nil {
		return nil, &InputError{Message: err.Error()}
	}
	return s.all(ctx, store.TicketFilter{Status: string(st)}, "id")
}

// ByAssignee returns every ticket assigned to exactly assignee.
func (s *Service) ByAssignee(ctx context.Context, assignee string) ([]models.Ticket, error) {
	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		return nil, invalid("assignee is required")
	}
	return s.all(ctx, store.TicketFilter{AssigneeIs: assignee}, "id")
}

// Overdue returns the open tickets whose due date lies before today, soonest first.
func (s *Service) Overdue(ctx context.Context) ([]models.Ticket, error) {
	done := make([]string, 0, len(finished))
	for _, st := range finished {
		done = append(done, string(st))
	}
	filter := store.TicketFilter{
		DueBefore:   s.now().UTC().Format(DateLayout),
		StatusNotIn: done,
	}
	tickets, _, err := s.repo.FindTickets(ctx, store.TicketQuery{Filter: filter, SortBy: "dueDate"})
	return tickets, err
}

// StatusStats returns the number of tickets per status.
func (s *Service) StatusStats(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountTicketsByStatus(ctx)
}

// TypeStats returns the number of tickets per RICEFW type.
func (s *Service) TypeStats(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountTicketsByType(ctx)
}

// Get returns the ticket with id.
func (s *Service) Get(ctx context.Context, id int64) (models.Ticket, error) {
	t, err := s.repo.GetTicket(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Ticket{}, ErrNotFound
	}
	return t, err
}

// Create validates in and stores it as a new ticket owned by createdBy.
func (s *Service) Create(ctx context.Context, in models.Ticket, createdBy string) (models.Ticket, error) {
	t, err := normalizeTicket(in)
	if err != nil {
		return models.Ticket{}, err
	}
	now := s.now().UTC().Truncate(time.Second)
	t.ID = 0
	t.CreatedBy = createdBy
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.repo.CreateTicket(ctx, &t); err != nil {
		return models.Ticket{}, conflict(err, t.JiraTicketKey)
	}
	return t, nil
}

// Update replaces the ticket with id by in. The creator and creation time are kept.
func (s *Service) Update(ctx context.Context, id int64, in models.Ticket) (models.Ticket, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return models.Ticket{}, err
	}
	t, err := normalizeTicket(in)
	if err != nil {
		return models.Ticket{}, err
	}
	t.ID = id
	t.CreatedBy = existing.CreatedBy
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = s.now().UTC().Truncate(time.Second)
	if err := s.repo.UpdateTicket(ctx, &t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Ticket{}, ErrNotFound
		}
		return models.Ticket{}, conflict(err, t.JiraTicketKey)
	}
	return t, nil
}

// Delete removes the ticket with id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.DeleteTicket(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Configurations returns the saved JIRA configurations with masked API tokens.
func (s *Service) Configurations(ctx context.Context, activeOnly bool) ([]models.Configuration, error) {
	list, err := s.repo.ListConfigurations(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].APIToken = maskSecret(list[i].APIToken)
	}
	return list, nil
}

// CreateConfiguration validates and stores a JIRA configuration.
func (s *Service) CreateConfiguration(ctx context.Context, in models.Configuration) (models.Configuration, error) {
	c := in
	c.Name = strings.TrimSpace(c.Name)
	c.JiraURL = strings.TrimRight(strings.TrimSpace(c.JiraURL), "/")
	c.ProjectKey = strings.ToUpper(strings.TrimSpace(c.ProjectKey))
	c.ProjectName = strings.TrimSpace(c.ProjectName)
	c.Username = strings.TrimSpace(c.Username)
	c.DefaultIssueType = strings.TrimSpace(c.DefaultIssueType)
	c.Description = strings.TrimSpace(c.Description)

	switch {
	case c.Name == "":
		return models.Configuration{}, invalid("name is required")
	case c.JiraURL == "":
		return models.Configuration{}, invalid("jiraUrl is required")
	case c.ProjectKey == "":
		return models.Configuration{}, invalid("projectKey is required")
	case c.Username == "":
		return models.Configuration{}, invalid("username is required")
	}
	if u, err := url.Parse(c.JiraURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.Configuration{}, invalid("jiraUrl %q must be an absolute http(s) URL", c.JiraURL)
	}
	if c.DefaultIssueType == "" {
		c.DefaultIssueType = "Task"
	}
	if c.Active == nil {
		active := true
		c.Active = &active
	}
	c.ID = 0
	c.CreatedAt = s.now().UTC().Truncate(time.Second)

	if err := s.repo.CreateConfiguration(ctx, &c); err != nil {
		if errors.Is(err, store.ErrConfigurationNameTaken) {
			return models.Configuration{}, &ConflictError{Message: fmt.Sprintf("Configuration %q already exists", c.Name)}
		}
		return models.Configuration{}, err
	}
	c.APIToken = maskSecret(c.APIToken)
	return c, nil
}

func (s *Service) page(ctx context.Context, q store.TicketQuery, page, size int) (models.TicketPage, error) {
	q.Limit = size
	q.Offset = page * size
	tickets, total, err := s.repo.FindTickets(ctx, q)
	if err != nil {
		return models.TicketPage{}, err
	}
	pages := int((total + int64(size) - 1) / int64(size))
	return models.TicketPage{
		Tickets:       tickets,
		CurrentPage:   page,
		PageSize:      size,
		TotalPages:    pages,
		TotalElements: total,
		HasNext:       page+1 < pages,
		HasPrevious:   page > 0,
	}, nil
}

func (s *Service) all(ctx context.Context, f store.TicketFilter, sortBy string) ([]models.Ticket, error) {
	tickets, _, err := s.repo.FindTickets(ctx, store.TicketQuery{Filter: f, SortBy: sortBy})
	return tickets, err
}

// paging applies the default size and rejects out of range values.
func paging(page, size int) (int, int, error) {
	if page < 0 {
		return 0, 0, invalid("page must be >= 0")
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 1 || size > MaxPageSize {
		return 0, 0, invalid("size must be between 1 and %d", MaxPageSize)
	}
	return page, size, nil
}

// normalizeTicket trims in, fills defaults and validates every field.
func normalizeTicket(in models.Ticket) (models.Ticket, error) {
	t := in
	t.Title = strings.TrimSpace(t.Title)
	switch {
	case t.Title == "":
		return t, invalid("Title is required")
	case utf8.RuneCountInString(t.Title) > maxTitleLen:
		return t, invalid("Title must not exceed %d characters", maxTitleLen)
	}

	if strings.TrimSpace(t.RicefwType) == "" {
		return t, invalid("RICEFW type is required")
	}
	c, err := ParseType(t.RicefwType)
	if err != nil {
		return t, &InputError{Message: err.Error()}
	}
	t.RicefwType = string(c)

	st := Draft
	if strings.TrimSpace(t.Status) != "" {
		if st, err = ParseStatus(t.Status); err != nil {
			return t, &InputError{Message: err.Error()}
		}
	}
	t.Status = string(st)

	pr := Medium
	if strings.TrimSpace(t.Priority) != "" {
		if pr, err = ParsePriority(t.Priority); err != nil {
			return t, &InputError{Message: err.Error()}
		}
	}
	t.Priority = string(pr)

	for name, d := range map[string]*string{"dueDate": &t.DueDate, "completionDate": &t.CompletionDate} {
		*d = strings.TrimSpace(*d)
		if *d == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, *d); err != nil {
			return t, invalid("%s must be a date (YYYY-MM-DD)", name)
		}
	}
	if t.EstimatedHours != nil && *t.EstimatedHours < 0 {
		return t, invalid("estimatedHours must be >= 0")
	}
	if t.ActualHours != nil && *t.ActualHours < 0 {
		return t, invalid("actualHours must be >= 0")
	}

	t.JiraTicketKey = strings.ToUpper(strings.TrimSpace(t.JiraTicketKey))
	t.JiraTicketID = strings.TrimSpace(t.JiraTicketID)
	t.Assignee = strings.TrimSpace(t.Assignee)
	t.Reporter = strings.TrimSpace(t.Reporter)
	t.Labels = cleanList(t.Labels)
	t.Components = cleanList(t.Components)
	return t, nil
}

// cleanList trims entries and drops empty ones; never nil.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func conflict(err error, jiraKey string) error {
	if errors.Is(err, store.ErrTicketKeyTaken) {
		return &ConflictError{Message: fmt.Sprintf("JIRA ticket %s is already linked to another ticket", jiraKey)}
	}
	return err
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return utils.MaskToken(s)
}
