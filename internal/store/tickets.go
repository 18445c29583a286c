package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gi8lino/ricefwboard/internal/models"
)

var (
	// ErrTicketKeyTaken is returned when another ticket already links the JIRA key.
	ErrTicketKeyTaken = errors.New("jira ticket key already linked")
	// ErrConfigurationNameTaken is returned when the configuration name is in use.
	ErrConfigurationNameTaken = errors.New("configuration name already exists")
)

// ticketSortColumns maps the accepted sort keys to columns.
var ticketSortColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"ricefwType": "ricefw_type",
	"status":     "status",
	"priority":   "priority",
	"assignee":   "assignee",
	"dueDate":    "due_date",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

// IsTicketSortField reports whether field can order a ticket query.
func IsTicketSortField(field string) bool {
	_, ok := ticketSortColumns[field]
	return ok
}

// TicketFilter narrows a ticket query. Empty fields are ignored.
type TicketFilter struct {
	Title       string // case-insensitive substring
	RicefwType  string
	Status      string
	Assignee    string // case-insensitive substring
	AssigneeIs  string // exact match
	DueBefore   string // YYYY-MM-DD, exclusive; tickets without a due date never match
	StatusNotIn []string
}

// TicketQuery selects, orders and pages tickets.
type TicketQuery struct {
	Filter TicketFilter
	SortBy string // see IsTicketSortField; default "id"
	Desc   bool
	Limit  int // <= 0 returns every match
	Offset int
}

const ticketColumns = `id, title, description, ricefw_type, status, priority, jira_ticket_key, jira_ticket_id,
	assignee, reporter, business_requirement, technical_specification, test_cases, deployment_instructions,
	impact_analysis, estimated_hours, actual_hours, due_date, completion_date, labels, components,
	created_by, created_at, updated_at`

// CreateTicket inserts t and sets its ID.
func (s *Store) CreateTicket(ctx context.Context, t *models.Ticket) error {
	labels, components, err := encodeLists(t)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (title, description, ricefw_type, status, priority, jira_ticket_key, jira_ticket_id,
			assignee, reporter, business_requirement, technical_specification, test_cases, deployment_instructions,
			impact_analysis, estimated_hours, actual_hours, due_date, completion_date, labels, components,
			created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, t.RicefwType, t.Status, t.Priority, nullString(t.JiraTicketKey), t.JiraTicketID,
		t.Assignee, t.Reporter, t.BusinessRequirement, t.TechnicalSpecification, t.TestCases, t.DeploymentInstructions,
		t.ImpactAnalysis, t.EstimatedHours, t.ActualHours, nullString(t.DueDate), nullString(t.CompletionDate),
		labels, components, t.CreatedBy, t.CreatedAt.Unix(), t.UpdatedAt.Unix(),
	)
	if err != nil {
		return ticketConflict(err, "create ticket")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read ticket id: %w", err)
	}
	t.ID = id
	return nil
}

// UpdateTicket replaces the editable fields of the ticket with t.ID.
// CreatedBy and CreatedAt are kept.
func (s *Store) UpdateTicket(ctx context.Context, t *models.Ticket) error {
	labels, components, err := encodeLists(t)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE tickets SET title = ?, description = ?, ricefw_type = ?, status = ?, priority = ?,
			jira_ticket_key = ?, jira_ticket_id = ?, assignee = ?, reporter = ?, business_requirement = ?,
			technical_specification = ?, test_cases = ?, deployment_instructions = ?, impact_analysis = ?,
			estimated_hours = ?, actual_hours = ?, due_date = ?, completion_date = ?, labels = ?, components = ?,
			updated_at = ?
		WHERE id = ?`,
		t.Title, t.Description, t.RicefwType, t.Status, t.Priority,
		nullString(t.JiraTicketKey), t.JiraTicketID, t.Assignee, t.Reporter, t.BusinessRequirement,
		t.TechnicalSpecification, t.TestCases, t.DeploymentInstructions, t.ImpactAnalysis,
		t.EstimatedHours, t.ActualHours, nullString(t.DueDate), nullString(t.CompletionDate), labels, components,
		t.UpdatedAt.Unix(), t.ID,
	)
	if err != nil {
		return ticketConflict(err, "update ticket")
	}
	return requireRow(res)
}

// GetTicket returns the ticket with id.
func (s *Store) GetTicket(ctx context.Context, id int64) (models.Ticket, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE id = ?", id)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ticket{}, ErrNotFound
	}
	return t, err
}

// DeleteTicket removes the ticket with id.
func (s *Store) DeleteTicket(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tickets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	return requireRow(res)
}

// FindTickets returns the tickets matching q and the number of matches
// before paging.
func (s *Store) FindTickets(ctx context.Context, q TicketQuery) ([]models.Ticket, int64, error) {
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "id"
	}
	column, ok := ticketSortColumns[sortBy]
	if !ok {
		return nil, 0, fmt.Errorf("unknown sort field %q", sortBy)
	}
	where, args := q.Filter.where()

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM tickets"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	query := "SELECT " + ticketColumns + " FROM tickets" + where +
		" ORDER BY " + column + " " + dir + ", id " + dir
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	tickets := []models.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("query tickets: %w", err)
	}
	return tickets, total, nil
}

// CountTicketsByStatus returns the number of tickets per status.
func (s *Store) CountTicketsByStatus(ctx context.Context) (map[string]int64, error) {
	return s.countTicketsBy(ctx, "status")
}

// CountTicketsByType returns the number of tickets per RICEFW type.
func (s *Store) CountTicketsByType(ctx context.Context) (map[string]int64, error) {
	return s.countTicketsBy(ctx, "ricefw_type")
}

// countTicketsBy groups on column, one of the two constants above.
func (s *Store) countTicketsBy(ctx context.Context, column string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+column+", COUNT(1) FROM tickets GROUP BY "+column)
	if err != nil {
		return nil, fmt.Errorf("count tickets by %s: %w", column, err)
	}
	defer rows.Close() // nolint:errcheck

	out := map[string]int64{}
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("count tickets by %s: %w", column, err)
		}
		out[key] = n
	}
	return out, rows.Err()
}

// CreateConfiguration inserts c and sets its ID.
func (s *Store) CreateConfiguration(ctx context.Context, c *models.Configuration) error {
	active := c.Active == nil || *c.Active
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO configurations (name, jira_url, project_key, project_name, username, api_token,
			default_issue_type, active, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.JiraURL, c.ProjectKey, c.ProjectName, c.Username, c.APIToken,
		c.DefaultIssueType, active, c.Description, c.CreatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "configurations.name") {
			return ErrConfigurationNameTaken
		}
		return fmt.Errorf("create configuration: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read configuration id: %w", err)
	}
	c.ID = id
	c.Active = &active
	return nil
}

// ListConfigurations returns the saved configurations ordered by name.
func (s *Store) ListConfigurations(ctx context.Context, activeOnly bool) ([]models.Configuration, error) {
	query := `SELECT id, name, jira_url, project_key, project_name, username, api_token,
		default_issue_type, active, description, created_at FROM configurations`
	if activeOnly {
		query += " WHERE active = 1"
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query configurations: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	out := []models.Configuration{}
	for rows.Next() {
		var (
			c         models.Configuration
			active    bool
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.JiraURL, &c.ProjectKey, &c.ProjectName, &c.Username, &c.APIToken,
			&c.DefaultIssueType, &active, &c.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan configuration: %w", err)
		}
		c.Active = &active
		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// where renders the filter as a WHERE clause with its arguments.
func (f TicketFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Title != "" {
		conds = append(conds, `LOWER(title) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Title))
	}
	if f.RicefwType != "" {
		conds = append(conds, "ricefw_type = ?")
		args = append(args, f.RicefwType)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Assignee != "" {
		conds = append(conds, `LOWER(assignee) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Assignee))
	}
	if f.AssigneeIs != "" {
		conds = append(conds, "assignee = ?")
		args = append(args, f.AssigneeIs)
	}
	if f.DueBefore != "" {
		conds = append(conds, "due_date IS NOT NULL AND due_date < ?")
		args = append(args, f.DueBefore)
	}
	if len(f.StatusNotIn) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(f.StatusNotIn)), ", ")
		conds = append(conds, "status NOT IN ("+marks+")")
		for _, st := range f.StatusNotIn {
			args = append(args, st)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// likePattern matches s as a lower-cased substring with LIKE wildcards escaped.
func likePattern(s string) string {
	esc := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + esc.Replace(strings.ToLower(s)) + "%"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (models.Ticket, error) {
	var (
		t                    models.Ticket
		jiraKey              sql.NullString
		estimated, actual    sql.NullFloat64
		dueDate, completion  sql.NullString
		labels, components   string
		createdAt, updatedAt int64
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.RicefwType, &t.Status, &t.Priority, &jiraKey, &t.JiraTicketID,
		&t.Assignee, &t.Reporter, &t.BusinessRequirement, &t.TechnicalSpecification, &t.TestCases,
		&t.DeploymentInstructions, &t.ImpactAnalysis, &estimated, &actual, &dueDate, &completion,
		&labels, &components, &t.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Ticket{}, err
		}
		return models.Ticket{}, fmt.Errorf("scan ticket: %w", err)
	}

	t.JiraTicketKey = jiraKey.String
	t.EstimatedHours = floatOrNil(estimated)
	t.ActualHours = floatOrNil(actual)
	t.DueDate = dueDate.String
	t.CompletionDate = completion.String
	if err := json.Unmarshal([]byte(labels), &t.Labels); err != nil {
		return models.Ticket{}, fmt.Errorf("decode labels of ticket %d: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(components), &t.Components); err != nil {
		return models.Ticket{}, fmt.Errorf("decode components of ticket %d: %w", t.ID, err)
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return t, nil
}

func encodeLists(t *models.Ticket) (string, string, error) {
	labels, err := json.Marshal(nonNilStrings(t.Labels))
	if err != nil {
		return "", "", fmt.Errorf("encode labels: %w", err)
	}
	components, err := json.Marshal(nonNilStrings(t.Components))
	if err != nil {
		return "", "", fmt.Errorf("encode components: %w", err)
	}
	return string(labels), string(components), nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func floatOrNil(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// ticketConflict maps the unique JIRA key constraint to ErrTicketKeyTaken.
func ticketConflict(err error, op string) error {
	if strings.Contains(err.Error(), "tickets.jira_ticket_key") {
		return ErrTicketKeyTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}
