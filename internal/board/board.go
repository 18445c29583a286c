// Package board holds the issue list of one project together with the
// active filters and the RICEFW mutations applied to it.
package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/gi8lino/ricefwboard/internal/apiclient"
	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/ricefw"
)

var (
	// ErrNotReady is returned by mutations while the board is loading or failed.
	ErrNotReady = errors.New("board is not ready")
	// ErrInvalidForm marks create-issue input rejected before any request.
	ErrInvalidForm = errors.New("invalid issue form")
	// ErrUnknownIssue is returned when an issue key is not on the board.
	ErrUnknownIssue = errors.New("issue not on board")
)

// State is the lifecycle of a board.
type State int

const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IssueAPI is what the board needs from the API client.
type IssueAPI interface {
	ListIssues(ctx context.Context, projectKey string) (models.IssueList, error)
	CreateIssue(ctx context.Context, projectKey string, req models.CreateIssueRequest) (models.Issue, error)
	UpdateLabels(ctx context.Context, issueKey, category string) (models.LabelUpdate, error)
}

// IssueForm is the create-issue input. Labels is a comma separated list.
type IssueForm struct {
	Summary       string
	Description   string
	IssueTypeName string
	PriorityName  string
	Category      string
	Labels        string
}

// Board is the issue list of one project. Safe for concurrent use.
type Board struct {
	api        IssueAPI
	projectKey string

	mu       sync.RWMutex
	state    State
	err      error
	issues   []models.Issue
	filters  ricefw.FilterSet
	filtered []models.Issue
}

// New returns a board in the Loading state.
func New(api IssueAPI, projectKey string) *Board {
	return &Board{api: api, projectKey: projectKey, state: Loading}
}

// ProjectKey returns the key of the project shown on the board.
func (b *Board) ProjectKey() string { return b.projectKey }

// Load fetches the issues. The board ends Ready on success and Failed otherwise.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	b.state = Loading
	b.err = nil
	b.mu.Unlock()

	list, err := b.api.ListIssues(ctx, b.projectKey)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.state = Failed
		b.err = err
		b.issues = nil
		b.filtered = nil
		return fmt.Errorf("load issues of %s: %w", b.projectKey, err)
	}
	b.state = Ready
	b.issues = slices.Clone(list.Issues)
	b.recompute()
	return nil
}

// State returns the current lifecycle state.
func (b *Board) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Err returns the load failure, if any.
func (b *Board) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

// ErrorMessage returns a user-facing message for the load failure.
func (b *Board) ErrorMessage() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.err == nil {
		return ""
	}
	return apiclient.Message(b.err, "Failed to load issues")
}

// Issues returns a copy of all loaded issues.
func (b *Board) Issues() []models.Issue {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.issues)
}

// Filtered returns a copy of the issues matching the active filters.
func (b *Board) Filtered() []models.Issue {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.filtered)
}

// Filters returns the active filter set.
func (b *Board) Filters() ricefw.FilterSet {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filters
}

// SetFilters replaces the filter set and recomputes the filtered view.
func (b *Board) SetFilters(f ricefw.FilterSet) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filters = f
	b.recompute()
}

// ClearFilters resets every filter.
func (b *Board) ClearFilters() {
	b.SetFilters(ricefw.FilterSet{})
}

// Options returns the distinct values available for the filter pickers.
func (b *Board) Options() ricefw.FilterOptions {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ricefw.Options(b.issues)
}

// Counts returns the number of loaded issues per category.
func (b *Board) Counts() map[ricefw.Category]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ricefw.Counts(b.issues)
}

// UpdateCategory stores the category in JIRA, then merges it into the local labels.
func (b *Board) UpdateCategory(ctx context.Context, issueKey, category string) error {
	c, err := ricefw.ParseCategory(category)
	if err != nil {
		return err
	}

	b.mu.RLock()
	ready := b.state == Ready
	known := b.indexOf(issueKey) >= 0
	b.mu.RUnlock()
	if !ready {
		return ErrNotReady
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownIssue, issueKey)
	}

	if _, err := b.api.UpdateLabels(ctx, issueKey, c.String()); err != nil {
		return fmt.Errorf("update category of %s: %w", issueKey, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// The issue may have vanished through a concurrent reload.
	if i := b.indexOf(issueKey); i >= 0 {
		b.issues[i].Labels = ricefw.ReplaceCategory(b.issues[i].Labels, c)
	}
	b.recompute()
	return nil
}

// CreateIssue validates the form, creates the issue and prepends it to the board.
func (b *Board) CreateIssue(ctx context.Context, form IssueForm) (models.Issue, error) {
	summary := strings.TrimSpace(form.Summary)
	if summary == "" {
		return models.Issue{}, fmt.Errorf("%w: summary is required", ErrInvalidForm)
	}
	if strings.TrimSpace(form.Category) == "" {
		return models.Issue{}, fmt.Errorf("%w: RICEFW category is required", ErrInvalidForm)
	}
	c, err := ricefw.ParseCategory(form.Category)
	if err != nil {
		return models.Issue{}, fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}
	if b.State() != Ready {
		return models.Issue{}, ErrNotReady
	}

	req := models.CreateIssueRequest{
		Summary:       summary,
		Description:   strings.TrimSpace(form.Description),
		IssueTypeName: strings.TrimSpace(form.IssueTypeName),
		PriorityName:  strings.TrimSpace(form.PriorityName),
		Labels:        ricefw.ComposeLabels(c, form.Labels),
	}
	issue, err := b.api.CreateIssue(ctx, b.projectKey, req)
	if err != nil {
		return models.Issue{}, fmt.Errorf("create issue in %s: %w", b.projectKey, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.issues = slices.Insert(b.issues, 0, issue)
	b.recompute()
	return issue, nil
}

// indexOf must be called with mu held.
func (b *Board) indexOf(key string) int {
	return slices.IndexFunc(b.issues, func(i models.Issue) bool { return i.Key == key })
}

// recompute must be called with mu held for writing.
func (b *Board) recompute() {
	b.filtered = ricefw.ApplyFilters(b.issues, b.filters)
}
