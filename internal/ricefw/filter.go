package ricefw

import (
	"slices"
	"sort"
	"strings"

	"github.com/gi8lino/ricefwboard/internal/models"
)

// FilterSet is the ephemeral filter state of an issue board. Empty fields are ignored.
type FilterSet struct {
	Status     string   `json:"status,omitempty"`
	Priority   string   `json:"priority,omitempty"`
	Assignee   string   `json:"assignee,omitempty"`
	Category   Category `json:"ricefwCategory,omitempty"`
	IssueType  string   `json:"issueType,omitempty"`
	SearchText string   `json:"searchText,omitempty"`
}

// IsEmpty reports whether no predicate is set.
func (f FilterSet) IsEmpty() bool {
	return f == FilterSet{}
}

// ApplyFilters returns the issues matching every non-empty predicate of f.
// The result is always a fresh slice; the input is never modified.
func ApplyFilters(issues []models.Issue, f FilterSet) []models.Issue {
	if f.IsEmpty() {
		return slices.Clone(issues)
	}

	assignee := strings.ToLower(f.Assignee)
	search := strings.ToLower(f.SearchText)

	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if f.Status != "" && issue.Status.Name != f.Status {
			continue
		}
		if f.Priority != "" && issue.Priority.Name != f.Priority {
			continue
		}
		if assignee != "" && (issue.Assignee == nil || !strings.Contains(strings.ToLower(issue.Assignee.DisplayName), assignee)) {
			continue
		}
		if f.Category != "" && !matchesCategory(issue.Labels, f.Category) {
			continue
		}
		if f.IssueType != "" && issue.IssueType.Name != f.IssueType {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(issue.Summary), search) &&
			!strings.Contains(strings.ToLower(issue.Key), search) {
			continue
		}
		out = append(out, issue)
	}
	return out
}

// matchesCategory treats Uncategorized as the absence of any RICEFW label.
func matchesCategory(labels []string, c Category) bool {
	if c == Uncategorized {
		return DeriveCategory(labels) == Uncategorized
	}
	return slices.Contains(labels, string(c))
}

// FilterOptions are the distinct values present in an issue list, sorted.
type FilterOptions struct {
	Statuses   []string `json:"statuses"`
	Priorities []string `json:"priorities"`
	Assignees  []string `json:"assignees"`
	IssueTypes []string `json:"issueTypes"`
}

// Options collects the distinct filterable values of issues.
func Options(issues []models.Issue) FilterOptions {
	statuses := map[string]struct{}{}
	priorities := map[string]struct{}{}
	assignees := map[string]struct{}{}
	types := map[string]struct{}{}

	for _, issue := range issues {
		addNonEmpty(statuses, issue.Status.Name)
		addNonEmpty(priorities, issue.Priority.Name)
		addNonEmpty(assignees, issue.AssigneeName())
		addNonEmpty(types, issue.IssueType.Name)
	}

	return FilterOptions{
		Statuses:   sortedKeys(statuses),
		Priorities: sortedKeys(priorities),
		Assignees:  sortedKeys(assignees),
		IssueTypes: sortedKeys(types),
	}
}

// Counts returns how many issues fall into each category, Uncategorized included.
func Counts(issues []models.Issue) map[Category]int {
	out := make(map[Category]int, len(Categories)+1)
	for _, issue := range issues {
		out[DeriveCategory(issue.Labels)]++
	}
	return out
}

func addNonEmpty(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
