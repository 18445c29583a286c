// Package tracker manages RICEFW tickets and saved JIRA configurations.
package tracker

import (
	"fmt"
	"strings"

	"github.com/gi8lino/ricefwboard/internal/ricefw"
)

// DateLayout is the format of ticket due and completion dates.
const DateLayout = "2006-01-02"

// Status is the lifecycle state of a ticket.
type Status string

const (
	Draft         Status = "DRAFT"
	Submitted     Status = "SUBMITTED"
	InReview      Status = "IN_REVIEW"
	Approved      Status = "APPROVED"
	InDevelopment Status = "IN_DEVELOPMENT"
	Testing       Status = "TESTING"
	Deployed      Status = "DEPLOYED"
	Closed        Status = "CLOSED"
	Cancelled     Status = "CANCELLED"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{Draft, Submitted, InReview, Approved, InDevelopment, Testing, Deployed, Closed, Cancelled}

// finished statuses never count as overdue.
var finished = []Status{Closed, Cancelled}

// DisplayName returns "In Review" for IN_REVIEW.
func (s Status) DisplayName() string { return displayName(string(s)) }

// ParseStatus accepts a status code or its display name, case-insensitively.
func ParseStatus(s string) (Status, error) {
	code := enumCode(s)
	for _, st := range Statuses {
		if string(st) == code {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Priority is the urgency of a ticket.
type Priority string

const (
	Low      Priority = "LOW"
	Medium   Priority = "MEDIUM"
	High     Priority = "HIGH"
	Critical Priority = "CRITICAL"
	Blocker  Priority = "BLOCKER"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{Low, Medium, High, Critical, Blocker}

// Level is 1 for LOW up to 5 for BLOCKER, 0 when unknown.
func (p Priority) Level() int {
	for i, pr := range Priorities {
		if pr == p {
			return i + 1
		}
	}
	return 0
}

// DisplayName returns "Critical" for CRITICAL.
func (p Priority) DisplayName() string { return displayName(string(p)) }

// ParsePriority accepts a priority code or its display name, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	code := enumCode(s)
	for _, p := range Priorities {
		if string(p) == code {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// typeCodes are the one-letter abbreviations of the RICEFW types.
var typeCodes = map[string]ricefw.Category{
	"R": ricefw.Report,
	"I": ricefw.Interface,
	"C": ricefw.Conversion,
	"E": ricefw.Enhancement,
	"F": ricefw.Form,
	"W": ricefw.Workflow,
}

// ParseType accepts a RICEFW category name or its one-letter code.
// Uncategorized is not a ticket type.
func ParseType(s string) (ricefw.Category, error) {
	s = strings.TrimSpace(s)
	if c, ok := typeCodes[strings.ToUpper(s)]; ok {
		return c, nil
	}
	c, err := ricefw.ParseCategory(s)
	if err != nil || c == ricefw.Uncategorized {
		return "", fmt.Errorf("unknown RICEFW type %q", s)
	}
	return c, nil
}

// enumCode turns "in review" or "In-Review" into "IN_REVIEW".
func enumCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func displayName(code string) string {
	words := strings.Split(strings.ToLower(code), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
