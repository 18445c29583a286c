package jira

import (
	"time"

	gojira "github.com/andygrunwald/go-jira"
	"github.com/gi8lino/ricefwboard/internal/models"
)

// timeLayout is the timestamp format of the JIRA REST API.
const timeLayout = "2006-01-02T15:04:05.000-0700"

// toModel flattens a go-jira issue into the API representation.
func toModel(issue gojira.Issue) models.Issue {
	out := models.Issue{
		ID:     issue.ID,
		Key:    issue.Key,
		Self:   issue.Self,
		Labels: []string{},
	}
	f := issue.Fields
	if f == nil {
		return out
	}

	out.Summary = f.Summary
	out.IssueType = models.Named{ID: f.Type.ID, Name: f.Type.Name}
	if f.Status != nil {
		out.Status = models.Named{ID: f.Status.ID, Name: f.Status.Name}
	}
	if f.Priority != nil {
		out.Priority = models.Named{ID: f.Priority.ID, Name: f.Priority.Name}
	}
	if f.Assignee != nil {
		out.Assignee = &models.Person{
			AccountID:    f.Assignee.AccountID,
			DisplayName:  f.Assignee.DisplayName,
			EmailAddress: f.Assignee.EmailAddress,
		}
	}
	if f.Labels != nil {
		out.Labels = f.Labels
	}
	out.Created = formatTime(time.Time(f.Created))
	out.Updated = formatTime(time.Time(f.Updated))
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
