package templates

import (
	"embed"
	"fmt"
	"io"
	"text/template"

	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/ricefw"
)

//go:embed text/*.tmpl
var textFS embed.FS

// Renderer writes command output through the embedded text templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer(colorize bool) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(TemplateFuncMap(colorize)).ParseFS(textFS, "text/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the template name with data.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// ProjectsView is the data of the "projects" template.
type ProjectsView struct {
	Domain string
	Values []models.Project
	Total  int
}

// IssuesView is the data of the "issues" template. Counts is optional.
type IssuesView struct {
	Project string
	Issues  []models.Issue
	Total   int
	Counts  map[ricefw.Category]int
}

// TicketsView is the data of the "tickets" template.
type TicketsView struct {
	Tickets []models.Ticket
	Footer  string
}

// TicketStatsView is the data of the "ticketstats" template.
type TicketStatsView struct {
	ByStatus map[string]int64
	ByType   map[string]int64
}

// TransitionsView is the data of the "transitions" template.
type TransitionsView struct {
	Key         string
	Transitions []models.Transition
}
