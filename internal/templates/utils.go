package templates

import (
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/fatih/color"
	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/ricefw"
)

// jiraTimeLayout is the timestamp format of the JIRA REST API.
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

// categoryColors mirrors the badge colors of the board.
var categoryColors = map[ricefw.Category][]color.Attribute{
	ricefw.Report:        {color.FgBlue, color.Bold},
	ricefw.Interface:     {color.FgGreen, color.Bold},
	ricefw.Conversion:    {color.FgYellow, color.Bold},
	ricefw.Enhancement:   {color.FgMagenta, color.Bold},
	ricefw.Form:          {color.FgCyan, color.Bold},
	ricefw.Workflow:      {color.FgRed, color.Bold},
	ricefw.Uncategorized: {color.FgHiBlack},
}

// priorityColors follows the JIRA priority scale.
var priorityColors = map[string]color.Attribute{
	"blocker":  color.FgRed,
	"highest":  color.FgRed,
	"critical": color.FgRed,
	"high":     color.FgHiRed,
	"medium":   color.FgYellow,
	"low":      color.FgGreen,
	"lowest":   color.FgHiBlack,
}

// TemplateFuncMap returns all helper functions for templates. Without
// colorize the badge helpers return plain text.
func TemplateFuncMap(colorize bool) template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["formatJiraDate"] = formatJiraDate
	fm["category"] = issueCategory
	fm["categories"] = allCategories
	fm["assignee"] = assigneeName
	fm["badge"] = func(c ricefw.Category) string {
		return paint(colorize, fmtBadge(c), categoryColors[c]...)
	}
	fm["priority"] = func(name string) string {
		attr, ok := priorityColors[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return name
		}
		return paint(colorize, name, attr)
	}
	fm["faint"] = func(s string) string {
		return paint(colorize, s, color.FgHiBlack)
	}
	return fm
}

func paint(colorize bool, s string, attrs ...color.Attribute) string {
	if len(attrs) == 0 {
		return s
	}
	c := color.New(attrs...)
	if colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

// fmtBadge pads the category so badges line up in listings.
func fmtBadge(c ricefw.Category) string {
	return "[" + c.String() + "]" + strings.Repeat(" ", max(0, len(ricefw.Uncategorized)-len(c)))
}

// issueCategory derives the RICEFW category of an issue.
func issueCategory(i models.Issue) ricefw.Category {
	return ricefw.DeriveCategory(i.Labels)
}

// allCategories lists every category, Uncategorized last.
func allCategories() []ricefw.Category {
	return append(append([]ricefw.Category{}, ricefw.Categories...), ricefw.Uncategorized)
}

// assigneeName returns the display name or "Unassigned".
func assigneeName(i models.Issue) string {
	if name := i.AssigneeName(); name != "" {
		return name
	}
	return "Unassigned"
}

// formatJiraDate parses a Jira timestamp and returns it formatted using the provided layout.
// If parsing fails, the original string is returned.
func formatJiraDate(input, layout string) string {
	normalized := strings.Replace(input, "Z", "+0000", 1) // normalize timezone
	if parsed, err := time.Parse(jiraTimeLayout, normalized); err == nil {
		return parsed.Format(layout)
	}
	if parsed, err := time.Parse(time.RFC3339, input); err == nil {
		return parsed.Format(layout)
	}
	return input
}
