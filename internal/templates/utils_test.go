package templates

import (
	"testing"
	"text/template"
	"time"

	"github.com/gi8lino/ricefwboard/internal/models"
	"github.com/gi8lino/ricefwboard/internal/ricefw"

	"github.com/stretchr/testify/assert"
)

func TestTemplateFuncMap(t *testing.T) {
	t.Parallel()

	t.Run("contains required helper functions", func(t *testing.T) {
		t.Parallel()

		funcs := TemplateFuncMap(false)
		for _, name := range []string{"formatJiraDate", "category", "categories", "assignee", "badge", "priority", "faint"} {
			assert.Contains(t, funcs, name)
		}
		assert.IsType(t, func(string, string) string { return "" }, funcs["formatJiraDate"])
	})

	t.Run("includes sprig helpers", func(t *testing.T) {
		t.Parallel()

		funcs := TemplateFuncMap(false)
		assert.Contains(t, funcs, "upper")
		assert.Contains(t, funcs, "trunc")
	})

	t.Run("can be used to build a valid template", func(t *testing.T) {
		t.Parallel()

		tmpl := template.New("test").Funcs(TemplateFuncMap(false))
		_, err := tmpl.Parse(`{{define "t"}}{{"hello" | upper}}{{end}}`)
		assert.NoError(t, err)
	})

	t.Run("plain badge", func(t *testing.T) {
		t.Parallel()

		badge := TemplateFuncMap(false)["badge"].(func(ricefw.Category) string)
		assert.Equal(t, "[Interface]    ", badge(ricefw.Interface))
		assert.Equal(t, "[Uncategorized]", badge(ricefw.Uncategorized))
	})

	t.Run("colored priority", func(t *testing.T) {
		t.Parallel()

		priority := TemplateFuncMap(true)["priority"].(func(string) string)
		assert.Contains(t, priority("High"), "\x1b[")
		assert.Contains(t, priority("High"), "High")
		assert.Equal(t, "Blocker", priority("Blocker"))

		plain := TemplateFuncMap(false)["priority"].(func(string) string)
		assert.Equal(t, "High", plain("High"))
	})
}

func TestIssueHelpers(t *testing.T) {
	t.Parallel()

	is := models.Issue{Labels: []string{"backend", "Form"}}
	assert.Equal(t, ricefw.Form, issueCategory(is))
	assert.Equal(t, "Unassigned", assigneeName(is))

	is.Assignee = &models.Person{DisplayName: "Jane Doe"}
	assert.Equal(t, "Jane Doe", assigneeName(is))

	cats := allCategories()
	assert.Len(t, cats, 7)
	assert.Equal(t, ricefw.Uncategorized, cats[6])
	assert.Len(t, ricefw.Categories, 6)
}

func TestFormatJiraDate(t *testing.T) {
	t.Parallel()

	t.Run("formats valid Jira timestamp", func(t *testing.T) {
		t.Parallel()
		out := formatJiraDate("2023-08-01T14:30:00.000Z", "2006-01-02 15:04")
		assert.Equal(t, "2023-08-01 14:30", out)
	})

	t.Run("formats offset timestamp", func(t *testing.T) {
		t.Parallel()
		out := formatJiraDate("2024-01-01T10:00:00.000+0000", "2006-01-02")
		assert.Equal(t, "2024-01-01", out)
	})

	t.Run("formats RFC3339", func(t *testing.T) {
		t.Parallel()
		out := formatJiraDate("2024-01-01T10:00:00Z", "15:04")
		assert.Equal(t, "10:00", out)
	})

	t.Run("returns input on invalid timestamp", func(t *testing.T) {
		t.Parallel()
		out := formatJiraDate("invalid-date", time.RFC822)
		assert.Equal(t, "invalid-date", out)
	})
}
