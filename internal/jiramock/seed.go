package jiramock

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is the initial content of a fake site.
type Seed struct {
	Email       string           `yaml:"email"`    // expected Basic user, empty accepts any
	APIToken    string           `yaml:"apiToken"` // expected Basic password
	Projects    []SeedProject    `yaml:"projects"`
	Issues      []SeedIssue      `yaml:"issues"`
	Transitions []SeedTransition `yaml:"transitions"`
}

// SeedProject is a project of the fake site.
type SeedProject struct {
	ID             string `yaml:"id"`
	Key            string `yaml:"key"`
	Name           string `yaml:"name"`
	ProjectTypeKey string `yaml:"projectTypeKey"`
}

// SeedIssue is an issue; its project is taken from the key prefix.
type SeedIssue struct {
	Key       string   `yaml:"key"`
	Summary   string   `yaml:"summary"`
	Status    string   `yaml:"status"`
	Priority  string   `yaml:"priority"`
	IssueType string   `yaml:"issueType"`
	Assignee  string   `yaml:"assignee"`
	Labels    []string `yaml:"labels"`
}

// SeedTransition is offered on every issue.
type SeedTransition struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	To   string `yaml:"to"`
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	return seed, nil
}

// DemoSeed is a small site with two "acme" projects and three issues.
func DemoSeed() Seed {
	return Seed{
		Email:    "alice@acme.com",
		APIToken: "jira-token",
		Projects: []SeedProject{
			{ID: "10000", Key: "ACME", Name: "Acme Core", ProjectTypeKey: "software"},
			{ID: "10001", Key: "ACMEHR", Name: "Acme HR", ProjectTypeKey: "business"},
			{ID: "10002", Key: "OPS", Name: "Operations", ProjectTypeKey: "software"},
		},
		Issues: []SeedIssue{
			{Key: "ACME-1", Summary: "Payroll export", Status: "To Do", Priority: "High", IssueType: "Task", Assignee: "Jane Doe", Labels: []string{"Enhancement", "backend"}},
			{Key: "ACME-2", Summary: "Vendor master feed", Status: "In Progress", Priority: "Medium", IssueType: "Story", Labels: []string{"Report", "x"}},
			{Key: "ACME-3", Summary: "Invoice form layout", Status: "To Do", Priority: "High", IssueType: "Task", Assignee: "John Roe"},
		},
		Transitions: []SeedTransition{
			{ID: "11", Name: "Start Progress", To: "In Progress"},
			{ID: "31", Name: "Done", To: "Done"},
		},
	}
}
