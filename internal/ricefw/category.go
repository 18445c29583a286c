// Package ricefw derives RICEFW categories from JIRA labels and filters issue lists.
package ricefw

import (
	"fmt"
	"slices"
	"strings"
)

// Category is one of the six RICEFW classes or Uncategorized.
type Category string

const (
	Report        Category = "Report"
	Interface     Category = "Interface"
	Conversion    Category = "Conversion"
	Enhancement   Category = "Enhancement"
	Form          Category = "Form"
	Workflow      Category = "Workflow"
	Uncategorized Category = "Uncategorized"
)

// Categories lists the RICEFW set in canonical order. Uncategorized is not a member.
var Categories = []Category{Report, Interface, Conversion, Enhancement, Form, Workflow}

// String implements fmt.Stringer.
func (c Category) String() string { return string(c) }

// Valid reports whether c is a RICEFW category or Uncategorized.
func (c Category) Valid() bool {
	return c == Uncategorized || IsCategoryLabel(string(c))
}

// IsCategoryLabel reports whether label is exactly one of the RICEFW categories.
func IsCategoryLabel(label string) bool {
	return slices.Contains(Categories, Category(label))
}

// ParseCategory returns the canonical category matching s case-insensitively.
// An empty string parses as Uncategorized.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Uncategorized, nil
	}
	if strings.EqualFold(s, string(Uncategorized)) {
		return Uncategorized, nil
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown RICEFW category %q", s)
}

// DeriveCategory returns the first label, in array order, that belongs to the
// RICEFW set. Labels without any match yield Uncategorized.
func DeriveCategory(labels []string) Category {
	for _, l := range labels {
		if IsCategoryLabel(l) {
			return Category(l)
		}
	}
	return Uncategorized
}

// ReplaceCategory strips every RICEFW label and appends c unless it is
// Uncategorized. Other labels keep their order. The input is not modified.
func ReplaceCategory(labels []string, c Category) []string {
	out := make([]string, 0, len(labels)+1)
	for _, l := range labels {
		if !IsCategoryLabel(l) {
			out = append(out, l)
		}
	}
	if c != Uncategorized && c != "" {
		out = append(out, string(c))
	}
	return out
}

// ComposeLabels builds the label set of a new issue: the category first
// (unless Uncategorized), then the comma-separated additional labels, trimmed.
func ComposeLabels(c Category, additional string) []string {
	out := []string{}
	if c != Uncategorized && c != "" {
		out = append(out, string(c))
	}
	for l := range strings.SplitSeq(additional, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
