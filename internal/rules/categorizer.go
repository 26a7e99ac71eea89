// Package rules assigns categories to uncategorized transactions by
// keyword matching against the note text.
package rules

import "strings"

type Rule struct {
	Keyword  string
	Category string
}

type Categorizer struct {
	rules []Rule
}

func New(rules []Rule) *Categorizer {
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Keyword == "" || r.Category == "" {
			continue
		}
		r.Keyword = strings.ToLower(r.Keyword)
		normalized = append(normalized, r)
	}
	return &Categorizer{rules: normalized}
}

// Default returns the built-in ruleset used when no user rules exist.
func Default() *Categorizer {
	return New([]Rule{
		{Keyword: "grocery", Category: "Groceries"},
		{Keyword: "supermarket", Category: "Groceries"},
		{Keyword: "restaurant", Category: "Food"},
		{Keyword: "lunch", Category: "Food"},
		{Keyword: "dinner", Category: "Food"},
		{Keyword: "coffee", Category: "Food"},
		{Keyword: "uber", Category: "Transport"},
		{Keyword: "taxi", Category: "Transport"},
		{Keyword: "fuel", Category: "Transport"},
		{Keyword: "gas station", Category: "Transport"},
		{Keyword: "rent", Category: "Housing"},
		{Keyword: "mortgage", Category: "Housing"},
		{Keyword: "electric", Category: "Utilities"},
		{Keyword: "water bill", Category: "Utilities"},
		{Keyword: "internet", Category: "Utilities"},
		{Keyword: "pharmacy", Category: "Health"},
		{Keyword: "doctor", Category: "Health"},
		{Keyword: "gym", Category: "Health"},
		{Keyword: "netflix", Category: "Subscriptions"},
		{Keyword: "spotify", Category: "Subscriptions"},
		{Keyword: "cinema", Category: "Entertainment"},
		{Keyword: "salary", Category: "Salary"},
		{Keyword: "payroll", Category: "Salary"},
	})
}

// Categorize returns the category of the first rule whose keyword
// appears in the note, or "" when nothing matches. Matching is
// case-insensitive.
func (c *Categorizer) Categorize(note string) string {
	if note == "" {
		return ""
	}
	lowered := strings.ToLower(note)
	for _, r := range c.rules {
		if strings.Contains(lowered, r.Keyword) {
			return r.Category
		}
	}
	return ""
}
