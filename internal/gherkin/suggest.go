package gherkin

import "strings"

// Suggestions groups improvement hints for a feature description.
type Suggestions struct {
	Suggestions []string            `json:"suggestions"`
	Categories  map[string][]string `json:"suggestion_categories"`
}

var suggestionRules = []struct {
	category string
	keywords []string
	absent   bool // fire when none of the keywords appear
	hints    []string
}{
	{
		category: "clarity",
		keywords: []string{"as a", "i want", "so that"},
		absent:   true,
		hints: []string{
			"State the user role explicitly, e.g. 'As an administrator ...'",
			"Describe the benefit, not only the mechanism ('so that ...')",
		},
	},
	{
		category: "error-handling",
		keywords: []string{"error", "fail", "invalid", "reject"},
		absent:   true,
		hints: []string{
			"Describe what should happen on invalid input or failure",
		},
	},
	{
		category: "security",
		keywords: []string{"auth", "login", "password", "payment", "personal"},
		hints: []string{
			"Mention authentication and authorization expectations",
			"Consider rate limiting and audit logging requirements",
		},
	},
	{
		category: "scope",
		keywords: []string{"everything", "all features", "complete system"},
		hints: []string{
			"Split the description into smaller, independently testable stories",
		},
	},
}

// Suggest scans the description and returns keyword-driven hints. The
// flat list preserves category order.
func Suggest(description string) Suggestions {
	lower := strings.ToLower(description)

	out := Suggestions{
		Suggestions: []string{},
		Categories:  map[string][]string{},
	}

	for _, rule := range suggestionRules {
		matched := containsAny(lower, rule.keywords...)
		if rule.absent {
			matched = !matched
		}
		if !matched {
			continue
		}
		out.Categories[rule.category] = rule.hints
		out.Suggestions = append(out.Suggestions, rule.hints...)
	}

	if len(strings.Fields(description)) < 6 {
		hint := "Add more detail: short descriptions produce generic stories"
		out.Categories["detail"] = []string{hint}
		out.Suggestions = append(out.Suggestions, hint)
	}

	return out
}
