package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert Agile coach. You turn feature descriptions into " +
	"Gherkin user stories and answer with a single JSON object, nothing else."

// BuildPrompt renders the generation instruction shared by both remote
// providers.
func BuildPrompt(input GenerateInput) string {
	var b strings.Builder
	b.WriteString("Generate a user story in Gherkin format for the following feature.\n\n")
	fmt.Fprintf(&b, "Feature description: %s\n", input.Description)
	if input.ProjectContext != "" {
		fmt.Fprintf(&b, "Project context: %s\n", input.ProjectContext)
	}
	fmt.Fprintf(&b, "Story type: %s\n", input.StoryType)
	fmt.Fprintf(&b, "Complexity: %s\n", input.Complexity)
	b.WriteString(`
Respond with a JSON object of this exact shape:
{
  "title": "short story title",
  "gherkin": "Feature: ...\n  As a ...\n  Scenario: ...\n    Given ...\n    When ...\n    Then ...",
  "acceptance_criteria": ["criterion", "..."],
  "estimated_points": 5
}
estimated_points must be one of 1, 2, 3, 5, 8, 13.`)
	return b.String()
}

// ParseDraft extracts the JSON draft from a completion. Models tend to
// wrap JSON in markdown fences or prose, so it scans for the outermost
// object.
func ParseDraft(completion string) (*Draft, error) {
	raw := strings.TrimSpace(completion)
	if raw == "" {
		return nil, ErrEmptyCompletion
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion")
	}

	var draft Draft
	if err := json.Unmarshal([]byte(raw[start:end+1]), &draft); err != nil {
		return nil, fmt.Errorf("parse draft json failed: %w", err)
	}
	if strings.TrimSpace(draft.Gherkin) == "" {
		return nil, fmt.Errorf("draft missing gherkin content")
	}
	return &draft, nil
}
