// Package gherkin generates, validates, and critiques Gherkin user
// stories without calling any external model. It is the fallback path
// when no AI provider is configured or a provider call fails.
package gherkin

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"autodevhub/internal/ai"
)

type scenario struct {
	name  string
	given string
	when  string
	then  string
}

type featurePattern struct {
	keywords  []string
	feature   string
	scenarios []scenario
}

var featurePatterns = map[string]featurePattern{
	"authentication": {
		keywords: []string{"auth", "login", "register", "sign", "password", "token"},
		feature:  "User Authentication",
		scenarios: []scenario{
			{
				name:  "Successful authentication",
				given: "I am on the login page",
				when:  "I enter valid credentials",
				then:  "I should be logged in successfully",
			},
			{
				name:  "Invalid credentials",
				given: "I am on the login page",
				when:  "I enter invalid credentials",
				then:  "I should see an error message",
			},
		},
	},
	"crud": {
		keywords: []string{"create", "add", "edit", "update", "delete", "remove", "manage"},
		feature:  "Data Management",
		scenarios: []scenario{
			{
				name:  "Create new item",
				given: "I am on the management page",
				when:  "I create a new item with valid information",
				then:  "the item should be saved successfully",
			},
			{
				name:  "Update existing item",
				given: "I have an existing item",
				when:  "I update the item information",
				then:  "the changes should be saved",
			},
		},
	},
	"api": {
		keywords: []string{"api", "endpoint", "service", "rest", "graphql"},
		feature:  "API Integration",
		scenarios: []scenario{
			{
				name:  "Successful API call",
				given: "the API is available",
				when:  "I make a valid API request",
				then:  "I should receive the correct response",
			},
			{
				name:  "Handle API errors",
				given: "the API is unavailable",
				when:  "I make an API request",
				then:  "I should receive an appropriate error message",
			},
		},
	},
	"search": {
		keywords: []string{"search", "find", "filter", "query", "lookup"},
		feature:  "Search Functionality",
		scenarios: []scenario{
			{
				name:  "Successful search",
				given: "I am on the search page",
				when:  "I enter a search term and click search",
				then:  "I should see relevant results",
			},
			{
				name:  "No search results",
				given: "I am on the search page",
				when:  "I search for a term with no matches",
				then:  "I should see a no results message",
			},
		},
	},
	"file_management": {
		keywords: []string{"file", "upload", "download", "attach", "document"},
		feature:  "File Management",
		scenarios: []scenario{
			{
				name:  "Upload file successfully",
				given: "I am on the file upload page",
				when:  "I select and upload a valid file",
				then:  "the file should be uploaded successfully",
			},
			{
				name:  "Invalid file type",
				given: "I am on the file upload page",
				when:  "I try to upload an invalid file type",
				then:  "I should see an error message",
			},
		},
	},
	"notification": {
		keywords: []string{"notification", "alert", "message", "email", "notify"},
		feature:  "Notification System",
		scenarios: []scenario{
			{
				name:  "Receive notification",
				given: "I have notifications enabled",
				when:  "an event occurs that requires notification",
				then:  "I should receive a notification",
			},
			{
				name:  "Mark notification as read",
				given: "I have unread notifications",
				when:  "I click on a notification",
				then:  "it should be marked as read",
			},
		},
	},
}

var userRoles = []struct {
	keyword string
	role    string
}{
	{"admin", "administrator"},
	{"manage", "administrator"},
	{"api", "developer"},
	{"data", "analyst"},
	{"report", "manager"},
	{"payment", "customer"},
	{"order", "customer"},
	{"auth", "user"},
	{"login", "user"},
	{"register", "user"},
	{"profile", "user"},
	{"account", "user"},
	{"dashboard", "user"},
	{"notification", "user"},
	{"search", "user"},
	{"chat", "user"},
	{"message", "user"},
	{"file", "user"},
	{"upload", "user"},
	{"download", "user"},
}

var actionVerbs = []string{
	"create", "add", "update", "edit", "delete", "remove", "view", "see",
	"manage", "search", "find", "upload", "download", "send", "receive",
	"login", "register", "authenticate", "access", "configure", "setup",
	"enable", "disable",
}

var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true,
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Components are the story parts extracted from a description.
type Components struct {
	Role        string
	Action      string
	Benefit     string
	FeatureName string
	FeatureType string
}

// Generator is the deterministic story generator. It satisfies
// ai.Provider so the service layer treats it like any other provider.
type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

func (g *Generator) Name() string { return ai.ProviderTemplate }

func (g *Generator) GenerateStory(_ context.Context, input ai.GenerateInput) (*ai.Draft, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, fmt.Errorf("feature description cannot be empty")
	}

	normalized := Normalize(description)
	components := ExtractComponents(normalized)

	return &ai.Draft{
		Title:              components.FeatureName,
		Gherkin:            renderGherkin(components),
		AcceptanceCriteria: buildAcceptanceCriteria(components),
		EstimatedPoints:    EstimatePoints(normalized, components.FeatureType),
	}, nil
}

// Normalize lowercases the description, collapses whitespace, and drops
// filler words so keyword scoring sees the meaningful tokens. Very short
// descriptions keep their fillers.
func Normalize(description string) string {
	collapsed := whitespaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(description)), " ")
	words := strings.Split(collapsed, " ")
	if len(words) <= 3 {
		return collapsed
	}

	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !fillerWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// DetectFeatureType scores each pattern by keyword hits and returns the
// best match, or "general" when nothing matches.
func DetectFeatureType(description string) string {
	lower := strings.ToLower(description)

	best := "general"
	bestScore := 0
	for _, name := range orderedPatternNames() {
		pattern := featurePatterns[name]
		score := 0
		for _, kw := range pattern.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = name
			bestScore = score
		}
	}
	return best
}

// orderedPatternNames keeps tie-breaking deterministic across runs.
func orderedPatternNames() []string {
	return []string{"authentication", "crud", "api", "search", "file_management", "notification"}
}

// ExtractComponents pulls role, action, benefit, and a feature name
// from a normalized description.
func ExtractComponents(description string) Components {
	featureType := DetectFeatureType(description)
	return Components{
		Role:        extractRole(description),
		Action:      extractAction(description),
		Benefit:     extractBenefit(description),
		FeatureName: extractFeatureName(description, featureType),
		FeatureType: featureType,
	}
}

func extractRole(description string) string {
	lower := strings.ToLower(description)
	for _, entry := range userRoles {
		if strings.Contains(lower, entry.keyword) {
			return entry.role
		}
	}
	return "user"
}

func extractAction(description string) string {
	words := strings.Fields(description)
	for i, w := range words {
		for _, verb := range actionVerbs {
			if w != verb {
				continue
			}
			// Attach up to two following words as the action object.
			end := i + 3
			if end > len(words) {
				end = len(words)
			}
			return strings.TrimSpace(strings.Join(words[i:end], " "))
		}
	}
	if len(words) > 0 {
		return "use " + words[0]
	}
	return "use the system"
}

var benefitPhrases = []struct {
	keyword string
	benefit string
}{
	{"auth", "securely access my account"},
	{"login", "access the system securely"},
	{"search", "quickly find the information I need"},
	{"upload", "share and store my files"},
	{"manage", "efficiently organize my data"},
	{"notification", "stay informed about important updates"},
	{"api", "integrate with external systems"},
	{"dashboard", "have an overview of my information"},
	{"profile", "maintain my personal information"},
}

func extractBenefit(description string) string {
	lower := strings.ToLower(description)
	for _, entry := range benefitPhrases {
		if strings.Contains(lower, entry.keyword) {
			return entry.benefit
		}
	}

	switch {
	case containsAny(lower, "create", "add", "new"):
		return "easily add new information to the system"
	case containsAny(lower, "update", "edit", "modify"):
		return "keep my information current and accurate"
	case containsAny(lower, "view", "see", "display"):
		return "access the information I need"
	default:
		return "accomplish my goals efficiently"
	}
}

func extractFeatureName(description, featureType string) string {
	if pattern, ok := featurePatterns[featureType]; ok {
		return pattern.feature
	}

	words := strings.Fields(description)
	if len(words) > 3 {
		words = words[:3]
	}
	titled := make([]string, len(words))
	for i, w := range words {
		titled[i] = capitalize(w)
	}
	return strings.Join(titled, " ")
}

func renderGherkin(components Components) string {
	scenarios := []scenario{{
		name:  "Basic functionality",
		given: "I am using the system",
		when:  "I " + components.Action,
		then:  "I should be able to " + components.Benefit,
	}}
	if pattern, ok := featurePatterns[components.FeatureType]; ok {
		scenarios = pattern.scenarios
	}

	lines := []string{
		"Feature: " + components.FeatureName,
		"  As a " + components.Role,
		"  I want to " + components.Action,
		"  So that I can " + components.Benefit,
		"",
	}
	for _, sc := range scenarios {
		lines = append(lines,
			"  Scenario: "+sc.name,
			"    Given "+sc.given,
			"    When "+sc.when,
			"    Then "+sc.then,
			"",
		)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func buildAcceptanceCriteria(components Components) []string {
	var criteria []string
	if pattern, ok := featurePatterns[components.FeatureType]; ok {
		for _, sc := range pattern.scenarios {
			criteria = append(criteria, fmt.Sprintf("Given %s, when %s, then %s", sc.given, sc.when, sc.then))
		}
	}
	criteria = append(criteria,
		fmt.Sprintf("The %s should be able to %s successfully", components.Role, components.Action),
		"Appropriate error messages should be displayed for invalid inputs",
		"The feature should work across different browsers and devices",
	)
	return criteria
}

var baseEfforts = map[string]int{
	"authentication":  8,
	"crud":            5,
	"api":             5,
	"search":          3,
	"file_management": 8,
	"notification":    3,
	"general":         3,
}

var complexityKeywords = []struct {
	keyword string
	bonus   int
}{
	{"machine learning", 3},
	{"integration", 2},
	{"security", 2},
	{"authentication", 2},
	{"payment", 3},
	{"real-time", 2},
	{"dashboard", 2},
	{"admin", 2},
	{"reporting", 2},
	{"analytics", 2},
	{"ai", 3},
	{"complex", 2},
	{"multiple", 1},
}

// EstimatePoints maps base effort plus complexity bonuses onto the
// Fibonacci story-point scale.
func EstimatePoints(description, featureType string) int {
	effort, ok := baseEfforts[featureType]
	if !ok {
		effort = 3
	}

	lower := strings.ToLower(description)
	for _, entry := range complexityKeywords {
		if strings.Contains(lower, entry.keyword) {
			effort += entry.bonus
		}
	}

	switch {
	case effort <= 2:
		return 1
	case effort <= 4:
		return 2
	case effort <= 6:
		return 3
	case effort <= 10:
		return 5
	case effort <= 15:
		return 8
	default:
		return 13
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
