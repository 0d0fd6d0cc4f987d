package ai

import (
	"context"
	"errors"
)

// Provider names reported in story metadata and on /healthz.
const (
	ProviderClaude   = "claude"
	ProviderOpenAI   = "openai"
	ProviderTemplate = "template"
)

var ErrEmptyCompletion = errors.New("empty completion from provider")

// GenerateInput carries everything a provider needs to draft a story.
type GenerateInput struct {
	Description    string
	ProjectContext string
	StoryType      string
	Complexity     string
}

// Draft is a provider's proposed story before persistence. Zero
// EstimatedPoints means the caller should estimate from complexity.
type Draft struct {
	Title              string   `json:"title"`
	Gherkin            string   `json:"gherkin"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	EstimatedPoints    int      `json:"estimated_points"`
}

// Provider turns a feature description into a story draft.
type Provider interface {
	Name() string
	GenerateStory(ctx context.Context, input GenerateInput) (*Draft, error)
}
