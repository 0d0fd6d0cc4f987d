package model

import (
	"encoding/json"
	"time"
)

// Story types accepted by the generation endpoint.
const (
	StoryTypeUserStory     = "user_story"
	StoryTypeEpic          = "epic"
	StoryTypeBugFix        = "bug_fix"
	StoryTypeTechnicalTask = "technical_task"
)

// Complexity levels accepted by the generation endpoint.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
	ComplexityEpic   = "epic"
)

// Story lifecycle statuses.
const (
	StatusDraft      = "draft"
	StatusReady      = "ready"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusDone       = "done"
	StatusArchived   = "archived"
)

// StoryMetadata captures generation provenance. Stored as JSON text so
// SQLite keeps a single TEXT column.
type StoryMetadata struct {
	FeatureType        string     `json:"feature_type,omitempty"`
	AIProvider         string     `json:"ai_provider,omitempty"`
	AIGenerated        bool       `json:"ai_generated"`
	TemplateBased      bool       `json:"template_based"`
	ConfidenceScore    float64    `json:"confidence_score,omitempty"`
	Version            int        `json:"version"`
	RefinementFeedback string     `json:"refinement_feedback,omitempty"`
	RefinedAt          *time.Time `json:"refined_at,omitempty"`
}

type UserStory struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Title              string    `gorm:"size:200;not null" json:"title"`
	FeatureDescription string    `gorm:"type:text;not null" json:"feature_description"`
	GherkinOutput      string    `gorm:"type:text;not null" json:"gherkin"`
	AcceptanceCriteria string    `gorm:"type:text" json:"-"` // JSON array of strings
	StoryType          string    `gorm:"size:32;not null;index" json:"story_type"`
	Complexity         string    `gorm:"size:16;not null" json:"complexity"`
	Status             string    `gorm:"size:32;not null;index" json:"status"`
	EstimatedPoints    int       `json:"estimated_points"`
	Tags               string    `gorm:"type:text" json:"-"` // JSON array of strings
	ProjectContext     string    `gorm:"size:500" json:"project_context,omitempty"`
	Metadata           string    `gorm:"type:text" json:"-"` // JSON object as text
	UserID             uint      `gorm:"index" json:"user_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (UserStory) TableName() string { return "user_stories" }

// AcceptanceCriteriaList returns the parsed criteria; empty on parse error.
func (s *UserStory) AcceptanceCriteriaList() []string {
	return decodeStringList(s.AcceptanceCriteria)
}

func (s *UserStory) SetAcceptanceCriteria(criteria []string) {
	s.AcceptanceCriteria = encodeStringList(criteria)
}

// TagList returns the parsed tags; empty on parse error.
func (s *UserStory) TagList() []string {
	return decodeStringList(s.Tags)
}

func (s *UserStory) SetTags(tags []string) {
	s.Tags = encodeStringList(tags)
}

// Meta returns the parsed metadata; zero value with Version 1 when the
// column is empty or malformed.
func (s *UserStory) Meta() StoryMetadata {
	meta := StoryMetadata{Version: 1}
	if s.Metadata == "" {
		return meta
	}
	_ = json.Unmarshal([]byte(s.Metadata), &meta)
	if meta.Version < 1 {
		meta.Version = 1
	}
	return meta
}

func (s *UserStory) SetMeta(meta StoryMetadata) {
	b, _ := json.Marshal(meta)
	s.Metadata = string(b)
}

func encodeStringList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []string
	_ = json.Unmarshal([]byte(raw), &items)
	return items
}
