package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"autodevhub/internal/ai"
	"autodevhub/internal/gherkin"
	"autodevhub/internal/model"
	"autodevhub/internal/repository"
)

var (
	ErrStoryNotFound    = errors.New("story not found")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrGenerationFailed = errors.New("story generation failed")
)

// StoryRepo is the persistence surface the service needs; satisfied by
// repository.StoryRepository.
type StoryRepo interface {
	Create(story *model.UserStory) error
	GetByID(id uint) (*model.UserStory, error)
	Save(story *model.UserStory) error
	DeleteByID(id uint) error
	List(filter repository.StoryFilter) ([]model.UserStory, int64, error)
	Stats() (*repository.StoryStats, error)
}

// StoryEventPublisher pushes audit events onto the broker.
type StoryEventPublisher interface {
	Publish(ctx context.Context, event model.StoryEvent) error
}

// StoryEventLister reads back the audit trail the event worker wrote.
type StoryEventLister interface {
	ListByStoryID(storyID uint, limit int) ([]model.StoryEvent, error)
}

// ListCache holds marshaled list pages for the unfiltered listing.
type ListCache interface {
	GetList(ctx context.Context, page, pageSize int) ([]byte, bool, error)
	SetList(ctx context.Context, page, pageSize int, payload any) error
	Invalidate(ctx context.Context) error
}

// RateLimiter guards the generation endpoint.
type RateLimiter interface {
	Allow(ctx context.Context, id string) (bool, error)
}

type StoryService struct {
	storyRepo   StoryRepo
	events      StoryEventLister
	publisher   StoryEventPublisher
	listCache   ListCache
	limiter     RateLimiter
	provider    ai.Provider // nil when no remote provider is configured
	template    *gherkin.Generator
	useFallback bool
}

type GenerateStoryInput struct {
	CallerID       string
	UserID         uint
	Description    string
	ProjectContext string
	StoryType      string
	Complexity     string
}

type UpdateStoryInput struct {
	Title              *string
	Description        *string
	Gherkin            *string
	AcceptanceCriteria []string
	Status             *string
	EstimatedPoints    *int
	Tags               []string
}

type RefineStoryInput struct {
	StoryID  uint
	Feedback string
}

// StoryView is the API shape of a story: JSON-as-text columns parsed
// into real lists and objects.
type StoryView struct {
	ID                 uint                `json:"id"`
	Title              string              `json:"title"`
	FeatureDescription string              `json:"feature_description"`
	Gherkin            string              `json:"gherkin"`
	AcceptanceCriteria []string            `json:"acceptance_criteria"`
	StoryType          string              `json:"story_type"`
	Complexity         string              `json:"complexity"`
	Status             string              `json:"status"`
	EstimatedPoints    int                 `json:"estimated_points"`
	Tags               []string            `json:"tags"`
	ProjectContext     string              `json:"project_context,omitempty"`
	Metadata           model.StoryMetadata `json:"metadata"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type StoryListResult struct {
	Stories  []StoryView `json:"stories"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	HasNext  bool        `json:"has_next"`
}

func NewStoryService(
	storyRepo StoryRepo,
	events StoryEventLister,
	publisher StoryEventPublisher,
	listCache ListCache,
	limiter RateLimiter,
	provider ai.Provider,
	fallbackToTemplate bool,
) *StoryService {
	return &StoryService{
		storyRepo:   storyRepo,
		events:      events,
		publisher:   publisher,
		listCache:   listCache,
		limiter:     limiter,
		provider:    provider,
		template:    gherkin.NewGenerator(),
		useFallback: fallbackToTemplate,
	}
}

var validStoryTypes = map[string]bool{
	model.StoryTypeUserStory:     true,
	model.StoryTypeEpic:          true,
	model.StoryTypeBugFix:        true,
	model.StoryTypeTechnicalTask: true,
}

var validComplexities = map[string]bool{
	model.ComplexityLow:    true,
	model.ComplexityMedium: true,
	model.ComplexityHigh:   true,
	model.ComplexityEpic:   true,
}

var validStatuses = map[string]bool{
	model.StatusDraft:      true,
	model.StatusReady:      true,
	model.StatusInProgress: true,
	model.StatusReview:     true,
	model.StatusDone:       true,
	model.StatusArchived:   true,
}

var complexityPoints = map[string]int{
	model.ComplexityLow:    2,
	model.ComplexityMedium: 5,
	model.ComplexityHigh:   8,
	model.ComplexityEpic:   13,
}

func (s *StoryService) Generate(ctx context.Context, input GenerateStoryInput) (*StoryView, error) {
	description := strings.TrimSpace(input.Description)
	if len(description) < 10 || len(description) > 1000 || len(strings.Fields(description)) < 3 {
		return nil, ErrInvalidInput
	}

	storyType := input.StoryType
	if storyType == "" {
		storyType = model.StoryTypeUserStory
	}
	if !validStoryTypes[storyType] {
		return nil, ErrInvalidInput
	}

	complexity := input.Complexity
	if complexity == "" {
		complexity = model.ComplexityMedium
	}
	if !validComplexities[complexity] {
		return nil, ErrInvalidInput
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, input.CallerID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrRateLimited
		}
	}

	draft, providerName, err := s.draft(ctx, ai.GenerateInput{
		Description:    description,
		ProjectContext: strings.TrimSpace(input.ProjectContext),
		StoryType:      storyType,
		Complexity:     complexity,
	})
	if err != nil {
		return nil, err
	}

	story := &model.UserStory{
		Title:              s.resolveTitle(draft, description),
		FeatureDescription: description,
		GherkinOutput:      draft.Gherkin,
		StoryType:          storyType,
		Complexity:         complexity,
		Status:             model.StatusDraft,
		EstimatedPoints:    resolvePoints(draft.EstimatedPoints, complexity),
		ProjectContext:     strings.TrimSpace(input.ProjectContext),
		UserID:             input.UserID,
	}
	story.SetAcceptanceCriteria(draft.AcceptanceCriteria)
	story.SetTags(generateTags(description, storyType))
	story.SetMeta(model.StoryMetadata{
		FeatureType:     gherkin.DetectFeatureType(gherkin.Normalize(description)),
		AIProvider:      providerName,
		AIGenerated:     providerName != ai.ProviderTemplate,
		TemplateBased:   providerName == ai.ProviderTemplate,
		ConfidenceScore: confidenceFor(providerName),
		Version:         1,
	})

	if err := s.storyRepo.Create(story); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	s.publishEvent(ctx, story.ID, model.EventStoryGenerated, map[string]any{
		"provider":   providerName,
		"story_type": storyType,
	})

	view := toStoryView(story)
	return &view, nil
}

// draft asks the configured provider and falls back to the template
// engine on failure when fallback is enabled.
func (s *StoryService) draft(ctx context.Context, input ai.GenerateInput) (*ai.Draft, string, error) {
	if s.provider != nil {
		draft, err := s.provider.GenerateStory(ctx, input)
		if err == nil {
			return draft, s.provider.Name(), nil
		}
		if !s.useFallback {
			return nil, "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		log.Warn().Err(err).Str("provider", s.provider.Name()).Msg("provider failed, falling back to template")
	}

	draft, err := s.template.GenerateStory(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return draft, s.template.Name(), nil
}

func (s *StoryService) Get(id uint) (*StoryView, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	story, err := s.storyRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrStoryNotFound
	}
	view := toStoryView(story)
	return &view, nil
}

func (s *StoryService) List(ctx context.Context, filter repository.StoryFilter) (*StoryListResult, error) {
	cacheable := filter.Status == "" && filter.StoryType == "" && filter.Search == ""
	if cacheable && s.listCache != nil {
		if raw, hit, err := s.listCache.GetList(ctx, filter.Page, filter.PageSize); err == nil && hit {
			var cached StoryListResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	stories, total, err := s.storyRepo.List(filter)
	if err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	views := make([]StoryView, 0, len(stories))
	for i := range stories {
		views = append(views, toStoryView(&stories[i]))
	}

	result := &StoryListResult{
		Stories:  views,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasNext:  int64(page*pageSize) < total,
	}

	if cacheable && s.listCache != nil {
		if err := s.listCache.SetList(ctx, filter.Page, filter.PageSize, result); err != nil {
			log.Warn().Err(err).Msg("cache story list failed")
		}
	}
	return result, nil
}

func (s *StoryService) Update(ctx context.Context, id uint, input UpdateStoryInput) (*StoryView, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}

	story, err := s.storyRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrStoryNotFound
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" || len(title) > 200 {
			return nil, ErrInvalidInput
		}
		story.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if len(description) < 10 || len(description) > 1000 {
			return nil, ErrInvalidInput
		}
		story.FeatureDescription = description
	}
	if input.Gherkin != nil {
		content := strings.TrimSpace(*input.Gherkin)
		if content == "" || len(content) > 5000 {
			return nil, ErrInvalidInput
		}
		story.GherkinOutput = content
	}
	if input.AcceptanceCriteria != nil {
		if len(input.AcceptanceCriteria) > 20 {
			return nil, ErrInvalidInput
		}
		story.SetAcceptanceCriteria(input.AcceptanceCriteria)
	}
	if input.Status != nil {
		if !validStatuses[*input.Status] {
			return nil, ErrInvalidInput
		}
		story.Status = *input.Status
	}
	if input.EstimatedPoints != nil {
		if *input.EstimatedPoints < 1 || *input.EstimatedPoints > 21 {
			return nil, ErrInvalidInput
		}
		story.EstimatedPoints = *input.EstimatedPoints
	}
	if input.Tags != nil {
		if len(input.Tags) > 10 {
			return nil, ErrInvalidInput
		}
		story.SetTags(input.Tags)
	}

	if err := s.storyRepo.Save(story); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	s.publishEvent(ctx, story.ID, model.EventStoryUpdated, nil)

	view := toStoryView(story)
	return &view, nil
}

func (s *StoryService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return ErrInvalidInput
	}

	story, err := s.storyRepo.GetByID(id)
	if err != nil {
		return err
	}
	if story == nil {
		return ErrStoryNotFound
	}

	if err := s.storyRepo.DeleteByID(id); err != nil {
		return err
	}

	s.invalidateCache(ctx)
	s.publishEvent(ctx, id, model.EventStoryDeleted, nil)
	return nil
}

// Refine regenerates a story from its description plus feedback,
// overwriting the generated parts and bumping the metadata version.
func (s *StoryService) Refine(ctx context.Context, input RefineStoryInput) (*StoryView, error) {
	feedback := strings.TrimSpace(input.Feedback)
	if input.StoryID == 0 || len(feedback) < 5 || len(feedback) > 1000 {
		return nil, ErrInvalidInput
	}

	story, err := s.storyRepo.GetByID(input.StoryID)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrStoryNotFound
	}

	combined := story.FeatureDescription + " " + feedback
	draft, providerName, err := s.draft(ctx, ai.GenerateInput{
		Description:    combined,
		ProjectContext: story.ProjectContext,
		StoryType:      story.StoryType,
		Complexity:     story.Complexity,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	meta := story.Meta()
	meta.Version++
	meta.RefinementFeedback = feedback
	meta.RefinedAt = &now
	meta.AIProvider = providerName
	meta.AIGenerated = providerName != ai.ProviderTemplate
	meta.TemplateBased = providerName == ai.ProviderTemplate

	story.GherkinOutput = draft.Gherkin
	story.SetAcceptanceCriteria(draft.AcceptanceCriteria)
	story.EstimatedPoints = resolvePoints(draft.EstimatedPoints, story.Complexity)
	story.SetMeta(meta)

	if err := s.storyRepo.Save(story); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	s.publishEvent(ctx, story.ID, model.EventStoryRefined, map[string]any{
		"provider": providerName,
		"version":  meta.Version,
	})

	view := toStoryView(story)
	return &view, nil
}

func (s *StoryService) ValidateGherkin(content string) (gherkin.ValidationResult, error) {
	if len(strings.TrimSpace(content)) < 10 {
		return gherkin.ValidationResult{}, ErrInvalidInput
	}
	return gherkin.Validate(content), nil
}

func (s *StoryService) Suggestions(description string) (gherkin.Suggestions, error) {
	trimmed := strings.TrimSpace(description)
	if len(trimmed) < 5 || len(trimmed) > 1000 {
		return gherkin.Suggestions{}, ErrInvalidInput
	}
	return gherkin.Suggest(trimmed), nil
}

// Events returns the audit trail for a story, oldest first.
func (s *StoryService) Events(id uint, limit int) ([]model.StoryEvent, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}

	story, err := s.storyRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrStoryNotFound
	}

	if s.events == nil {
		return []model.StoryEvent{}, nil
	}
	return s.events.ListByStoryID(id, limit)
}

func (s *StoryService) Stats() (*repository.StoryStats, error) {
	return s.storyRepo.Stats()
}

// ProviderName reports the active generation provider for /healthz.
func (s *StoryService) ProviderName() string {
	if s.provider != nil {
		return s.provider.Name()
	}
	return ai.ProviderTemplate
}

func (s *StoryService) resolveTitle(draft *ai.Draft, description string) string {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		components := gherkin.ExtractComponents(gherkin.Normalize(description))
		title = components.FeatureName
	}
	if runes := []rune(title); len(runes) > 200 {
		title = string(runes[:200])
	}
	return title
}

func (s *StoryService) invalidateCache(ctx context.Context) {
	if s.listCache == nil {
		return
	}
	if err := s.listCache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("invalidate story list cache failed")
	}
}

// publishEvent is best-effort: the story is already persisted, so a
// broker hiccup must not fail the request.
func (s *StoryService) publishEvent(ctx context.Context, storyID uint, eventType string, detail map[string]any) {
	if s.publisher == nil {
		return
	}

	event := model.StoryEvent{
		StoryID:   storyID,
		EventType: eventType,
		CreatedAt: time.Now(),
	}
	if len(detail) > 0 {
		if b, err := json.Marshal(detail); err == nil {
			event.Detail = string(b)
		}
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Uint("story_id", storyID).Str("event", eventType).Msg("publish story event failed")
	}
}

var fibonacciPoints = map[int]bool{1: true, 2: true, 3: true, 5: true, 8: true, 13: true}

func resolvePoints(draftPoints int, complexity string) int {
	if fibonacciPoints[draftPoints] {
		return draftPoints
	}
	return complexityPoints[complexity]
}

func confidenceFor(providerName string) float64 {
	if providerName == ai.ProviderTemplate {
		return 0.85
	}
	return 0.9
}

var techTags = []struct {
	keyword string
	tag     string
}{
	{"api", "api"},
	{"database", "database"},
	{"frontend", "frontend"},
	{"backend", "backend"},
	{"auth", "authentication"},
	{"security", "security"},
	{"performance", "performance"},
	{"ui", "ui-ux"},
	{"test", "testing"},
}

func generateTags(description, storyType string) []string {
	tags := []string{storyType}
	lower := strings.ToLower(description)
	for _, entry := range techTags {
		if strings.Contains(lower, entry.keyword) {
			tags = append(tags, entry.tag)
		}
	}
	return tags
}

func toStoryView(story *model.UserStory) StoryView {
	criteria := story.AcceptanceCriteriaList()
	if criteria == nil {
		criteria = []string{}
	}
	tags := story.TagList()
	if tags == nil {
		tags = []string{}
	}
	return StoryView{
		ID:                 story.ID,
		Title:              story.Title,
		FeatureDescription: story.FeatureDescription,
		Gherkin:            story.GherkinOutput,
		AcceptanceCriteria: criteria,
		StoryType:          story.StoryType,
		Complexity:         story.Complexity,
		Status:             story.Status,
		EstimatedPoints:    story.EstimatedPoints,
		Tags:               tags,
		ProjectContext:     story.ProjectContext,
		Metadata:           story.Meta(),
		CreatedAt:          story.CreatedAt,
		UpdatedAt:          story.UpdatedAt,
	}
}
