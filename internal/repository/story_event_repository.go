package repository

import (
	"fmt"

	"gorm.io/gorm"

	"autodevhub/internal/model"
)

type StoryEventRepository struct {
	db *gorm.DB
}

func NewStoryEventRepository(db *gorm.DB) *StoryEventRepository {
	return &StoryEventRepository{db: db}
}

func (r *StoryEventRepository) Create(event *model.StoryEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("create story event failed: %w", err)
	}
	return nil
}

func (r *StoryEventRepository) ListByStoryID(storyID uint, limit int) ([]model.StoryEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var events []model.StoryEvent
	if err := r.db.Where("story_id = ?", storyID).Order("created_at ASC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list story events failed: %w", err)
	}
	return events, nil
}
