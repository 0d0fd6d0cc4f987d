package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"autodevhub/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(id string) (*model.Session, error) {
	var session model.Session
	if err := r.db.Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query session failed: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) Save(session *model.Session) error {
	if err := r.db.Save(session).Error; err != nil {
		return fmt.Errorf("save session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByID(id string) error {
	if err := r.db.Where("id = ?", id).Delete(&model.Session{}).Error; err != nil {
		return fmt.Errorf("delete session failed: %w", err)
	}
	return nil
}
