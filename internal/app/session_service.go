package app

import (
	"errors"

	"autodevhub/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepo is the persistence surface the service needs; satisfied
// by repository.SessionRepository.
type SessionRepo interface {
	Create(session *model.Session) error
	GetByID(id string) (*model.Session, error)
	Save(session *model.Session) error
	DeleteByID(id string) error
}

type SessionService struct {
	sessionRepo SessionRepo
}

type CreateSessionInput struct {
	UserID      uint
	Preferences map[string]any
}

func NewSessionService(sessionRepo SessionRepo) *SessionService {
	return &SessionService{sessionRepo: sessionRepo}
}

func (s *SessionService) Create(input CreateSessionInput) (*model.Session, error) {
	session := &model.Session{UserID: input.UserID}
	session.SetPreferences(input.Preferences)

	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Get(id string) (*model.Session, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	session, err := s.sessionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// UpdatePreferences replaces the stored preference object.
func (s *SessionService) UpdatePreferences(id string, prefs map[string]any) (*model.Session, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	session.SetPreferences(prefs)
	if err := s.sessionRepo.Save(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.sessionRepo.DeleteByID(id)
}
