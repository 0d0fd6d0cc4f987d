package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session stores per-client preferences. The primary key is a UUID
// string so anonymous clients can hold an unguessable id.
type Session struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id,omitempty"`
	Preferences string    `gorm:"type:text" json:"-"` // JSON object as text
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// PreferenceMap returns the parsed preferences; nil on parse error.
func (s *Session) PreferenceMap() map[string]any {
	if s.Preferences == "" {
		return nil
	}
	var prefs map[string]any
	_ = json.Unmarshal([]byte(s.Preferences), &prefs)
	return prefs
}

func (s *Session) SetPreferences(prefs map[string]any) {
	if len(prefs) == 0 {
		s.Preferences = ""
		return
	}
	b, _ := json.Marshal(prefs)
	s.Preferences = string(b)
}
