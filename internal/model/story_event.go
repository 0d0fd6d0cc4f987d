package model

import "time"

// Story event types published to the audit queue.
const (
	EventStoryGenerated = "story.generated"
	EventStoryRefined   = "story.refined"
	EventStoryUpdated   = "story.updated"
	EventStoryDeleted   = "story.deleted"
)

// StoryEvent is an audit record written by the event worker, not by
// request handlers.
type StoryEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StoryID   uint      `gorm:"not null;index" json:"story_id"`
	EventType string    `gorm:"size:32;not null;index" json:"event_type"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"` // JSON object as text
	CreatedAt time.Time `json:"created_at"`
}
