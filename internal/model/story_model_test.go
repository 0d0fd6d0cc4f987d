package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"autodevhub/internal/model"
)

func TestStoryMetadataDefaults(t *testing.T) {
	t.Run("Empty column yields version 1", func(t *testing.T) {
		story := &model.UserStory{}
		meta := story.Meta()
		assert.Equal(t, 1, meta.Version)
		assert.False(t, meta.AIGenerated)
	})

	t.Run("Malformed column keeps the default", func(t *testing.T) {
		story := &model.UserStory{Metadata: "{not json"}
		assert.Equal(t, 1, story.Meta().Version)
	})

	t.Run("Round trip preserves refinement state", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		story := &model.UserStory{}
		story.SetMeta(model.StoryMetadata{
			AIProvider:         "claude",
			AIGenerated:        true,
			Version:            3,
			RefinementFeedback: "tighten the scenarios",
			RefinedAt:          &now,
		})

		meta := story.Meta()
		assert.Equal(t, 3, meta.Version)
		assert.Equal(t, "claude", meta.AIProvider)
		assert.True(t, meta.AIGenerated)
		assert.Equal(t, "tighten the scenarios", meta.RefinementFeedback)
		assert.Equal(t, now, meta.RefinedAt.UTC())
	})
}

func TestStoryListColumns(t *testing.T) {
	story := &model.UserStory{}

	story.SetAcceptanceCriteria(nil)
	assert.Equal(t, "[]", story.AcceptanceCriteria)

	story.SetTags([]string{"api", "backend"})
	assert.Equal(t, []string{"api", "backend"}, story.TagList())

	story.Tags = "not json"
	assert.Nil(t, story.TagList())
}

func TestSessionPreferences(t *testing.T) {
	session := &model.Session{}
	assert.Nil(t, session.PreferenceMap())

	session.SetPreferences(map[string]any{"default_story_type": "epic"})
	assert.Equal(t, "epic", session.PreferenceMap()["default_story_type"])

	session.SetPreferences(nil)
	assert.Empty(t, session.Preferences)
}
