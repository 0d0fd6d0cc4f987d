//go:build sqlite_fts5

package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodevhub/internal/model"
	sqliteplatform "autodevhub/internal/platform/sqlite"
	"autodevhub/internal/repository"
)

func TestStoryRepositorySearch(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, sqliteplatform.MigrateFTS(db))
	repo := repository.NewStoryRepository(db)

	login := seedStory(t, repo, "OAuth login flow", "users authenticate via oauth provider", model.StatusDraft, model.StoryTypeUserStory)
	seedStory(t, repo, "Catalog search", "shoppers filter the product catalog", model.StatusReady, model.StoryTypeUserStory)
	seedStory(t, repo, "Nightly export", "reports are exported to csv", model.StatusDraft, model.StoryTypeTechnicalTask)

	t.Run("Matches title and description", func(t *testing.T) {
		stories, total, err := repo.List(repository.StoryFilter{Search: "oauth", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, stories, 1)
		assert.Equal(t, "OAuth login flow", stories[0].Title)
	})

	t.Run("Search combined with status filter", func(t *testing.T) {
		_, total, err := repo.List(repository.StoryFilter{Search: "catalog", Status: model.StatusDraft, Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("Update trigger keeps the index in sync", func(t *testing.T) {
		login.Title = "Passkey sign-in"
		require.NoError(t, repo.Save(login))

		_, total, err := repo.List(repository.StoryFilter{Search: "passkey", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("Delete trigger removes the row", func(t *testing.T) {
		require.NoError(t, repo.DeleteByID(login.ID))

		_, total, err := repo.List(repository.StoryFilter{Search: "passkey", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("Query syntax in caller text is neutralized", func(t *testing.T) {
		_, total, err := repo.List(repository.StoryFilter{Search: `"`, Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)

		_, _, err = repo.List(repository.StoryFilter{Search: `catalog AND (`, Page: 1, PageSize: 10})
		require.NoError(t, err)
	})
}
