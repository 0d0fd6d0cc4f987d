package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"autodevhub/internal/model"
)

type StoryRepository struct {
	db *gorm.DB
}

// StoryFilter narrows List and Search results. Zero values mean "any".
type StoryFilter struct {
	Status    string
	StoryType string
	Search    string
	Page      int
	PageSize  int
}

// StoryStats aggregates over all stored stories.
type StoryStats struct {
	TotalStories         int64      `json:"total_stories"`
	OldestStory          *time.Time `json:"oldest_story,omitempty"`
	NewestStory          *time.Time `json:"newest_story,omitempty"`
	AvgDescriptionLength float64    `json:"avg_feature_description_length"`
	AvgGherkinLength     float64    `json:"avg_gherkin_output_length"`
}

func NewStoryRepository(db *gorm.DB) *StoryRepository {
	return &StoryRepository{db: db}
}

func (r *StoryRepository) Create(story *model.UserStory) error {
	if err := r.db.Create(story).Error; err != nil {
		return fmt.Errorf("create story failed: %w", err)
	}
	return nil
}

func (r *StoryRepository) GetByID(id uint) (*model.UserStory, error) {
	var story model.UserStory
	if err := r.db.First(&story, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query story by id failed: %w", err)
	}
	return &story, nil
}

func (r *StoryRepository) Save(story *model.UserStory) error {
	if err := r.db.Save(story).Error; err != nil {
		return fmt.Errorf("save story failed: %w", err)
	}
	return nil
}

func (r *StoryRepository) DeleteByID(id uint) error {
	if err := r.db.Delete(&model.UserStory{}, id).Error; err != nil {
		return fmt.Errorf("delete story failed: %w", err)
	}
	return nil
}

// List returns a page of stories newest-first, with the total count for
// pagination. When filter.Search is set it goes through the FTS index.
func (r *StoryRepository) List(filter StoryFilter) ([]model.UserStory, int64, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	if filter.Search != "" {
		return r.searchFTS(filter, page, pageSize)
	}

	query := r.db.Model(&model.UserStory{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StoryType != "" {
		query = query.Where("story_type = ?", filter.StoryType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count stories failed: %w", err)
	}

	var stories []model.UserStory
	if err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&stories).Error; err != nil {
		return nil, 0, fmt.Errorf("list stories failed: %w", err)
	}
	return stories, total, nil
}

// searchFTS matches against user_stories_fts and orders by rank.
// Status and story-type filters still apply on the joined rows.
func (r *StoryRepository) searchFTS(filter StoryFilter, page, pageSize int) ([]model.UserStory, int64, error) {
	where := "user_stories_fts MATCH ?"
	args := []any{quoteFTS(filter.Search)}
	if filter.Status != "" {
		where += " AND user_stories.status = ?"
		args = append(args, filter.Status)
	}
	if filter.StoryType != "" {
		where += " AND user_stories.story_type = ?"
		args = append(args, filter.StoryType)
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM user_stories
		JOIN user_stories_fts ON user_stories.id = user_stories_fts.rowid
		WHERE ` + where
	if err := r.db.Raw(countSQL, args...).Scan(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count story search failed: %w", err)
	}

	var stories []model.UserStory
	searchSQL := `SELECT user_stories.* FROM user_stories
		JOIN user_stories_fts ON user_stories.id = user_stories_fts.rowid
		WHERE ` + where + `
		ORDER BY rank
		LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)
	if err := r.db.Raw(searchSQL, args...).Scan(&stories).Error; err != nil {
		return nil, 0, fmt.Errorf("story search failed: %w", err)
	}
	return stories, total, nil
}

func (r *StoryRepository) Stats() (*StoryStats, error) {
	var row struct {
		TotalStories  int64
		OldestStory   *time.Time
		NewestStory   *time.Time
		AvgDescLength *float64
		AvgGherkinLen *float64
	}
	statsSQL := `SELECT
		COUNT(*) AS total_stories,
		MIN(created_at) AS oldest_story,
		MAX(created_at) AS newest_story,
		AVG(LENGTH(feature_description)) AS avg_desc_length,
		AVG(LENGTH(gherkin_output)) AS avg_gherkin_len
	FROM user_stories`
	if err := r.db.Raw(statsSQL).Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("story stats failed: %w", err)
	}

	stats := &StoryStats{
		TotalStories: row.TotalStories,
		OldestStory:  row.OldestStory,
		NewestStory:  row.NewestStory,
	}
	if row.AvgDescLength != nil {
		stats.AvgDescriptionLength = *row.AvgDescLength
	}
	if row.AvgGherkinLen != nil {
		stats.AvgGherkinLength = *row.AvgGherkinLen
	}
	return stats, nil
}

// quoteFTS wraps each token in double quotes so caller text is always
// a valid FTS5 query. Operators and stray quotes become plain phrases
// instead of syntax errors.
func quoteFTS(term string) string {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return `""`
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}
