package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New(ctx context.Context, dsn, file string) (*gorm.DB, error) {
	if dir := filepath.Dir(file); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory failed: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sqlite sql db failed: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// churn under concurrent requests.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping sqlite failed: %w", err)
	}

	return db, nil
}

// MigrateFTS creates the FTS5 index over user_stories and the triggers
// that keep it in sync. Idempotent.
func MigrateFTS(db *gorm.DB) error {
	statements := []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS user_stories_fts USING fts5(
			title,
			feature_description,
			gherkin_output,
			content='user_stories',
			content_rowid='id'
		)`,
		`CREATE TRIGGER IF NOT EXISTS user_stories_fts_insert AFTER INSERT ON user_stories BEGIN
			INSERT INTO user_stories_fts(rowid, title, feature_description, gherkin_output)
			VALUES (new.id, new.title, new.feature_description, new.gherkin_output);
		END`,
		`CREATE TRIGGER IF NOT EXISTS user_stories_fts_delete AFTER DELETE ON user_stories BEGIN
			INSERT INTO user_stories_fts(user_stories_fts, rowid, title, feature_description, gherkin_output)
			VALUES ('delete', old.id, old.title, old.feature_description, old.gherkin_output);
		END`,
		`CREATE TRIGGER IF NOT EXISTS user_stories_fts_update AFTER UPDATE ON user_stories BEGIN
			INSERT INTO user_stories_fts(user_stories_fts, rowid, title, feature_description, gherkin_output)
			VALUES ('delete', old.id, old.title, old.feature_description, old.gherkin_output);
			INSERT INTO user_stories_fts(rowid, title, feature_description, gherkin_output)
			VALUES (new.id, new.title, new.feature_description, new.gherkin_output);
		END`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("fts migration failed: %w", err)
		}
	}
	return nil
}
