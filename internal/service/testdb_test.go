package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/forkful/backend/internal/database"
	"github.com/forkful/backend/internal/model"
)

// setupTestDB opens a per-test in-memory sqlite database with the schema
// migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()

	user := model.User{
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", strings.ToLower(name)),
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestRecipe(t *testing.T, db *gorm.DB, owner *model.User) *model.Recipe {
	t.Helper()

	recipe := model.Recipe{
		Title:        "Tomato Soup",
		Description:  "A simple tomato soup",
		Instructions: "Simmer the tomatoes, then blend.",
		Category:     "Soup",
		Ingredients:  model.JSONBStringArray{"tomatoes", "onion", "stock"},
		Tags:         model.JSONBStringArray{"comfort"},
		UserID:       owner.ID,
	}
	require.NoError(t, db.Create(&recipe).Error)
	return &recipe
}
