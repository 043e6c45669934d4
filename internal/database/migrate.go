package database

import (
	"gorm.io/gorm"

	"github.com/forkful/backend/internal/model"
)

// Migrate applies the GORM auto-migration for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Recipe{},
		&model.Rating{},
		&model.Comment{},
		&model.RecipeLike{},
		&model.RecipeFavorite{},
	)
}
