package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeFavorite is the source of truth for the favorites relation. The
// user-side favorites list is always derived by querying this table, never
// stored on the user row.
type RecipeFavorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_user_favorite" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_user_favorite" json:"user_id"`
}

func (RecipeFavorite) TableName() string {
	return "recipe_favorites"
}

func (f *RecipeFavorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
