package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

type Recipe struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
	Title        string           `gorm:"size:255;not null" json:"title"`
	Description  string           `gorm:"type:text" json:"description"`
	Instructions string           `gorm:"type:text" json:"instructions"`
	Category     string           `gorm:"size:50" json:"category"`
	ImageURL     string           `gorm:"size:255" json:"image_url"`
	Ingredients  JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Tags         JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`

	// Derived summary fields, recomputed from the child collections on
	// every social mutation. Never written independently.
	AverageRating float64 `gorm:"type:float;not null;default:0" json:"average_rating"`
	NumReviews    int     `gorm:"not null;default:0" json:"num_reviews"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Ratings  []Rating  `gorm:"foreignKey:RecipeID" json:"ratings,omitempty"`
	Comments []Comment `gorm:"foreignKey:RecipeID" json:"comments,omitempty"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Rating is one user's star value for a recipe. The unique index keeps at
// most one row per (recipe, user); re-rating updates the row in place.
type Rating struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_user_rating" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_user_rating" json:"user_id"`
	Stars     int       `gorm:"not null;check:stars >= 1 AND stars <= 5" json:"stars"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Comment is append-only; a user may comment on the same recipe any number
// of times. Stars here are decoration on the comment and do not feed the
// rating average.
type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Stars     *int      `gorm:"check:stars IS NULL OR (stars >= 1 AND stars <= 5)" json:"stars,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// RecipeLike records set membership: a row exists iff the user currently
// likes the recipe.
type RecipeLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_user_like" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_user_like" json:"user_id"`
}

func (RecipeLike) TableName() string {
	return "recipe_likes"
}

func (l *RecipeLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
