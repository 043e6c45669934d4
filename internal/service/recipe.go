package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forkful/backend/internal/model"
)

// RecipeService handles recipe CRUD and the social mutations that feed the
// derived summary fields.
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// CanMutateCore reports whether the actor may change a recipe's core fields
// or delete it. Only the owning user may.
func CanMutateCore(actorID uuid.UUID, recipe *model.Recipe) bool {
	return actorID != uuid.Nil && actorID == recipe.UserID
}

// CanMutateSocial reports whether the actor may rate, comment, like or
// favorite. Any authenticated user may, including the owner.
func CanMutateSocial(actorID uuid.UUID) bool {
	return actorID != uuid.Nil
}

// LikeStatus is returned from ToggleLike so the caller need not re-query.
type LikeStatus struct {
	LikeCount int64 `json:"like_count"`
	Liked     bool  `json:"liked"`
}

// FavoriteStatus is returned from ToggleFavorite.
type FavoriteStatus struct {
	Favorited bool `json:"favorited"`
}

// ListOptions filters and pages the recipe listing.
type ListOptions struct {
	Keyword  string
	Category string
	Page     int
	PageSize int
}

// CreateRecipe creates a new recipe owned by userID
func (s *RecipeService) CreateRecipe(ctx context.Context, userID uuid.UUID, recipe *model.Recipe) (*model.Recipe, error) {
	recipe.UserID = userID
	if err := s.db.Create(recipe).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

// GetRecipe retrieves a recipe by ID with its ratings and comments, plus
// the like and comment counts.
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	err := s.db.Preload("Ratings").Preload("Comments").First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes lists recipes matching the options, newest first. Returns the
// matching page and the total match count for pagination.
func (s *RecipeService) ListRecipes(ctx context.Context, opts ListOptions) ([]*model.Recipe, int64, error) {
	query := s.db.Model(&model.Recipe{})

	if opts.Keyword != "" {
		like := "%" + strings.ToLower(opts.Keyword) + "%"
		if s.db.Dialector.Name() == "postgres" {
			query = query.Where("LOWER(title) LIKE ? OR LOWER(ingredients::text) LIKE ?", like, like)
		} else {
			query = query.Where("LOWER(title) LIKE ? OR LOWER(ingredients) LIKE ?", like, like)
		}
	}
	if opts.Category != "" {
		query = query.Where("category = ?", opts.Category)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	var recipes []model.Recipe
	err := query.Order("created_at DESC").
		Limit(pageSize).
		Offset(pageSize * (page - 1)).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}

	result := make([]*model.Recipe, len(recipes))
	for i := range recipes {
		result[i] = &recipes[i]
	}
	return result, count, nil
}

// TopRecipes lists the highest-rated recipes.
func (s *RecipeService) TopRecipes(ctx context.Context, limit int) ([]*model.Recipe, error) {
	if limit < 1 {
		limit = 10
	}
	var recipes []model.Recipe
	err := s.db.Order("average_rating DESC, num_reviews DESC").Limit(limit).Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	result := make([]*model.Recipe, len(recipes))
	for i := range recipes {
		result[i] = &recipes[i]
	}
	return result, nil
}

// ListUserRecipes lists the recipes owned by userID.
func (s *RecipeService) ListUserRecipes(ctx context.Context, userID uuid.UUID) ([]*model.Recipe, error) {
	var recipes []model.Recipe
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	result := make([]*model.Recipe, len(recipes))
	for i := range recipes {
		result[i] = &recipes[i]
	}
	return result, nil
}

// UpdateRecipe updates a recipe's core fields. Only the owner may; zero
// fields in the update are left unchanged.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id, actorID uuid.UUID, updates *model.Recipe) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	if !CanMutateCore(actorID, &recipe) {
		return nil, ErrForbidden
	}

	if err := s.db.Model(&recipe).Updates(map[string]interface{}{
		"title":        orKeep(updates.Title, recipe.Title),
		"description":  orKeep(updates.Description, recipe.Description),
		"instructions": orKeep(updates.Instructions, recipe.Instructions),
		"category":     orKeep(updates.Category, recipe.Category),
		"image_url":    orKeep(updates.ImageURL, recipe.ImageURL),
		"ingredients":  orKeepList(updates.Ingredients, recipe.Ingredients),
		"tags":         orKeepList(updates.Tags, recipe.Tags),
	}).Error; err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, id)
}

func orKeep(next, current string) string {
	if next == "" {
		return current
	}
	return next
}

func orKeepList(next, current model.JSONBStringArray) model.JSONBStringArray {
	if next == nil {
		return current
	}
	return next
}

// DeleteRecipe deletes a recipe and all rows that reference it. Only the
// owner may. Favorites and likes are removed in the same transaction so no
// dangling references survive.
func (s *RecipeService) DeleteRecipe(ctx context.Context, id, actorID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var recipe model.Recipe
		if err := tx.First(&recipe, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return err
		}

		if !CanMutateCore(actorID, &recipe) {
			return ErrForbidden
		}

		for _, m := range []interface{}{
			&model.Rating{}, &model.Comment{}, &model.RecipeLike{}, &model.RecipeFavorite{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&model.Recipe{}, "id = ?", id).Error
	})
}

// Rate records userID's star value for a recipe. A second rating from the
// same user replaces the first in place. The derived fields are recomputed
// in the same transaction and returned fresh.
func (s *RecipeService) Rate(ctx context.Context, recipeID, userID uuid.UUID, stars int) (*RecipeMetrics, error) {
	if !CanMutateSocial(userID) {
		return nil, ErrForbidden
	}
	if stars < 1 || stars > 5 {
		return nil, ErrInvalidStars
	}

	var metrics RecipeMetrics
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var recipe model.Recipe
		if err := tx.First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return err
		}

		var rating model.Rating
		err := tx.Where("recipe_id = ? AND user_id = ?", recipeID, userID).First(&rating).Error
		switch {
		case err == nil:
			if err := tx.Model(&rating).Update("stars", stars).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			rating = model.Rating{RecipeID: recipeID, UserID: userID, Stars: stars}
			if err := tx.Create(&rating).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return s.refreshMetrics(tx, recipeID, &metrics)
	})
	if err != nil {
		return nil, err
	}
	return &metrics, nil
}

// refreshMetrics recomputes the derived fields from the ratings collection
// and writes them onto the recipe row. Must run inside the transaction that
// mutated the collection.
func (s *RecipeService) refreshMetrics(tx *gorm.DB, recipeID uuid.UUID, out *RecipeMetrics) error {
	var ratings []model.Rating
	if err := tx.Where("recipe_id = ?", recipeID).Find(&ratings).Error; err != nil {
		return err
	}

	m := ComputeMetrics(ratings)
	if err := tx.Model(&model.Recipe{}).Where("id = ?", recipeID).Updates(map[string]interface{}{
		"average_rating": m.AverageRating,
		"num_reviews":    m.NumReviews,
	}).Error; err != nil {
		return err
	}

	*out = m
	return nil
}

// Comment appends a comment to a recipe. Comments are append-only and a
// user may comment any number of times. The optional star value does not
// change the recipe's average rating.
func (s *RecipeService) Comment(ctx context.Context, recipeID, userID uuid.UUID, body string, stars *int) (*model.Comment, error) {
	if !CanMutateSocial(userID) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyComment
	}
	if stars != nil && (*stars < 1 || *stars > 5) {
		return nil, ErrInvalidStars
	}

	comment := model.Comment{
		RecipeID: recipeID,
		UserID:   userID,
		Body:     body,
		Stars:    stars,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var recipe model.Recipe
		if err := tx.First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return err
		}
		return tx.Create(&comment).Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ToggleLike flips userID's like membership on a recipe and returns the
// resulting membership and cardinality.
func (s *RecipeService) ToggleLike(ctx context.Context, recipeID, userID uuid.UUID) (*LikeStatus, error) {
	if !CanMutateSocial(userID) {
		return nil, ErrForbidden
	}

	var status LikeStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var recipe model.Recipe
		if err := tx.First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return err
		}

		var like model.RecipeLike
		err := tx.Where("recipe_id = ? AND user_id = ?", recipeID, userID).First(&like).Error
		switch {
		case err == nil:
			if err := tx.Delete(&like).Error; err != nil {
				return err
			}
			status.Liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			like = model.RecipeLike{RecipeID: recipeID, UserID: userID}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			status.Liked = true
		default:
			return err
		}

		return tx.Model(&model.RecipeLike{}).Where("recipe_id = ?", recipeID).Count(&status.LikeCount).Error
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// ToggleFavorite flips recipeID's membership in userID's favorites set.
// Both the user and the recipe must exist.
func (s *RecipeService) ToggleFavorite(ctx context.Context, userID, recipeID uuid.UUID) (*FavoriteStatus, error) {
	if !CanMutateSocial(userID) {
		return nil, ErrForbidden
	}

	var status FavoriteStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var recipe model.Recipe
		if err := tx.First(&recipe, "id = ?", recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return err
		}

		var fav model.RecipeFavorite
		err := tx.Where("recipe_id = ? AND user_id = ?", recipeID, userID).First(&fav).Error
		switch {
		case err == nil:
			if err := tx.Delete(&fav).Error; err != nil {
				return err
			}
			status.Favorited = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			fav = model.RecipeFavorite{RecipeID: recipeID, UserID: userID}
			if err := tx.Create(&fav).Error; err != nil {
				return err
			}
			status.Favorited = true
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// GetFavoriteRecipes lists the recipes userID has favorited.
func (s *RecipeService) GetFavoriteRecipes(ctx context.Context, userID uuid.UUID) ([]*model.Recipe, error) {
	var recipes []model.Recipe
	err := s.db.
		Joins("JOIN recipe_favorites ON recipe_favorites.recipe_id = recipes.id").
		Where("recipe_favorites.user_id = ?", userID).
		Order("recipe_favorites.created_at DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	result := make([]*model.Recipe, len(recipes))
	for i := range recipes {
		result[i] = &recipes[i]
	}
	return result, nil
}

// FavoriteRecipeIDs returns the ids of the recipes userID has favorited,
// for the profile response.
func (s *RecipeService) FavoriteRecipeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&model.RecipeFavorite{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// LikeCount returns the like cardinality for a recipe.
func (s *RecipeService) LikeCount(ctx context.Context, recipeID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&model.RecipeLike{}).Where("recipe_id = ?", recipeID).Count(&count).Error
	return count, err
}
