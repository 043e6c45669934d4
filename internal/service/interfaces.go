package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/forkful/backend/internal/model"
	"github.com/forkful/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, name, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	GetOrCreateByExternalID(ctx context.Context, externalID, name, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*model.User, error)
	GenerateToken(claims *types.TokenClaims) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, userID uuid.UUID, recipe *model.Recipe) (*model.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error)
	ListRecipes(ctx context.Context, opts ListOptions) ([]*model.Recipe, int64, error)
	TopRecipes(ctx context.Context, limit int) ([]*model.Recipe, error)
	ListUserRecipes(ctx context.Context, userID uuid.UUID) ([]*model.Recipe, error)
	UpdateRecipe(ctx context.Context, id, actorID uuid.UUID, updates *model.Recipe) (*model.Recipe, error)
	DeleteRecipe(ctx context.Context, id, actorID uuid.UUID) error
	Rate(ctx context.Context, recipeID, userID uuid.UUID, stars int) (*RecipeMetrics, error)
	Comment(ctx context.Context, recipeID, userID uuid.UUID, body string, stars *int) (*model.Comment, error)
	ToggleLike(ctx context.Context, recipeID, userID uuid.UUID) (*LikeStatus, error)
	ToggleFavorite(ctx context.Context, userID, recipeID uuid.UUID) (*FavoriteStatus, error)
	GetFavoriteRecipes(ctx context.Context, userID uuid.UUID) ([]*model.Recipe, error)
	FavoriteRecipeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	LikeCount(ctx context.Context, recipeID uuid.UUID) (int64, error)
}

// IAIService defines the interface for the chat completion wrappers
type IAIService interface {
	GenerateRecipe(ctx context.Context, ingredients []string) (string, error)
	AutoTag(ctx context.Context, description string) ([]string, error)
	GroceryList(ctx context.Context, ingredients []string) (string, error)
}

// IImageService defines the interface for image storage
type IImageService interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}
