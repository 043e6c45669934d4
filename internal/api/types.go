package api

import (
	"errors"
	"net/http"

	"github.com/forkful/backend/internal/service"
)

// CreateRecipeRequest is the body for creating and updating recipes.
type CreateRecipeRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Instructions string   `json:"instructions"`
	Category     string   `json:"category"`
	ImageURL     string   `json:"image_url"`
	Ingredients  []string `json:"ingredients"`
	Tags         []string `json:"tags"`
}

// RateRequest is the body for rating a recipe.
type RateRequest struct {
	Stars int `json:"stars" binding:"required"`
}

// CommentRequest is the body for commenting on a recipe.
type CommentRequest struct {
	Text  string `json:"text" binding:"required"`
	Stars *int   `json:"stars"`
}

// statusFromError maps service errors onto the HTTP taxonomy: not-found,
// forbidden, validation, upstream-failure.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, service.ErrRecipeNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidStars),
		errors.Is(err, service.ErrEmptyComment),
		errors.Is(err, service.ErrUserExists):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
