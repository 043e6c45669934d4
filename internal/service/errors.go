package service

import "errors"

// Error taxonomy surfaced to the handlers. Handlers map these to HTTP
// statuses; anything unwrapped is an upstream failure (500).
var (
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrForbidden      = errors.New("not authorized to modify this recipe")
	ErrInvalidStars   = errors.New("stars must be between 1 and 5")
	ErrEmptyComment   = errors.New("comment text is required")
)
