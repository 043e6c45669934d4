package service

import "github.com/forkful/backend/internal/model"

// RecipeMetrics holds the derived summary fields of a recipe.
type RecipeMetrics struct {
	AverageRating float64 `json:"average_rating"`
	NumReviews    int     `json:"num_reviews"`
}

// ComputeMetrics derives the summary fields from the ratings collection.
// It is a pure function: the stored average_rating and num_reviews columns
// must always equal its output for the recipe's current ratings.
//
// NumReviews counts ratings, not comments. Comments carry an optional star
// value but never feed the average.
func ComputeMetrics(ratings []model.Rating) RecipeMetrics {
	if len(ratings) == 0 {
		return RecipeMetrics{AverageRating: 0, NumReviews: 0}
	}

	total := 0
	for _, r := range ratings {
		total += r.Stars
	}

	return RecipeMetrics{
		AverageRating: float64(total) / float64(len(ratings)),
		NumReviews:    len(ratings),
	}
}
