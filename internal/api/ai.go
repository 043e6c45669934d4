package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forkful/backend/internal/middleware"
	"github.com/forkful/backend/internal/service"
)

// AIHandler exposes the thin chat-completion wrappers.
type AIHandler struct {
	aiService     service.IAIService
	recipeService service.IRecipeService
	authService   middleware.TokenValidator
	rateLimiter   *middleware.RateLimiter
}

func NewAIHandler(aiService service.IAIService, recipeService service.IRecipeService, authService middleware.TokenValidator, rateLimiter *middleware.RateLimiter) *AIHandler {
	return &AIHandler{
		aiService:     aiService,
		recipeService: recipeService,
		authService:   authService,
		rateLimiter:   rateLimiter,
	}
}

func (h *AIHandler) RegisterRoutes(router *gin.RouterGroup) {
	ai := router.Group("/ai")
	ai.Use(middleware.AuthMiddleware(h.authService))
	if h.rateLimiter != nil {
		ai.Use(h.rateLimiter.RateLimitMiddleware())
	}
	{
		ai.POST("/generate-recipe", h.GenerateRecipe)
		ai.POST("/auto-tag", h.AutoTag)
		ai.POST("/grocery-list", h.GroceryList)
	}
}

func (h *AIHandler) GenerateRecipe(c *gin.Context) {
	var req struct {
		Ingredients []string `json:"ingredients"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Ingredients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ingredients are required"})
		return
	}

	recipe, err := h.aiService.GenerateRecipe(c.Request.Context(), req.Ingredients)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate recipe: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *AIHandler) AutoTag(c *gin.Context) {
	var req struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Description is required"})
		return
	}

	tags, err := h.aiService.AutoTag(c.Request.Context(), req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to suggest tags: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// GroceryList consolidates the ingredients of the caller's favorite
// recipes into a shopping list.
func (h *AIHandler) GroceryList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	recipes, err := h.recipeService.GetFavoriteRecipes(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
		return
	}
	if len(recipes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No favorite recipes to build a list from"})
		return
	}

	seen := make(map[string]bool)
	var ingredients []string
	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			if !seen[ing] {
				seen[ing] = true
				ingredients = append(ingredients, ing)
			}
		}
	}

	list, err := h.aiService.GroceryList(c.Request.Context(), ingredients)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate grocery list: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"grocery_list": list})
}
