package api

import (
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forkful/backend/internal/middleware"
	"github.com/forkful/backend/internal/model"
	"github.com/forkful/backend/internal/service"
)

// maxImageSize caps the in-memory multipart buffer for uploads.
const maxImageSize = 5 << 20 // 5 MB

type RecipeHandler struct {
	recipeService service.IRecipeService
	imageService  service.IImageService
	authService   middleware.TokenValidator
}

func NewRecipeHandler(recipeService service.IRecipeService, imageService service.IImageService, authService middleware.TokenValidator) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		imageService:  imageService,
		authService:   authService,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/top", h.TopRecipes)
		recipes.GET("/:id", h.GetRecipe)

		auth := middleware.AuthMiddleware(h.authService)
		recipes.GET("/favorites", auth, h.FavoriteRecipes)
		recipes.GET("/my-recipes", auth, h.MyRecipes)
		recipes.POST("", auth, h.CreateRecipe)
		recipes.PUT("/:id", auth, h.UpdateRecipe)
		recipes.DELETE("/:id", auth, h.DeleteRecipe)
		recipes.POST("/:id/rate", auth, h.RateRecipe)
		recipes.POST("/:id/comments", auth, h.CommentRecipe)
		recipes.POST("/:id/like", auth, h.ToggleLike)
		recipes.POST("/:id/favorite", auth, h.ToggleFavorite)
		recipes.POST("/upload", auth, h.UploadImage)
	}
}

// currentUserID pulls the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return uuid.Nil, false
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return uuid.Nil, false
	}
	return userID, true
}

func recipeIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	recipes, count, err := h.recipeService.ListRecipes(c.Request.Context(), service.ListOptions{
		Keyword:  c.Query("keyword"),
		Category: c.Query("category"),
		Page:     page,
		PageSize: 10,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}

	pages := count / 10
	if count%10 != 0 {
		pages++
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes": recipes,
		"page":    page,
		"pages":   pages,
	})
}

func (h *RecipeHandler) TopRecipes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	recipes, err := h.recipeService.TopRecipes(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := recipeIDParam(c)
	if !ok {
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	likeCount, err := h.recipeService.LikeCount(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipe":       recipe,
		"num_likes":    likeCount,
		"num_comments": len(recipe.Comments),
	})
}

func (h *RecipeHandler) MyRecipes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	recipes, err := h.recipeService.ListUserRecipes(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) FavoriteRecipes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	recipes, err := h.recipeService.GetFavoriteRecipes(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Title == "" || req.Description == "" || len(req.Ingredients) == 0 || req.Instructions == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill all required fields"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	recipe := &model.Recipe{
		Title:        req.Title,
		Description:  req.Description,
		Instructions: req.Instructions,
		Category:     req.Category,
		ImageURL:     req.ImageURL,
		Ingredients:  req.Ingredients,
		Tags:         req.Tags,
	}

	created, err := h.recipeService.CreateRecipe(c.Request.Context(), userID, recipe)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create recipe"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recipe": created})
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := recipeIDParam(c)
	if !ok {
		return
	}

	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	updates := &model.Recipe{
		Title:        req.Title,
		Description:  req.Description,
		Instructions: req.Instructions,
		Category:     req.Category,
		ImageURL:     req.ImageURL,
		Ingredients:  req.Ingredients,
		Tags:         req.Tags,
	}

	updated, err := h.recipeService.UpdateRecipe(c.Request.Context(), id, userID, updates)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": updated})
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := recipeIDParam(c)
	if !ok {
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.recipeService.DeleteRecipe(c.Request.Context(), id, userID); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recipe removed"})
}

func (h *RecipeHandler) RateRecipe(c *gin.Context) {
	id, ok := recipeIDParam(c)
	if !ok {
		return
	}

	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	metrics, err := h.recipeService.Rate(c.Request.Context(), id, userID, req.Stars)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, metrics)
}

func (h *RecipeHandler) CommentRecipe(c *gin.Context) {
	id, ok := recipeIDParam(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	comment, err := h.recipeService.Comment(c.Request.Context(), id, userID, req.Text, req.Stars)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (h *RecipeHandler) ToggleLike(c *gin.Context) {
	id, ok := recipeIDParam(c)
	if !ok {
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, err := h.recipeService.ToggleLike(c.Request.Context(), id, userID)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *RecipeHandler) ToggleFavorite(c *gin.Context) {
	id, ok := recipeIDParam(c)
	if !ok {
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, err := h.recipeService.ToggleFavorite(c.Request.Context(), userID, id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *RecipeHandler) UploadImage(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	// nil when object storage could not be configured at startup
	if h.imageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not available"})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image exceeds the 5MB size limit"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only image uploads are allowed"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read image"})
		return
	}

	imageURL, err := h.imageService.Upload(c.Request.Context(), data, contentType)
	if err != nil {
		log.Printf("[RecipeHandler] image upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Image upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"image_url": imageURL})
}
