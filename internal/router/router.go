package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forkful/backend/internal/api"
	"github.com/forkful/backend/internal/database"
	"github.com/forkful/backend/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(
	authHandler *api.AuthHandler,
	recipeHandler *api.RecipeHandler,
	aiHandler *api.AIHandler,
	healthDB *database.DB,
	allowedOrigins []string,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS(allowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		if healthDB != nil {
			if err := healthDB.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1)
	recipeHandler.RegisterRoutes(v1)
	if aiHandler != nil {
		aiHandler.RegisterRoutes(v1)
	}

	return router
}
