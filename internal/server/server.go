package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forkful/backend/config"
	"github.com/forkful/backend/internal/api"
	"github.com/forkful/backend/internal/database"
	"github.com/forkful/backend/internal/middleware"
	"github.com/forkful/backend/internal/router"
	"github.com/forkful/backend/internal/service"
)

// Server wires the stores, services and HTTP surface together.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	db     *database.DB
}

// New builds a fully wired server. Any store that cannot be reached makes
// this fail; the process must exit rather than serve requests against a
// disconnected store.
func New(cfg *config.Config) (*Server, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	gormDB, err := database.OpenGorm(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(gormDB); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	authService := service.NewAuthService(gormDB, cfg.JWTSecret)
	recipeService := service.NewRecipeService(gormDB)

	var imageService service.IImageService
	if s3Config, err := config.NewS3Config(context.Background()); err != nil {
		log.Printf("S3 unavailable, image uploads disabled: %v", err)
	} else {
		imageService = service.NewImageService(s3Config)
	}

	authHandler := api.NewAuthHandler(authService, recipeService)
	recipeHandler := api.NewRecipeHandler(recipeService, imageService, authService)

	var aiHandler *api.AIHandler
	if aiService, err := service.NewAIService(redisClient); err != nil {
		log.Printf("AI service unavailable, AI routes disabled: %v", err)
	} else {
		aiHandler = api.NewAIHandler(aiService, recipeService, authService, middleware.NewAIRateLimiter(redisClient))
	}

	engine := router.SetupRouter(authHandler, recipeHandler, aiHandler, db, cfg.AllowedOrigins)

	return &Server{
		engine: engine,
		db:     db,
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: engine,
		},
	}, nil
}

// Start starts the server
func (s *Server) Start() error {
	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and closes the store
// connection.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	return s.db.Close()
}
